package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
	"github.com/PaulBabatuyi/social-marketplace/internal/auth"
	"github.com/PaulBabatuyi/social-marketplace/internal/data"
	"github.com/PaulBabatuyi/social-marketplace/internal/middleware"
	"github.com/PaulBabatuyi/social-marketplace/internal/query"
)

const apiVersion = "0.1.0"

// The store interfaces list what handlers need from internal/data so tests
// can substitute in-memory fakes.

type userStore interface {
	Create(ctx context.Context, u *data.User) error
	GetByEmail(ctx context.Context, email string) (*data.User, error)
	GetByID(ctx context.Context, id bson.ObjectID) (*data.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, u *data.User) error
	SetPassword(ctx context.Context, id bson.ObjectID, hash string, at time.Time) error
}

type itemStore interface {
	Create(ctx context.Context, it *data.Item) error
	GetByID(ctx context.Context, id bson.ObjectID) (*data.Item, error)
	List(ctx context.Context, plan query.Plan) ([]*data.Item, int64, error)
	Update(ctx context.Context, it *data.Item) error
	Deactivate(ctx context.Context, id bson.ObjectID, at time.Time) error
}

type ratingStore interface {
	Upsert(ctx context.Context, r *data.Rating) (*data.Rating, error)
	ListFor(ctx context.Context, userID string) ([]*data.Rating, error)
}

type conversationStore interface {
	GetOrCreate(ctx context.Context, a, b string, now time.Time) (*data.Conversation, bool, error)
	GetByID(ctx context.Context, id bson.ObjectID) (*data.Conversation, error)
	ListFor(ctx context.Context, userID string) ([]*data.Conversation, error)
	Touch(ctx context.Context, id bson.ObjectID, lastMessage string, at time.Time) error
	Delete(ctx context.Context, id bson.ObjectID) error
}

type messageStore interface {
	Create(ctx context.Context, m *data.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]*data.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int64, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

type categoryStore interface {
	List(ctx context.Context) ([]*data.ForumCategory, error)
	GetByID(ctx context.Context, id bson.ObjectID) (*data.ForumCategory, error)
	Create(ctx context.Context, c *data.ForumCategory) error
}

type threadStore interface {
	Create(ctx context.Context, t *data.ForumThread) error
	GetByID(ctx context.Context, id bson.ObjectID) (*data.ForumThread, error)
	List(ctx context.Context, plan query.Plan) ([]*data.ForumThread, int64, error)
	RecordPost(ctx context.Context, id bson.ObjectID, at time.Time) error
	SetLocked(ctx context.Context, id bson.ObjectID, locked bool) error
	SetPinned(ctx context.Context, id bson.ObjectID, pinned bool) error
	Delete(ctx context.Context, id bson.ObjectID) error
}

type postStore interface {
	Create(ctx context.Context, p *data.ForumPost) error
	ListByThread(ctx context.Context, threadID string) ([]*data.ForumPost, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// stores groups one store per collection.
type stores struct {
	users         userStore
	items         itemStore
	ratings       ratingStore
	conversations conversationStore
	messages      messageStore
	categories    categoryStore
	threads       threadStore
	posts         postStore
}

// serverOptions carries the HTTP settings taken from configuration.
type serverOptions struct {
	corsOrigins    []string
	requestTimeout time.Duration
}

// Server holds the stores and auth logic every handler uses.
type Server struct {
	stores
	auth    *auth.JWTManager
	db      pinger
	limiter *middleware.LimiterStore
	opts    serverOptions

	// now is replaced in tests for deterministic timestamps.
	now func() time.Time
}

// newServer returns a ready-to-use Server wired with stores and auth manager.
func newServer(st stores, db pinger, authMgr *auth.JWTManager, limiter *middleware.LimiterStore, opts serverOptions) *Server {
	if opts.requestTimeout <= 0 {
		opts.requestTimeout = 30 * time.Second
	}
	if len(opts.corsOrigins) == 0 {
		opts.corsOrigins = []string{"*"}
	}
	return &Server{
		stores:  st,
		auth:    authMgr,
		db:      db,
		limiter: limiter,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// routes builds the HTTP router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.opts.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(s.handle(func(w http.ResponseWriter, r *http.Request) error {
		return apperr.NotFound("route not found")
	}))
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Kind: "method_not_allowed", Detail: "method not allowed"})
	})

	r.Get("/", s.handle(s.root))
	r.Get("/health", s.handle(s.health))

	authn := s.authenticate
	limitByIP := middleware.RateLimit(s.limiter, middleware.KeyByIP, s.rateLimited)
	limitByAccount := middleware.RateLimit(s.limiter, middleware.KeyByFormUsername, s.rateLimited)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limitByIP).Post("/register", s.handle(s.register))
			r.With(limitByAccount).Post("/login", s.handle(s.login))
			r.With(authn).Get("/me", s.handle(s.me))
			r.With(authn).Put("/me", s.handle(s.updateMe))
			r.With(authn).Post("/change-password", s.handle(s.changePassword))
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", s.handle(s.userProfile))
			r.Get("/ratings", s.handle(s.userRatings))
			r.With(authn).Post("/ratings", s.handle(s.rateUser))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handle(s.listItems))
			r.With(authn).Post("/", s.handle(s.createItem))
			r.Get("/{itemID}", s.handle(s.getItem))
			r.With(authn).Put("/{itemID}", s.handle(s.updateItem))
			r.With(authn).Delete("/{itemID}", s.handle(s.deleteItem))
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Use(authn)
			r.Post("/", s.handle(s.startConversation))
			r.Get("/", s.handle(s.listConversations))
			r.Get("/{conversationID}", s.handle(s.getConversation))
			r.Post("/{conversationID}/messages", s.handle(s.sendMessage))
			r.Put("/{conversationID}/read", s.handle(s.markConversationRead))
		})

		r.Route("/forum", func(r chi.Router) {
			r.Get("/categories", s.handle(s.listCategories))
			r.With(authn).Post("/categories", s.handle(s.createCategory))
			r.Get("/threads", s.handle(s.listThreads))
			r.With(authn).Post("/threads", s.handle(s.createThread))
			r.Get("/threads/{threadID}", s.handle(s.getThread))
			r.With(authn).Post("/threads/{threadID}/posts", s.handle(s.createPost))
			r.With(authn).Put("/threads/{threadID}/lock", s.handle(s.lockThread))
			r.With(authn).Put("/threads/{threadID}/pin", s.handle(s.pinThread))
		})
	})

	return r
}
