package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
	"github.com/PaulBabatuyi/social-marketplace/internal/data"
	"github.com/PaulBabatuyi/social-marketplace/internal/normalize"
	"github.com/PaulBabatuyi/social-marketplace/internal/query"
)

var (
	threadSorts = query.SortConfig{
		Default: "-updated_at",
		Allowed: []string{"created_at", "updated_at", "post_count", "title"},
	}
	threadPageSizes = query.PageSizeConfig{Param: "page_size", Default: 20, Min: 5, Max: 50}
)

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"required,min=10,max=200"`
	Order       int    `json:"order" validate:"gte=1"`
}

type createThreadRequest struct {
	Title      string `json:"title" validate:"required,min=5,max=100"`
	Content    string `json:"content" validate:"required,min=10,max=5000"`
	CategoryID string `json:"category_id" validate:"required"`
}

type createPostRequest struct {
	Content string `json:"content" validate:"required,min=10,max=5000"`
}

type lockRequest struct {
	IsLocked *bool `json:"is_locked" validate:"required"`
}

type pinRequest struct {
	IsPinned *bool `json:"is_pinned" validate:"required"`
}

// requireAdmin fails with Forbidden unless the caller is an administrator.
func (s *Server) requireAdmin(r *http.Request, caller string) error {
	oid, err := bson.ObjectIDFromHex(caller)
	if err != nil {
		return apperr.Forbidden("administrator rights required")
	}
	user, err := s.users.GetByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return apperr.Forbidden("administrator rights required")
		}
		return err
	}
	if !user.IsAdmin {
		return apperr.Forbidden("administrator rights required")
	}
	return nil
}

// threadOr404 parses the thread path id and fetches the thread.
func (s *Server) threadOr404(r *http.Request) (*data.ForumThread, error) {
	id, err := pathID(r, "threadID", "thread")
	if err != nil {
		return nil, err
	}
	t, err := s.threads.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, apperr.NotFound("thread not found")
		}
		return nil, err
	}
	return t, nil
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) error {
	cats, err := s.categories.List(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: cats})
	return nil
}

// createCategory adds a forum category. Administrators only.
func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(r, caller); err != nil {
		return err
	}
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	c := &data.ForumCategory{Name: req.Name, Description: req.Description, Order: req.Order}
	if err := s.categories.Create(r.Context(), c); err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, c)
	return nil
}

// createThread opens a thread together with its first post. If the post
// cannot be stored the thread is removed again.
func (s *Server) createThread(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	var req createThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	categoryID, err := bson.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		return apperr.BadRequest("invalid category id")
	}
	if _, err := s.categories.GetByID(r.Context(), categoryID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return apperr.NotFound("category not found")
		}
		return err
	}

	ctx := r.Context()
	now := s.now()
	thread := &data.ForumThread{
		Title:      req.Title,
		AuthorID:   caller,
		CategoryID: categoryID.Hex(),
		CreatedAt:  now,
		UpdatedAt:  now,
		PostCount:  1,
	}
	if err := s.threads.Create(ctx, thread); err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	post := &data.ForumPost{
		ThreadID:  thread.ID.Hex(),
		AuthorID:  caller,
		Content:   req.Content,
		CreatedAt: now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		compensate(ctx, "thread", thread.ID, s.threads.Delete)
		return fmt.Errorf("create first post: %w", err)
	}

	writeJSON(w, http.StatusCreated, newThreadWithPosts(thread, []*data.ForumPost{post}))
	return nil
}

// listThreads pages through threads, pinned ones first.
func (s *Server) listThreads(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	l := query.Listing{
		Equal:       bson.D{},
		Text:        normalize.Search(q.Get("search")),
		Sort:        q.Get("sort"),
		Sorts:       threadSorts,
		PinnedField: "is_pinned",
		PageSizes:   threadPageSizes,
	}
	if c := strings.TrimSpace(q.Get("category_id")); c != "" {
		e, err := query.IDEqual("category_id", c)
		if err != nil {
			return err
		}
		l.Equal = append(l.Equal, e)
	}

	var err error
	if l.Page, err = queryPositive(r, "page"); err != nil {
		return err
	}
	if l.PageSize, err = queryPositive(r, "page_size"); err != nil {
		return err
	}

	plan, err := l.Build()
	if err != nil {
		return err
	}
	threads, total, err := s.threads.List(r.Context(), plan)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, threadsPage{
		Threads:    threads,
		Total:      total,
		Page:       plan.Page,
		PageSize:   plan.PageSize,
		TotalPages: query.TotalPages(total, plan.PageSize),
	})
	return nil
}

// getThread returns a thread with all its posts, oldest first.
func (s *Server) getThread(w http.ResponseWriter, r *http.Request) error {
	thread, err := s.threadOr404(r)
	if err != nil {
		return err
	}
	posts, err := s.posts.ListByThread(r.Context(), thread.ID.Hex())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newThreadWithPosts(thread, posts))
	return nil
}

// createPost replies to a thread. Locked threads accept no posts from
// anyone.
func (s *Server) createPost(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	thread, err := s.threadOr404(r)
	if err != nil {
		return err
	}
	if thread.IsLocked {
		return apperr.Forbidden("this thread is locked and accepts no new posts")
	}
	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	ctx := r.Context()
	now := s.now()
	post := &data.ForumPost{
		ThreadID:  thread.ID.Hex(),
		AuthorID:  caller,
		Content:   req.Content,
		CreatedAt: now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	if err := s.threads.RecordPost(ctx, thread.ID, now); err != nil {
		compensate(ctx, "post", post.ID, s.posts.Delete)
		return fmt.Errorf("record post: %w", err)
	}
	writeJSON(w, http.StatusCreated, post)
	return nil
}

// moderatedThread runs the caller, path id, fetch and admin checks shared
// by lock and pin.
func (s *Server) moderatedThread(r *http.Request) (*data.ForumThread, error) {
	caller, err := requireCaller(r)
	if err != nil {
		return nil, err
	}
	thread, err := s.threadOr404(r)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(r, caller); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *Server) lockThread(w http.ResponseWriter, r *http.Request) error {
	thread, err := s.moderatedThread(r)
	if err != nil {
		return err
	}
	var req lockRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if *req.IsLocked != thread.IsLocked {
		if err := s.threads.SetLocked(r.Context(), thread.ID, *req.IsLocked); err != nil {
			return err
		}
		thread.IsLocked = *req.IsLocked
	}
	writeJSON(w, http.StatusOK, thread)
	return nil
}

func (s *Server) pinThread(w http.ResponseWriter, r *http.Request) error {
	thread, err := s.moderatedThread(r)
	if err != nil {
		return err
	}
	var req pinRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if *req.IsPinned != thread.IsPinned {
		if err := s.threads.SetPinned(r.Context(), thread.ID, *req.IsPinned); err != nil {
			return err
		}
		thread.IsPinned = *req.IsPinned
	}
	writeJSON(w, http.StatusOK, thread)
	return nil
}
