package main

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/data"
	"github.com/PaulBabatuyi/social-marketplace/internal/query"
)

var errInjected = errors.New("injected failure")

// fakeDB implements pinger.
type fakeDB struct{ err error }

func (f *fakeDB) Ping(context.Context) error { return f.err }

type fakeUsers struct {
	mu   sync.Mutex
	byID map[bson.ObjectID]data.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[bson.ObjectID]data.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *data.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return data.ErrDuplicate
		}
	}
	u.ID = bson.NewObjectID()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, data.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id bson.ObjectID) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *data.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byID[u.ID]
	if !ok {
		return data.ErrNotFound
	}
	cur.FullName, cur.PhoneNumber, cur.UpdatedAt = u.FullName, u.PhoneNumber, u.UpdatedAt
	f.byID[u.ID] = cur
	return nil
}

func (f *fakeUsers) SetPassword(_ context.Context, id bson.ObjectID, hash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byID[id]
	if !ok {
		return data.ErrNotFound
	}
	cur.HashedPassword, cur.UpdatedAt = hash, &at
	f.byID[id] = cur
	return nil
}

func (f *fakeUsers) put(u data.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
}

type fakeItems struct {
	mu    sync.Mutex
	items []data.Item
}

func (f *fakeItems) Create(_ context.Context, it *data.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it.ID = bson.NewObjectID()
	f.items = append(f.items, *it)
	return nil
}

func (f *fakeItems) GetByID(_ context.Context, id bson.ObjectID) (*data.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, data.ErrNotFound
}

// List evaluates the subset of filters and sorts the item handlers build.
func (f *fakeItems) List(_ context.Context, plan query.Plan) ([]*data.Item, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []data.Item
	for _, it := range f.items {
		if itemMatches(it, plan.Filter) {
			matched = append(matched, it)
		}
	}
	slices.SortStableFunc(matched, func(a, b data.Item) int {
		for _, e := range plan.Sort {
			dir := e.Value.(int)
			var c int
			switch e.Key {
			case "price":
				c = cmp.Compare(a.Price, b.Price)
			case "title":
				c = cmp.Compare(a.Title, b.Title)
			case "created_at":
				c = a.CreatedAt.Compare(b.CreatedAt)
			case "_id":
				c = cmp.Compare(a.ID.Hex(), b.ID.Hex())
			}
			if c != 0 {
				return c * dir
			}
		}
		return 0
	})
	return window(matched, plan), int64(len(matched)), nil
}

func itemMatches(it data.Item, filter bson.D) bool {
	for _, e := range filter {
		switch e.Key {
		case "is_active":
			if it.IsActive != e.Value.(bool) {
				return false
			}
		case "category":
			if it.Category != e.Value.(string) {
				return false
			}
		case "seller":
			if it.Seller != e.Value.(string) {
				return false
			}
		case "price":
			for _, b := range e.Value.(bson.D) {
				v := b.Value.(float64)
				if (b.Key == "$gte" && it.Price < v) || (b.Key == "$lte" && it.Price > v) {
					return false
				}
			}
		case "$text":
			term := strings.ToLower(e.Value.(bson.D)[0].Value.(string))
			if !strings.Contains(strings.ToLower(it.Title+" "+it.Description), term) {
				return false
			}
		}
	}
	return true
}

func window[T any](all []T, plan query.Plan) []*T {
	out := []*T{}
	for i := plan.Skip; i < plan.Skip+plan.Limit && i < int64(len(all)); i++ {
		v := all[i]
		out = append(out, &v)
	}
	return out
}

func (f *fakeItems) Update(_ context.Context, it *data.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == it.ID {
			f.items[i] = *it
			return nil
		}
	}
	return data.ErrNotFound
}

func (f *fakeItems) Deactivate(_ context.Context, id bson.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsActive = false
			f.items[i].UpdatedAt = &at
			return nil
		}
	}
	return data.ErrNotFound
}

type fakeRatings struct {
	mu      sync.Mutex
	ratings map[[2]string]data.Rating
}

func newFakeRatings() *fakeRatings { return &fakeRatings{ratings: map[[2]string]data.Rating{}} }

func (f *fakeRatings) Upsert(_ context.Context, r *data.Rating) (*data.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{r.RatedUser, r.RatingUser}
	cur, ok := f.ratings[key]
	if !ok {
		cur = data.Rating{ID: bson.NewObjectID(), RatedUser: r.RatedUser, RatingUser: r.RatingUser}
	}
	cur.Score, cur.Comment, cur.CreatedAt = r.Score, r.Comment, r.CreatedAt
	f.ratings[key] = cur
	return &cur, nil
}

func (f *fakeRatings) ListFor(_ context.Context, userID string) ([]*data.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.Rating{}
	for _, r := range f.ratings {
		if r.RatedUser == userID {
			out = append(out, &r)
		}
	}
	slices.SortFunc(out, func(a, b *data.Rating) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

type fakeConversations struct {
	mu        sync.Mutex
	convs     []data.Conversation
	failTouch bool
}

func (f *fakeConversations) GetOrCreate(_ context.Context, a, b string, now time.Time) (*data.Conversation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := data.PairKey(a, b)
	for _, c := range f.convs {
		if c.PairKey == key {
			return &c, false, nil
		}
	}
	c := data.Conversation{
		ID:           bson.NewObjectID(),
		Participants: []string{a, b},
		PairKey:      key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.convs = append(f.convs, c)
	return &c, true, nil
}

func (f *fakeConversations) GetByID(_ context.Context, id bson.ObjectID) (*data.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, data.ErrNotFound
}

func (f *fakeConversations) ListFor(_ context.Context, userID string) ([]*data.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.Conversation{}
	for _, c := range f.convs {
		if c.HasParticipant(userID) {
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *data.Conversation) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (f *fakeConversations) Touch(_ context.Context, id bson.ObjectID, last string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTouch {
		return errInjected
	}
	for i := range f.convs {
		if f.convs[i].ID == id {
			f.convs[i].LastMessage = last
			f.convs[i].UpdatedAt = at
			return nil
		}
	}
	return data.ErrNotFound
}

func (f *fakeConversations) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convs = slices.DeleteFunc(f.convs, func(c data.Conversation) bool { return c.ID == id })
	return nil
}

type fakeMessages struct {
	mu   sync.Mutex
	msgs []data.Message
}

func (f *fakeMessages) Create(_ context.Context, m *data.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = bson.NewObjectID()
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeMessages) ListByConversation(_ context.Context, conversationID string) ([]*data.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.Message{}
	for _, m := range f.msgs {
		if m.ConversationID == conversationID {
			out = append(out, &m)
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, conversationID, readerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.msgs {
		m := &f.msgs[i]
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = slices.DeleteFunc(f.msgs, func(m data.Message) bool { return m.ID == id })
	return nil
}

func (f *fakeMessages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

type fakeCategories struct {
	mu   sync.Mutex
	cats []data.ForumCategory
}

func (f *fakeCategories) List(context.Context) ([]*data.ForumCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.ForumCategory{}
	for _, c := range f.cats {
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *data.ForumCategory) int { return cmp.Compare(a.Order, b.Order) })
	return out, nil
}

func (f *fakeCategories) GetByID(_ context.Context, id bson.ObjectID) (*data.ForumCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cats {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, data.ErrNotFound
}

func (f *fakeCategories) Create(_ context.Context, c *data.ForumCategory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = bson.NewObjectID()
	f.cats = append(f.cats, *c)
	return nil
}

type fakeThreads struct {
	mu      sync.Mutex
	threads []data.ForumThread
}

func (f *fakeThreads) Create(_ context.Context, t *data.ForumThread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = bson.NewObjectID()
	f.threads = append(f.threads, *t)
	return nil
}

func (f *fakeThreads) GetByID(_ context.Context, id bson.ObjectID) (*data.ForumThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.threads {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, data.ErrNotFound
}

// List honors the category filter and the pinned-first, updated_at order
// of the default thread listing.
func (f *fakeThreads) List(_ context.Context, plan query.Plan) ([]*data.ForumThread, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []data.ForumThread
	for _, t := range f.threads {
		ok := true
		for _, e := range plan.Filter {
			if e.Key == "category_id" && t.CategoryID != e.Value.(string) {
				ok = false
			}
		}
		if ok {
			matched = append(matched, t)
		}
	}
	slices.SortStableFunc(matched, func(a, b data.ForumThread) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return window(matched, plan), int64(len(matched)), nil
}

func (f *fakeThreads) update(id bson.ObjectID, fn func(*data.ForumThread)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.threads {
		if f.threads[i].ID == id {
			fn(&f.threads[i])
			return nil
		}
	}
	return data.ErrNotFound
}

func (f *fakeThreads) RecordPost(_ context.Context, id bson.ObjectID, at time.Time) error {
	return f.update(id, func(t *data.ForumThread) { t.PostCount++; t.UpdatedAt = at })
}

func (f *fakeThreads) SetLocked(_ context.Context, id bson.ObjectID, locked bool) error {
	return f.update(id, func(t *data.ForumThread) { t.IsLocked = locked })
}

func (f *fakeThreads) SetPinned(_ context.Context, id bson.ObjectID, pinned bool) error {
	return f.update(id, func(t *data.ForumThread) { t.IsPinned = pinned })
}

func (f *fakeThreads) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads = slices.DeleteFunc(f.threads, func(t data.ForumThread) bool { return t.ID == id })
	return nil
}

func (f *fakeThreads) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.threads)
}

type fakePosts struct {
	mu         sync.Mutex
	posts      []data.ForumPost
	failCreate bool
}

func (f *fakePosts) Create(_ context.Context, p *data.ForumPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errInjected
	}
	p.ID = bson.NewObjectID()
	f.posts = append(f.posts, *p)
	return nil
}

func (f *fakePosts) ListByThread(_ context.Context, threadID string) ([]*data.ForumPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.ForumPost{}
	for _, p := range f.posts {
		if p.ThreadID == threadID {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (f *fakePosts) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = slices.DeleteFunc(f.posts, func(p data.ForumPost) bool { return p.ID == id })
	return nil
}
