package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/PaulBabatuyi/social-marketplace/internal/query"
)

// CategoriesStore performs forum category DB operations.
type CategoriesStore struct {
	coll *mongo.Collection
}

// NewCategoriesStore returns a CategoriesStore using the provided
// collection.
func NewCategoriesStore(coll *mongo.Collection) *CategoriesStore {
	return &CategoriesStore{coll: coll}
}

// List returns every category in display order.
func (s *CategoriesStore) List(ctx context.Context) ([]*ForumCategory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	return findAll(ctx, s.coll, bson.D{}, opts, DecodeForumCategory)
}

// GetByID finds a category by ObjectID.
func (s *CategoriesStore) GetByID(ctx context.Context, id bson.ObjectID) (*ForumCategory, error) {
	return findOne(ctx, s.coll, bson.D{{Key: "_id", Value: id}}, DecodeForumCategory)
}

// Create inserts c and sets its ID.
func (s *CategoriesStore) Create(ctx context.Context, c *ForumCategory) error {
	res, err := s.coll.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	c.ID = insertedID(res)
	return nil
}

// ThreadsStore performs forum thread DB operations.
type ThreadsStore struct {
	coll *mongo.Collection
}

// NewThreadsStore returns a ThreadsStore using the provided collection.
func NewThreadsStore(coll *mongo.Collection) *ThreadsStore {
	return &ThreadsStore{coll: coll}
}

// Create inserts t and sets its ID.
func (s *ThreadsStore) Create(ctx context.Context, t *ForumThread) error {
	res, err := s.coll.InsertOne(ctx, t)
	if err != nil {
		return err
	}
	t.ID = insertedID(res)
	return nil
}

// GetByID finds a thread by ObjectID.
func (s *ThreadsStore) GetByID(ctx context.Context, id bson.ObjectID) (*ForumThread, error) {
	return findOne(ctx, s.coll, bson.D{{Key: "_id", Value: id}}, DecodeForumThread)
}

// List returns one page of threads matching plan and the total match
// count.
func (s *ThreadsStore) List(ctx context.Context, plan query.Plan) ([]*ForumThread, int64, error) {
	return findPage(ctx, s.coll, plan, DecodeForumThread)
}

// RecordPost bumps post_count and updated_at in a single update so
// concurrent posters never lose an increment.
func (s *ThreadsStore) RecordPost(ctx context.Context, id bson.ObjectID, at time.Time) error {
	return updateByID(ctx, s.coll, id, bson.D{
		{Key: "$inc", Value: bson.D{{Key: "post_count", Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: at}}},
	})
}

// SetLocked sets is_locked.
func (s *ThreadsStore) SetLocked(ctx context.Context, id bson.ObjectID, locked bool) error {
	return updateByID(ctx, s.coll, id, bson.D{{Key: "$set", Value: bson.D{{Key: "is_locked", Value: locked}}}})
}

// SetPinned sets is_pinned.
func (s *ThreadsStore) SetPinned(ctx context.Context, id bson.ObjectID, pinned bool) error {
	return updateByID(ctx, s.coll, id, bson.D{{Key: "$set", Value: bson.D{{Key: "is_pinned", Value: pinned}}}})
}

// Delete removes a thread.
func (s *ThreadsStore) Delete(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, s.coll, id)
}

// PostsStore performs forum post DB operations.
type PostsStore struct {
	coll *mongo.Collection
}

// NewPostsStore returns a PostsStore using the provided collection.
func NewPostsStore(coll *mongo.Collection) *PostsStore {
	return &PostsStore{coll: coll}
}

// Create inserts p and sets its ID.
func (s *PostsStore) Create(ctx context.Context, p *ForumPost) error {
	res, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = insertedID(res)
	return nil
}

// ListByThread returns a thread's posts oldest first.
func (s *PostsStore) ListByThread(ctx context.Context, threadID string) ([]*ForumPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return findAll(ctx, s.coll, bson.D{{Key: "thread_id", Value: threadID}}, opts, DecodeForumPost)
}

// Delete removes a post.
func (s *PostsStore) Delete(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, s.coll, id)
}
