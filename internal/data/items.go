package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/PaulBabatuyi/social-marketplace/internal/query"
)

// ItemsStore performs item DB operations.
type ItemsStore struct {
	coll *mongo.Collection
}

// NewItemsStore returns an ItemsStore using the provided collection.
func NewItemsStore(coll *mongo.Collection) *ItemsStore {
	return &ItemsStore{coll: coll}
}

// Create inserts it and sets its ID.
func (s *ItemsStore) Create(ctx context.Context, it *Item) error {
	if it.Images == nil {
		it.Images = []string{}
	}
	res, err := s.coll.InsertOne(ctx, it)
	if err != nil {
		return err
	}
	it.ID = insertedID(res)
	return nil
}

// GetByID returns the item whether or not it is active.
func (s *ItemsStore) GetByID(ctx context.Context, id bson.ObjectID) (*Item, error) {
	return findOne(ctx, s.coll, bson.D{{Key: "_id", Value: id}}, DecodeItem)
}

// List returns one page of items matching plan and the total match count.
func (s *ItemsStore) List(ctx context.Context, plan query.Plan) ([]*Item, int64, error) {
	return findPage(ctx, s.coll, plan, DecodeItem)
}

// Update writes every mutable field of it. Seller and created_at never
// change.
func (s *ItemsStore) Update(ctx context.Context, it *Item) error {
	return updateByID(ctx, s.coll, it.ID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: it.Title},
		{Key: "description", Value: it.Description},
		{Key: "price", Value: it.Price},
		{Key: "category", Value: it.Category},
		{Key: "location", Value: it.Location},
		{Key: "images", Value: it.Images},
		{Key: "is_active", Value: it.IsActive},
		{Key: "updated_at", Value: it.UpdatedAt},
	}}})
}

// Deactivate soft-deletes an item. It stays readable by id but drops out
// of listings.
func (s *ItemsStore) Deactivate(ctx context.Context, id bson.ObjectID, at time.Time) error {
	return updateByID(ctx, s.coll, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_active", Value: false},
		{Key: "updated_at", Value: at},
	}}})
}
