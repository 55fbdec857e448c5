package data

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// RatingsStore performs rating DB operations.
type RatingsStore struct {
	coll *mongo.Collection
}

// NewRatingsStore returns a RatingsStore using the provided collection.
func NewRatingsStore(coll *mongo.Collection) *RatingsStore {
	return &RatingsStore{coll: coll}
}

// Upsert stores r as the rating RatingUser gives RatedUser, replacing the
// score, comment and created_at of an earlier rating by the same pair.
func (s *RatingsStore) Upsert(ctx context.Context, r *Rating) (*Rating, error) {
	filter := bson.D{
		{Key: "rated_user", Value: r.RatedUser},
		{Key: "rating_user", Value: r.RatingUser},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "score", Value: r.Score},
		{Key: "comment", Value: r.Comment},
		{Key: "created_at", Value: r.CreatedAt},
	}}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	raw, err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Raw()
	// Two concurrent upserts for a new pair race on the unique index; the
	// loser retries once and updates the winner's document.
	if mongo.IsDuplicateKeyError(err) {
		raw, err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Raw()
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return DecodeRating(raw)
}

// ListFor returns the ratings userID has received, newest first.
func (s *RatingsStore) ListFor(ctx context.Context, userID string) ([]*Rating, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return findAll(ctx, s.coll, bson.D{{Key: "rated_user", Value: userID}}, opts, DecodeRating)
}

// AverageScore returns the mean of scores, or nil when there are none.
// The result is rounded to one decimal.
func AverageScore(ratings []*Rating) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}
	avg := Round(float64(sum)/float64(len(ratings)), 1)
	return &avg
}
