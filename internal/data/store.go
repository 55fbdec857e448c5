// Package data provides the document models and one store per MongoDB
// collection.
package data

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/PaulBabatuyi/social-marketplace/internal/query"
)

type decoder[T any] func(bson.Raw) (*T, error)

// findOne runs FindOne and decodes the match, mapping "no documents" to
// ErrNotFound.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, decode decoder[T]) (*T, error) {
	raw, err := coll.FindOne(ctx, filter).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode(raw)
}

// findAll decodes every document the query returns, in cursor order.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptionsBuilder, decode decoder[T]) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*T{}
	for cursor.Next(ctx) {
		v, err := decode(cursor.Current)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// findPage counts every match of plan.Filter and returns the plan's window
// of them.
func findPage[T any](ctx context.Context, coll *mongo.Collection, plan query.Plan, decode decoder[T]) ([]*T, int64, error) {
	total, err := coll.CountDocuments(ctx, plan.Filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}
	opts := options.Find().
		SetSort(plan.Sort).
		SetSkip(plan.Skip).
		SetLimit(plan.Limit)
	page, err := findAll(ctx, coll, plan.Filter, opts, decode)
	if err != nil {
		return nil, 0, fmt.Errorf("find: %w", err)
	}
	return page, total, nil
}

// deleteByID removes one document. It is used to undo the first half of a
// two-document write.
func deleteByID(ctx context.Context, coll *mongo.Collection, id bson.ObjectID) error {
	_, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

// updateByID applies update to one document, returning ErrNotFound when
// nothing matched.
func updateByID(ctx context.Context, coll *mongo.Collection, id bson.ObjectID, update bson.D) error {
	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func insertedID(res *mongo.InsertOneResult) bson.ObjectID {
	id, _ := res.InsertedID.(bson.ObjectID)
	return id
}
