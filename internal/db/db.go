// Package db manages MongoDB connections and collections.
package db

import (
	"context" // For connection timeout/cancellation
	"fmt"     // Error formatting
	"time"    // Duration for timeouts

	"go.mongodb.org/mongo-driver/v2/bson"           // Index keys and filters
	"go.mongodb.org/mongo-driver/v2/mongo"          // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options"  // MongoDB options
	"go.mongodb.org/mongo-driver/v2/mongo/readpref" // MongoDB read preference
)

// Collection names.
const (
	Users           = "users"
	Items           = "items"
	Ratings         = "ratings"
	Conversations   = "conversations"
	Messages        = "messages"
	ForumCategories = "forum_categories"
	ForumThreads    = "forum_threads"
	ForumPosts      = "forum_posts"
)

// Client wraps mongo.Client and exposes collections.
type Client struct {
	// client is the pooled connection; safe for concurrent use and
	// released by Close.
	client *mongo.Client

	// db is the database named by DATABASE_NAME; every collection is
	// reached through it
	db *mongo.Database
}

// New connects to MongoDB, verifies the connection with a ping and returns
// a Client bound to dbName.
func New(ctx context.Context, mongoURI, dbName string) (*Client, error) {
	// SetConnectTimeout: fail fast if MongoDB is unreachable
	opts := options.Client().
		ApplyURI(mongoURI).                 // Parse connection string
		SetConnectTimeout(10 * time.Second) // Max time to connect

	// Connect only builds the pool; the ping below is the real check
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel() // Release the timer
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		// Release the pool so a failed startup leaks no connections
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,                  // Keep reference to close connection later
		db:     client.Database(dbName), // Created lazily on first write
	}, nil
}

// Collection returns the named collection of the bound database.
func (c *Client) Collection(name string) *mongo.Collection {
	// MongoDB creates the collection on first write
	return c.db.Collection(name)
}

// Ping checks that the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	// ctx bounds how long shutdown waits for in-flight operations
	return c.client.Disconnect(ctx)
}

// Drop removes the whole database. Tests use it to start clean.
func (c *Client) Drop(ctx context.Context) error {
	return c.db.Drop(ctx)
}

// indexes lists the indexes CreateIndexes maintains, per collection.
func indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		Users: {
			// One account per email; backs GetByEmail and EmailExists
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		Items: {
			// $text search over title and description
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "seller", Value: 1}}},
			{Keys: bson.D{{Key: "price", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		Ratings: {
			{
				Keys:    bson.D{{Key: "rated_user", Value: 1}, {Key: "rating_user", Value: 1}},
				Options: options.Index().SetUnique(true), // One rating per rater and rated user
			},
			// ListFor: newest ratings of a user first
			{Keys: bson.D{{Key: "rated_user", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		Conversations: {
			// Partial so conversations stored before pair_key existed do
			// not collide on a missing key.
			{
				Keys: bson.D{{Key: "pair_key", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "pair_key", Value: bson.D{{Key: "$exists", Value: true}}}}),
			},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		Messages: {
			// ListByConversation in send order
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		ForumCategories: {
			{Keys: bson.D{{Key: "order", Value: 1}}},
		},
		ForumThreads: {
			{Keys: bson.D{{Key: "title", Value: "text"}}},
			// Category filter and the pinned-first default order
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
			{Keys: bson.D{{Key: "is_pinned", Value: -1}, {Key: "updated_at", Value: -1}}},
		},
		ForumPosts: {
			{Keys: bson.D{{Key: "thread_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
}

// CreateIndexes creates the indexes every collection relies on. It is
// idempotent.
func (c *Client) CreateIndexes(ctx context.Context) error {
	for name, models := range indexes() {
		// CreateMany is a no-op for indexes that already exist
		if _, err := c.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}
