package data

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MessagesStore provides message database operations.
type MessagesStore struct {
	coll *mongo.Collection
}

// NewMessagesStore returns a MessagesStore using given collection.
func NewMessagesStore(coll *mongo.Collection) *MessagesStore {
	return &MessagesStore{coll: coll}
}

// Create inserts m and sets its ID.
func (s *MessagesStore) Create(ctx context.Context, m *Message) error {
	res, err := s.coll.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	m.ID = insertedID(res)
	return nil
}

// ListByConversation returns a conversation's messages oldest first.
func (s *MessagesStore) ListByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return findAll(ctx, s.coll, bson.D{{Key: "conversation_id", Value: conversationID}}, opts, DecodeMessage)
}

// MarkRead flags as read every unread message in the conversation that
// readerID did not send, and returns how many changed.
func (s *MessagesStore) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	filter := bson.D{
		{Key: "conversation_id", Value: conversationID},
		{Key: "sender_id", Value: bson.D{{Key: "$ne", Value: readerID}}},
		{Key: "read", Value: false},
	}
	res, err := s.coll.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes a message.
func (s *MessagesStore) Delete(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, s.coll, id)
}
