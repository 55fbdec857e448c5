package data

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PairKey identifies the unordered pair {a, b}: both orders yield the same
// key.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// ConversationsStore performs conversation DB operations.
type ConversationsStore struct {
	coll *mongo.Collection
}

// NewConversationsStore returns a ConversationsStore using the provided
// collection.
func NewConversationsStore(coll *mongo.Collection) *ConversationsStore {
	return &ConversationsStore{coll: coll}
}

// FindByPair returns the conversation between a and b in either order.
// Documents written before pair_key existed are matched on participants.
func (s *ConversationsStore) FindByPair(ctx context.Context, a, b string) (*Conversation, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "pair_key", Value: PairKey(a, b)}},
		bson.D{
			{Key: "pair_key", Value: bson.D{{Key: "$exists", Value: false}}},
			{Key: "participants", Value: bson.D{
				{Key: "$all", Value: bson.A{a, b}},
				{Key: "$size", Value: 2},
			}},
		},
	}}}
	return findOne(ctx, s.coll, filter, DecodeConversation)
}

// GetOrCreate returns the conversation between a and b, creating it when
// none exists. created reports whether this call inserted it. The unique
// pair_key index settles concurrent creators: the loser reads the winner's
// document.
func (s *ConversationsStore) GetOrCreate(ctx context.Context, a, b string, now time.Time) (conv *Conversation, created bool, err error) {
	conv, err = s.FindByPair(ctx, a, b)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	conv = &Conversation{
		Participants: []string{a, b},
		PairKey:      PairKey(a, b),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := s.coll.InsertOne(ctx, conv)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			conv, err = s.FindByPair(ctx, a, b)
			return conv, false, err
		}
		return nil, false, err
	}
	conv.ID = insertedID(res)
	return conv, true, nil
}

// GetByID finds a conversation by ObjectID.
func (s *ConversationsStore) GetByID(ctx context.Context, id bson.ObjectID) (*Conversation, error) {
	return findOne(ctx, s.coll, bson.D{{Key: "_id", Value: id}}, DecodeConversation)
}

// ListFor returns userID's conversations, most recently updated first.
func (s *ConversationsStore) ListFor(ctx context.Context, userID string) ([]*Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	return findAll(ctx, s.coll, bson.D{{Key: "participants", Value: userID}}, opts, DecodeConversation)
}

// Touch mirrors the latest message onto the conversation.
func (s *ConversationsStore) Touch(ctx context.Context, id bson.ObjectID, lastMessage string, at time.Time) error {
	return updateByID(ctx, s.coll, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "last_message", Value: lastMessage},
		{Key: "updated_at", Value: at},
	}}})
}

// Delete removes a conversation.
func (s *ConversationsStore) Delete(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, s.coll, id)
}
