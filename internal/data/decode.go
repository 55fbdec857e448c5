package data

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// The decoders below turn stored documents into entities. Each one checks
// that the required fields are present, then fills defaults for fields that
// older documents may lack: is_active defaults to true and a missing
// created_at falls back to the timestamp embedded in the ObjectID.

// DecodeUser decodes a users document.
func DecodeUser(raw bson.Raw) (*User, error) {
	if err := requireFields(raw, "user", "_id", "email", "full_name", "phone_number", "hashed_password"); err != nil {
		return nil, err
	}
	var u User
	if err := bson.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if !hasField(raw, "is_active") {
		u.IsActive = true
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = u.ID.Timestamp()
	}
	return &u, nil
}

// DecodeItem decodes an items document; images default to an empty list.
func DecodeItem(raw bson.Raw) (*Item, error) {
	if err := requireFields(raw, "item", "_id", "title", "description", "price", "category", "location", "seller"); err != nil {
		return nil, err
	}
	var it Item
	if err := bson.Unmarshal(raw, &it); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if !hasField(raw, "is_active") {
		it.IsActive = true
	}
	if it.Images == nil {
		it.Images = []string{}
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = it.ID.Timestamp()
	}
	return &it, nil
}

// DecodeRating decodes a ratings document.
func DecodeRating(raw bson.Raw) (*Rating, error) {
	if err := requireFields(raw, "rating", "_id", "score", "rated_user", "rating_user"); err != nil {
		return nil, err
	}
	var r Rating
	if err := bson.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode rating: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.ID.Timestamp()
	}
	return &r, nil
}

// DecodeConversation decodes a conversations document. A missing
// updated_at falls back to created_at.
func DecodeConversation(raw bson.Raw) (*Conversation, error) {
	if err := requireFields(raw, "conversation", "_id", "participants"); err != nil {
		return nil, err
	}
	var c Conversation
	if err := bson.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.ID.Timestamp()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return &c, nil
}

// DecodeMessage decodes a messages document.
func DecodeMessage(raw bson.Raw) (*Message, error) {
	if err := requireFields(raw, "message", "_id", "conversation_id", "sender_id", "content"); err != nil {
		return nil, err
	}
	var m Message
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.ID.Timestamp()
	}
	return &m, nil
}

// DecodeForumCategory decodes a forum_categories document.
func DecodeForumCategory(raw bson.Raw) (*ForumCategory, error) {
	if err := requireFields(raw, "forum category", "_id", "name", "description", "order"); err != nil {
		return nil, err
	}
	var c ForumCategory
	if err := bson.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode forum category: %w", err)
	}
	return &c, nil
}

// DecodeForumThread decodes a forum_threads document.
func DecodeForumThread(raw bson.Raw) (*ForumThread, error) {
	if err := requireFields(raw, "forum thread", "_id", "title", "author_id", "category_id"); err != nil {
		return nil, err
	}
	var t ForumThread
	if err := bson.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode forum thread: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = t.ID.Timestamp()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	return &t, nil
}

// DecodeForumPost decodes a forum_posts document.
func DecodeForumPost(raw bson.Raw) (*ForumPost, error) {
	if err := requireFields(raw, "forum post", "_id", "thread_id", "author_id", "content"); err != nil {
		return nil, err
	}
	var p ForumPost
	if err := bson.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode forum post: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.ID.Timestamp()
	}
	return &p, nil
}

func requireFields(raw bson.Raw, entity string, keys ...string) error {
	for _, k := range keys {
		if !hasField(raw, k) {
			return missingField(entity, k)
		}
	}
	return nil
}

func hasField(raw bson.Raw, key string) bool {
	_, err := raw.LookupErr(key)
	return err == nil
}
