package data

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/db"
	"github.com/PaulBabatuyi/social-marketplace/internal/query"
)

// These tests are integration tests and require a running MongoDB instance.
// Set MONGODB_URI in the environment before running them.

func setupDB(t *testing.T) *db.Client {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := db.New(ctx, uri, "social_marketplace_test")
	require.NoError(t, err)

	// start from empty collections in case previous runs left data
	require.NoError(t, c.Drop(ctx))
	require.NoError(t, c.CreateIndexes(ctx))
	t.Cleanup(func() {
		_ = c.Drop(context.Background())
		_ = c.Close(context.Background())
	})
	return c
}

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestUsersStore(t *testing.T) {
	c := setupDB(t)
	ctx := t.Context()
	users := NewUsersStore(c.Collection(db.Users))

	u := &User{
		Email:          " Alice@Example.com",
		FullName:       "Alice",
		PhoneNumber:    "+33612345678",
		HashedPassword: "hash",
		IsActive:       true,
		CreatedAt:      t0,
	}
	require.NoError(t, users.Create(ctx, u))
	require.False(t, u.ID.IsZero())
	assert.Equal(t, "alice@example.com", u.Email)

	dup := *u
	dup.ID = bson.ObjectID{}
	dup.Email = "ALICE@example.com"
	assert.ErrorIs(t, users.Create(ctx, &dup), ErrDuplicate)

	exists, err := users.EmailExists(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Nil(t, got.UpdatedAt)

	at := t0.Add(time.Hour)
	got.FullName = "Alice Liddell"
	got.UpdatedAt = &at
	require.NoError(t, users.UpdateProfile(ctx, got))
	require.NoError(t, users.SetPassword(ctx, u.ID, "new-hash", at))

	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", got.FullName)
	assert.Equal(t, "new-hash", got.HashedPassword)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, at.Equal(*got.UpdatedAt))

	_, err = users.GetByID(ctx, bson.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, users.SetPassword(ctx, bson.NewObjectID(), "x", at), ErrNotFound)
}

func TestDecodeFillsDefaultsForSparseDocuments(t *testing.T) {
	c := setupDB(t)
	ctx := t.Context()
	coll := c.Collection(db.Items)

	_, err := coll.InsertOne(ctx, bson.D{
		{Key: "title", Value: "Old listing"},
		{Key: "description", Value: "Imported before images existed"},
		{Key: "price", Value: int32(12)},
		{Key: "category", Value: CategoryOther},
		{Key: "location", Value: "Nantes"},
		{Key: "seller", Value: bson.NewObjectID().Hex()},
	})
	require.NoError(t, err)

	items, total, err := NewItemsStore(coll).List(ctx, query.Plan{Filter: bson.D{}, Sort: bson.D{{Key: "_id", Value: 1}}, Limit: 10, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.True(t, items[0].IsActive)
	assert.Equal(t, 12.0, items[0].Price)
	assert.NotNil(t, items[0].Images)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestItemsStorePaging(t *testing.T) {
	c := setupDB(t)
	ctx := t.Context()
	items := NewItemsStore(c.Collection(db.Items))
	seller := bson.NewObjectID().Hex()

	for i := range 5 {
		require.NoError(t, items.Create(ctx, &Item{
			Title:       "Chair",
			Description: "Wooden chair",
			Price:       float64(10 + i),
			Category:    CategoryHome,
			Location:    "Lyon",
			Images:      []string{},
			Seller:      seller,
			IsActive:    i != 4,
			CreatedAt:   t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	l := query.Listing{
		Equal:     bson.D{{Key: "is_active", Value: true}},
		Sorts:     query.SortConfig{Default: "-created_at", Allowed: []string{"price"}},
		PageSizes: query.PageSizeConfig{Default: 3, Min: 1, Max: 10},
		Page:      2,
	}
	plan, err := l.Build()
	require.NoError(t, err)

	page, total, err := items.List(ctx, plan)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page, 1)
	assert.Equal(t, 10.0, page[0].Price)

	first := page[0]
	require.NoError(t, items.Deactivate(ctx, first.ID, t0.Add(time.Hour)))
	got, err := items.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.UpdatedAt)
}

func TestRatingsUpsert(t *testing.T) {
	c := setupDB(t)
	ctx := t.Context()
	ratings := NewRatingsStore(c.Collection(db.Ratings))
	rated, rater := bson.NewObjectID().Hex(), bson.NewObjectID().Hex()

	comment := "quick reply"
	first, err := ratings.Upsert(ctx, &Rating{Score: 3, Comment: &comment, RatedUser: rated, RatingUser: rater, CreatedAt: t0})
	require.NoError(t, err)
	second, err := ratings.Upsert(ctx, &Rating{Score: 5, RatedUser: rated, RatingUser: rater, CreatedAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Score)
	assert.Nil(t, second.Comment)

	list, err := ratings.ListFor(ctx, rated)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5.0, *AverageScore(list))
}

func TestConversationsAndMessages(t *testing.T) {
	c := setupDB(t)
	ctx := t.Context()
	convs := NewConversationsStore(c.Collection(db.Conversations))
	msgs := NewMessagesStore(c.Collection(db.Messages))
	a, b := bson.NewObjectID().Hex(), bson.NewObjectID().Hex()

	conv, created, err := convs.GetOrCreate(ctx, a, b, t0)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := convs.GetOrCreate(ctx, b, a, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)

	for i, sender := range []string{a, b, b} {
		require.NoError(t, msgs.Create(ctx, &Message{
			ConversationID: conv.ID.Hex(),
			SenderID:       sender,
			Content:        "hello",
			CreatedAt:      t0.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, convs.Touch(ctx, conv.ID, "hello", t0.Add(time.Hour)))

	n, err := msgs.MarkRead(ctx, conv.ID.Hex(), a)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = msgs.MarkRead(ctx, conv.ID.Hex(), a)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := msgs.ListByConversation(ctx, conv.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, a, list[0].SenderID)
	assert.False(t, list[0].Read)

	mine, err := convs.ListFor(ctx, b)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "hello", mine[0].LastMessage)
	assert.True(t, t0.Add(time.Hour).Equal(mine[0].UpdatedAt))

	require.NoError(t, convs.Delete(ctx, conv.ID))
	_, err = convs.GetByID(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByPairMatchesLegacyConversation(t *testing.T) {
	c := setupDB(t)
	ctx := t.Context()
	coll := c.Collection(db.Conversations)
	a, b := bson.NewObjectID().Hex(), bson.NewObjectID().Hex()

	res, err := coll.InsertOne(ctx, bson.D{
		{Key: "participants", Value: bson.A{b, a}},
		{Key: "created_at", Value: t0},
		{Key: "updated_at", Value: t0},
		{Key: "last_message", Value: ""},
	})
	require.NoError(t, err)

	conv, created, err := NewConversationsStore(coll).GetOrCreate(ctx, a, b, t0)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, res.InsertedID, conv.ID)
}

func TestForumStores(t *testing.T) {
	c := setupDB(t)
	ctx := t.Context()
	cats := NewCategoriesStore(c.Collection(db.ForumCategories))
	threads := NewThreadsStore(c.Collection(db.ForumThreads))
	posts := NewPostsStore(c.Collection(db.ForumPosts))

	cat := &ForumCategory{Name: "General", Description: "Anything goes", Order: 1}
	require.NoError(t, cats.Create(ctx, cat))

	th := &ForumThread{Title: "Welcome", AuthorID: bson.NewObjectID().Hex(), CategoryID: cat.ID.Hex(), CreatedAt: t0, UpdatedAt: t0, PostCount: 1}
	require.NoError(t, threads.Create(ctx, th))
	require.NoError(t, posts.Create(ctx, &ForumPost{ThreadID: th.ID.Hex(), AuthorID: th.AuthorID, Content: "first", CreatedAt: t0}))
	require.NoError(t, posts.Create(ctx, &ForumPost{ThreadID: th.ID.Hex(), AuthorID: th.AuthorID, Content: "second", CreatedAt: t0.Add(time.Minute)}))
	require.NoError(t, threads.RecordPost(ctx, th.ID, t0.Add(time.Minute)))
	require.NoError(t, threads.SetLocked(ctx, th.ID, true))
	require.NoError(t, threads.SetPinned(ctx, th.ID, true))

	got, err := threads.GetByID(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.PostCount)
	assert.True(t, got.IsLocked)
	assert.True(t, got.IsPinned)
	assert.True(t, t0.Add(time.Minute).Equal(got.UpdatedAt))

	list, err := posts.ListByThread(ctx, th.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)

	assert.ErrorIs(t, threads.RecordPost(ctx, bson.NewObjectID(), t0), ErrNotFound)
}
