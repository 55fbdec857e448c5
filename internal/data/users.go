package data

import (
	"context" // Used for cancellation and timeouts
	"time"    // Timestamps for updated_at

	"go.mongodb.org/mongo-driver/v2/bson"          // BSON filters and updates
	"go.mongodb.org/mongo-driver/v2/mongo"         // Collection handle and duplicate-key check
	"go.mongodb.org/mongo-driver/v2/mongo/options" // Count options

	"github.com/PaulBabatuyi/social-marketplace/internal/normalize" // Email normalization
)

// UsersStore performs user DB operations.
type UsersStore struct {
	// coll is reference to "users" collection in MongoDB
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll} // Store reference to MongoDB collection
}

// Create inserts u and sets its ID. The email is stored normalized; a
// second account with the same email fails with ErrDuplicate.
func (s *UsersStore) Create(ctx context.Context, u *User) error {
	u.Email = normalize.Email(u.Email) // Lookups normalize the same way
	res, err := s.coll.InsertOne(ctx, u)
	if err != nil {
		// Unique index on email rejects the second account
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	u.ID = insertedID(res) // ID generated by MongoDB
	return nil
}

// GetByEmail finds a user by email.
func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return findOne(ctx, s.coll, bson.D{{Key: "email", Value: normalize.Email(email)}}, DecodeUser)
}

// GetByID finds a user by ObjectID.
func (s *UsersStore) GetByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	return findOne(ctx, s.coll, bson.D{{Key: "_id", Value: id}}, DecodeUser)
}

// EmailExists checks if an account already uses email.
func (s *UsersStore) EmailExists(ctx context.Context, email string) (bool, error) {
	// SetLimit(1): stop counting at the first match
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "email", Value: normalize.Email(email)}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil // Any match means the email is taken
}

// UpdateProfile writes the editable profile fields of u and its
// updated_at.
func (s *UsersStore) UpdateProfile(ctx context.Context, u *User) error {
	return updateByID(ctx, s.coll, u.ID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "full_name", Value: u.FullName},
		{Key: "phone_number", Value: u.PhoneNumber},
		{Key: "updated_at", Value: u.UpdatedAt},
	}}})
}

// SetPassword replaces the stored password hash.
func (s *UsersStore) SetPassword(ctx context.Context, id bson.ObjectID, hash string, at time.Time) error {
	return updateByID(ctx, s.coll, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "hashed_password", Value: hash}, // bcrypt hash, never the plain password
		{Key: "updated_at", Value: at},
	}}})
}
