package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Item categories accepted by the marketplace.
const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryHome        = "home"
	CategorySports      = "sports"
	CategoryHobbies     = "hobbies"
	CategoryOther       = "other"
)

// ItemCategories lists every valid item category.
var ItemCategories = []string{
	CategoryElectronics,
	CategoryClothing,
	CategoryHome,
	CategorySports,
	CategoryHobbies,
	CategoryOther,
}

// User maps to the users collection.
type User struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string        `bson:"email" json:"email,omitempty"`
	FullName       string        `bson:"full_name" json:"full_name"`
	PhoneNumber    string        `bson:"phone_number" json:"phone_number"`
	HashedPassword string        `bson:"hashed_password" json:"-"`
	IsActive       bool          `bson:"is_active" json:"is_active"`
	IsAdmin        bool          `bson:"is_admin,omitempty" json:"is_admin,omitempty"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      *time.Time    `bson:"updated_at" json:"updated_at"`
}

// Item maps to the items collection. Seller is the hex id of the owner.
type Item struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Price       float64       `bson:"price" json:"price"`
	Category    string        `bson:"category" json:"category"`
	Location    string        `bson:"location" json:"location"`
	Images      []string      `bson:"images" json:"images"`
	Seller      string        `bson:"seller" json:"seller"`
	IsActive    bool          `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   *time.Time    `bson:"updated_at" json:"updated_at"`
}

// Rating maps to the ratings collection. At most one exists per
// (RatedUser, RatingUser) pair.
type Rating struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Score      int           `bson:"score" json:"score"`
	Comment    *string       `bson:"comment" json:"comment"`
	RatedUser  string        `bson:"rated_user" json:"rated_user"`
	RatingUser string        `bson:"rating_user" json:"rating_user"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
}

// Conversation maps to the conversations collection.
type Conversation struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Participants []string      `bson:"participants" json:"participants"`
	PairKey      string        `bson:"pair_key,omitempty" json:"-"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
	LastMessage  string        `bson:"last_message" json:"last_message"`
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Message maps to the messages collection.
type Message struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string        `bson:"conversation_id" json:"conversation_id"`
	SenderID       string        `bson:"sender_id" json:"sender_id"`
	Content        string        `bson:"content" json:"content"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	Read           bool          `bson:"read" json:"read"`
}

// ForumCategory maps to the forum_categories collection.
type ForumCategory struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description" json:"description"`
	Order       int           `bson:"order" json:"order"`
}

// ForumThread maps to the forum_threads collection.
type ForumThread struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string        `bson:"title" json:"title"`
	AuthorID   string        `bson:"author_id" json:"author_id"`
	CategoryID string        `bson:"category_id" json:"category_id"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `bson:"updated_at" json:"updated_at"`
	PostCount  int           `bson:"post_count" json:"post_count"`
	IsPinned   bool          `bson:"is_pinned" json:"is_pinned"`
	IsLocked   bool          `bson:"is_locked" json:"is_locked"`
}

// ForumPost maps to the forum_posts collection.
type ForumPost struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	ThreadID  string        `bson:"thread_id" json:"thread_id"`
	AuthorID  string        `bson:"author_id" json:"author_id"`
	Content   string        `bson:"content" json:"content"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time    `bson:"updated_at" json:"updated_at"`
}
