package main

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/data"
)

// userResponse is a user without credentials. Email is left out of public
// profiles.
type userResponse struct {
	ID          bson.ObjectID `json:"id"`
	Email       string        `json:"email,omitempty"`
	FullName    string        `json:"full_name"`
	PhoneNumber string        `json:"phone_number"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at"`
}

func newUserResponse(u *data.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func newPublicProfile(u *data.User) userResponse {
	v := newUserResponse(u)
	v.Email = ""
	return v
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ratingsResponse struct {
	Ratings       []*data.Rating `json:"ratings"`
	AverageRating *float64       `json:"average_rating"`
}

type itemsPage struct {
	Items       []*data.Item `json:"items"`
	TotalItems  int64        `json:"total_items"`
	TotalPages  int          `json:"total_pages"`
	CurrentPage int          `json:"current_page"`
}

type conversationWithMessages struct {
	*data.Conversation
	Messages []*data.Message `json:"messages"`
}

type conversationsResponse struct {
	Conversations []*data.Conversation `json:"conversations"`
}

type markedReadResponse struct {
	MarkedAsRead int64 `json:"marked_as_read"`
}

type categoriesResponse struct {
	Categories []*data.ForumCategory `json:"categories"`
}

type threadWithPosts struct {
	*data.ForumThread
	Posts     []*data.ForumPost `json:"posts"`
	FirstPost *data.ForumPost   `json:"first_post"`
}

func newThreadWithPosts(t *data.ForumThread, posts []*data.ForumPost) threadWithPosts {
	v := threadWithPosts{ForumThread: t, Posts: posts}
	if v.Posts == nil {
		v.Posts = []*data.ForumPost{}
	}
	if len(v.Posts) > 0 {
		v.FirstPost = v.Posts[0]
	}
	return v
}

type threadsPage struct {
	Threads    []*data.ForumThread `json:"threads"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}
