package main

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
	"github.com/PaulBabatuyi/social-marketplace/internal/data"
)

type ratingRequest struct {
	Score   int     `json:"score" validate:"required,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,min=3,max=500"`
}

// userOr404 fetches a user by id, mapping a miss to NotFound.
func (s *Server) userOr404(r *http.Request, id bson.ObjectID) (*data.User, error) {
	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// userProfile returns the public profile of a user.
func (s *Server) userProfile(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "userID", "user")
	if err != nil {
		return err
	}
	user, err := s.userOr404(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newPublicProfile(user))
	return nil
}

// userRatings lists the ratings a user received, newest first, with their
// average.
func (s *Server) userRatings(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "userID", "user")
	if err != nil {
		return err
	}
	if _, err := s.userOr404(r, id); err != nil {
		return err
	}
	ratings, err := s.ratings.ListFor(r.Context(), id.Hex())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, ratingsResponse{Ratings: ratings, AverageRating: data.AverageScore(ratings)})
	return nil
}

// rateUser records the caller's rating of a user. A repeat rating replaces
// the earlier one.
func (s *Server) rateUser(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "userID", "user")
	if err != nil {
		return err
	}
	if id.Hex() == caller {
		return apperr.BadRequest("you cannot rate yourself")
	}
	if _, err := s.userOr404(r, id); err != nil {
		return err
	}

	var req ratingRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	rating, err := s.ratings.Upsert(r.Context(), &data.Rating{
		Score:      req.Score,
		Comment:    req.Comment,
		RatedUser:  id.Hex(),
		RatingUser: caller,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, rating)
	return nil
}
