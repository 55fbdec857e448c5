package main

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
)

// context key type for storing the caller's id in context
type authContextKey struct{}

// callerID returns the authenticated user id put in context by
// authenticate.
func callerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(authContextKey{}).(string)
	return id, ok && id != ""
}

// authenticate resolves the bearer token before any handler touches the
// database, rejecting the request with 401 when it is missing or invalid.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			writeError(w, r, apperr.Unauthorized("not authenticated"))
			return
		}

		userID, err := s.auth.ResolveUser(strings.TrimSpace(token))
		if err != nil {
			writeError(w, r, apperr.Unauthorized("could not validate credentials"))
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCaller returns the authenticated user id, or an Unauthorized error
// when the route was mounted without authenticate.
func requireCaller(r *http.Request) (string, error) {
	id, ok := callerID(r.Context())
	if !ok {
		return "", apperr.Unauthorized("not authenticated")
	}
	return id, nil
}

// callerObjectID is requireCaller for handlers that look the caller up.
func callerObjectID(r *http.Request) (string, bson.ObjectID, error) {
	id, err := requireCaller(r)
	if err != nil {
		return "", bson.ObjectID{}, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return "", bson.ObjectID{}, apperr.Unauthorized("could not validate credentials")
	}
	return id, oid, nil
}
