package main

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
)

// pathID parses the named URL parameter as an ObjectID.
func pathID(r *http.Request, param, what string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		return bson.ObjectID{}, apperr.BadRequest("invalid " + what + " id")
	}
	return id, nil
}

// queryPositive reads an optional integer query parameter that must be at
// least 1. Zero means "absent".
func queryPositive(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("", apperr.FieldError{Field: key, Message: "must be an integer"})
	}
	if n < 1 {
		return 0, apperr.Validation("", apperr.FieldError{Field: key, Message: "must be greater than or equal to 1"})
	}
	return n, nil
}

// queryFloat reads an optional number query parameter.
func queryFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperr.Validation("", apperr.FieldError{Field: key, Message: "must be a number"})
	}
	return &f, nil
}
