package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
	"github.com/PaulBabatuyi/social-marketplace/internal/validate"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// apiFunc is a handler that reports failure by returning an error.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts an apiFunc to http.HandlerFunc, translating returned errors
// into error responses.
func (s *Server) handle(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

type errorBody struct {
	Kind   apperr.Kind         `json:"kind"`
	Detail string              `json:"detail"`
	Errors []apperr.FieldError `json:"errors,omitempty"`
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError sends err as an error body. Internal causes are logged with
// the request id and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		log.Printf("[%s] %s %s: %v", chimw.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	}
	if e.Kind == apperr.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, e.Kind.HTTPStatus(), errorBody{Kind: e.Kind, Detail: e.Message, Errors: e.Fields})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apperr.New(apperr.KindRateLimited, "too many requests, try again later"))
}

// decodeJSON reads the request body into dst and validates it. Malformed
// JSON is a bad request; well-formed input with wrong types or failing
// field rules is a validation error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			field := typeErr.Field
			if field == "" {
				return apperr.BadRequest("request body must be a JSON object")
			}
			return apperr.Validation("", apperr.FieldError{
				Field:   field,
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			})
		case errors.Is(err, io.EOF):
			return apperr.BadRequest("request body is empty")
		default:
			return apperr.BadRequest("malformed JSON body")
		}
	}
	return validate.Struct(dst)
}
