package main

import (
	"errors"
	"net/http"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
	"github.com/PaulBabatuyi/social-marketplace/internal/auth"
	"github.com/PaulBabatuyi/social-marketplace/internal/data"
	"github.com/PaulBabatuyi/social-marketplace/internal/normalize"
)

var errBadCredentials = apperr.Unauthorized("incorrect email or password")

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	FullName    string `json:"full_name" validate:"required,min=2,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,min=8,max=15,phone"`
	Password    string `json:"password" validate:"required"`
}

type updateMeRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=2,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,min=8,max=15,phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// passwordPolicyError reports every rule password breaks as field errors
// on field, or nil when the password is acceptable.
func passwordPolicyError(field, password string) error {
	problems := auth.CheckPasswordPolicy(password)
	if len(problems) == 0 {
		return nil
	}
	fields := make([]apperr.FieldError, 0, len(problems))
	for _, p := range problems {
		fields = append(fields, apperr.FieldError{Field: field, Message: p})
	}
	return apperr.Validation("", fields...)
}

// register creates an account and returns it without credentials.
func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := passwordPolicyError("password", req.Password); err != nil {
		return err
	}

	email := normalize.Email(req.Email)
	taken, err := s.users.EmailExists(r.Context(), email)
	if err != nil {
		return err
	}
	if taken {
		return apperr.BadRequest("an account with this email already exists")
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := &data.User{
		Email:          email,
		FullName:       req.FullName,
		PhoneNumber:    req.PhoneNumber,
		HashedPassword: hashed,
		IsActive:       true,
		CreatedAt:      s.now(),
	}
	// the unique index catches a concurrent registration that passed the
	// EmailExists check
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, data.ErrDuplicate) {
			return apperr.BadRequest("an account with this email already exists")
		}
		return err
	}

	writeJSON(w, http.StatusCreated, newUserResponse(user))
	return nil
}

// login exchanges form credentials (username is the email) for a bearer
// token. Unknown accounts, wrong passwords and inactive accounts are
// indistinguishable to the caller.
func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperr.BadRequest("malformed form body")
	}
	email := normalize.Email(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		return errBadCredentials
	}

	user, err := s.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return errBadCredentials
		}
		return err
	}
	if err := auth.CheckPassword(user.HashedPassword, password); err != nil {
		return errBadCredentials
	}
	if !user.IsActive {
		return errBadCredentials
	}

	token, _, err := s.auth.IssueToken(user.ID.Hex())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	return nil
}

// loadCaller fetches the authenticated user's document.
func (s *Server) loadCaller(r *http.Request) (*data.User, error) {
	_, oid, err := callerObjectID(r)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	user, err := s.loadCaller(r)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
	return nil
}

// updateMe edits full_name and phone_number. updated_at moves only when a
// value actually changes.
func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) error {
	user, err := s.loadCaller(r)
	if err != nil {
		return err
	}
	var req updateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	changed := false
	if req.FullName != nil && *req.FullName != user.FullName {
		user.FullName = *req.FullName
		changed = true
	}
	if req.PhoneNumber != nil && *req.PhoneNumber != user.PhoneNumber {
		user.PhoneNumber = *req.PhoneNumber
		changed = true
	}
	if changed {
		now := s.now()
		user.UpdatedAt = &now
		if err := s.users.UpdateProfile(r.Context(), user); err != nil {
			return err
		}
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
	return nil
}

// changePassword replaces the caller's password after checking the current
// one.
func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) error {
	user, err := s.loadCaller(r)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := auth.CheckPassword(user.HashedPassword, req.CurrentPassword); err != nil {
		return apperr.BadRequest("current password is incorrect")
	}
	if err := passwordPolicyError("new_password", req.NewPassword); err != nil {
		return err
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(r.Context(), user.ID, hashed, s.now()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
