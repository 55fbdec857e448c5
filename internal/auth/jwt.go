// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that cannot be trusted.
var ErrInvalidToken = errors.New("invalid token")

// JWTManager signs and validates JWT tokens used by the API.
type JWTManager struct {
	keys      map[string][]byte // kid -> HMAC secret; "" for the single-secret setup
	activeKid string
	method    jwt.SigningMethod
	duration  time.Duration // default token lifetime
}

// NewJWTManager returns a manager using one shared secret.
func NewJWTManager(secretKey, algorithm string, duration time.Duration) (*JWTManager, error) {
	return NewJWTManagerFromKeys(map[string]string{"": secretKey}, "", algorithm, duration)
}

// NewJWTManagerFromKeys returns a manager that signs with the active key and
// accepts tokens signed by any of the provided keys, selected by the kid header.
func NewJWTManagerFromKeys(keys map[string]string, activeKid, algorithm string, duration time.Duration) (*JWTManager, error) {
	method, err := signingMethod(algorithm)
	if err != nil {
		return nil, err
	}
	if _, ok := keys[activeKid]; !ok {
		return nil, fmt.Errorf("active key %q not configured", activeKid)
	}
	m := &JWTManager{
		keys:      make(map[string][]byte, len(keys)),
		activeKid: activeKid,
		method:    method,
		duration:  duration,
	}
	for kid, secret := range keys {
		if secret == "" {
			return nil, fmt.Errorf("empty secret for key %q", kid)
		}
		m.keys[kid] = []byte(secret)
	}
	return m, nil
}

func signingMethod(algorithm string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(algorithm) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	}
	return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
}

// IssueToken signs a token for userID with the default lifetime.
func (m *JWTManager) IssueToken(userID string) (string, time.Time, error) {
	return m.IssueTokenWithTTL(userID, m.duration)
}

// IssueTokenWithTTL signs a token for userID that expires after ttl.
func (m *JWTManager) IssueTokenWithTTL(userID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(m.method, claims)
	if m.activeKid != "" {
		token.Header["kid"] = m.activeKid
	}

	signed, err := token.SignedString(m.keys[m.activeKid])
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ResolveUser verifies the token and returns its subject.
func (m *JWTManager) ResolveUser(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, _ := token.Header["kid"].(string)
	key, ok := m.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}
