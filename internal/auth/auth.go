// Package auth turns bearer tokens into the acting identity.
//
// Tokens are HS256 JWTs carrying the user id, email, roles and the superuser
// flag. They are minted by the operator CLI or an external login service;
// this package only verifies them and attaches the identity to the request.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignite/mailing-admin/internal/domain"
)

// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims of an access token.
type Claims struct {
	Email     string   `json:"email"`
	Roles     []string `json:"roles,omitempty"`
	Superuser bool     `json:"superuser,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenManager creates a token manager. secret must not be empty.
func NewTokenManager(secret, issuer string) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue mints a token for u valid for ttl.
func (tm *TokenManager) Issue(u *domain.User, ttl time.Duration) (string, error) {
	now := tm.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:     u.Email,
		Roles:     u.Roles,
		Superuser: u.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(tm.secret)
}

// Parse verifies raw and returns the identity it carries.
func (tm *TokenManager) Parse(raw string) (domain.Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return tm.secret, nil
	},
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return domain.Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return domain.Identity{
		UserID:    id,
		Email:     claims.Email,
		Superuser: claims.Superuser,
		Roles:     claims.Roles,
	}, nil
}

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity attached to ctx, or the anonymous identity.
func IdentityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(ctxKey{}).(domain.Identity)
	return id
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware attaches the identity of a valid bearer token to the request.
// Requests without a token continue anonymously; an invalid token is
// rejected with 401.
func (tm *TokenManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := tm.Parse(raw)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()).Anonymous() {
			unauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="mailing-admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"code":  "unauthenticated",
	})
}
