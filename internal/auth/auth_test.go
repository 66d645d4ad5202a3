package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailing-admin/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:          uuid.New(),
		Email:       "boss@example.com",
		Roles:       []string{domain.RoleManager},
		IsSuperuser: false,
	}
}

func TestIssueAndParse(t *testing.T) {
	tm, err := NewTokenManager("s3cret", "mailing-admin")
	require.NoError(t, err)

	u := testUser()
	raw, err := tm.Issue(u, time.Hour)
	require.NoError(t, err)

	id, err := tm.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, u.Email, id.Email)
	assert.True(t, id.HasRole(domain.RoleManager))
	assert.False(t, id.Superuser)
}

func TestParseRejects(t *testing.T) {
	tm, err := NewTokenManager("s3cret", "mailing-admin")
	require.NoError(t, err)
	u := testUser()

	expired, err := tm.Issue(u, -time.Minute)
	require.NoError(t, err)

	other, err := NewTokenManager("different", "mailing-admin")
	require.NoError(t, err)
	wrongKey, err := other.Issue(u, time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewTokenManager("s3cret", "someone-else")
	require.NoError(t, err)
	wrongIssuer, err := otherIssuer.Issue(u, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID.String(), Issuer: "mailing-admin"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"alg none":     none,
		"garbage":      "not.a.token",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tm.Parse(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", "x")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", BearerToken(r))

	r.Header.Set("Authorization", "bearer abc.def")
	assert.Equal(t, "abc.def", BearerToken(r))

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, BearerToken(r))
}

func TestMiddleware(t *testing.T) {
	tm, err := NewTokenManager("s3cret", "mailing-admin")
	require.NoError(t, err)
	u := testUser()
	raw, err := tm.Issue(u, time.Hour)
	require.NoError(t, err)

	var seen domain.Identity
	h := tm.Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + raw, http.StatusNoContent},
		{"no token", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Equal(t, u.ID, seen.UserID)
}
