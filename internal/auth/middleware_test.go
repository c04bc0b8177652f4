package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(issuer *Issuer) (http.Handler, *string) {
	var seen string
	h := Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UsernameFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &seen
}

func TestMiddleware_ValidToken(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, _, err := issuer.Issue("bob")
	require.NoError(t, err)

	h, seen := protected(issuer)
	req := httptest.NewRequest(http.MethodGet, "/api/consultations/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "bob", *seen)
}

func TestMiddleware_Rejects(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	expired, _, err := NewIssuer("secret", time.Hour).
		WithClock(fixedClock(time.Now().Add(-2 * time.Hour))).
		Issue("bob")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"no header", "", "missing bearer token"},
		{"wrong scheme", "Basic Ym9iOnB3", "missing bearer token"},
		{"empty token", "Bearer ", "missing bearer token"},
		{"garbage", "Bearer abc", "invalid token"},
		{"expired", "Bearer " + expired, "token expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, seen := protected(issuer)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.Empty(t, *seen)
		})
	}
}

func TestUsernameFromContext_Missing(t *testing.T) {
	_, err := UsernameFromContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
