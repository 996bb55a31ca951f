package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/charsheet-be/internal/common"
	"github.com/isdelr/charsheet-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	users map[string]models.Identity
	err   error
}

func (f *fakeResolver) ResolveIdentity(_ context.Context, userID string) (models.Identity, error) {
	if f.err != nil {
		return models.Identity{}, f.err
	}
	id, ok := f.users[userID]
	if !ok {
		return models.Identity{}, fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
	}
	return id, nil
}

func newGate(t *testing.T, codec *TokenCodec, resolver IdentityResolver) (http.Handler, *models.Identity) {
	t.Helper()
	var seen models.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	})
	return Middleware(codec, "jwt", resolver)(next), &seen
}

func TestMiddleware(t *testing.T) {
	alice := models.Identity{ID: "u1", Name: "Alice", Email: "alice@example.com"}
	resolver := &fakeResolver{users: map[string]models.Identity{"u1": alice}}
	codec := NewTokenCodec([]byte("secret"), time.Hour)

	valid, _, err := codec.Mint("u1")
	require.NoError(t, err)
	ghost, _, err := codec.Mint("u-deleted")
	require.NoError(t, err)
	wrongKey, _, err := NewTokenCodec([]byte("other"), time.Hour).Mint("u1")
	require.NoError(t, err)
	expired, _, err := codec.WithClock(fixedClock(time.Now().Add(-2 * time.Hour))).Mint("u1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		expected int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"valid cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: valid}) }, http.StatusNoContent},
		{"valid bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusNoContent},
		{"empty cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: ""}) }, http.StatusUnauthorized},
		{"garbage token", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: "garbage"}) }, http.StatusUnauthorized},
		{"wrong key", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: wrongKey}) }, http.StatusUnauthorized},
		{"expired", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: expired}) }, http.StatusUnauthorized},
		{"unknown user", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: ghost}) }, http.StatusUnauthorized},
		{"non bearer scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, seen := newGate(t, codec, resolver)
			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			gate.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
			if tt.expected == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message":"Not authorized"}`, rec.Body.String())
			} else {
				assert.Equal(t, alice, *seen)
			}
		})
	}
}

func TestMiddleware_StoreFailureIsInternal(t *testing.T) {
	codec := NewTokenCodec([]byte("secret"), time.Hour)
	tok, _, err := codec.Mint("u1")
	require.NoError(t, err)

	gate, _ := newGate(t, codec, &fakeResolver{err: errors.New("disk I/O error")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: tok})
	rec := httptest.NewRecorder()

	gate.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk")
}

func TestCookiePolicy(t *testing.T) {
	policy := CookiePolicy{Name: "jwt", Secure: true, SameSite: http.SameSiteStrictMode}

	rec := httptest.NewRecorder()
	policy.Set(rec, "tok", time.Now().Add(30*24*time.Hour))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "jwt", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.InDelta(t, 30*24*3600, c.MaxAge, 5)

	rec = httptest.NewRecorder()
	policy.Clear(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
