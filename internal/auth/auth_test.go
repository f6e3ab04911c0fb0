package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, VerifyPassword("hunter22", hash))
	assert.False(t, VerifyPassword("hunter23", hash))

	other, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, err := tm.Issue("user-1", "alice")
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyRejects(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	valid, err := tm.Issue("user-1", "alice")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("another-secret", time.Hour)
		_, err := other.Verify(valid)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(valid, ".")
		require.Len(t, parts, 3)
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"user-2","username":"mallory","exp":4102444800}`))
		_, err := tm.Verify(parts[0] + "." + payload + "." + parts[2])
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenManager("secret", time.Hour)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, err := past.Issue("user-1", "alice")
		require.NoError(t, err)

		_, err = tm.Verify(expired)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		str, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tm.Verify(str)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "user-1"})
		str, err := noExp.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = tm.Verify(str)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, err := tm.Issue("user-1", "alice")
	require.NoError(t, err)

	var seen *Claims
	protected := Middleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, "user-1", seen.UserID)
			} else {
				assert.Nil(t, seen)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestQueryTokenMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, err := tm.Issue("user-1", "alice")
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	QueryTokenMiddleware(tm)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	Middleware(tm)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ws?token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
