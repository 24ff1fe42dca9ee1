package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func whoami(am *AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthToken(t *testing.T) {
	r := whoami(NewAuthMiddleware(secret, false))
	exp := time.Now().Add(time.Hour).Unix()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "alice", "exp": exp}))
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	// numeric ids as issued by the user service
	token := signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": 42, "exp": exp})
	w = do(r, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
}

func TestRequireAuthRejects(t *testing.T) {
	r := whoami(NewAuthMiddleware(secret, false))
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "alice", "exp": exp})},
		{"expired", signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "alice", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"missing user", signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"exp": exp})},
		{"empty user", signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "", "exp": exp})},
		{"negative numeric user", signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": -7, "exp": exp})},
		{"zero numeric user", signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": 0, "exp": exp})},
		{"fractional numeric user", signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": 42.5, "exp": exp})},
		{"oversized numeric user", signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": 1e20, "exp": exp})},
		{"unsigned", signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": "alice"})},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
		})
	}

	// the anonymous query parameter is ignored unless enabled
	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/me?userId=alice", nil)).Code)
}

func TestRequireAuthAnonymous(t *testing.T) {
	r := whoami(NewAuthMiddleware(secret, true))

	w := do(r, httptest.NewRequest(http.MethodGet, "/me?userId=bob", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)

	// a bad token is not downgraded to anonymous access
	req := httptest.NewRequest(http.MethodGet, "/me?userId=bob", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://chat.example.com"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	w := do(r, req)
	assert.Equal(t, "https://chat.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	w = do(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	assert.Equal(t, http.StatusNoContent, do(r, preflight).Code)

	open := gin.New()
	open.Use(CORS([]string{"*"}))
	open.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = do(open, req)
	assert.Equal(t, "https://evil.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

type countingLimiter struct {
	counts map[string]int
	err    error
}

func (l *countingLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int{}}
	rm := NewRateLimitMiddleware(limiter, nil)

	r := gin.New()
	r.Use(LogApi(nil))
	r.GET("/open", rm.RateLimit(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", NewAuthMiddleware(secret, true).RequireAuth(), rm.RateLimit(1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		assert.Equal(t, want, do(r, httptest.NewRequest(http.MethodGet, "/open", nil)).Code, "request %d", i)
	}

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/me?userId=alice", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodGet, "/me?userId=alice", nil)).Code)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/me?userId=bob", nil)).Code)
	assert.Contains(t, limiter.counts, "rate_limit:alice:/me")
}

func TestRateLimitFailsOpen(t *testing.T) {
	rm := NewRateLimitMiddleware(&countingLimiter{err: errors.New("redis down")}, nil)
	r := gin.New()
	r.GET("/open", rm.RateLimit(1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/open", nil)).Code)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/open", nil)).Code)
}
