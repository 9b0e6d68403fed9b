package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"user": Username(c)}) }
	r.GET("/ping", ok)
	r.POST("/ping", ok)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	return r
}

func do(r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	r := newEngine(limiter.Middleware())

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "", nil).Code)

	w := do(r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestDeduplication(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	r := newEngine(d.Middleware())

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/ping", `{"a":1}`, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/ping", `{"a":1}`, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/ping", `{"a":2}`, nil).Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "", nil).Code)
}

func TestDeduplicationWindowExpires(t *testing.T) {
	now := time.Now()
	d := NewDeduplicator(time.Second)
	d.now = func() time.Time { return now }

	assert.False(t, d.seen("k"))
	assert.True(t, d.seen("k"))

	now = now.Add(2 * time.Second)
	assert.False(t, d.seen("k"))
}

type stubParser map[string]string

func (s stubParser) ParseToken(token string) (string, error) {
	if user, ok := s[token]; ok {
		return user, nil
	}
	return "", errors.New("invalid token")
}

func TestRequireAuth(t *testing.T) {
	r := newEngine(RequireAuth(stubParser{"good": "alice"}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/ping", "", map[string]string{"Authorization": tt.header})
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user":"alice"}`, w.Body.String())
			}
		})
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8), NewDeduplicator(time.Minute).Middleware())

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/ping", "small", nil).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, do(r, http.MethodPost, "/ping", "this body is too large", nil).Code)
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery())

	w := do(r, http.MethodGet, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestTimeout(t *testing.T) {
	r := newEngine(Timeout(20 * time.Millisecond))

	w := do(r, http.MethodGet, "/slow", "", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "GATEWAY_TIMEOUT")

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "", nil).Code)
}

func TestMetricsAndLogger(t *testing.T) {
	r := newEngine(Logger(), Metrics())

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/missing", "", nil).Code)
}
