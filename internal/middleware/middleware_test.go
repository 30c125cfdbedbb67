package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/auth"
	"github.com/lalith-99/teamsync/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "s3cret"
	token, err := auth.GenerateToken("user001", secret, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.Use(AuthMiddleware(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, GetOperator(c))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer " + token, status: http.StatusOK, body: "user001"},
		{name: "lowercase scheme", header: "bearer " + token, status: http.StatusOK, body: "user001"},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestResolveOperator(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	op, err := ResolveOperator(c, " user002 ")
	require.NoError(t, err)
	assert.Equal(t, "user002", op)

	c.Set(ContextKeyOperator, "user001")
	op, err = ResolveOperator(c, "")
	require.NoError(t, err)
	assert.Equal(t, "user001", op)

	op, err = ResolveOperator(c, "user001")
	require.NoError(t, err)
	assert.Equal(t, "user001", op)

	_, err = ResolveOperator(c, "user002")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemory()
	defer limiter.Close()

	r := gin.New()
	r.Use(RequestLogger(zap.NewNop(), nil), RateLimit(limiter, 2, time.Minute, nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
		assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestLoggerKeepsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop(), nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}
