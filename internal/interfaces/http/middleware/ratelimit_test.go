package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gateway/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// newFrozenLimiter returns a limiter whose clock only moves when advance is called
func newFrozenLimiter(limit int, window time.Duration) (*RateLimiter, func(time.Duration)) {
	limiter := NewRateLimiter(limit, window)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, func(d time.Duration) { now = now.Add(d) }
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter, _ := newFrozenLimiter(5, time.Minute)
		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("client1"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client1"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter, _ := newFrozenLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))

		assert.True(t, limiter.Allow("clientB"))
		assert.True(t, limiter.Allow("clientB"))
	})

	t.Run("refills over the window", func(t *testing.T) {
		limiter, advance := newFrozenLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("client3"))
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))

		advance(30 * time.Second)
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))

		advance(time.Minute)
		assert.Equal(t, 2, limiter.Remaining("client3"))
	})

	t.Run("remaining for unknown key is the limit", func(t *testing.T) {
		limiter, _ := newFrozenLimiter(7, time.Minute)
		assert.Equal(t, 7, limiter.Remaining("nobody"))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newFrozenLimiter(2, time.Minute)

	router := gin.New()
	router.Use(RateLimit(limiter))
	router.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send().Code)

	blocked := send()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, decodeError(t, blocked).Code)
}
