package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chat-realtime/pkg/logger"
	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateLimiter reports whether one more request under key fits in window
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RateLimitMiddleware struct {
	limiter RateLimiter
	log     *logger.Logger
}

func NewRateLimitMiddleware(limiter RateLimiter, log *logger.Logger) *RateLimitMiddleware {
	if log == nil {
		log = logger.NewNop()
	}
	return &RateLimitMiddleware{
		limiter: limiter,
		log:     log.Named("ratelimit"),
	}
}

// RateLimit limits requests per user and endpoint, or per client IP before
// authentication. Requests pass when the limiter is unreachable.
func (rm *RateLimitMiddleware) RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if requests <= 0 {
			c.Next()
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		key := fmt.Sprintf("rate_limit_ip:%s:%s", c.ClientIP(), endpoint)
		if userID := UserID(c); userID != "" {
			key = fmt.Sprintf("rate_limit:%s:%s", userID, endpoint)
		}

		allowed, err := rm.limiter.CheckRateLimit(c.Request.Context(), key, requests, window)
		if err != nil {
			rm.log.Warn("Rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}

		if !allowed {
			response.Abort(c, http.StatusTooManyRequests, response.ErrCodeRateLimited,
				fmt.Sprintf("Too many requests. Limit: %d per %v", requests, window))
			return
		}

		c.Next()
	}
}
