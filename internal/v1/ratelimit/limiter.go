// Package ratelimit implements IP-based rate limiting for the HTTP and
// WebSocket surfaces, backed by an in-process memory store.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/roomloop/signaling/internal/v1/config"
	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/metrics"
)

// RateLimiter holds the per-endpoint limiter instances.
type RateLimiter struct {
	createCode *limiter.Limiter
	wsIP       *limiter.Limiter
	store      limiter.Store
}

// NewRateLimiter creates a RateLimiter from the configured rate strings
// (ulule "limit-period" format, e.g. "30-M").
func NewRateLimiter(cfg *config.Config) (*RateLimiter, error) {
	createCodeRate, err := limiter.NewRateFromFormatted(cfg.RateLimitCreateCode)
	if err != nil {
		return nil, fmt.Errorf("invalid create_code rate: %w", err)
	}

	wsIPRate, err := limiter.NewRateFromFormatted(cfg.RateLimitWsIP)
	if err != nil {
		return nil, fmt.Errorf("invalid WS IP rate: %w", err)
	}

	store := memory.NewStore()

	return &RateLimiter{
		createCode: limiter.New(store, createCodeRate),
		wsIP:       limiter.New(store, wsIPRate),
		store:      store,
	}, nil
}

// CreateCodeMiddleware returns a Gin middleware limiting room code creation
// per client IP.
func (rl *RateLimiter) CreateCodeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := c.ClientIP()

		limitCtx, err := rl.createCode.Get(ctx, key)
		if err != nil {
			// Fail open: availability beats strictness for an in-memory store.
			logging.Error(ctx, "Rate limiter store failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limitCtx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(limitCtx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(limitCtx.Reset, 10))

		if limitCtx.Reached {
			metrics.RateLimitExceeded.WithLabelValues("create_code", "ip").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": limitCtx.Reset,
			})
			return
		}

		c.Next()
	}
}

// CheckWebSocket checks if a WebSocket connection attempt from this client IP
// should be allowed. Returns true if allowed; on refusal the 429 response has
// already been written.
func (rl *RateLimiter) CheckWebSocket(c *gin.Context) bool {
	ctx := c.Request.Context()

	ip := c.ClientIP()
	ipCtx, err := rl.wsIP.Get(ctx, ip)
	if err != nil {
		logging.Error(ctx, "WS rate limiter store failed", zap.Error(err))
		return true // Fail open
	}

	if ipCtx.Reached {
		metrics.RateLimitExceeded.WithLabelValues("websocket_connect", "ip").Inc()
		c.Header("X-RateLimit-Retry-After", strconv.FormatInt(ipCtx.Reset, 10))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many connections from this IP"})
		return false
	}

	return true
}
