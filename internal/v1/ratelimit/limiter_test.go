package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomloop/signaling/internal/v1/config"
)

func testConfig(createCode, wsIP string) *config.Config {
	return &config.Config{
		RateLimitCreateCode: createCode,
		RateLimitWsIP:       wsIP,
	}
}

func TestNewRateLimiter_InvalidRates(t *testing.T) {
	_, err := NewRateLimiter(testConfig("garbage", "60-M"))
	assert.Error(t, err)

	_, err = NewRateLimiter(testConfig("30-M", "garbage"))
	assert.Error(t, err)
}

func TestCreateCodeMiddleware_EnforcesLimit(t *testing.T) {
	rl, err := NewRateLimiter(testConfig("2-M", "60-M"))
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/create_code", rl.CreateCodeMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": "aaaaaa"})
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/create_code", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	assert.Equal(t, http.StatusOK, do().Code)
	assert.Equal(t, http.StatusOK, do().Code)

	resp := do()
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("X-RateLimit-Limit"))
}

func TestCreateCodeMiddleware_LimitIsPerIP(t *testing.T) {
	rl, err := NewRateLimiter(testConfig("1-M", "60-M"))
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/create_code", rl.CreateCodeMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(addr string) int {
		req := httptest.NewRequest("POST", "/create_code", nil)
		req.RemoteAddr = addr
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	assert.Equal(t, http.StatusOK, do("203.0.113.7:1234"))
	assert.Equal(t, http.StatusTooManyRequests, do("203.0.113.7:9999"))
	assert.Equal(t, http.StatusOK, do("198.51.100.2:1234"))
}

func TestCheckWebSocket_EnforcesLimit(t *testing.T) {
	rl, err := NewRateLimiter(testConfig("30-M", "2-M"))
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)

	check := func() (bool, int) {
		resp := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(resp)
		c.Request = httptest.NewRequest("GET", "/ws", nil)
		c.Request.RemoteAddr = "203.0.113.7:1234"
		allowed := rl.CheckWebSocket(c)
		return allowed, resp.Code
	}

	allowed, _ := check()
	assert.True(t, allowed)
	allowed, _ = check()
	assert.True(t, allowed)

	allowed, code := check()
	assert.False(t, allowed)
	assert.Equal(t, http.StatusTooManyRequests, code)
}
