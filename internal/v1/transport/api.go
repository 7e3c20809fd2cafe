package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roomloop/signaling/internal/v1/codes"
	"github.com/roomloop/signaling/internal/v1/logging"
)

// CreateCodeHandler returns a Gin handler that mints an unused room code.
// POST /create_code
func CreateCodeHandler(generator *codes.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := generator.Generate()
		if err != nil {
			logging.Error(c.Request.Context(), "Room code generation failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not allocate a room code"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"code": code})
	}
}
