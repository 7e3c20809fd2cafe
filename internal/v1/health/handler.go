// Package health exposes Kubernetes-style liveness and readiness probes.
package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// OccupancyReporter reports current room and member counts. Satisfied by the
// room store.
type OccupancyReporter interface {
	RoomCount() int
	MemberCount() int
}

// Handler manages health check endpoints.
type Handler struct {
	occupancy OccupancyReporter
}

// NewHandler creates a new health check handler.
func NewHandler(occupancy OccupancyReporter) *Handler {
	return &Handler{occupancy: occupancy}
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status    string         `json:"status"`
	Checks    map[string]any `json:"checks"`
	Timestamp string         `json:"timestamp"`
}

// Liveness handles the liveness probe endpoint.
// GET /health/live
// Returns 200 if the process is alive (no dependency checks).
func (h *Handler) Liveness(c *gin.Context) {
	response := LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, response)
}

// Readiness handles the readiness probe endpoint.
// GET /health/ready
// All state is in-process, so readiness reports current occupancy rather
// than probing external dependencies.
func (h *Handler) Readiness(c *gin.Context) {
	checks := map[string]any{
		"store": "healthy",
	}
	if h.occupancy != nil {
		checks["rooms"] = h.occupancy.RoomCount()
		checks["members"] = h.occupancy.MemberCount()
	}

	response := ReadinessResponse{
		Status:    "ready",
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, response)
}
