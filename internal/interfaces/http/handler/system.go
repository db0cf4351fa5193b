package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles liveness endpoints
type SystemHandler struct {
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{startTime: time.Now()}
}

// Health reports that the service is up. The response shape is flat; the
// frontend and load balancer probe it directly.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}
