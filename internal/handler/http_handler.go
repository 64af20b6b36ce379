package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/registry"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/service"
)

// HTTPHandler exposes the read-only session API used by operators and by
// clients recovering over plain HTTP.
type HTTPHandler struct {
	service service.Coordinator
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(svc service.Coordinator) *HTTPHandler {
	return &HTTPHandler{service: svc}
}

// RegisterRoutes registers the API routes on a gin engine.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api/v1")
	{
		api.GET("/sessions/:id/snapshot", h.getSnapshot)
	}
}

func (h *HTTPHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) getSnapshot(c *gin.Context) {
	sessionID := c.Param("id")

	snap, err := h.service.Snapshot(sessionID)
	if err != nil {
		if errors.Is(err, registry.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": snap})
}
