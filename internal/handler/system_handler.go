package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/liqtags/relaychat/internal/hub"
	"github.com/liqtags/relaychat/internal/presence"
	"github.com/liqtags/relaychat/pkg/response"
)

// SystemHandler exposes health and presence endpoints.
type SystemHandler struct {
	hub      *hub.Hub
	registry presence.Registry
}

// NewSystemHandler creates a system handler.
func NewSystemHandler(h *hub.Hub, registry presence.Registry) *SystemHandler {
	return &SystemHandler{hub: h, registry: registry}
}

// Health handles GET /health.
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// Presence handles GET /api/presence: who is online, cluster-wide when
// the registry is Redis-backed.
func (h *SystemHandler) Presence(c *gin.Context) {
	count, err := h.registry.Count(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to count connections")
		return
	}
	names, err := h.registry.Usernames(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list connections")
		return
	}
	response.Success(c, gin.H{
		"connections": count,
		"usernames":   names,
		"local":       h.hub.Count(),
	})
}
