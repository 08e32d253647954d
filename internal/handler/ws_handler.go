package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/liqtags/relaychat/internal/archive"
	"github.com/liqtags/relaychat/internal/audit"
	"github.com/liqtags/relaychat/internal/config"
	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/hub"
	"github.com/liqtags/relaychat/internal/presence"
	applog "github.com/liqtags/relaychat/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades HTTP requests into chat connections.
type WSHandler struct {
	hub      *hub.Hub
	registry presence.Registry
	archiver archive.Archiver
	wsCfg    config.WebSocketConfig
}

// NewWSHandler creates a websocket handler.
func NewWSHandler(h *hub.Hub, registry presence.Registry, archiver archive.Archiver, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		registry: registry,
		archiver: archiver,
		wsCfg:    wsCfg,
	}
}

// HandleWebSocket upgrades the request and starts the connection's
// reader and forwarder tasks. The optional username query parameter
// names the connection in presence; it does not authenticate.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		applog.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	username := c.Query("username")

	session := h.hub.Connect()
	client := hub.NewClient(session, h.hub, conn, h.wsCfg)

	if err := h.registry.Register(c.Request.Context(), session.ID, username); err != nil {
		applog.L().Error().Err(err).Str(applog.FieldConnID, session.ID).Msg("presence register failed")
	}
	session.OnClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.registry.Deregister(ctx, session.ID); err != nil {
			applog.L().Error().Err(err).Str(applog.FieldConnID, session.ID).Msg("presence deregister failed")
		}
		audit.LogWithDetail(ctx, audit.ActionDisconnect, "", applog.FieldConnID, session.ID)
	})

	audit.LogWithDetail(c.Request.Context(), audit.ActionConnect, "", applog.FieldConnID, session.ID)

	go client.WritePump()
	go client.ReadPump(h.handleMessage(session))
}

// handleMessage broadcasts a decoded frame to every connection,
// including the sender's, then archives it best effort.
func (h *WSHandler) handleMessage(session *hub.Session) func(domain.ChatMessage) {
	return func(msg domain.ChatMessage) {
		h.hub.Publish(msg)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		audit.LogWithDetail(ctx, audit.ActionMessage, "", applog.FieldUsername, msg.Username)
		if err := h.archiver.Archive(ctx, &msg); err != nil {
			applog.L().Error().Err(err).Str(applog.FieldConnID, session.ID).Msg("archive failed")
		}
	}
}
