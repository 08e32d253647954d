package hub

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/liqtags/relaychat/internal/config"
	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/pkg/log"
)

// Client runs the per-connection task pair over one websocket: an
// inbound reader and a forwarder draining the session's subscriber.
type Client struct {
	session *Session
	hub     *Hub
	conn    *websocket.Conn
	cfg     config.WebSocketConfig
}

// NewClient wraps an upgraded connection and its session.
func NewClient(session *Session, h *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		session: session,
		hub:     h,
		conn:    conn,
		cfg:     cfg,
	}
}

// Session returns the connection's session.
func (c *Client) Session() *Session {
	return c.session
}

// ReadPump is the inbound reader. Text frames are strictly decoded and
// handed to handle; malformed frames are dropped without affecting the
// connection; non-text frames are ignored. A close frame (or any read
// error) ends the loop and triggers lifecycle teardown.
func (c *Client) ReadPump(handle func(domain.ChatMessage)) {
	defer func() {
		c.hub.Disconnect(c.session)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		kind, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.L().Debug().Str(log.FieldConnID, c.session.ID).Err(err).Msg("read loop ended")
			}
			return
		}

		if kind != websocket.TextMessage {
			continue
		}

		msg, err := domain.DecodeChatMessage(payload)
		if err != nil {
			log.L().Debug().Str(log.FieldConnID, c.session.ID).Err(err).Msg("discarding malformed frame")
			continue
		}

		handle(msg)
	}
}

// WritePump is the forwarding task. It drains the session's subscriber
// onto the connection and terminates silently when the subscriber
// closes, a write fails, or the session is cancelled.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.Disconnect(c.session)
	}()

	done := c.session.Context().Done()

	for {
		select {
		case msg, ok := <-c.session.Sub.C():
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := msg.Encode()
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
