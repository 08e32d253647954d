package handler

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liqtags/relaychat/internal/archive"
	"github.com/liqtags/relaychat/internal/config"
	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/hub"
	"github.com/liqtags/relaychat/internal/presence"
)

func newChatServer(t *testing.T) (*httptest.Server, *hub.Hub, *presence.LocalRegistry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      5 * time.Second,
		MaxMessageSize: 4096,
	}

	chatHub := hub.New(100)
	registry := presence.NewLocalRegistry()
	wsHandler := NewWSHandler(chatHub, registry, archive.Disabled{}, wsCfg)

	r := gin.New()
	r.GET("/ws", wsHandler.HandleWebSocket)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatHub, registry
}

func dialChat(t *testing.T, srv *httptest.Server, username string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?username=" + username
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSessions(t *testing.T, h *hub.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.Count() == n
	}, 2*time.Second, 10*time.Millisecond)
}

func encodeMessage(t *testing.T, username, content string) []byte {
	t.Helper()
	msg := domain.ChatMessage{
		Username:  username,
		Content:   content,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	data, err := msg.Encode()
	require.NoError(t, err)
	return data
}

func readText(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)
	return data
}

func assertNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestWSHandler_BroadcastReachesEveryone(t *testing.T) {
	srv, chatHub, _ := newChatServer(t)

	a := dialChat(t, srv, "alice")
	b := dialChat(t, srv, "bob")
	c := dialChat(t, srv, "carol")
	waitForSessions(t, chatHub, 3)

	payload := encodeMessage(t, "alice", "hello everyone")
	require.NoError(t, a.WriteMessage(websocket.TextMessage, payload))

	// Everyone receives the exact message, including the sender.
	for _, conn := range []*websocket.Conn{a, b, c} {
		got := readText(t, conn)
		assert.JSONEq(t, string(payload), string(got))
	}

	// The sender receives its own message exactly once.
	assertNoMessage(t, a)
}

func TestWSHandler_MalformedFramesDropped(t *testing.T) {
	srv, chatHub, _ := newChatServer(t)

	a := dialChat(t, srv, "alice")
	b := dialChat(t, srv, "bob")
	waitForSessions(t, chatHub, 2)

	// None of these produce a broadcast or close the connection.
	bad := [][]byte{
		[]byte(`not json`),
		[]byte(`{"username":"alice","content":"x"}`),
		[]byte(`{"username":"alice","content":"x","timestamp":"2026-01-01T00:00:00Z","extra":1}`),
		[]byte(`[]`),
	}
	for _, frame := range bad {
		require.NoError(t, a.WriteMessage(websocket.TextMessage, frame))
	}

	payload := encodeMessage(t, "alice", "still here")
	require.NoError(t, a.WriteMessage(websocket.TextMessage, payload))

	got := readText(t, b)
	assert.JSONEq(t, string(payload), string(got))
	assertNoMessage(t, b)
}

func TestWSHandler_DisconnectLeavesOthersRunning(t *testing.T) {
	srv, chatHub, registry := newChatServer(t)

	a := dialChat(t, srv, "alice")
	b := dialChat(t, srv, "bob")
	c := dialChat(t, srv, "carol")
	waitForSessions(t, chatHub, 3)

	require.NoError(t, b.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	))
	b.Close()
	waitForSessions(t, chatHub, 2)

	require.Eventually(t, func() bool {
		count, err := registry.Count(context.Background())
		return err == nil && count == 2
	}, 2*time.Second, 10*time.Millisecond)

	payload := encodeMessage(t, "carol", "bob left")
	require.NoError(t, c.WriteMessage(websocket.TextMessage, payload))

	for _, conn := range []*websocket.Conn{a, c} {
		got := readText(t, conn)
		assert.JSONEq(t, string(payload), string(got))
	}
}

func TestWSHandler_PresenceTracksUsernames(t *testing.T) {
	srv, chatHub, registry := newChatServer(t)

	dialChat(t, srv, "alice")
	dialChat(t, srv, "bob")
	waitForSessions(t, chatHub, 2)

	require.Eventually(t, func() bool {
		names, err := registry.Usernames(context.Background())
		return err == nil && len(names) == 2
	}, 2*time.Second, 10*time.Millisecond)

	names, err := registry.Usernames(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)
}
