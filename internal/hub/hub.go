// Package hub tracks connection lifecycle for the chat fan-out service.
// Each live connection owns a registry entry and a broadcast subscriber;
// the registry lock is held only for insert and remove, never across I/O.
package hub

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/liqtags/relaychat/internal/broadcast"
	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/pkg/log"
)

// Hub is the connection registry plus the shared broadcaster.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	bc       *broadcast.Broadcaster
}

// Session bundles one connection's identity, its broadcast subscriber,
// and the cancellation shared by its reader and forwarder tasks.
type Session struct {
	ID  string
	Sub *broadcast.Subscriber

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce  sync.Once
	closeHooks []func()
}

// New creates a Hub whose subscribers buffer up to capacity messages.
func New(capacity int) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		bc:       broadcast.New(capacity),
	}
}

// Connect creates a session: a fresh connection ID, a subscriber on the
// shared broadcaster, and a registry entry. The subscriber exists before
// the entry is inserted, so no registered session lacks a consumer.
func (h *Hub) Connect() *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:     uuid.NewString(),
		Sub:    h.bc.Subscribe(),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	log.L().Debug().Str(log.FieldConnID, s.ID).Msg("connection registered")
	return s
}

// Disconnect removes the session from the registry, unsubscribes it,
// runs its close hooks, and cancels its forwarding task. Idempotent:
// teardown races its own natural termination safely.
func (h *Hub) Disconnect(s *Session) {
	s.closeOnce.Do(func() {
		h.mu.Lock()
		delete(h.sessions, s.ID)
		h.mu.Unlock()

		h.bc.Unsubscribe(s.Sub)
		for _, hook := range s.closeHooks {
			hook()
		}
		s.cancel()

		log.L().Debug().Str(log.FieldConnID, s.ID).Msg("connection deregistered")
	})
}

// Publish delivers msg to every connected session, including the sender's.
func (h *Hub) Publish(msg domain.ChatMessage) {
	h.bc.Publish(msg)
}

// Count returns the number of currently registered connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Context is cancelled when the session is disconnected.
func (s *Session) Context() context.Context {
	return s.ctx
}

// OnClose registers a hook run exactly once during disconnect.
// Must be called before the session is handed to its task pair.
func (s *Session) OnClose(hook func()) {
	s.closeHooks = append(s.closeHooks, hook)
}
