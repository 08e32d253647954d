// Package broadcast provides the fan-out primitive for the chat service:
// one publish point, many independent subscribers, each with its own
// bounded buffer. A lagging subscriber loses its oldest undelivered
// messages once the buffer fills; delivery is never an error for the
// publisher, including when no subscribers remain.
package broadcast

import (
	"context"
	"errors"
	"sync"

	"github.com/liqtags/relaychat/internal/domain"
)

// DefaultCapacity is the per-subscriber buffer capacity.
const DefaultCapacity = 100

// ErrClosed is returned by Recv once a subscriber has been unsubscribed
// and its buffer drained.
var ErrClosed = errors.New("subscriber closed")

// Broadcaster delivers each published message to every current subscriber.
type Broadcaster struct {
	mu       sync.RWMutex
	subs     map[uint64]*Subscriber
	nextID   uint64
	capacity int
}

// Subscriber receives its own copy of every message published while it
// is subscribed, up to its buffer capacity.
type Subscriber struct {
	id uint64
	ch chan domain.ChatMessage

	mu      sync.Mutex
	closed  bool
	dropped uint64
}

// New creates a Broadcaster with the given per-subscriber buffer capacity.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Broadcaster {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Broadcaster{
		subs:     make(map[uint64]*Subscriber),
		capacity: capacity,
	}
}

// Subscribe registers a new subscriber. Messages published after this
// call are delivered to it.
func (b *Broadcaster) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &Subscriber{
		id: b.nextID,
		ch: make(chan domain.ChatMessage, b.capacity),
	}
	b.subs[s.id] = s
	return s
}

// Unsubscribe removes a subscriber. Messages already buffered remain
// receivable; after they drain, Recv reports ErrClosed. Safe to call
// more than once.
func (b *Broadcaster) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	if _, ok := b.subs[s.id]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, s.id)
	b.mu.Unlock()

	// No publisher can reach the subscriber once it is out of the map,
	// so closing under its lock cannot race a send.
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
}

// Publish delivers msg to every current subscriber. It never blocks on
// a slow subscriber and never fails, even with zero subscribers.
func (b *Broadcaster) Publish(msg domain.ChatMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		s.push(msg)
	}
}

// Len returns the number of current subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// push enqueues msg, evicting the oldest undelivered message if the
// buffer is full. The subscriber lock serializes publishers, so the
// send after an eviction cannot block.
func (s *Subscriber) push(msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	for {
		select {
		case s.ch <- msg:
			return
		default:
		}

		select {
		case <-s.ch:
			s.dropped++
		default:
			// Receiver drained concurrently; retry the send.
		}
	}
}

// C exposes the delivery channel for select loops. The channel is
// closed after Unsubscribe once drained reads complete.
func (s *Subscriber) C() <-chan domain.ChatMessage {
	return s.ch
}

// Recv returns the next message, blocking until one arrives, the
// subscriber is closed, or ctx is done.
func (s *Subscriber) Recv(ctx context.Context) (domain.ChatMessage, error) {
	select {
	case msg, ok := <-s.ch:
		if !ok {
			return domain.ChatMessage{}, ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return domain.ChatMessage{}, ctx.Err()
	}
}

// Dropped returns how many messages this subscriber has lost to
// buffer overflow.
func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
