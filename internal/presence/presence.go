// Package presence tracks live chat connections so operators (and the
// /presence endpoint) can see who is online. The Redis implementation
// lets multiple instances share one view; the local one serves
// single-node deployments and tests.
package presence

import (
	"context"
	"sync"
)

// Registry tracks connected chat users.
type Registry interface {
	Register(ctx context.Context, connID, username string) error
	Deregister(ctx context.Context, connID string) error
	Count(ctx context.Context) (int, error)
	Usernames(ctx context.Context) ([]string, error)
	Close() error
}

// LocalRegistry is an in-process Registry.
type LocalRegistry struct {
	mu    sync.RWMutex
	conns map[string]string // connID -> username
}

// NewLocalRegistry creates an in-process registry.
func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{conns: make(map[string]string)}
}

func (r *LocalRegistry) Register(ctx context.Context, connID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = username
	return nil
}

func (r *LocalRegistry) Deregister(ctx context.Context, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
	return nil
}

func (r *LocalRegistry) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns), nil
}

func (r *LocalRegistry) Usernames(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for _, name := range r.conns {
		names = append(names, name)
	}
	return names, nil
}

func (r *LocalRegistry) Close() error { return nil }
