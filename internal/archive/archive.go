// Package archive persists broadcast chat messages to a durable log so
// conversations survive process restarts. Archiving is best effort:
// fan-out never blocks on it.
package archive

import (
	"context"

	"github.com/liqtags/relaychat/internal/domain"
)

// Archiver records chat messages after they have been broadcast.
type Archiver interface {
	Archive(ctx context.Context, msg *domain.ChatMessage) error
	Close() error
}

// Disabled is a no-op Archiver used when archiving is turned off.
type Disabled struct{}

func (Disabled) Archive(ctx context.Context, msg *domain.ChatMessage) error { return nil }

func (Disabled) Close() error { return nil }
