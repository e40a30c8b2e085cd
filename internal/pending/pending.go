// Package pending implements the pending-link store: at most one parked link
// per sender, consumed at most once, expiring after a fixed TTL.
package pending

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/recallbot/internal/config"
)

// PendingLink is a URL parked against a sender, awaiting a follow-up message
// that supplies context for it.
type PendingLink struct {
	Sender    string    `json:"sender"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds at most one outstanding link per sender, with expiry.
//
// Park and TakeIfLive are linearizable per sender: two concurrent takes can
// never both return the same link, and a park is never lost to a concurrent
// replacement. Operations on different senders do not block each other, and
// none of them suspend on external services.
type Store interface {
	// Park replaces any existing entry for sender (live or expired) with a
	// fresh one created now. The previous link, if any, is discarded.
	Park(ctx context.Context, sender, link string) error

	// TakeIfLive atomically removes and returns the entry for sender when one
	// exists and has not outlived the TTL. It reports false when there is no
	// live entry; an expired entry counts as absent.
	TakeIfLive(ctx context.Context, sender string) (string, bool, error)

	// PurgeExpired removes expired entries left behind by senders that never
	// followed up and returns the number removed. Expiry itself is enforced
	// by TakeIfLive; purging only bounds storage growth.
	PurgeExpired(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// New creates the pending store backend selected by cfg.Backend.
func New(cfg config.PendingConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(cfg.TTL, clockwork.NewRealClock()), nil
	case "badger":
		return NewBadgerStore(cfg.Path, cfg.TTL, clockwork.NewRealClock(), logger)
	default:
		return nil, fmt.Errorf("unknown pending store backend %q", cfg.Backend)
	}
}
