package pending

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// shardCount spreads senders across independent locks so unrelated senders
// never contend with each other.
const shardCount = 16

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]PendingLink
}

// MemoryStore keeps pending links in process memory. It is the default
// backend: parked links do not survive a restart, which is acceptable for a
// two-minute correlation window.
type MemoryStore struct {
	ttl    time.Duration
	clock  clockwork.Clock
	shards [shardCount]*memoryShard
}

// NewMemoryStore creates an in-memory pending store with the given TTL.
func NewMemoryStore(ttl time.Duration, clock clockwork.Clock) *MemoryStore {
	s := &MemoryStore{ttl: ttl, clock: clock}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]PendingLink)}
	}
	return s
}

func (s *MemoryStore) shard(sender string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sender))
	return s.shards[h.Sum32()%shardCount]
}

// Park replaces any existing entry for sender with a fresh one created now.
func (s *MemoryStore) Park(ctx context.Context, sender, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sh := s.shard(sender)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	// A map assignment discards the previous entry, live or expired
	sh.entries[sender] = PendingLink{
		Sender:    sender,
		Link:      link,
		CreatedAt: s.clock.Now(),
	}
	return nil
}

// TakeIfLive removes and returns the entry for sender when it exists and is
// still within the TTL.
func (s *MemoryStore) TakeIfLive(ctx context.Context, sender string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	sh := s.shard(sender)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[sender]
	if !ok {
		return "", false, nil
	}

	// Lazy expiry: the entry is removed either way, but an expired one
	// counts as absent
	delete(sh.entries, sender)
	if s.clock.Since(entry.CreatedAt) > s.ttl {
		return "", false, nil
	}
	return entry.Link, true, nil
}

// PurgeExpired removes entries whose TTL has elapsed.
func (s *MemoryStore) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for sender, entry := range sh.entries {
			if s.clock.Since(entry.CreatedAt) > s.ttl {
				delete(sh.entries, sender)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
