package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/jonboulle/clockwork"
)

const (
	// keyPrefix namespaces pending entries inside the badger keyspace.
	keyPrefix = "pending:"

	// badgerTTLSlack pads the native badger entry TTL. The timestamp check in
	// TakeIfLive stays authoritative at the boundary; the native TTL only
	// guarantees abandoned entries eventually vanish on their own.
	badgerTTLSlack = time.Minute

	// takeRetries bounds the optimistic-conflict retry loop when messages
	// from one sender race for the same entry.
	takeRetries = 5
)

// BadgerStore keeps pending links in a BadgerDB database so parked links
// survive a restart.
type BadgerStore struct {
	db     *badger.DB
	ttl    time.Duration
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewBadgerStore opens (or creates) the badger database at path.
func NewBadgerStore(path string, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = &badgerLogger{logger: logger.With("component", "badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerStore{
		db:     db,
		ttl:    ttl,
		clock:  clock,
		logger: logger.With("component", "pending_store"),
	}, nil
}

func senderKey(sender string) []byte {
	return []byte(keyPrefix + sender)
}

// Park replaces any existing entry for sender with a fresh one created now.
func (s *BadgerStore) Park(ctx context.Context, sender, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := PendingLink{
		Sender:    sender,
		Link:      link,
		CreatedAt: s.clock.Now().UTC(),
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode pending link: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(senderKey(sender), value).WithTTL(s.ttl + badgerTTLSlack)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to park pending link: %w", err)
	}

	s.logger.DebugContext(ctx, "Parked pending link", "sender", sender)
	return nil
}

// TakeIfLive removes and returns the entry for sender when it exists and is
// still within the TTL. Racing takes for the same sender conflict inside
// badger; the losers retry and observe the key as already consumed.
func (s *BadgerStore) TakeIfLive(ctx context.Context, sender string) (string, bool, error) {
	for attempt := 0; ; attempt++ {
		link, ok, err := s.tryTake(sender)
		if err == nil {
			return link, ok, nil
		}
		if !errors.Is(err, badger.ErrConflict) || attempt >= takeRetries {
			return "", false, fmt.Errorf("failed to take pending link: %w", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, ctxErr
		}
	}
}

func (s *BadgerStore) tryTake(sender string) (string, bool, error) {
	var (
		link string
		live bool
	)

	err := s.db.Update(func(txn *badger.Txn) error {
		link, live = "", false

		item, err := txn.Get(senderKey(sender))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var entry PendingLink
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return fmt.Errorf("failed to decode pending link: %w", err)
		}

		// The entry is deleted either way; an expired one counts as absent
		if err := txn.Delete(senderKey(sender)); err != nil {
			return err
		}

		if s.clock.Since(entry.CreatedAt) > s.ttl {
			return nil
		}

		link, live = entry.Link, true
		return nil
	})

	return link, live, err
}

// PurgeExpired removes entries whose TTL has elapsed and reclaims value-log
// space. Each candidate is re-checked inside its own transaction so a purge
// never deletes an entry that was replaced after the scan.
func (s *BadgerStore) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var candidates [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var entry PendingLink
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				s.logger.WarnContext(ctx, "Skipping undecodable pending entry", "error", err)
				continue
			}

			if s.clock.Since(entry.CreatedAt) > s.ttl {
				candidates = append(candidates, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan pending links: %w", err)
	}

	removed := 0
	for _, key := range candidates {
		deleted := false
		err := s.db.Update(func(txn *badger.Txn) error {
			deleted = false

			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			var entry PendingLink
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			if s.clock.Since(entry.CreatedAt) <= s.ttl {
				// Replaced by a fresh park since the scan; leave it alone
				return nil
			}

			if err := txn.Delete(key); err != nil {
				return err
			}
			deleted = true
			return nil
		})
		if err != nil {
			if errors.Is(err, badger.ErrConflict) {
				// A consumer beat us to the key; nothing left to purge
				continue
			}
			return removed, fmt.Errorf("failed to purge pending link: %w", err)
		}
		if deleted {
			removed++
		}
	}

	// Reclaim value-log space; ErrNoRewrite just means nothing to collect
	if err := s.db.RunValueLogGC(0.7); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		s.logger.WarnContext(ctx, "Badger value log GC failed", "error", err)
	}

	return removed, nil
}

// Close closes the underlying badger database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}

// badgerLogger adapts badger's logger interface to slog. Badger's info-level
// output is chatty, so it maps to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
