package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Loader produces the full fragment table from a backing source.
type Loader interface {
	Load(ctx context.Context) ([]*Fragment, error)
}

// Store caches a corpus Snapshot behind a TTL. The refresh is single-flighted:
// concurrent callers that find a stale snapshot collapse into one load, and
// readers holding a fresh snapshot never block on a refresh in progress.
type Store struct {
	loader Loader
	ttl    time.Duration

	mu        sync.RWMutex // guards snapshot and fetchedAt
	snapshot  *Snapshot
	fetchedAt time.Time

	refreshMu sync.Mutex // serializes refreshes
}

// NewStore creates a snapshot store around a loader.
func NewStore(loader Loader, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{loader: loader, ttl: ttl}
}

// Snapshot returns the current snapshot, refreshing it first when stale or
// absent.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.fresh(); snap != nil {
		return snap, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if snap := s.fresh(); snap != nil {
		return snap, nil
	}

	return s.load(ctx)
}

// Refresh forces a reload regardless of TTL.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.load(ctx)
}

func (s *Store) fresh() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot != nil && time.Since(s.fetchedAt) < s.ttl {
		return s.snapshot
	}
	return nil
}

func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	started := time.Now()
	fragments, err := s.loader.Load(ctx)
	if err != nil {
		// Keep serving the stale snapshot if we have one.
		s.mu.RLock()
		stale := s.snapshot
		s.mu.RUnlock()
		if stale != nil {
			slog.Warn("Corpus refresh failed, serving stale snapshot",
				"error", err,
				"age", time.Since(s.fetchedAt))
			return stale, nil
		}
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	snap := NewSnapshot(fragments)

	s.mu.Lock()
	s.snapshot = snap
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	slog.Info("Refreshed corpus snapshot",
		"fragments", snap.Len(),
		"elapsed", time.Since(started))

	return snap, nil
}
