package roster

import (
	"context"
	"sync/atomic"
	"time"

	"showdown/metrics"

	"github.com/rs/zerolog/log"
)

// Store holds the current snapshot. Readers never block; Reload builds a new
// snapshot off to the side and swaps it in.
type Store struct {
	source  Source
	current atomic.Pointer[Snapshot]
}

var empty = NewSnapshot(Data{})

// NewStore creates a store with an empty snapshot.
func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Current returns the latest snapshot. It is never nil.
func (s *Store) Current() *Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return empty
}

// Loaded reports whether a snapshot has been loaded at least once.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Reload fetches fresh data and swaps it in. On failure the previous
// snapshot stays current.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	data, err := s.source.Load(ctx)
	metrics.RosterReloads.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(data)
	s.current.Store(snap)
	log.Info().
		Int("teams", len(snap.Teams())).
		Int("monsters", len(snap.Monsters())).
		Int("collection_log_items", len(snap.CollectionLogItems())).
		Msg("Roster reloaded")
	return snap, nil
}

// Run reloads the roster every interval until ctx is done. A non-positive
// interval disables periodic refresh.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil {
				log.Warn().Err(err).Msg("Periodic roster reload failed, keeping previous snapshot")
			}
		}
	}
}
