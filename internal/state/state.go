// Package state holds the single mutable now-playing snapshot.
//
// The playback poller is the only writer. The HTTP handlers, the exporter, and
// the status TUI read through [Store.Snapshot], which returns a consistent
// copy, so readers never observe a half-written record and never block the
// poller for longer than the copy.
package state

import (
	"slices"
	"sync"
	"time"
)

// Snapshot is the current view of playback, replaced wholesale on every
// successful poll and left untouched on failure (last-known-good policy).
type Snapshot struct {
	// HasTrack is false iff the most recent successful poll returned no
	// active item. IsPlaying is meaningless when HasTrack is false.
	HasTrack   bool
	IsPlaying  bool
	Title      string
	Artists    []string
	Album      string
	ArtworkURL string
	Progress   time.Duration
	Duration   time.Duration

	// LastPlayingAt is the last time a track was confirmed playing. The
	// presentation layer uses it for fade-out timing. Nil until the first
	// playing poll.
	LastPlayingAt *time.Time

	// LastPolledAt is the time of the last successful poll, zero before the
	// first. Exposed so consumers can surface staleness during outages.
	LastPolledAt time.Time
}

// Store guards the snapshot with single-writer, multi-reader discipline.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// SetClock replaces the time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SetTrack replaces the snapshot with an active track. LastPlayingAt is
// advanced only when the track is actually playing; a paused poll leaves the
// previous timestamp in place. Both updates happen in one critical section.
func (s *Store) SetTrack(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	snap.HasTrack = true
	snap.LastPlayingAt = s.snap.LastPlayingAt
	if snap.IsPlaying {
		snap.LastPlayingAt = &now
	}
	snap.LastPolledAt = now
	s.snap = snap
}

// SetIdle records a successful poll that found nothing playing. LastPlayingAt
// is deliberately not touched so fade-out timing keeps working.
func (s *Store) SetIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.snap = Snapshot{
		LastPlayingAt: s.snap.LastPlayingAt,
		LastPolledAt:  now,
	}
}

// Snapshot returns a copy of the current snapshot. The artists slice is cloned
// so readers can hold the result without racing the writer.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Artists = slices.Clone(s.snap.Artists)
	if s.snap.LastPlayingAt != nil {
		ts := *s.snap.LastPlayingAt
		snap.LastPlayingAt = &ts
	}
	return snap
}
