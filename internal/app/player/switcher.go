package player

import (
	"github.com/cockroachdb/errors"

	"github.com/slumberfm/slumber/internal/app/queue"
	"github.com/slumberfm/slumber/internal/domain/track"
)

// Insertion selects where JoinQueue places a track.
type Insertion int

const (
	InsertAppend  Insertion = iota // At the tail
	InsertNext                     // Immediately after the current entry
	InsertReplace                  // Discard the queue, play this now
)

// Switcher decides whether the queue or an ad-hoc track is authoritative
// for the current track. It lets a single ad-hoc track interrupt a running
// queue without destroying it: the queue's entries stay in the store, a
// snapshot of {entries, cursor} is parked as the paused context, and the
// queue can be resumed later.
//
// At most one paused context exists at a time; a later ad-hoc play from
// queue mode overwrites it.
type Switcher struct {
	store  *queue.Store
	single *track.Track    // Ad-hoc track while single-track mode is on
	paused *queue.Snapshot // Parked queue, nil when none
}

// NewSwitcher creates a switcher over the given queue store.
func NewSwitcher(store *queue.Store) *Switcher {
	return &Switcher{store: store}
}

// SingleTrackMode reports whether an ad-hoc track is authoritative.
func (s *Switcher) SingleTrackMode() bool {
	return s.single != nil
}

// QueueActive reports whether the queue is authoritative with entries.
func (s *Switcher) QueueActive() bool {
	return s.single == nil && !s.store.IsEmpty()
}

// HasPausedQueue reports whether a paused context is parked.
func (s *Switcher) HasPausedQueue() bool {
	return s.paused != nil
}

// Current derives the authoritative track: the ad-hoc track in single-track
// mode, otherwise the queue entry under the cursor. Never stored.
func (s *Switcher) Current() (track.Track, bool) {
	if s.single != nil {
		return *s.single, true
	}
	return s.store.Current()
}

// PlayAdhoc makes t authoritative as a single track. When a non-empty queue
// was authoritative, its {entries, cursor} are snapshotted as the paused
// context, overwriting any prior snapshot; the store itself is untouched.
func (s *Switcher) PlayAdhoc(t track.Track) {
	if s.single == nil && !s.store.IsEmpty() {
		snap := s.store.Snapshot()
		s.paused = &snap
	}
	s.single = &t
}

// ResumePausedQueue restores the parked queue and makes it authoritative.
// The paused context is eagerly cleared, never left stale.
func (s *Switcher) ResumePausedQueue() error {
	if s.paused == nil {
		return ErrNoPausedQueue
	}
	s.store.Restore(*s.paused)
	s.paused = nil
	s.single = nil
	return nil
}

// JoinQueue adds t to the queue. Any queued interaction means the caller
// wants to be back in queue mode, so single-track mode and the paused
// context are dropped before delegating to the store.
func (s *Switcher) JoinQueue(t track.Track, ins Insertion) error {
	s.single = nil
	s.paused = nil
	switch ins {
	case InsertAppend:
		s.store.Append(t)
	case InsertNext:
		s.store.InsertAfterCurrent(t)
	case InsertReplace:
		s.store.Replace(t)
	default:
		return errors.Newf("unknown insertion mode %d", ins)
	}
	return nil
}

// ActivateQueue drops single-track mode and the paused context, making the
// store authoritative in place. Used when the user picks an entry from the
// queue directly.
func (s *Switcher) ActivateQueue() {
	s.single = nil
	s.paused = nil
}

// ClearQueue empties the store and drops the paused context. An active
// ad-hoc track survives; clearing the queue must not stop what is playing.
func (s *Switcher) ClearQueue() {
	s.store.Clear()
	s.paused = nil
}
