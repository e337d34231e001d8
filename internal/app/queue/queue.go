// Package queue provides the ordered playback queue and the listening history.
package queue

import (
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/slumberfm/slumber/internal/domain/track"
)

// ErrInvalidIndex is returned when a queue mutation targets an index
// outside the current entries. The queue is left unchanged.
var ErrInvalidIndex = errors.New("queue index out of range")

// LoopMode controls what happens at the edges of the queue.
type LoopMode int

const (
	LoopNone LoopMode = iota // Stop at the last entry
	LoopAll                  // Wrap around to the other end
	LoopOne                  // Repeat the current entry
)

// String returns the string representation of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopNone:
		return "none"
	case LoopAll:
		return "all"
	case LoopOne:
		return "one"
	default:
		return "unknown"
	}
}

// Cycle returns the next mode in the none -> all -> one cycle.
func (m LoopMode) Cycle() LoopMode {
	switch m {
	case LoopNone:
		return LoopAll
	case LoopAll:
		return LoopOne
	default:
		return LoopNone
	}
}

// Snapshot captures entries and cursor for later restoration.
type Snapshot struct {
	Entries []track.Track
	Cursor  int
}

// Store maintains the ordered playable sequence and its cursor.
// It answers "what is next/previous within the queue" regardless of whether
// an ad-hoc track has taken over playback. The cursor stays within
// [0, len(entries)) whenever entries is non-empty.
//
// Store is not safe for concurrent use; the playback coordinator is its
// single writer.
type Store struct {
	entries    []track.Track
	cursor     int
	loopMode   LoopMode
	shuffled   bool
	preShuffle []track.Track // Entries in pre-shuffle order, nil when not shuffled
	rng        *rand.Rand
}

// NewStore creates an empty queue. The random source drives shuffle
// permutations; pass a seeded source in tests for determinism. A nil source
// falls back to a time-seeded one.
func NewStore(rng *rand.Rand) *Store {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Store{
		entries: make([]track.Track, 0),
		rng:     rng,
	}
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// IsEmpty reports whether the queue has no entries.
func (s *Store) IsEmpty() bool {
	return len(s.entries) == 0
}

// Entries returns a copy of the entries in order.
func (s *Store) Entries() []track.Track {
	out := make([]track.Track, len(s.entries))
	copy(out, s.entries)
	return out
}

// Cursor returns the current cursor position. Meaningless when empty.
func (s *Store) Cursor() int {
	return s.cursor
}

// Current returns the entry under the cursor.
func (s *Store) Current() (track.Track, bool) {
	if len(s.entries) == 0 {
		return track.Track{}, false
	}
	return s.entries[s.cursor], true
}

// LoopMode returns the active loop mode.
func (s *Store) LoopMode() LoopMode {
	return s.loopMode
}

// SetLoopMode sets the loop mode.
func (s *Store) SetLoopMode(mode LoopMode) {
	s.loopMode = mode
}

// Shuffled reports whether a shuffle permutation is active.
func (s *Store) Shuffled() bool {
	return s.shuffled
}

// Append inserts a track at the tail.
func (s *Store) Append(t track.Track) {
	s.entries = append(s.entries, t)
}

// InsertAfterCurrent inserts a track immediately after the cursor.
// On an empty queue this is equivalent to Replace.
func (s *Store) InsertAfterCurrent(t track.Track) {
	if len(s.entries) == 0 {
		s.Replace(t)
		return
	}
	at := s.cursor + 1
	s.entries = append(s.entries, track.Track{})
	copy(s.entries[at+1:], s.entries[at:])
	s.entries[at] = t
}

// Replace discards all entries and makes t the only, current one.
// Shuffle state is cleared.
func (s *Store) Replace(t track.Track) {
	s.entries = []track.Track{t}
	s.cursor = 0
	s.shuffled = false
	s.preShuffle = nil
}

// RemoveAt removes the entry at index. The cursor is adjusted so it keeps
// pointing at the same logical entry where possible, and is clamped to the
// new tail when the current entry itself was removed.
func (s *Store) RemoveAt(index int) error {
	if index < 0 || index >= len(s.entries) {
		return errors.Wrapf(ErrInvalidIndex, "remove %d of %d", index, len(s.entries))
	}
	s.entries = append(s.entries[:index], s.entries[index+1:]...)
	switch {
	case index < s.cursor:
		s.cursor--
	case index == s.cursor:
		if s.cursor > len(s.entries)-1 {
			s.cursor = len(s.entries) - 1
		}
		if s.cursor < 0 {
			s.cursor = 0
		}
	}
	return nil
}

// MoveTo reorders the entry at fromIndex to toIndex. The cursor follows the
// moved entry if it was current, otherwise it shifts by one when the move
// crossed it.
func (s *Store) MoveTo(fromIndex, toIndex int) error {
	n := len(s.entries)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return errors.Wrapf(ErrInvalidIndex, "move %d -> %d of %d", fromIndex, toIndex, n)
	}
	if fromIndex == toIndex {
		return nil
	}
	moved := s.entries[fromIndex]
	s.entries = append(s.entries[:fromIndex], s.entries[fromIndex+1:]...)
	s.entries = append(s.entries, track.Track{})
	copy(s.entries[toIndex+1:], s.entries[toIndex:])
	s.entries[toIndex] = moved

	switch {
	case fromIndex == s.cursor:
		s.cursor = toIndex
	case fromIndex < s.cursor && toIndex >= s.cursor:
		s.cursor--
	case fromIndex > s.cursor && toIndex <= s.cursor:
		s.cursor++
	}
	return nil
}

// Clear empties the queue and resets cursor and shuffle state.
func (s *Store) Clear() {
	s.entries = s.entries[:0]
	s.cursor = 0
	s.shuffled = false
	s.preShuffle = nil
}

// PeekNext returns, without mutating, the entry Advance would land on.
func (s *Store) PeekNext() (track.Track, bool) {
	if len(s.entries) == 0 {
		return track.Track{}, false
	}
	if s.loopMode == LoopOne {
		return s.entries[s.cursor], true
	}
	if s.cursor < len(s.entries)-1 {
		return s.entries[s.cursor+1], true
	}
	if s.loopMode == LoopAll {
		return s.entries[0], true
	}
	return track.Track{}, false
}

// PeekPrevious returns, without mutating, the entry Retreat would land on.
func (s *Store) PeekPrevious() (track.Track, bool) {
	if len(s.entries) == 0 {
		return track.Track{}, false
	}
	if s.cursor > 0 {
		return s.entries[s.cursor-1], true
	}
	if s.loopMode == LoopAll {
		return s.entries[len(s.entries)-1], true
	}
	return track.Track{}, false
}

// Advance moves the cursor forward following the PeekNext rule.
// Under LoopOne the cursor never moves; repeating the current entry is the
// caller's responsibility. Returns false when the cursor did not move.
func (s *Store) Advance() bool {
	if len(s.entries) == 0 || s.loopMode == LoopOne {
		return false
	}
	if s.cursor < len(s.entries)-1 {
		s.cursor++
		return true
	}
	if s.loopMode == LoopAll {
		s.cursor = 0
		return true
	}
	return false
}

// Retreat moves the cursor backward following the PeekPrevious rule.
func (s *Store) Retreat() bool {
	if len(s.entries) == 0 || s.loopMode == LoopOne {
		return false
	}
	if s.cursor > 0 {
		s.cursor--
		return true
	}
	if s.loopMode == LoopAll {
		s.cursor = len(s.entries) - 1
		return true
	}
	return false
}

// SetCursor jumps the cursor to index.
func (s *Store) SetCursor(index int) error {
	if index < 0 || index >= len(s.entries) {
		return errors.Wrapf(ErrInvalidIndex, "cursor %d of %d", index, len(s.entries))
	}
	s.cursor = index
	return nil
}

// ToggleShuffle turns shuffling on or off. Turning it on snapshots the
// current order and permutes every entry except the current one, which is
// placed first so playback is uninterrupted. Turning it off restores the
// snapshot and relocates the cursor onto the track that was playing,
// matched by ID, falling back to index 0 when it is gone.
func (s *Store) ToggleShuffle() {
	if len(s.entries) == 0 {
		s.shuffled = false
		s.preShuffle = nil
		return
	}
	if !s.shuffled {
		s.preShuffle = make([]track.Track, len(s.entries))
		copy(s.preShuffle, s.entries)

		current := s.entries[s.cursor]
		others := make([]track.Track, 0, len(s.entries)-1)
		for i, t := range s.entries {
			if i != s.cursor {
				others = append(others, t)
			}
		}
		s.rng.Shuffle(len(others), func(i, j int) {
			others[i], others[j] = others[j], others[i]
		})
		s.entries = append([]track.Track{current}, others...)
		s.cursor = 0
		s.shuffled = true
		return
	}

	if len(s.preShuffle) > 0 {
		current := s.entries[s.cursor]
		s.entries = s.preShuffle
		s.preShuffle = nil
		s.cursor = 0
		for i, t := range s.entries {
			if t.ID == current.ID {
				s.cursor = i
				break
			}
		}
	}
	s.shuffled = false
}

// Snapshot copies entries and cursor for later restoration.
func (s *Store) Snapshot() Snapshot {
	entries := make([]track.Track, len(s.entries))
	copy(entries, s.entries)
	return Snapshot{Entries: entries, Cursor: s.cursor}
}

// Restore replaces entries and cursor from a snapshot. Shuffle state is
// cleared: the snapshot order is taken as-is.
func (s *Store) Restore(snap Snapshot) {
	s.entries = make([]track.Track, len(snap.Entries))
	copy(s.entries, snap.Entries)
	s.cursor = snap.Cursor
	if s.cursor < 0 || s.cursor >= len(s.entries) {
		s.cursor = 0
	}
	s.shuffled = false
	s.preShuffle = nil
}
