package queue

import "github.com/slumberfm/slumber/internal/domain/track"

// DefaultHistoryCapacity bounds the history stack.
const DefaultHistoryCapacity = 50

// History is a bounded stack of previously authoritative tracks,
// most-recent-last. It gives "previous" a definition that survives switches
// between queue and ad-hoc playback, where a pure index-based previous has
// nothing to point at.
type History struct {
	entries  []track.Track
	capacity int
}

// NewHistory creates an empty history. Non-positive capacities fall back to
// DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		entries:  make([]track.Track, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a track unless the top entry already has the same ID.
// The dedup is only against the top: re-renders must not pile up copies of
// the current track, but a genuine A-B-A sequence is kept. When the stack
// is full the oldest entry is dropped.
func (h *History) Push(t track.Track) {
	if n := len(h.entries); n > 0 && h.entries[n-1].ID == t.ID {
		return
	}
	h.entries = append(h.entries, t)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[1:]
	}
}

// Pop removes and returns the most recent entry.
func (h *History) Pop() (track.Track, bool) {
	n := len(h.entries)
	if n == 0 {
		return track.Track{}, false
	}
	t := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return t, true
}

// Peek returns the most recent entry without removing it.
func (h *History) Peek() (track.Track, bool) {
	n := len(h.entries)
	if n == 0 {
		return track.Track{}, false
	}
	return h.entries[n-1], true
}

// Len returns the number of stacked entries.
func (h *History) Len() int {
	return len(h.entries)
}

// IsEmpty reports whether the history holds no entries.
func (h *History) IsEmpty() bool {
	return len(h.entries) == 0
}
