package queue

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slumberfm/slumber/internal/domain/track"
)

func tr(id string) track.Track {
	return track.Track{ID: id, Title: "Track " + id, CategoryID: "cat"}
}

func storeWith(ids ...string) *Store {
	s := NewStore(rand.New(rand.NewSource(1)))
	for _, id := range ids {
		s.Append(tr(id))
	}
	return s
}

func ids(entries []track.Track) []string {
	out := make([]string, len(entries))
	for i, t := range entries {
		out[i] = t.ID
	}
	return out
}

func TestStore_AdvanceStopsAtTail(t *testing.T) {
	s := storeWith("a", "b", "c")

	assert.True(t, s.Advance())
	assert.True(t, s.Advance())
	assert.Equal(t, 2, s.Cursor())
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "c", cur.ID)

	// At the tail with loop none, advance fails and keeps failing.
	assert.False(t, s.Advance())
	assert.Equal(t, 2, s.Cursor())
	assert.False(t, s.Advance())
	assert.Equal(t, 2, s.Cursor())
}

func TestStore_LoopModes(t *testing.T) {
	tests := []struct {
		name       string
		mode       LoopMode
		cursor     int
		wantNextID string
		wantNextOK bool
		wantPrevID string
		wantPrevOK bool
	}{
		{
			name:       "none mid-queue",
			mode:       LoopNone,
			cursor:     1,
			wantNextID: "c", wantNextOK: true,
			wantPrevID: "a", wantPrevOK: true,
		},
		{
			name:       "none at tail has no next",
			mode:       LoopNone,
			cursor:     2,
			wantNextOK: false,
			wantPrevID: "b", wantPrevOK: true,
		},
		{
			name:       "all wraps tail to head",
			mode:       LoopAll,
			cursor:     2,
			wantNextID: "a", wantNextOK: true,
			wantPrevID: "b", wantPrevOK: true,
		},
		{
			name:       "all wraps head to tail",
			mode:       LoopAll,
			cursor:     0,
			wantNextID: "b", wantNextOK: true,
			wantPrevID: "c", wantPrevOK: true,
		},
		{
			name:       "one peeks current",
			mode:       LoopOne,
			cursor:     1,
			wantNextID: "b", wantNextOK: true,
			wantPrevID: "a", wantPrevOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storeWith("a", "b", "c")
			s.SetLoopMode(tt.mode)
			require.NoError(t, s.SetCursor(tt.cursor))

			next, ok := s.PeekNext()
			assert.Equal(t, tt.wantNextOK, ok)
			if tt.wantNextOK {
				assert.Equal(t, tt.wantNextID, next.ID)
			}
			prev, ok := s.PeekPrevious()
			assert.Equal(t, tt.wantPrevOK, ok)
			if tt.wantPrevOK {
				assert.Equal(t, tt.wantPrevID, prev.ID)
			}
		})
	}
}

func TestStore_LoopOneIgnoresAdvanceRetreat(t *testing.T) {
	s := storeWith("a", "b", "c")
	s.SetLoopMode(LoopOne)
	require.NoError(t, s.SetCursor(1))

	assert.False(t, s.Advance())
	assert.False(t, s.Retreat())
	assert.Equal(t, 1, s.Cursor())
}

func TestStore_Replace(t *testing.T) {
	s := storeWith("a", "b", "c")
	require.NoError(t, s.SetCursor(2))
	s.ToggleShuffle()

	s.Replace(tr("x"))

	assert.Equal(t, []string{"x"}, ids(s.Entries()))
	assert.Equal(t, 0, s.Cursor())
	assert.False(t, s.Shuffled())
}

func TestStore_InsertAfterCurrent(t *testing.T) {
	t.Run("mid-queue", func(t *testing.T) {
		s := storeWith("a", "b", "c")
		require.NoError(t, s.SetCursor(1))
		s.InsertAfterCurrent(tr("x"))
		assert.Equal(t, []string{"a", "b", "x", "c"}, ids(s.Entries()))
		assert.Equal(t, 1, s.Cursor())
	})

	t.Run("empty queue acts as replace", func(t *testing.T) {
		s := storeWith()
		s.InsertAfterCurrent(tr("x"))
		assert.Equal(t, []string{"x"}, ids(s.Entries()))
		assert.Equal(t, 0, s.Cursor())
	})
}

func TestStore_RemoveAt(t *testing.T) {
	tests := []struct {
		name       string
		cursor     int
		remove     int
		wantIDs    []string
		wantCursor int
		wantErr    bool
	}{
		{name: "before cursor", cursor: 2, remove: 0, wantIDs: []string{"b", "c"}, wantCursor: 1},
		{name: "after cursor", cursor: 0, remove: 2, wantIDs: []string{"a", "b"}, wantCursor: 0},
		{name: "at cursor mid", cursor: 1, remove: 1, wantIDs: []string{"a", "c"}, wantCursor: 1},
		{name: "at cursor tail clamps", cursor: 2, remove: 2, wantIDs: []string{"a", "b"}, wantCursor: 1},
		{name: "negative index", cursor: 0, remove: -1, wantIDs: []string{"a", "b", "c"}, wantCursor: 0, wantErr: true},
		{name: "out of range", cursor: 0, remove: 3, wantIDs: []string{"a", "b", "c"}, wantCursor: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storeWith("a", "b", "c")
			require.NoError(t, s.SetCursor(tt.cursor))

			err := s.RemoveAt(tt.remove)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIndex)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantIDs, ids(s.Entries()))
			assert.Equal(t, tt.wantCursor, s.Cursor())
		})
	}
}

func TestStore_RemoveLastEntry(t *testing.T) {
	s := storeWith("a")

	require.NoError(t, s.RemoveAt(0))

	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Cursor())
	assert.False(t, s.Advance())
	assert.False(t, s.Retreat())
}

func TestStore_MoveTo(t *testing.T) {
	tests := []struct {
		name       string
		cursor     int
		from, to   int
		wantIDs    []string
		wantCursor int
		wantErr    bool
	}{
		{name: "cursor follows moved entry", cursor: 1, from: 1, to: 3, wantIDs: []string{"a", "c", "d", "b"}, wantCursor: 3},
		{name: "move from before to after cursor", cursor: 2, from: 0, to: 3, wantIDs: []string{"b", "c", "d", "a"}, wantCursor: 1},
		{name: "move from after to before cursor", cursor: 2, from: 3, to: 0, wantIDs: []string{"d", "a", "b", "c"}, wantCursor: 3},
		{name: "move entirely after cursor", cursor: 0, from: 2, to: 3, wantIDs: []string{"a", "b", "d", "c"}, wantCursor: 0},
		{name: "same position is a no-op", cursor: 1, from: 2, to: 2, wantIDs: []string{"a", "b", "c", "d"}, wantCursor: 1},
		{name: "out of range", cursor: 0, from: 0, to: 4, wantIDs: []string{"a", "b", "c", "d"}, wantCursor: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storeWith("a", "b", "c", "d")
			require.NoError(t, s.SetCursor(tt.cursor))

			err := s.MoveTo(tt.from, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIndex)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantIDs, ids(s.Entries()))
			assert.Equal(t, tt.wantCursor, s.Cursor())
		})
	}
}

func TestStore_ToggleShuffleRoundTrip(t *testing.T) {
	s := storeWith("a", "b", "c", "d", "e")
	require.NoError(t, s.SetCursor(2))

	s.ToggleShuffle()

	require.True(t, s.Shuffled())
	cur, ok := s.Current()
	require.True(t, ok)
	// The current track never moves out of the first position.
	assert.Equal(t, "c", cur.ID)
	assert.Equal(t, 0, s.Cursor())
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, ids(s.Entries()))

	s.ToggleShuffle()

	assert.False(t, s.Shuffled())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(s.Entries()))
	assert.Equal(t, 2, s.Cursor())
}

func TestStore_ToggleShuffleEmptyQueue(t *testing.T) {
	s := storeWith()
	s.ToggleShuffle()
	assert.False(t, s.Shuffled())
	assert.True(t, s.IsEmpty())
}

func TestStore_SnapshotRestore(t *testing.T) {
	s := storeWith("a", "b", "c")
	require.NoError(t, s.SetCursor(1))

	snap := s.Snapshot()
	s.Clear()
	require.True(t, s.IsEmpty())

	s.Restore(snap)

	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Entries()))
	assert.Equal(t, 1, s.Cursor())
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	s := storeWith("a", "b")
	snap := s.Snapshot()

	s.Append(tr("c"))
	s.Clear()

	assert.Equal(t, []string{"a", "b"}, ids(snap.Entries))
}

func TestLoopMode_Cycle(t *testing.T) {
	assert.Equal(t, LoopAll, LoopNone.Cycle())
	assert.Equal(t, LoopOne, LoopAll.Cycle())
	assert.Equal(t, LoopNone, LoopOne.Cycle())
}
