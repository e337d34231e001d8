package player

import "github.com/slumberfm/slumber/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted    EventType = iota // A new track became current and was bound
	EventTrackEnded                       // The current track ran to its end
	EventStateChanged                     // Playback state changed
	EventQueueChanged                     // Queue entries, cursor, loop or shuffle changed
	EventPlaybackBlocked                  // The media element rejected a start attempt
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventStateChanged:
		return "state_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventPlaybackBlocked:
		return "playback_blocked"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Current track (nil for some events)
	State State        // Playback state at emission
}
