// Package player provides the playback coordinator: the single authority
// for what plays now. It mediates user intents through entitlement checks,
// delegates ordering to the queue store and the context switcher, and binds
// the derived current track to one media element.
package player

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No current track
	StateLoading              // A new locator is being bound to the media element
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
	StateBlocked              // The media element refused to start; a user gesture is needed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}
