package player

import "github.com/cockroachdb/errors"

// Errors returned by coordinator operations. All of them are recoverable
// signals for the UI, never reasons to crash.
var (
	ErrForbidden       = errors.New("entitlement denied")
	ErrPlaybackBlocked = errors.New("media element refused to start")
	ErrNoNextTrack     = errors.New("no next track")
	ErrNoPreviousTrack = errors.New("no previous track")
	ErrNoTrack         = errors.New("no track playing")
	ErrNoPausedQueue   = errors.New("no paused queue to resume")
)
