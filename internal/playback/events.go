package playback

import "time"

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when the current track changes: explicit
// navigation, a natural track end advancing the queue, or the current
// track being cleared (Current is nil).
//
// Consumers that react to track boundaries (notifications, the silence
// skip engine) should key off this event rather than polling the queue.
type TrackChange struct {
	Previous      *Track
	Current       *Track
	PreviousIndex int
	Index         int
}

// TrackEnded is emitted when a track plays to its natural end, before the
// queue advances. A TrackChange follows if another track starts.
type TrackEnded struct {
	Track *Track
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode RepeatMode
	Shuffle    bool
}

// Tick carries the playback position, emitted periodically while playing
// and after an explicit seek.
type Tick struct {
	Position time.Duration
}

// ErrorEvent is emitted when an error occurs during playback.
type ErrorEvent struct {
	Operation string // e.g., "play", "seek"
	Path      string // track path if applicable
	Err       error
}
