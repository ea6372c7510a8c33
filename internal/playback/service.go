package playback

import "time"

// Service defines the playback service contract: the transport the rest of
// the application (and the silence-skip engine) drives.
type Service interface {
	// Playback control
	Play() error
	PlayIndex(index int) error
	PlayNextShuffle() error
	PlayPreviousShuffle() error
	Next() error
	Previous() error
	Pause() error
	Resume() error
	Toggle() error
	Stop() error
	Seek(delta time.Duration) error
	SeekTo(position time.Duration) error
	ClearCurrent()

	// State queries
	State() State
	IsPlaying() bool
	Position() time.Duration
	Duration() time.Duration
	CurrentTrack() *Track

	// Queue
	QueueTracks() []Track
	QueueCurrentIndex() int
	QueueLen() int
	AddTracks(tracks ...Track)
	ReplaceTracks(tracks ...Track) *Track

	// Mode control
	RepeatMode() RepeatMode
	SetRepeatMode(mode RepeatMode)
	Shuffle() bool
	SetShuffle(enabled bool)

	// Volume
	SetVolume(level float64)
	Volume() float64

	// Event subscription
	Subscribe() *Subscription
	Unsubscribe(sub *Subscription)

	// Lifecycle
	Close() error
}
