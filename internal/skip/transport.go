package skip

import (
	"time"

	"github.com/llehouerou/hush/internal/playback"
)

// Transport is the slice of the playback service the skip engine drives.
type Transport interface {
	// Queries
	CurrentTrack() *playback.Track
	Position() time.Duration
	RepeatMode() playback.RepeatMode
	Shuffle() bool
	QueueTracks() []playback.Track
	QueueCurrentIndex() int
	QueueLen() int

	// Commands
	PlayIndex(index int) error
	PlayNextShuffle() error
	SeekTo(position time.Duration) error
	Pause() error
	ClearCurrent()

	// Notifications
	Subscribe() *playback.Subscription
	Unsubscribe(sub *playback.Subscription)
}

// Verify the playback service satisfies Transport at compile time.
var _ Transport = (playback.Service)(nil)
