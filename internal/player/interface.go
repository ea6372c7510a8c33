// internal/player/interface.go
package player

import "time"

// Interface defines the player contract for dependency injection and testing.
type Interface interface {
	Play(path string) error
	Stop()
	Pause()
	Resume()
	Toggle()
	State() State
	Position() time.Duration
	Duration() time.Duration
	Seek(delta time.Duration)
	SeekTo(position time.Duration)
	SetVolume(level float64)
	Volume() float64
	FinishedChan() <-chan struct{}
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
