package player

import (
	"time"

	"github.com/gopxl/beep/v2/speaker"
)

type seekRequest struct {
	target   time.Duration
	relative bool
}

// Stop stops playback and releases resources.
func (p *Player) Stop() {
	if p.state == Stopped {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}

	p.ctrl = nil
	p.volume = nil
	p.state = Stopped

	select {
	case <-p.done:
		// Already closed
	default:
		close(p.done)
	}
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Resume resumes paused playback.
func (p *Player) Resume() {
	if p.state != Paused || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

// Toggle toggles between playing and paused states.
func (p *Player) Toggle() {
	switch p.state {
	case Playing:
		p.Pause()
	case Paused:
		p.Resume()
	case Stopped:
		// Nothing to toggle when stopped
	}
}

// State returns the current player state.
func (p *Player) State() State {
	return p.state
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	if p.streamer == nil {
		return 0
	}
	// Read position without lock - may be slightly stale but avoids deadlocks.
	return p.format.SampleRate.D(p.streamer.Position())
}

// Duration returns the total duration of the current track.
func (p *Player) Duration() time.Duration {
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// Seek moves the playback position by the given delta.
// Non-blocking: sends to a channel, dropping old requests if one is pending.
func (p *Player) Seek(delta time.Duration) {
	p.enqueueSeek(seekRequest{target: delta, relative: true})
}

// SeekTo moves the playback position to an absolute offset.
// Non-blocking, following the same drop-stale-request policy as Seek.
func (p *Player) SeekTo(position time.Duration) {
	p.enqueueSeek(seekRequest{target: position})
}

func (p *Player) enqueueSeek(req seekRequest) {
	if p.streamer == nil || p.state == Stopped {
		return
	}

	// Non-blocking send - drop if channel full (previous seek pending)
	select {
	case p.seekCh <- req:
	default:
		// Channel full, drain and send new value
		select {
		case <-p.seekCh:
		default:
		}
		select {
		case p.seekCh <- req:
		default:
		}
	}
}

// seekLoop processes seek requests sequentially.
// Only the most recent seek is processed, older ones are dropped.
func (p *Player) seekLoop() {
	for req := range p.seekCh {
		p.doSeek(req)
	}
}

// doSeek performs the actual seek operation.
func (p *Player) doSeek(req seekRequest) {
	// Quick check without lock - if already stopped, skip entirely
	if p.streamer == nil || p.state == Stopped || p.volume == nil {
		return
	}

	streamer := p.streamer
	if streamer == nil {
		return
	}
	maxPos := streamer.Len()

	var newPos int
	if req.relative {
		newPos = streamer.Position() + p.format.SampleRate.N(req.target)
	} else {
		newPos = p.format.SampleRate.N(req.target)
	}

	// Seeking past the end means the track is over
	if newPos >= maxPos {
		select {
		case p.finishedCh <- struct{}{}:
		default:
		}
		return
	}

	speaker.Lock()
	// Re-check under lock in case Stop() was called
	if p.streamer == nil || p.state == Stopped || p.volume == nil {
		speaker.Unlock()
		return
	}

	newPos = max(newPos, 0)

	// Mute, seek, then unmute to avoid audio artifacts
	p.volume.Silent = true
	_ = p.streamer.Seek(newPos)
	speaker.Unlock()

	// Brief pause to let buffer clear before unmuting
	time.Sleep(100 * time.Millisecond)

	if p.volume == nil || p.state == Stopped {
		return
	}

	speaker.Lock()
	if p.volume != nil {
		p.volume.Silent = p.muted
	}
	speaker.Unlock()
}
