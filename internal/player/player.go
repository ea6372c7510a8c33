package player

import (
	"os"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// Player plays audio files through the system speaker using beep.
type Player struct {
	state    State
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	streamer beep.StreamSeekCloser
	format   beep.Format
	file     *os.File

	volumeLevel float64
	muted       bool

	done       chan struct{}
	finishedCh chan struct{}
	seekCh     chan seekRequest
}

var (
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// New creates a stopped player.
func New() *Player {
	p := &Player{
		state:       Stopped,
		volumeLevel: 1.0,
		done:        make(chan struct{}),
		finishedCh:  make(chan struct{}, 1),
		seekCh:      make(chan seekRequest, 1),
	}
	close(p.done)
	go p.seekLoop()
	return p
}

// Play starts playback of the given audio file.
func (p *Player) Play(path string) error {
	p.Stop()

	// Small delay to let any pending beep callback complete after speaker.Clear()
	time.Sleep(10 * time.Millisecond)

	// Drain any stale finish signal from previous track
	select {
	case <-p.finishedCh:
	default:
	}

	f, streamer, format, err := OpenStream(path)
	if err != nil {
		return err
	}

	if !speakerInitialized {
		speakerSampleRate = format.SampleRate
		err = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
		if err != nil {
			streamer.Close()
			f.Close()
			return err
		}
		speakerInitialized = true
	}

	p.file = f
	p.streamer = streamer
	p.format = format

	// Resample if the track's sample rate differs from the speaker's
	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}
	p.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: false}
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
		Volume:   p.levelToVolume(p.volumeLevel),
		Silent:   p.muted,
	}

	p.state = Playing
	p.done = make(chan struct{})

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		close(p.done)
		select {
		case p.finishedCh <- struct{}{}:
		default:
		}
	})))

	return nil
}

// FinishedChan returns a channel that receives a signal when a track
// plays to its end.
func (p *Player) FinishedChan() <-chan struct{} {
	return p.finishedCh
}

// Done returns a channel closed when the current track stops or finishes.
func (p *Player) Done() <-chan struct{} {
	return p.done
}
