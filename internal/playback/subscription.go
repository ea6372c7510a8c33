package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StateChanged <-chan StateChange
	TrackChanged <-chan TrackChange
	TrackEnded   <-chan TrackEnded
	ModeChanged  <-chan ModeChange
	Ticks        <-chan Tick
	Error        <-chan ErrorEvent
	Done         <-chan struct{}

	// Internal write channels
	stateCh chan StateChange
	trackCh chan TrackChange
	endedCh chan TrackEnded
	modeCh  chan ModeChange
	tickCh  chan Tick
	errorCh chan ErrorEvent
	doneCh  chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh: make(chan StateChange, eventBufferSize),
		trackCh: make(chan TrackChange, eventBufferSize),
		endedCh: make(chan TrackEnded, eventBufferSize),
		modeCh:  make(chan ModeChange, eventBufferSize),
		tickCh:  make(chan Tick, eventBufferSize),
		errorCh: make(chan ErrorEvent, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.TrackEnded = s.endedCh
	s.ModeChanged = s.modeCh
	s.Ticks = s.tickCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// All sends are non-blocking: a slow subscriber drops events rather than
// stalling the playback loop.

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendEnded(e TrackEnded) {
	select {
	case s.endedCh <- e:
	default:
	}
}

func (s *Subscription) sendMode(e ModeChange) {
	select {
	case s.modeCh <- e:
	default:
	}
}

func (s *Subscription) sendTick(e Tick) {
	select {
	case s.tickCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
