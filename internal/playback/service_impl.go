// internal/playback/service_impl.go
package playback

import (
	"sync"
	"time"

	"github.com/llehouerou/hush/internal/player"
	"github.com/llehouerou/hush/internal/playlist"
)

const defaultTickInterval = 200 * time.Millisecond

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	mu sync.RWMutex

	player       player.Interface
	queue        *playlist.PlayingQueue
	tickInterval time.Duration

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates a new playback service and starts its event loop.
func New(p player.Interface, q *playlist.PlayingQueue) Service {
	return newService(p, q, defaultTickInterval)
}

// NewWithTickInterval creates a service emitting position ticks at a
// custom interval.
func NewWithTickInterval(p player.Interface, q *playlist.PlayingQueue, tick time.Duration) Service {
	return newService(p, q, tick)
}

func newService(p player.Interface, q *playlist.PlayingQueue, tick time.Duration) *serviceImpl {
	s := &serviceImpl{
		player:       p,
		queue:        q,
		tickInterval: tick,
		done:         make(chan struct{}),
	}
	go s.run()
	return s
}

// run drives periodic position ticks and reacts to tracks finishing.
func (s *serviceImpl) run() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.IsPlaying() {
				pos := s.Position()
				s.broadcast(func(sub *Subscription) { sub.sendTick(Tick{Position: pos}) })
			}
		case <-s.player.FinishedChan():
			s.handleTrackFinished()
		}
	}
}

// handleTrackFinished advances the queue per the active mode when a track
// plays to its natural end.
func (s *serviceImpl) handleTrackFinished() {
	s.mu.Lock()
	prev := s.currentTrackLocked()
	prevIndex := s.queue.CurrentIndex()

	ended := TrackEnded{Track: prev}

	next := s.queue.Advance()
	if next == nil {
		// Sequential end of queue: stop and clear.
		s.player.Stop()
		s.mu.Unlock()
		s.broadcast(func(sub *Subscription) {
			sub.sendEnded(ended)
			sub.sendTrack(TrackChange{Previous: prev, PreviousIndex: prevIndex, Index: -1})
			sub.sendState(StateChange{Previous: StatePlaying, Current: StateStopped})
		})
		return
	}

	err := s.player.Play(next.Path)
	cur := s.currentTrackLocked()
	index := s.queue.CurrentIndex()
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) {
		sub.sendEnded(ended)
		sub.sendTrack(TrackChange{Previous: prev, Current: cur, PreviousIndex: prevIndex, Index: index})
	})
	if err != nil {
		s.sendError("play", next.Path, err)
	}
}

// playCurrentLocked starts the player on the queue's current track and
// returns the emitted change. Caller holds mu.
func (s *serviceImpl) playCurrentLocked(prev *Track, prevIndex int) (TrackChange, error) {
	cur := s.currentTrackLocked()
	change := TrackChange{
		Previous:      prev,
		Current:       cur,
		PreviousIndex: prevIndex,
		Index:         s.queue.CurrentIndex(),
	}
	if cur == nil {
		return change, nil
	}
	return change, s.player.Play(cur.Path)
}

// Play starts playback of the current queue track, defaulting to the
// first track when nothing is selected.
func (s *serviceImpl) Play() error {
	s.mu.Lock()
	prev := s.currentTrackLocked()
	prevIndex := s.queue.CurrentIndex()
	if s.queue.Current() == nil && !s.queue.IsEmpty() {
		s.queue.JumpTo(0)
	}
	change, err := s.playCurrentLocked(prev, prevIndex)
	s.mu.Unlock()

	s.emitTrackChange(change, err)
	return err
}

// PlayIndex jumps to the given queue index and plays it.
func (s *serviceImpl) PlayIndex(index int) error {
	s.mu.Lock()
	prev := s.currentTrackLocked()
	prevIndex := s.queue.CurrentIndex()
	if s.queue.JumpTo(index) == nil {
		s.mu.Unlock()
		return nil
	}
	change, err := s.playCurrentLocked(prev, prevIndex)
	s.mu.Unlock()

	s.emitTrackChange(change, err)
	return err
}

// PlayNextShuffle advances using the shuffle order and plays the result.
func (s *serviceImpl) PlayNextShuffle() error {
	s.mu.Lock()
	prev := s.currentTrackLocked()
	prevIndex := s.queue.CurrentIndex()
	if s.queue.NextShuffle() == nil {
		s.mu.Unlock()
		return nil
	}
	change, err := s.playCurrentLocked(prev, prevIndex)
	s.mu.Unlock()

	s.emitTrackChange(change, err)
	return err
}

// PlayPreviousShuffle undoes the last shuffle advance and plays the result.
func (s *serviceImpl) PlayPreviousShuffle() error {
	s.mu.Lock()
	prev := s.currentTrackLocked()
	prevIndex := s.queue.CurrentIndex()
	if s.queue.PreviousShuffle() == nil {
		s.mu.Unlock()
		return nil
	}
	change, err := s.playCurrentLocked(prev, prevIndex)
	s.mu.Unlock()

	s.emitTrackChange(change, err)
	return err
}

// Next advances to the next track per the active mode and plays it.
func (s *serviceImpl) Next() error {
	s.mu.Lock()
	prev := s.currentTrackLocked()
	prevIndex := s.queue.CurrentIndex()

	var moved bool
	switch {
	case s.queue.Shuffle():
		moved = s.queue.NextShuffle() != nil
	case s.queue.HasNext():
		moved = s.queue.Next() != nil
	case s.queue.RepeatMode() == playlist.RepeatAll:
		moved = s.queue.JumpTo(0) != nil
	}
	if !moved {
		s.mu.Unlock()
		return nil
	}
	change, err := s.playCurrentLocked(prev, prevIndex)
	s.mu.Unlock()

	s.emitTrackChange(change, err)
	return err
}

// Previous moves to the previous track and plays it.
func (s *serviceImpl) Previous() error {
	s.mu.Lock()
	prev := s.currentTrackLocked()
	prevIndex := s.queue.CurrentIndex()

	var moved bool
	if s.queue.Shuffle() {
		moved = s.queue.PreviousShuffle() != nil
	} else {
		moved = s.queue.Previous() != nil
	}
	if !moved {
		s.mu.Unlock()
		return nil
	}
	change, err := s.playCurrentLocked(prev, prevIndex)
	s.mu.Unlock()

	s.emitTrackChange(change, err)
	return err
}

// Pause pauses playback.
func (s *serviceImpl) Pause() error {
	s.mu.Lock()
	before := s.playerStateToState(s.player.State())
	s.player.Pause()
	after := s.playerStateToState(s.player.State())
	s.mu.Unlock()

	s.emitStateChange(before, after)
	return nil
}

// Resume resumes paused playback.
func (s *serviceImpl) Resume() error {
	s.mu.Lock()
	before := s.playerStateToState(s.player.State())
	s.player.Resume()
	after := s.playerStateToState(s.player.State())
	s.mu.Unlock()

	s.emitStateChange(before, after)
	return nil
}

// Toggle toggles between playing and paused.
func (s *serviceImpl) Toggle() error {
	s.mu.Lock()
	before := s.playerStateToState(s.player.State())
	s.player.Toggle()
	after := s.playerStateToState(s.player.State())
	s.mu.Unlock()

	s.emitStateChange(before, after)
	return nil
}

// Stop stops playback without touching the queue position.
func (s *serviceImpl) Stop() error {
	s.mu.Lock()
	before := s.playerStateToState(s.player.State())
	s.player.Stop()
	s.mu.Unlock()

	s.emitStateChange(before, StateStopped)
	return nil
}

// Seek moves the position by a delta.
func (s *serviceImpl) Seek(delta time.Duration) error {
	s.mu.Lock()
	s.player.Seek(delta)
	pos := s.player.Position()
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) { sub.sendTick(Tick{Position: pos}) })
	return nil
}

// SeekTo moves the position to an absolute offset.
func (s *serviceImpl) SeekTo(position time.Duration) error {
	s.mu.Lock()
	s.player.SeekTo(position)
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) { sub.sendTick(Tick{Position: position}) })
	return nil
}

// ClearCurrent stops playback and clears the current track marker.
func (s *serviceImpl) ClearCurrent() {
	s.mu.Lock()
	prev := s.currentTrackLocked()
	prevIndex := s.queue.CurrentIndex()
	before := s.playerStateToState(s.player.State())
	s.player.Stop()
	s.queue.ClearCurrent()
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) {
		sub.sendTrack(TrackChange{Previous: prev, PreviousIndex: prevIndex, Index: -1})
	})
	s.emitStateChange(before, StateStopped)
}

// State returns the current playback state.
func (s *serviceImpl) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerStateToState(s.player.State())
}

func (s *serviceImpl) playerStateToState(ps player.State) State {
	switch ps {
	case player.Playing:
		return StatePlaying
	case player.Paused:
		return StatePaused
	case player.Stopped:
		return StateStopped
	default:
		return StateStopped
	}
}

// IsPlaying returns true when a track is actively playing.
func (s *serviceImpl) IsPlaying() bool {
	return s.State() == StatePlaying
}

// Position returns the current playback position.
func (s *serviceImpl) Position() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player.Position()
}

// Duration returns the current track duration.
func (s *serviceImpl) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player.Duration()
}

// CurrentTrack returns the current track, or nil if none.
func (s *serviceImpl) CurrentTrack() *Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTrackLocked()
}

func (s *serviceImpl) currentTrackLocked() *Track {
	t := s.queue.Current()
	if t == nil {
		return nil
	}
	track := fromPlaylistTrack(*t)
	return &track
}

// QueueTracks returns a copy of all tracks in the queue.
func (s *serviceImpl) QueueTracks() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TracksFromPlaylist(s.queue.Tracks())
}

// QueueCurrentIndex returns the current queue index (-1 if none).
func (s *serviceImpl) QueueCurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.CurrentIndex()
}

// QueueLen returns the number of queued tracks.
func (s *serviceImpl) QueueLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.Len()
}

// AddTracks appends tracks to the queue.
func (s *serviceImpl) AddTracks(tracks ...Track) {
	s.mu.Lock()
	for _, t := range tracks {
		s.queue.Add(toPlaylistTrack(t))
	}
	s.mu.Unlock()
}

// ReplaceTracks replaces the queue contents. Returns the track at index 0
// or nil for an empty replacement.
func (s *serviceImpl) ReplaceTracks(tracks ...Track) *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	pl := make([]playlist.Track, len(tracks))
	for i, t := range tracks {
		pl[i] = toPlaylistTrack(t)
	}
	first := s.queue.Replace(pl...)
	if first == nil {
		return nil
	}
	track := fromPlaylistTrack(*first)
	return &track
}

// RepeatMode returns the current repeat mode.
func (s *serviceImpl) RepeatMode() RepeatMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RepeatMode(s.queue.RepeatMode())
}

// SetRepeatMode sets the repeat mode.
func (s *serviceImpl) SetRepeatMode(mode RepeatMode) {
	s.mu.Lock()
	s.queue.SetRepeatMode(playlist.RepeatMode(mode))
	shuffle := s.queue.Shuffle()
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) {
		sub.sendMode(ModeChange{RepeatMode: mode, Shuffle: shuffle})
	})
}

// Shuffle returns whether shuffle is enabled.
func (s *serviceImpl) Shuffle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.Shuffle()
}

// SetShuffle enables or disables shuffle.
func (s *serviceImpl) SetShuffle(enabled bool) {
	s.mu.Lock()
	s.queue.SetShuffle(enabled)
	mode := RepeatMode(s.queue.RepeatMode())
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) {
		sub.sendMode(ModeChange{RepeatMode: mode, Shuffle: enabled})
	})
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (s *serviceImpl) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.SetVolume(level)
}

// Volume returns the playback volume.
func (s *serviceImpl) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player.Volume()
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Unsubscribe removes a subscription and closes its Done channel.
func (s *serviceImpl) Unsubscribe(sub *Subscription) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, existing := range s.subs {
		if existing == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			sub.close()
			return
		}
	}
}

// Close shuts down the service.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.player.Stop()
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}

// broadcast applies fn to every live subscription.
func (s *serviceImpl) broadcast(fn func(*Subscription)) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		fn(sub)
	}
}

func (s *serviceImpl) emitTrackChange(change TrackChange, err error) {
	if change.Current == nil && change.Previous == nil {
		return
	}
	s.broadcast(func(sub *Subscription) { sub.sendTrack(change) })
	if err != nil && change.Current != nil {
		s.sendError("play", change.Current.Path, err)
	}
}

func (s *serviceImpl) emitStateChange(before, after State) {
	if before == after {
		return
	}
	s.broadcast(func(sub *Subscription) {
		sub.sendState(StateChange{Previous: before, Current: after})
	})
}

func (s *serviceImpl) sendError(op, path string, err error) {
	s.broadcast(func(sub *Subscription) {
		sub.sendError(ErrorEvent{Operation: op, Path: path, Err: err})
	})
}
