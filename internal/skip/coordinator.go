// Package skip turns silence measurements into playback actions: seeking
// past leading silence when a track starts, and advancing to the next track
// just before trailing silence would play.
package skip

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/hush/internal/playback"
	"github.com/llehouerou/hush/internal/silence"
)

// startSkipDelay is the grace period between a track change and applying
// the start-skip seek, so a rapid follow-up track change wins the race.
const startSkipDelay = 100 * time.Millisecond

type state int

const (
	stateDisabled state = iota
	stateIdle
	stateSkipInFlight
)

// Hooks are optional lifecycle callbacks. Nil fields are ignored.
type Hooks struct {
	// Acquire runs first during Enable; an error aborts enabling with the
	// engine still disabled. Release runs during Disable.
	Acquire func() error
	Release func()

	OnEnabled  func()
	OnDisabled func()
	// OnSkip fires after a completed end-skip. toID is empty when the
	// skip stopped playback (sequential mode at the last track).
	OnSkip func(fromID, toID string)
	// OnError fires when an end-skip action fails. The engine stays
	// usable; the failed skip is not retried.
	OnError func(err error)
}

// Coordinator watches playback and executes boundary skips.
//
// It is a three-state machine: Disabled, Idle (enabled, watching ticks) and
// SkipInFlight (an end-skip action is executing). Analyses resolve
// asynchronously through the cache; every async completion re-validates
// that the engine is still enabled and the track is still current before
// touching state.
type Coordinator struct {
	mu    sync.Mutex
	state state

	transport Transport
	cache     *silence.Cache
	hooks     Hooks

	current *silence.Analysis
	next    *silence.Analysis

	sub    *playback.Subscription
	cancel context.CancelFunc

	// gen is bumped on every enable, disable and track change; async
	// completions captured under an older gen discard their results.
	gen uint64

	startTimer *time.Timer
}

// New creates a disabled coordinator.
func New(transport Transport, cache *silence.Cache, hooks Hooks) *Coordinator {
	return &Coordinator{
		transport: transport,
		cache:     cache,
		hooks:     hooks,
	}
}

// Enabled reports whether the engine is active.
func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != stateDisabled
}

// Enable activates the engine: acquires resources, subscribes to transport
// notifications, eagerly analyzes the current and next tracks and applies a
// start-skip if the current position is still inside the leading-silence
// window. A resource acquisition failure leaves the engine fully disabled,
// with no subscription dangling.
func (c *Coordinator) Enable() error {
	c.mu.Lock()
	if c.state != stateDisabled {
		c.mu.Unlock()
		return nil
	}
	if c.hooks.Acquire != nil {
		if err := c.hooks.Acquire(); err != nil {
			c.mu.Unlock()
			return err
		}
	}

	sub := c.transport.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	c.sub = sub
	c.cancel = cancel
	c.state = stateIdle
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.loop(ctx, sub)
	go c.refreshAnalyses(ctx, gen)

	if c.hooks.OnEnabled != nil {
		c.hooks.OnEnabled()
	}
	return nil
}

// Disable deactivates the engine, unsubscribes from the transport and
// releases resources. Cached analyses persist for reuse on re-enable.
// Idempotent: disabling a disabled engine is a no-op.
func (c *Coordinator) Disable() {
	c.mu.Lock()
	if c.state == stateDisabled {
		c.mu.Unlock()
		return
	}
	c.state = stateDisabled
	c.gen++
	if c.startTimer != nil {
		c.startTimer.Stop()
		c.startTimer = nil
	}
	cancel := c.cancel
	sub := c.sub
	c.cancel = nil
	c.sub = nil
	c.current = nil
	c.next = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		c.transport.Unsubscribe(sub)
	}
	if c.hooks.Release != nil {
		c.hooks.Release()
	}
	if c.hooks.OnDisabled != nil {
		c.hooks.OnDisabled()
	}
}

// SetSilenceThreshold clamps the threshold to [-100, 0] dBFS and
// invalidates all cached analyses. Boundaries already loaded for the
// playing track stay in effect until the next track change or re-enable.
func (c *Coordinator) SetSilenceThreshold(db float64) {
	p := c.cache.Params()
	p.ThresholdDB = db
	c.cache.SetParams(p)
}

// SetMinSilenceDuration clamps the minimum silence duration to [100ms, 5s]
// and invalidates all cached analyses.
func (c *Coordinator) SetMinSilenceDuration(d time.Duration) {
	p := c.cache.Params()
	p.MinSilence = d
	c.cache.SetParams(p)
}

// Params returns the active detection parameters.
func (c *Coordinator) Params() silence.Params {
	return c.cache.Params()
}

// loop is the engine's single cooperative timeline: all tick and
// track-change handling runs here, one event at a time.
func (c *Coordinator) loop(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case <-sub.TrackChanged:
			c.handleTrackChange(ctx)
		case tick := <-sub.Ticks:
			c.handleTick(tick.Position)
		case <-sub.TrackEnded:
			// Natural end. The transport advances on its own and a
			// TrackChange follows.
		}
	}
}

// handleTrackChange re-resolves analyses for the new current and next
// tracks and reschedules start-skip evaluation. It also clears a stale
// skip-in-flight guard left by a skip into a track that itself changed.
func (c *Coordinator) handleTrackChange(ctx context.Context) {
	c.mu.Lock()
	if c.state == stateDisabled {
		c.mu.Unlock()
		return
	}
	if c.state == stateSkipInFlight {
		c.state = stateIdle
	}
	c.gen++
	gen := c.gen
	c.current = nil
	c.next = nil
	if c.startTimer != nil {
		c.startTimer.Stop()
		c.startTimer = nil
	}
	c.mu.Unlock()

	go c.refreshAnalyses(ctx, gen)
}

// refreshAnalyses resolves the current track's analysis, schedules the
// start-skip, and prefetches the next track's analysis concurrently.
func (c *Coordinator) refreshAnalyses(ctx context.Context, gen uint64) {
	cur := c.transport.CurrentTrack()
	if cur == nil {
		return
	}

	next := c.nextTrack(cur)
	if next != nil && next.ID != cur.ID {
		go c.resolveNext(ctx, gen, *next)
	}

	a, err := c.cache.Resolve(ctx, cur.ID, cur.Path)
	if err != nil {
		// Unanalyzable: no boundary skips for this track. A later cache
		// miss retries.
		return
	}

	c.mu.Lock()
	if c.state == stateDisabled || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.current = a
	// When the predicted next track is the current one (repeat-one, or a
	// single-track list loop), its analysis is this one.
	if next != nil && next.ID == cur.ID {
		c.next = a
	}
	c.mu.Unlock()

	if a.Leading > 0 {
		c.scheduleStartSkip(gen, cur.ID, a.Leading)
	}
}

func (c *Coordinator) resolveNext(ctx context.Context, gen uint64, track playback.Track) {
	a, err := c.cache.Resolve(ctx, track.ID, track.Path)
	if err != nil {
		return
	}
	c.mu.Lock()
	if c.state != stateDisabled && gen == c.gen {
		c.next = a
	}
	c.mu.Unlock()
}

// nextTrack predicts which track follows the current one, or nil when that
// is unknowable (shuffle) or playback will stop (sequential last track).
func (c *Coordinator) nextTrack(cur *playback.Track) *playback.Track {
	if c.transport.Shuffle() {
		return nil
	}
	index := c.transport.QueueCurrentIndex()
	count := c.transport.QueueLen()
	if index < 0 || count == 0 {
		return nil
	}

	switch c.transport.RepeatMode() {
	case playback.RepeatOne:
		return cur
	case playback.RepeatAll:
		tracks := c.transport.QueueTracks()
		return &tracks[(index+1)%len(tracks)]
	default:
		if index+1 >= count {
			return nil
		}
		tracks := c.transport.QueueTracks()
		return &tracks[index+1]
	}
}

// scheduleStartSkip defers the leading-silence seek by a grace delay,
// re-validating the track identity when the timer fires.
func (c *Coordinator) scheduleStartSkip(gen uint64, trackID string, leading time.Duration) {
	c.mu.Lock()
	if c.state == stateDisabled || gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.startTimer != nil {
		c.startTimer.Stop()
	}
	c.startTimer = time.AfterFunc(startSkipDelay, func() {
		c.applyStartSkip(gen, trackID, leading)
	})
	c.mu.Unlock()
}

func (c *Coordinator) applyStartSkip(gen uint64, trackID string, leading time.Duration) {
	c.mu.Lock()
	if c.state == stateDisabled || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.startTimer = nil
	c.mu.Unlock()

	cur := c.transport.CurrentTrack()
	if cur == nil || cur.ID != trackID {
		// A rapid track change beat the deferred seek.
		return
	}
	if c.transport.Position() < leading {
		_ = c.transport.SeekTo(leading)
	}
}

// handleTick checks whether playback has reached the trailing-silence
// boundary and, if so, executes the end-skip. Ticks arriving while a skip
// is in flight, while the engine is disabled, or before the current
// track's analysis has resolved are no-ops.
func (c *Coordinator) handleTick(pos time.Duration) {
	cur := c.transport.CurrentTrack()
	if cur == nil {
		return
	}

	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return
	}
	analysis := c.current
	if analysis == nil || analysis.TrackID != cur.ID {
		// Analysis pending, or a stale tick from before a track change.
		c.mu.Unlock()
		return
	}
	if analysis.Trailing <= 0 {
		c.mu.Unlock()
		return
	}
	// >= so a tick landing exactly on the boundary is never missed.
	if pos < analysis.Duration-analysis.Trailing {
		c.mu.Unlock()
		return
	}
	// When the upcoming track is knowable its analysis must have resolved
	// before we leave early; otherwise trigger on the current one alone.
	if c.nextTrack(cur) != nil && c.next == nil {
		c.mu.Unlock()
		return
	}
	c.state = stateSkipInFlight
	c.mu.Unlock()

	c.executeEndSkip(cur.ID)
}

// executeEndSkip runs the boundary action for the active play mode.
// Whatever happens, the skip-in-flight guard is cleared afterwards so a
// failed skip can never wedge the engine.
func (c *Coordinator) executeEndSkip(fromID string) {
	defer func() {
		c.mu.Lock()
		if c.state == stateSkipInFlight {
			c.state = stateIdle
		}
		c.mu.Unlock()
	}()

	action := ResolveBoundary(
		c.transport.RepeatMode(),
		c.transport.Shuffle(),
		c.transport.QueueCurrentIndex(),
		c.transport.QueueLen(),
	)

	var err error
	switch action.Kind {
	case ActionNone:
		return
	case ActionRestart:
		err = c.transport.SeekTo(0)
	case ActionShuffleAdvance:
		err = c.transport.PlayNextShuffle()
	case ActionPlayIndex:
		err = c.transport.PlayIndex(action.Index)
	case ActionStopClear:
		err = c.transport.Pause()
		c.transport.ClearCurrent()
	}

	if err != nil {
		if c.hooks.OnError != nil {
			c.hooks.OnError(err)
		}
		return
	}

	if c.hooks.OnSkip != nil {
		toID := ""
		if cur := c.transport.CurrentTrack(); cur != nil {
			toID = cur.ID
		}
		c.hooks.OnSkip(fromID, toID)
	}
}
