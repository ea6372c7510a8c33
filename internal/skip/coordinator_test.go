package skip

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/hush/internal/playback"
	"github.com/llehouerou/hush/internal/player"
	"github.com/llehouerou/hush/internal/playlist"
	"github.com/llehouerou/hush/internal/silence"
)

const fakeRate = 1000

// fakeDecoder serves synthetic sample buffers per path. A non-nil block
// channel stalls every decode until it is closed.
type fakeDecoder struct {
	mu      sync.Mutex
	buffers map[string][]float64
	fail    map[string]bool
	block   chan struct{}
}

func (d *fakeDecoder) Decode(ctx context.Context, path string) ([]float64, int, error) {
	d.mu.Lock()
	block := d.block
	d.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[path] {
		return nil, 0, silence.ErrUnanalyzable
	}
	samples, ok := d.buffers[path]
	if !ok {
		return nil, 0, silence.ErrUnanalyzable
	}
	return samples, fakeRate, nil
}

// trackSamples builds a 10s buffer: 1s silence, 8s tone, 1s silence.
func trackSamples() []float64 {
	samples := make([]float64, 10*fakeRate)
	for i := fakeRate; i < 9*fakeRate; i++ {
		samples[i] = 0.5
	}
	return samples
}

type fixture struct {
	svc   playback.Service
	p     *player.Mock
	cache *silence.Cache
	dec   *fakeDecoder
	coord *Coordinator

	skipsMu sync.Mutex
	skips   [][2]string
	errs    []error
}

func newFixture(t *testing.T, hooks Hooks, tracks ...playlist.Track) *fixture {
	t.Helper()
	f := &fixture{
		p: player.NewMock(),
		dec: &fakeDecoder{
			buffers: make(map[string][]float64),
			fail:    make(map[string]bool),
		},
	}

	q := playlist.NewQueue()
	q.Replace(tracks...)
	for _, tr := range tracks {
		f.dec.buffers[tr.Path] = trackSamples()
	}

	f.svc = playback.NewWithTickInterval(f.p, q, 10*time.Millisecond)
	f.cache = silence.NewCache(f.dec, silence.DefaultParams())

	if hooks.OnSkip == nil {
		hooks.OnSkip = func(from, to string) {
			f.skipsMu.Lock()
			f.skips = append(f.skips, [2]string{from, to})
			f.skipsMu.Unlock()
		}
	}
	if hooks.OnError == nil {
		hooks.OnError = func(err error) {
			f.skipsMu.Lock()
			f.errs = append(f.errs, err)
			f.skipsMu.Unlock()
		}
	}
	f.coord = New(f.svc, f.cache, hooks)

	t.Cleanup(func() {
		f.coord.Disable()
		_ = f.svc.Close()
	})
	return f
}

func (f *fixture) skipCount() int {
	f.skipsMu.Lock()
	defer f.skipsMu.Unlock()
	return len(f.skips)
}

func (f *fixture) lastSkip() [2]string {
	f.skipsMu.Lock()
	defer f.skipsMu.Unlock()
	return f.skips[len(f.skips)-1]
}

func twoTracks() []playlist.Track {
	return []playlist.Track{
		{ID: "a", Path: "/music/a.mp3", Duration: 10 * time.Second},
		{ID: "b", Path: "/music/b.mp3", Duration: 10 * time.Second},
	}
}

func TestCoordinator_Enable_AppliesStartSkip(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())

	require.Eventually(t, func() bool {
		return len(f.p.SeekToCalls()) > 0
	}, 2*time.Second, 10*time.Millisecond, "start-skip seek never fired")
	assert.Equal(t, time.Second, f.p.SeekToCalls()[0], "seek target should be the leading silence")
}

func TestCoordinator_NoStartSkipWhenPastLeadingSilence(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)
	f.p.SetPosition(3 * time.Second)

	require.NoError(t, f.coord.Enable())

	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, f.p.SeekToCalls(), "no seek when already past leading silence")
}

func TestCoordinator_EndSkip_Sequential(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())

	// Wait for both analyses, then move into the trailing window.
	require.Eventually(t, func() bool { return f.cache.Len() == 2 }, 2*time.Second, 10*time.Millisecond)
	f.p.SetPosition(9500 * time.Millisecond)

	require.Eventually(t, func() bool {
		calls := f.p.PlayCalls()
		return len(calls) >= 2 && calls[len(calls)-1] == "/music/b.mp3"
	}, 2*time.Second, 10*time.Millisecond, "end-skip should play the next track directly")

	require.Eventually(t, func() bool { return f.skipCount() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, [2]string{"a", "b"}, f.lastSkip())
}

func TestCoordinator_EndSkip_SequentialLastTrack_StopsAndClears(t *testing.T) {
	f := newFixture(t, Hooks{}, playlist.Track{ID: "a", Path: "/music/a.mp3"})
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())
	require.Eventually(t, func() bool { return f.cache.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.p.SetPosition(9200 * time.Millisecond)

	require.Eventually(t, func() bool {
		return f.svc.CurrentTrack() == nil
	}, 2*time.Second, 10*time.Millisecond, "current track should be cleared")
	assert.GreaterOrEqual(t, f.p.PauseCalls(), 1, "transport should receive pause")
	assert.Len(t, f.p.PlayCalls(), 1, "no play-track command at sequential end")

	require.Eventually(t, func() bool { return f.skipCount() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, [2]string{"a", ""}, f.lastSkip())
}

func TestCoordinator_EndSkip_RepeatAllLastTrack_WrapsToFirst(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	f.svc.SetRepeatMode(playback.RepeatAll)
	require.NoError(t, f.svc.PlayIndex(1))
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())
	require.Eventually(t, func() bool { return f.cache.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	f.p.SetPosition(9500 * time.Millisecond)

	require.Eventually(t, func() bool {
		calls := f.p.PlayCalls()
		return len(calls) >= 2 && calls[len(calls)-1] == "/music/a.mp3"
	}, 2*time.Second, 10*time.Millisecond, "list-loop should wrap to the first track")
}

func TestCoordinator_EndSkip_RepeatAllSingleTrack_Wraps(t *testing.T) {
	f := newFixture(t, Hooks{}, playlist.Track{ID: "a", Path: "/music/a.mp3"})
	f.svc.SetRepeatMode(playback.RepeatAll)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())
	require.Eventually(t, func() bool { return f.cache.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	// The predicted next track is the current one; its analysis must
	// satisfy the boundary gate without a second resolve.
	f.p.SetPosition(9500 * time.Millisecond)

	require.Eventually(t, func() bool {
		return len(f.p.PlayCalls()) >= 2
	}, 2*time.Second, 10*time.Millisecond, "single-track list loop should wrap to index 0")
	assert.Equal(t, "/music/a.mp3", f.p.PlayCalls()[1])

	require.Eventually(t, func() bool { return f.skipCount() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, [2]string{"a", "a"}, f.lastSkip())
}

func TestCoordinator_EndSkip_RepeatOne_RestartsTrack(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	f.svc.SetRepeatMode(playback.RepeatOne)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())
	require.Eventually(t, func() bool { return f.cache.Len() >= 1 }, 2*time.Second, 10*time.Millisecond)

	// Jump past any pending start-skip, then into the trailing window.
	f.p.SetPosition(9500 * time.Millisecond)

	require.Eventually(t, func() bool {
		for _, pos := range f.p.SeekToCalls() {
			if pos == 0 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "repeat-one should restart via seek to 0")
	assert.Len(t, f.p.PlayCalls(), 1, "repeat-one must not advance the playlist cursor")
}

func TestCoordinator_EndSkip_Shuffle_UsesShuffleAdvance(t *testing.T) {
	tracks := []playlist.Track{
		{ID: "a", Path: "/music/a.mp3"},
		{ID: "b", Path: "/music/b.mp3"},
		{ID: "c", Path: "/music/c.mp3"},
	}
	f := newFixture(t, Hooks{}, tracks...)
	f.svc.SetShuffle(true)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())
	require.Eventually(t, func() bool { return f.cache.Len() >= 1 }, 2*time.Second, 10*time.Millisecond)

	f.p.SetPosition(9500 * time.Millisecond)

	require.Eventually(t, func() bool {
		return len(f.p.PlayCalls()) >= 2
	}, 2*time.Second, 10*time.Millisecond, "shuffle end-skip should advance")
	assert.NotEqual(t, "/music/a.mp3", f.p.PlayCalls()[1], "shuffle advance picks a different track")
}

func TestCoordinator_FailedSkipClearsInFlight(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())
	require.Eventually(t, func() bool { return f.cache.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	f.p.SetPlayError(errors.New("device gone"))
	f.p.SetPosition(9500 * time.Millisecond)

	require.Eventually(t, func() bool {
		f.skipsMu.Lock()
		defer f.skipsMu.Unlock()
		return len(f.errs) > 0
	}, 2*time.Second, 10*time.Millisecond, "failed action should surface via OnError")

	// The failed advance still moved the cursor onto the last track, so
	// proof the engine is not wedged is the follow-up boundary skip:
	// stop-and-clear on that last track.
	require.Eventually(t, func() bool {
		return f.svc.CurrentTrack() == nil
	}, 2*time.Second, 10*time.Millisecond, "engine should keep skipping after a failed action")

	require.Eventually(t, func() bool { return f.skipCount() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, [2]string{"b", ""}, f.lastSkip())
}

func TestCoordinator_UnanalyzableTrack_NoSkips(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	f.dec.mu.Lock()
	f.dec.fail["/music/a.mp3"] = true
	f.dec.mu.Unlock()
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())

	f.p.SetPosition(9500 * time.Millisecond)
	time.Sleep(400 * time.Millisecond)

	assert.Empty(t, f.p.SeekToCalls(), "no start-skip for unanalyzable track")
	assert.Len(t, f.p.PlayCalls(), 1, "no end-skip for unanalyzable track")
	assert.Nil(t, f.cache.Get("a"), "failure must not be cached")
}

func TestCoordinator_AcquireFailure_RollsBack(t *testing.T) {
	wantErr := errors.New("no decoder available")
	released := false
	f := newFixture(t, Hooks{
		Acquire: func() error { return wantErr },
		Release: func() { released = true },
	}, twoTracks()...)

	err := f.coord.Enable()
	require.ErrorIs(t, err, wantErr)
	assert.False(t, f.coord.Enabled(), "engine must roll back to disabled")
	assert.False(t, released, "release must not run when acquire failed")
}

func TestCoordinator_Disable_Idempotent(t *testing.T) {
	disabled := 0
	f := newFixture(t, Hooks{
		OnDisabled: func() { disabled++ },
	}, twoTracks()...)

	require.NoError(t, f.coord.Enable())
	f.coord.Disable()
	f.coord.Disable()

	assert.False(t, f.coord.Enabled())
	assert.Equal(t, 1, disabled, "second Disable is a no-op")
}

func TestCoordinator_DisableCancelsPendingAnalysis(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)

	block := make(chan struct{})
	f.dec.mu.Lock()
	f.dec.block = block
	f.dec.mu.Unlock()

	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())

	// Disable while the decodes are still stalled; the cancelled
	// resolves must not land anywhere once they unblock.
	time.Sleep(50 * time.Millisecond)
	f.coord.Disable()
	close(block)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, f.cache.Len(), "cancelled analysis must not be cached")
	assert.Empty(t, f.p.SeekToCalls(), "no start-skip after disable")

	// Into the trailing window: a landed analysis would trigger a skip
	// on re-enable ticks, a cancelled one cannot.
	f.p.SetPosition(9500 * time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, f.p.PlayCalls(), 1, "no end-skip after disable")
}

func TestCoordinator_DisableKeepsCacheEntries(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())
	require.Eventually(t, func() bool { return f.cache.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	f.coord.Disable()

	assert.Equal(t, 2, f.cache.Len(), "cache entries persist for reuse")
}

func TestCoordinator_SetThreshold_InvalidatesCache(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)
	require.NoError(t, f.svc.Play())
	f.p.SetDuration(10 * time.Second)

	require.NoError(t, f.coord.Enable())
	require.Eventually(t, func() bool { return f.cache.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	f.coord.SetSilenceThreshold(-40)

	assert.Equal(t, 0, f.cache.Len(), "threshold change drops all analyses")
	assert.Equal(t, -40.0, f.coord.Params().ThresholdDB)
}

func TestCoordinator_SetMinSilenceDuration_Clamps(t *testing.T) {
	f := newFixture(t, Hooks{}, twoTracks()...)

	f.coord.SetMinSilenceDuration(time.Minute)
	assert.Equal(t, silence.MaxMinSilence, f.coord.Params().MinSilence)

	f.coord.SetSilenceThreshold(-500)
	assert.Equal(t, silence.MinThresholdDB, f.coord.Params().ThresholdDB)
}

func TestResolveBoundary(t *testing.T) {
	tests := []struct {
		name    string
		mode    playback.RepeatMode
		shuffle bool
		index   int
		count   int
		want    Action
	}{
		{"empty queue", playback.RepeatOff, false, -1, 0, Action{Kind: ActionNone}},
		{"repeat one", playback.RepeatOne, false, 1, 3, Action{Kind: ActionRestart}},
		{"repeat one wins over shuffle", playback.RepeatOne, true, 1, 3, Action{Kind: ActionRestart}},
		{"shuffle", playback.RepeatOff, true, 1, 3, Action{Kind: ActionShuffleAdvance}},
		{"sequential middle", playback.RepeatOff, false, 0, 3, Action{Kind: ActionPlayIndex, Index: 1}},
		{"sequential last", playback.RepeatOff, false, 2, 3, Action{Kind: ActionStopClear}},
		{"list-loop last wraps", playback.RepeatAll, false, 2, 3, Action{Kind: ActionPlayIndex, Index: 0}},
		{"list-loop middle", playback.RepeatAll, false, 0, 3, Action{Kind: ActionPlayIndex, Index: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveBoundary(tt.mode, tt.shuffle, tt.index, tt.count)
			assert.Equal(t, tt.want, got)
		})
	}
}
