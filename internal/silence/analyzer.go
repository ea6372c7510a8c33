// Package silence measures leading and trailing silence in audio tracks and
// caches the results so a track is only ever decoded once per parameter set.
package silence

import (
	"math"
	"time"
)

// scanWindow bounds how far into a track each edge scan looks. Silence
// beyond it goes undetected, in exchange for predictable analysis cost on
// arbitrarily long tracks.
const scanWindow = 10 * time.Second

// Analysis holds the measured silence boundaries of one track.
// Immutable once created; owned by the Cache.
type Analysis struct {
	TrackID    string
	Duration   time.Duration
	Leading    time.Duration
	Trailing   time.Duration
	SampleRate int // rate the measurement ran at, diagnostic only
}

// Analyze measures leading and trailing silence in a buffer of normalized
// mono samples in [-1, 1]. Both results are capped at 10% of the track
// duration so a misfiring detector can never swallow a large part of a
// legitimately quiet track.
func Analyze(trackID string, samples []float64, sampleRate int, p Params) Analysis {
	p = p.Clamped()

	duration := samplesToDuration(len(samples), sampleRate)
	threshold := math.Pow(10, p.ThresholdDB/20)
	minRun := int(p.MinSilence.Seconds() * float64(sampleRate))
	window := min(len(samples), int(scanWindow.Seconds())*sampleRate)

	leading := samplesToDuration(scanLeading(samples[:window], threshold, minRun), sampleRate)
	trailing := samplesToDuration(scanTrailing(samples[len(samples)-window:], threshold, minRun), sampleRate)

	limit := duration / 10
	leading = min(leading, limit)
	trailing = min(trailing, limit)

	return Analysis{
		TrackID:    trackID,
		Duration:   duration,
		Leading:    leading,
		Trailing:   trailing,
		SampleRate: sampleRate,
	}
}

// scanLeading walks the window forward counting consecutive sub-threshold
// samples. The first run that both meets minRun and is terminated by a
// non-silent sample wins. A run still open at the window boundary counts if
// it meets the minimum (short tracks, faded intros).
func scanLeading(samples []float64, threshold float64, minRun int) int {
	run := 0
	for _, s := range samples {
		if math.Abs(s) < threshold {
			run++
			continue
		}
		if run >= minRun {
			return run
		}
		run = 0
	}
	if run >= minRun {
		return run
	}
	return 0
}

// scanTrailing walks the window backward from the last sample. Unlike the
// leading scan it stops at the first non-silent sample: trailing silence
// only counts when it is contiguous up to the very end of the track. This
// asymmetry is deliberate.
func scanTrailing(samples []float64, threshold float64, minRun int) int {
	run := 0
	for i := len(samples) - 1; i >= 0; i-- {
		if math.Abs(samples[i]) >= threshold {
			break
		}
		run++
	}
	if run >= minRun {
		return run
	}
	return 0
}

func samplesToDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}
