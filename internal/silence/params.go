package silence

import "time"

// Detection parameter bounds. Out-of-range values are clamped, not rejected.
const (
	MinThresholdDB = -100.0
	MaxThresholdDB = 0.0

	MinMinSilence = 100 * time.Millisecond
	MaxMinSilence = 5 * time.Second

	DefaultThresholdDB = -60.0
	DefaultMinSilence  = 500 * time.Millisecond
)

// Params controls what counts as silence: an amplitude threshold in decibels
// full-scale and the minimum duration a quiet run must last.
type Params struct {
	ThresholdDB float64
	MinSilence  time.Duration
}

// DefaultParams returns the default detection parameters.
func DefaultParams() Params {
	return Params{
		ThresholdDB: DefaultThresholdDB,
		MinSilence:  DefaultMinSilence,
	}
}

// Clamped returns the parameters with both values forced into their
// documented ranges.
func (p Params) Clamped() Params {
	if p.ThresholdDB < MinThresholdDB {
		p.ThresholdDB = MinThresholdDB
	}
	if p.ThresholdDB > MaxThresholdDB {
		p.ThresholdDB = MaxThresholdDB
	}
	if p.MinSilence < MinMinSilence {
		p.MinSilence = MinMinSilence
	}
	if p.MinSilence > MaxMinSilence {
		p.MinSilence = MaxMinSilence
	}
	return p
}
