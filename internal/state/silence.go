package state

import (
	"database/sql"
	"errors"
	"time"
)

// SilenceState represents the saved silence-skip settings.
type SilenceState struct {
	Enabled     bool
	ThresholdDB float64
	MinSilence  time.Duration
}

// GetSilence returns the saved silence-skip settings, or defaults when
// nothing has been saved yet.
func (m *Manager) GetSilence() (*SilenceState, error) {
	var enabled bool
	var thresholdDB float64
	var minSilenceMs int64

	row := m.db.QueryRow(`SELECT enabled, threshold_db, min_silence_ms FROM silence_settings WHERE id = 1`)
	err := row.Scan(&enabled, &thresholdDB, &minSilenceMs)
	if errors.Is(err, sql.ErrNoRows) {
		return &SilenceState{
			Enabled:     true,
			ThresholdDB: -60,
			MinSilence:  500 * time.Millisecond,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &SilenceState{
		Enabled:     enabled,
		ThresholdDB: thresholdDB,
		MinSilence:  time.Duration(minSilenceMs) * time.Millisecond,
	}, nil
}

// SaveSilence persists the silence-skip settings.
func (m *Manager) SaveSilence(state SilenceState) error {
	_, err := m.db.Exec(`
		INSERT INTO silence_settings (id, enabled, threshold_db, min_silence_ms)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enabled = excluded.enabled,
			threshold_db = excluded.threshold_db,
			min_silence_ms = excluded.min_silence_ms
	`, state.Enabled, state.ThresholdDB, state.MinSilence.Milliseconds())
	return err
}
