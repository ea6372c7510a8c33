package skip

import "github.com/llehouerou/hush/internal/playback"

// ActionKind enumerates what happens at a track boundary.
type ActionKind int

const (
	// ActionNone means there is nothing to do (empty queue, no current).
	ActionNone ActionKind = iota
	// ActionRestart replays the current track from position 0 (repeat-one).
	ActionRestart
	// ActionShuffleAdvance defers to the shuffle selection algorithm.
	ActionShuffleAdvance
	// ActionPlayIndex plays the queue track at Index directly.
	ActionPlayIndex
	// ActionStopClear pauses the transport and clears the current track
	// (sequential mode ran out of tracks).
	ActionStopClear
)

// Action is the resolved boundary behavior.
type Action struct {
	Kind  ActionKind
	Index int // valid for ActionPlayIndex
}

// ResolveBoundary maps (mode, shuffle, position, queue size) to the action
// taken when a track boundary is reached. The skip engine uses it to leave
// a track early; the result must be indistinguishable from the transport's
// own handling of a natural track end, so the two must stay in lockstep.
func ResolveBoundary(mode playback.RepeatMode, shuffle bool, index, count int) Action {
	if count == 0 || index < 0 {
		return Action{Kind: ActionNone}
	}
	if mode == playback.RepeatOne {
		return Action{Kind: ActionRestart}
	}
	if shuffle {
		return Action{Kind: ActionShuffleAdvance}
	}
	if index+1 < count {
		return Action{Kind: ActionPlayIndex, Index: index + 1}
	}
	if mode == playback.RepeatAll {
		return Action{Kind: ActionPlayIndex, Index: 0}
	}
	return Action{Kind: ActionStopClear}
}
