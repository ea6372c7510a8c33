package playlist

// PlayingQueue wraps a Playlist with playback position, repeat mode and
// shuffle state.
type PlayingQueue struct {
	playlist     *Playlist
	currentIndex int // -1 if nothing playing
	repeatMode   RepeatMode
	shuffle      bool
	order        *shuffleOrder // nil when shuffle is off
}

// NewQueue creates a new empty playing queue.
func NewQueue() *PlayingQueue {
	return &PlayingQueue{
		playlist:     NewPlaylist(),
		currentIndex: -1,
	}
}

// Current returns the currently playing track, or nil if none.
func (q *PlayingQueue) Current() *Track {
	if q.currentIndex < 0 || q.currentIndex >= q.playlist.Len() {
		return nil
	}
	return q.playlist.Track(q.currentIndex)
}

// CurrentIndex returns the index of the currently playing track (-1 if none).
func (q *PlayingQueue) CurrentIndex() int {
	return q.currentIndex
}

// ClearCurrent resets the playback position without touching the tracks.
func (q *PlayingQueue) ClearCurrent() {
	q.currentIndex = -1
}

// Next advances to the next track in list order and returns it.
// Returns nil if there is no next track.
func (q *PlayingQueue) Next() *Track {
	if !q.HasNext() {
		return nil
	}
	q.currentIndex++
	return q.Current()
}

// Previous moves to the previous track in list order and returns it.
// Returns nil if already at the first track.
func (q *PlayingQueue) Previous() *Track {
	if q.currentIndex <= 0 {
		return nil
	}
	q.currentIndex--
	return q.Current()
}

// HasNext returns true if there's a track after the current one.
func (q *PlayingQueue) HasNext() bool {
	return q.currentIndex < q.playlist.Len()-1
}

// JumpTo sets the current index to the specified position.
// Returns the track at that position, or nil if invalid.
func (q *PlayingQueue) JumpTo(index int) *Track {
	if index < 0 || index >= q.playlist.Len() {
		return nil
	}
	q.currentIndex = index
	if q.order != nil {
		q.order.jumpTo(index)
	}
	return q.Current()
}

// Add appends tracks to the queue without changing playback.
func (q *PlayingQueue) Add(tracks ...Track) {
	first := q.playlist.Len()
	q.playlist.Add(tracks...)
	if q.order != nil {
		q.order.extend(first, q.playlist.Len())
	}
}

// Replace clears the queue, adds tracks, and sets index to 0.
// Returns the first track to play.
func (q *PlayingQueue) Replace(tracks ...Track) *Track {
	q.playlist.Clear()
	q.currentIndex = -1
	q.order = nil
	if len(tracks) == 0 {
		return nil
	}
	q.playlist.Add(tracks...)
	q.currentIndex = 0
	if q.shuffle {
		q.order = newShuffleOrder(q.playlist.Len(), q.currentIndex)
	}
	return q.Current()
}

// RemoveAt removes the track at the given index.
// Adjusts currentIndex if necessary and rebuilds the shuffle order.
func (q *PlayingQueue) RemoveAt(index int) bool {
	if !q.playlist.Remove(index) {
		return false
	}

	if q.currentIndex > index {
		q.currentIndex--
	} else if q.currentIndex == index {
		// Removed current track - stay at same index (now points to next)
		if q.currentIndex >= q.playlist.Len() {
			q.currentIndex = q.playlist.Len() - 1
		}
	}

	if q.shuffle && q.playlist.Len() > 0 {
		q.order = newShuffleOrder(q.playlist.Len(), q.currentIndex)
	} else {
		q.order = nil
	}
	return true
}

// Clear removes all tracks and resets playback.
func (q *PlayingQueue) Clear() {
	q.playlist.Clear()
	q.currentIndex = -1
	q.order = nil
}

// Tracks returns all tracks in the queue.
func (q *PlayingQueue) Tracks() []Track {
	return q.playlist.Tracks()
}

// Len returns the number of tracks in the queue.
func (q *PlayingQueue) Len() int {
	return q.playlist.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool {
	return q.playlist.Len() == 0
}

// RepeatMode returns the active repeat mode.
func (q *PlayingQueue) RepeatMode() RepeatMode {
	return q.repeatMode
}

// SetRepeatMode sets the repeat mode.
func (q *PlayingQueue) SetRepeatMode(mode RepeatMode) {
	q.repeatMode = mode
}

// Shuffle returns whether shuffle is enabled.
func (q *PlayingQueue) Shuffle() bool {
	return q.shuffle
}

// SetShuffle enables or disables shuffle. Enabling seeds the shuffle order
// with the current track as already played, so NextShuffle never returns the
// track being listened to and PreviousShuffle can come back to it.
func (q *PlayingQueue) SetShuffle(enabled bool) {
	q.shuffle = enabled
	if enabled && q.playlist.Len() > 0 {
		q.order = newShuffleOrder(q.playlist.Len(), q.currentIndex)
	} else {
		q.order = nil
	}
}

// NextShuffle advances to the next shuffled track and returns it.
// Returns nil if shuffle is off or the queue is empty.
func (q *PlayingQueue) NextShuffle() *Track {
	if q.order == nil || q.playlist.Len() == 0 {
		return nil
	}
	q.currentIndex = q.order.next()
	return q.Current()
}

// PreviousShuffle undoes the last NextShuffle and returns the prior track.
// Returns nil when there is no shuffle history to go back to.
func (q *PlayingQueue) PreviousShuffle() *Track {
	if q.order == nil {
		return nil
	}
	index, ok := q.order.previous()
	if !ok {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// Advance applies end-of-track semantics for the active mode and returns the
// track that should play next, or nil if playback should stop.
//
// RepeatOne replays the current track, shuffle defers to NextShuffle, and
// list order either advances, wraps (RepeatAll) or stops (RepeatOff).
func (q *PlayingQueue) Advance() *Track {
	if q.IsEmpty() || q.currentIndex < 0 {
		return nil
	}

	if q.repeatMode == RepeatOne {
		return q.Current()
	}

	if q.shuffle {
		return q.NextShuffle()
	}

	if q.HasNext() {
		return q.Next()
	}

	if q.repeatMode == RepeatAll {
		return q.JumpTo(0)
	}

	// Sequential end of queue: stop.
	q.currentIndex = -1
	return nil
}
