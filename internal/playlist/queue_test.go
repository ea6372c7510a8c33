package playlist

import "testing"

func makeTracks(n int) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = Track{
			ID:   string(rune('a' + i)),
			Path: "/music/" + string(rune('a'+i)) + ".mp3",
		}
	}
	return tracks
}

func TestQueue_Empty(t *testing.T) {
	q := NewQueue()

	if !q.IsEmpty() {
		t.Error("new queue should be empty")
	}
	if q.Current() != nil {
		t.Error("Current() should be nil for empty queue")
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
}

func TestQueue_Replace_SetsFirstTrack(t *testing.T) {
	q := NewQueue()

	first := q.Replace(makeTracks(3)...)

	if first == nil {
		t.Fatal("Replace() returned nil")
	}
	if first.ID != "a" {
		t.Errorf("first.ID = %q, want a", first.ID)
	}
	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}
}

func TestQueue_NextPrevious(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(3)...)

	next := q.Next()
	if next == nil || next.ID != "b" {
		t.Fatalf("Next() = %v, want track b", next)
	}

	prev := q.Previous()
	if prev == nil || prev.ID != "a" {
		t.Fatalf("Previous() = %v, want track a", prev)
	}

	if q.Previous() != nil {
		t.Error("Previous() at first track should be nil")
	}
}

func TestQueue_Next_AtEnd(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(2)...)
	q.JumpTo(1)

	if q.Next() != nil {
		t.Error("Next() at last track should be nil")
	}
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1 (unchanged)", q.CurrentIndex())
	}
}

func TestQueue_RemoveAt_AdjustsIndex(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(3)...)
	q.JumpTo(2)

	if !q.RemoveAt(0) {
		t.Fatal("RemoveAt(0) failed")
	}
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
	}
	if q.Current().ID != "c" {
		t.Errorf("Current().ID = %q, want c", q.Current().ID)
	}
}

func TestQueue_Advance_Sequential(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(2)...)

	next := q.Advance()
	if next == nil || next.ID != "b" {
		t.Fatalf("Advance() = %v, want track b", next)
	}

	// At last track, sequential stops and clears current.
	if q.Advance() != nil {
		t.Error("Advance() at end should be nil")
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1 after stop", q.CurrentIndex())
	}
}

func TestQueue_Advance_RepeatAll_Wraps(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(2)...)
	q.SetRepeatMode(RepeatAll)
	q.JumpTo(1)

	next := q.Advance()
	if next == nil || next.ID != "a" {
		t.Fatalf("Advance() = %v, want wrap to track a", next)
	}
}

func TestQueue_Advance_RepeatOne_StaysPut(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(3)...)
	q.SetRepeatMode(RepeatOne)
	q.JumpTo(1)

	next := q.Advance()
	if next == nil || next.ID != "b" {
		t.Fatalf("Advance() = %v, want same track b", next)
	}
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
	}
}

func TestQueue_Shuffle_NextNeverRepeatsWithinCycle(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(5)...)
	q.SetShuffle(true)

	seen := map[string]bool{q.Current().ID: true}
	for range 4 {
		tr := q.NextShuffle()
		if tr == nil {
			t.Fatal("NextShuffle() returned nil mid-cycle")
		}
		if seen[tr.ID] {
			t.Fatalf("track %q played twice in one cycle", tr.ID)
		}
		seen[tr.ID] = true
	}
	if len(seen) != 5 {
		t.Errorf("played %d distinct tracks, want 5", len(seen))
	}
}

func TestQueue_Shuffle_RefillsWhenExhausted(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(3)...)
	q.SetShuffle(true)

	for range 10 {
		if q.NextShuffle() == nil {
			t.Fatal("NextShuffle() returned nil, want refill")
		}
	}
}

func TestQueue_Shuffle_PreviousUndoesNext(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(6)...)
	q.SetShuffle(true)

	var played []string
	played = append(played, q.Current().ID)
	for range 4 {
		played = append(played, q.NextShuffle().ID)
	}

	// Walk back: each Previous must return the prior entry of played.
	for i := len(played) - 2; i >= 0; i-- {
		prev := q.PreviousShuffle()
		if prev == nil {
			t.Fatalf("PreviousShuffle() = nil at step %d", i)
		}
		if prev.ID != played[i] {
			t.Errorf("PreviousShuffle() = %q, want %q", prev.ID, played[i])
		}
	}

	// History exhausted: previous is a no-op.
	if q.PreviousShuffle() != nil {
		t.Error("PreviousShuffle() with empty history should be nil")
	}
}

func TestQueue_Shuffle_NextAfterPreviousReturnsSameTrack(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(4)...)
	q.SetShuffle(true)

	first := q.NextShuffle().ID
	q.NextShuffle()
	q.PreviousShuffle()

	if got := q.Current().ID; got != first {
		t.Errorf("Current() after previous = %q, want %q", got, first)
	}
}

func TestQueue_Shuffle_IndexSetConserved(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(5)...)
	q.SetShuffle(true)
	q.NextShuffle()
	q.NextShuffle()
	q.PreviousShuffle()

	o := q.order
	seen := make(map[int]bool)
	for _, i := range o.remaining {
		if seen[i] {
			t.Fatalf("index %d duplicated in remaining", i)
		}
		seen[i] = true
	}
	for _, i := range o.history {
		if seen[i] {
			t.Fatalf("index %d present in both sequences", i)
		}
		seen[i] = true
	}
	if len(seen) != 5 {
		t.Errorf("remaining+history covers %d indices, want 5", len(seen))
	}
}

func TestQueue_SetShuffle_Off_DropsOrder(t *testing.T) {
	q := NewQueue()
	q.Replace(makeTracks(3)...)
	q.SetShuffle(true)
	q.SetShuffle(false)

	if q.NextShuffle() != nil {
		t.Error("NextShuffle() with shuffle off should be nil")
	}
}
