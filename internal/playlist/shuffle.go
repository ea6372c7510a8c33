package playlist

import "math/rand/v2"

// shuffleOrder tracks shuffled playback as two sequences: remaining holds
// the indices not yet played this cycle, history holds the played order.
// next pops from remaining and pushes onto history; previous pops history
// and pushes back onto remaining, so previous exactly undoes next.
type shuffleOrder struct {
	size      int
	remaining []int
	history   []int
}

// newShuffleOrder builds a shuffled order over size indices. If current is a
// valid index it starts the history, so it won't be drawn again this cycle.
func newShuffleOrder(size, current int) *shuffleOrder {
	o := &shuffleOrder{size: size}
	o.remaining = make([]int, 0, size)
	for i := range size {
		if i != current {
			o.remaining = append(o.remaining, i)
		}
	}
	rand.Shuffle(len(o.remaining), func(i, j int) {
		o.remaining[i], o.remaining[j] = o.remaining[j], o.remaining[i]
	})
	if current >= 0 && current < size {
		o.history = append(o.history, current)
	}
	return o
}

// next returns the next index to play, refilling and reshuffling the full
// index range when the cycle is exhausted.
func (o *shuffleOrder) next() int {
	if len(o.remaining) == 0 {
		o.remaining = rand.Perm(o.size)
	}
	index := o.remaining[0]
	o.remaining = o.remaining[1:]
	o.history = append(o.history, index)
	return index
}

// previous undoes the last next: the current index moves back onto
// remaining and the prior history entry becomes current again.
// Returns false when there is nothing to go back to.
func (o *shuffleOrder) previous() (int, bool) {
	if len(o.history) <= 1 {
		return 0, false
	}
	last := o.history[len(o.history)-1]
	o.history = o.history[:len(o.history)-1]
	o.remaining = append([]int{last}, o.remaining...)
	return o.history[len(o.history)-1], true
}

// jumpTo records an explicit jump as if the index had been drawn.
func (o *shuffleOrder) jumpTo(index int) {
	for i, v := range o.remaining {
		if v == index {
			o.remaining = append(o.remaining[:i], o.remaining[i+1:]...)
			break
		}
	}
	o.history = append(o.history, index)
}

// extend adds indices [from, to) to the remaining pool at random positions.
func (o *shuffleOrder) extend(from, to int) {
	o.size = to
	for i := from; i < to; i++ {
		pos := 0
		if len(o.remaining) > 0 {
			pos = rand.IntN(len(o.remaining) + 1)
		}
		o.remaining = append(o.remaining, 0)
		copy(o.remaining[pos+1:], o.remaining[pos:])
		o.remaining[pos] = i
	}
}
