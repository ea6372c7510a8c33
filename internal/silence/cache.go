package silence

import (
	"context"
	"sync"
)

// Cache memoizes track analyses keyed by track ID. Entries survive until
// the detection parameters change, at which point the whole cache is
// dropped: parameter changes are rare (user settings) and re-analysis is
// cheap and lazy, so per-entry invalidation isn't worth the bookkeeping.
//
// Resolve de-duplicates concurrent analysis of the same track, so a racing
// current+next prefetch decodes each file only once.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*Analysis
	inflight map[string]*inflightAnalysis
	dec      Decoder
	params   Params
}

type inflightAnalysis struct {
	done     chan struct{}
	analysis *Analysis
	err      error
}

// NewCache creates an empty cache using the given decoder and parameters.
func NewCache(dec Decoder, params Params) *Cache {
	return &Cache{
		entries:  make(map[string]*Analysis),
		inflight: make(map[string]*inflightAnalysis),
		dec:      dec,
		params:   params.Clamped(),
	}
}

// Get returns the cached analysis for a track, or nil on a miss.
func (c *Cache) Get(trackID string) *Analysis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[trackID]
}

// Put stores an analysis. Failed analyses must never be stored; callers
// only Put values produced by Analyze.
func (c *Cache) Put(trackID string, a *Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[trackID] = a
}

// InvalidateAll drops every cached entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Analysis)
}

// Params returns the active detection parameters.
func (c *Cache) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetParams clamps and installs new detection parameters and invalidates
// the cache wholesale. Analyses already handed out stay as they are; the
// next resolve recomputes with the new parameters.
func (c *Cache) SetParams(p Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p.Clamped()
	c.entries = make(map[string]*Analysis)
}

// Resolve returns the analysis for a track, computing and caching it on a
// miss. Concurrent calls for the same track share one decode; a decode or
// fetch failure is returned wrapped in ErrUnanalyzable and is NOT cached,
// so a later call retries.
func (c *Cache) Resolve(ctx context.Context, trackID, path string) (*Analysis, error) {
	c.mu.Lock()
	if a, ok := c.entries[trackID]; ok {
		c.mu.Unlock()
		return a, nil
	}
	if fl, ok := c.inflight[trackID]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.analysis, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fl := &inflightAnalysis{done: make(chan struct{})}
	c.inflight[trackID] = fl
	params := c.params
	c.mu.Unlock()

	fl.analysis, fl.err = c.analyze(ctx, trackID, path, params)

	c.mu.Lock()
	delete(c.inflight, trackID)
	// Don't cache failures, and don't cache a result computed with
	// parameters that changed while the decode was running.
	if fl.err == nil && params == c.params {
		c.entries[trackID] = fl.analysis
	}
	c.mu.Unlock()

	close(fl.done)
	return fl.analysis, fl.err
}

func (c *Cache) analyze(ctx context.Context, trackID, path string, params Params) (*Analysis, error) {
	samples, sampleRate, err := c.dec.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	a := Analyze(trackID, samples, sampleRate, params)
	return &a, nil
}

// Len returns the number of cached analyses.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
