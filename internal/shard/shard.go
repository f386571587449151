// Package shard partitions pairs across a fixed set of independently
// locked buckets. Each shard owns a map from pair id to its six
// per-granularity aggregators; the shard's own mutex only ever guards that
// outer map, never an aggregator's internal state.
package shard

import (
	"sync"

	"github.com/mas-avi/candlestream/internal/aggregator"
	"github.com/mas-avi/candlestream/internal/fixedpoint"
)

// Windows is one pair's set of aggregators, one per compiled-in
// granularity, in the order of aggregator.Granularities.
type Windows [len(aggregator.Granularities)]*aggregator.Aggregator

// PairWindows pairs a pair id with its Windows, returned by Snapshot.
type PairWindows struct {
	PairID  string
	Windows Windows
}

// Shard owns a subset of pairs' candle windows, guarded by a single mutex
// over the outer map only.
type Shard struct {
	ID int

	mu      sync.Mutex
	windows map[string]Windows
}

// New constructs an empty shard.
func New(id int) *Shard {
	return &Shard{
		ID:      id,
		windows: make(map[string]Windows),
	}
}

// GetOrCreateWindows returns the Windows for pairID, lazily constructing
// one Aggregator per granularity on first use.
func (s *Shard) GetOrCreateWindows(pairID string) Windows {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[pairID]
	if ok {
		return w
	}

	for i, g := range aggregator.Granularities {
		w[i] = aggregator.New(pairID, g)
	}
	s.windows[pairID] = w
	return w
}

// ProcessTrade folds one trade into every granularity's aggregator for
// pairID. The shard lock is held only long enough to get-or-create the
// Windows; each aggregator update runs unlocked with respect to the shard.
// Returns one error per granularity (nil where that granularity's update
// succeeded), in aggregator.Granularities order.
func (s *Shard) ProcessTrade(pairID string, timestamp uint64, price, baseAmount, quoteAmount fixedpoint.Q) []error {
	windows := s.GetOrCreateWindows(pairID)

	errs := make([]error, len(windows))
	for i, agg := range windows {
		errs[i] = agg.Update(timestamp, price, baseAmount, quoteAmount)
	}
	return errs
}

// Snapshot returns a copy of the pair -> Windows table under the shard
// lock, then releases it. Callers (the worker's finalizer) iterate the
// snapshot and call into each Aggregator without holding the shard lock.
func (s *Shard) Snapshot() []PairWindows {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PairWindows, 0, len(s.windows))
	for pairID, w := range s.windows {
		out = append(out, PairWindows{PairID: pairID, Windows: w})
	}
	return out
}
