// Package aggregator implements the per-pair, per-granularity candle
// window: the piece that turns a stream of trades into OHLCV candles,
// tracks a monotone watermark, and finalizes candles once the watermark
// has moved past their window.
package aggregator

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mas-avi/candlestream/internal/candle"
	"github.com/mas-avi/candlestream/internal/fixedpoint"
)

// Granularities is the fixed, compiled-in set of window sizes every pair
// is aggregated at. Order matters: callers iterate it to build one
// Aggregator per granularity per pair.
var Granularities = [6]time.Duration{
	60 * time.Second,
	300 * time.Second,
	900 * time.Second,
	3600 * time.Second,
	14400 * time.Second,
	86400 * time.Second,
}

// Aggregator owns every in-flight and not-yet-finalized candle for one
// (pair, granularity) pair. All state is guarded by a single mutex; the
// guard is held only for the duration of an update or a finalize pass,
// never across a publish call or any other blocking I/O.
type Aggregator struct {
	pairID string
	window time.Duration

	mu            sync.Mutex
	candles       map[uint64]*candle.Candle
	order         []uint64 // window-start keys, kept sorted ascending
	lastTradeTime uint64   // watermark; 0 means "no trade seen yet"
}

// New constructs an Aggregator for one pair at one granularity.
func New(pairID string, window time.Duration) *Aggregator {
	return &Aggregator{
		pairID:  pairID,
		window:  window,
		candles: make(map[uint64]*candle.Candle),
	}
}

// PairID returns the pair this aggregator tracks.
func (a *Aggregator) PairID() string {
	return a.pairID
}

// Window returns the granularity this aggregator tracks.
func (a *Aggregator) Window() time.Duration {
	return a.window
}

// WindowStart returns the start of the window containing timestamp t, for
// this aggregator's granularity. Pure function of t and the granularity;
// does not touch aggregator state or take the lock.
func (a *Aggregator) WindowStart(t uint64) uint64 {
	w := uint64(a.window.Seconds())
	return (t / w) * w
}

// LastTradeTime returns the current watermark (0 if no trade has ever been
// seen by this aggregator).
func (a *Aggregator) LastTradeTime() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTradeTime
}

// Update folds one trade into the candle for its window, creating the
// candle if this is the first trade seen in that window. The watermark
// (last_trade_time) advances to max(lastTradeTime, t) regardless of which
// window the trade lands in — an out-of-order trade updates its own
// (possibly already-finalized-adjacent) window but never moves the
// watermark backwards.
//
// Update is atomic: if any fixed-point operation would overflow, no field
// of the candle or the watermark is mutated and the error is returned to
// the caller, which is expected to log and drop the trade.
func (a *Aggregator) Update(t uint64, price, baseAmount, quoteAmount fixedpoint.Q) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ws := a.WindowStart(t)
	we := ws + uint64(a.window.Seconds())

	existing, ok := a.candles[ws]
	if !ok {
		a.candles[ws] = ptr(candle.New(ws, we, price, baseAmount, quoteAmount))
		a.insertKey(ws)
		if t > a.lastTradeTime {
			a.lastTradeTime = t
		}
		return nil
	}

	updated := *existing
	if price > updated.High {
		updated.High = price
	}
	if price < updated.Low {
		updated.Low = price
	}
	updated.Close = price
	if err := updated.Volume.AddAssign(baseAmount); err != nil {
		return fmt.Errorf("aggregator: update volume for %s: %w", a.pairID, err)
	}
	if err := updated.QuoteVolume.AddAssign(quoteAmount); err != nil {
		return fmt.Errorf("aggregator: update quote volume for %s: %w", a.pairID, err)
	}
	updated.Trades++

	*existing = updated
	if t > a.lastTradeTime {
		a.lastTradeTime = t
	}
	return nil
}

// FinalizeBefore flips Provisional to false for every candle whose
// CloseTime is at or before watermark, removes them from this aggregator's
// live set, and returns them ordered by OpenTime ascending. The current,
// still-open window is never finalized even if the watermark has reached
// its open time.
func (a *Aggregator) FinalizeBefore(watermark uint64) []candle.Candle {
	a.mu.Lock()
	defer a.mu.Unlock()

	cut := 0
	for cut < len(a.order) {
		c := a.candles[a.order[cut]]
		if c.CloseTime > watermark {
			break
		}
		cut++
	}
	if cut == 0 {
		return nil
	}

	finalized := make([]candle.Candle, 0, cut)
	for i := 0; i < cut; i++ {
		key := a.order[i]
		c := a.candles[key]
		c.Provisional = false
		finalized = append(finalized, *c)
		delete(a.candles, key)
	}
	a.order = a.order[cut:]
	return finalized
}

// insertKey inserts a new window-start key into the sorted order slice,
// keeping it ordered without a third-party ordered-map dependency. Callers
// must hold a.mu.
func (a *Aggregator) insertKey(key uint64) {
	idx := sort.Search(len(a.order), func(i int) bool { return a.order[i] >= key })
	a.order = append(a.order, 0)
	copy(a.order[idx+1:], a.order[idx:])
	a.order[idx] = key
}

func ptr(c candle.Candle) *candle.Candle {
	return &c
}
