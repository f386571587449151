// Package worker ties shards, the FNV-1a router, and the finalizer time
// wheel together into the engine's single entrypoint: on_trade in, a
// stream of finalized candles out through a Publisher.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mas-avi/candlestream/internal/candle"
	"github.com/mas-avi/candlestream/internal/fixedpoint"
	"github.com/mas-avi/candlestream/internal/instrumentation"
	"github.com/mas-avi/candlestream/internal/publisher"
	"github.com/mas-avi/candlestream/internal/shard"
)

// DefaultTickPeriod is how often the finalizer sweeps shards for candles
// to close, absent an explicit WithTickPeriod option.
const DefaultTickPeriod = time.Second

// Worker owns a fixed set of shards and a single finalizer goroutine. All
// of its exported methods are safe to call from multiple goroutines.
type Worker struct {
	numShards  int
	shards     []*shard.Shard
	tickPeriod time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	pubMu sync.RWMutex
	pub   publisher.Publisher

	metrics *instrumentation.Metrics
	logger  zerolog.Logger
}

// Option configures optional Worker collaborators.
type Option func(*Worker)

// WithTickPeriod overrides the finalizer's sweep interval.
func WithTickPeriod(d time.Duration) Option {
	return func(w *Worker) { w.tickPeriod = d }
}

// WithMetrics attaches a Prometheus metrics sink. A nil Metrics (the
// zero-value default) disables metric recording entirely.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithLogger overrides the worker's zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithPublisher sets the initial publisher, equivalent to calling
// SetPublisher immediately after New.
func WithPublisher(p publisher.Publisher) Option {
	return func(w *Worker) { w.pub = p }
}

// New constructs a Worker partitioned across numShards shards. numShards
// must be positive.
func New(numShards int, opts ...Option) (*Worker, error) {
	if numShards <= 0 {
		return nil, fmt.Errorf("worker: num_shards must be positive, got %d", numShards)
	}

	w := &Worker{
		numShards:  numShards,
		shards:     make([]*shard.Shard, numShards),
		tickPeriod: DefaultTickPeriod,
		logger:     log.Logger,
	}
	for i := range w.shards {
		w.shards[i] = shard.New(i)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start launches the finalizer goroutine. Calling Start on an
// already-running Worker is a no-op: it returns nil without relaunching
// the finalizer.
func (w *Worker) Start() error {
	if !w.running.CompareAndSwap(false, true) {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.finalizeLoop(ctx)
	return nil
}

// Stop signals the finalizer goroutine to exit and waits for it. Calling
// Stop on a Worker that isn't running is a no-op.
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	w.cancel()
	w.wg.Wait()
}

// SetPublisher installs the Publisher used by the finalizer. Safe to call
// before or after Start; takes effect on the next EmitCandle.
func (w *Worker) SetPublisher(pub publisher.Publisher) {
	w.pubMu.Lock()
	defer w.pubMu.Unlock()
	w.pub = pub
}

// OnTrade routes a trade to its shard and folds it into every granularity
// aggregator for that pair. A per-granularity update failure (numeric
// overflow) is logged and counted but never aborts the other
// granularities' updates.
func (w *Worker) OnTrade(pairID string, timestamp uint64, price, baseAmount, quoteAmount fixedpoint.Q) {
	if !w.running.Load() {
		w.metrics.RecordTradeDropped("not_running")
		return
	}

	idx := ShardFor(pairID, w.numShards)
	errs := w.shards[idx].ProcessTrade(pairID, timestamp, price, baseAmount, quoteAmount)

	anyErr := false
	for _, err := range errs {
		if err == nil {
			continue
		}
		anyErr = true
		w.logger.Warn().Err(err).Str("pair", pairID).Msg("dropping trade for window: numeric error")
		w.metrics.RecordTradeDropped("overflow")
	}
	if !anyErr {
		w.metrics.RecordTradeAccepted()
	}
}

// EmitCandle publishes a finalized candle through the installed publisher,
// if any. A publish error is logged and counted but never propagated —
// the finalizer keeps sweeping the remaining shards regardless.
func (w *Worker) EmitCandle(pairID string, window time.Duration, c candle.Candle) {
	w.pubMu.RLock()
	pub := w.pub
	w.pubMu.RUnlock()

	if pub == nil {
		return
	}
	if err := pub.Publish(pairID, window, c); err != nil {
		w.logger.Error().Err(err).Str("pair", pairID).Msg("publisher failed")
		w.metrics.RecordPublisherError()
	}
}

func (w *Worker) finalizeLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.runFinalizationPass(uint64(now.Unix()))
		}
	}
}

func (w *Worker) runFinalizationPass(watermark uint64) {
	for _, sh := range w.shards {
		for _, pw := range sh.Snapshot() {
			for _, agg := range pw.Windows {
				if agg.LastTradeTime() == 0 {
					continue // pair/granularity has never seen a trade: nothing to finalize
				}
				for _, c := range agg.FinalizeBefore(watermark) {
					w.metrics.RecordCandleFinalized()
					w.EmitCandle(pw.PairID, agg.Window(), c)
				}
			}
		}
	}
	w.metrics.RecordWatermarkLag(float64(uint64(time.Now().Unix()) - watermark))
}
