// Package feed provides a synthetic, in-process trade generator for demos
// and benchmarks. It is not a production exchange integration — a real
// upstream trade-source connector is explicitly out of scope for this
// engine — but it reuses the fan-in concurrency pattern that shape of
// ingestion naturally needs, one goroutine per simulated source merged
// into a single stream.
package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/mas-avi/candlestream/internal/fixedpoint"
)

// Trade is one synthetic trade event.
type Trade struct {
	PairID      string
	Timestamp   uint64
	Price       fixedpoint.Q
	BaseAmount  fixedpoint.Q
	QuoteAmount fixedpoint.Q
}

// Source generates a stream of synthetic trades for one pair: a simple
// random walk around a starting price, ticking at interval.
type Source struct {
	PairID     string
	StartPrice float64
	Interval   time.Duration
	Volatility float64 // fractional price move per tick, e.g. 0.001
	randSource *rand.Rand
}

// NewSource constructs a Source with a deterministic PRNG seeded from
// seed, so demo runs and benchmarks are reproducible.
func NewSource(pairID string, startPrice float64, interval time.Duration, volatility float64, seed int64) *Source {
	return &Source{
		PairID:     pairID,
		StartPrice: startPrice,
		Interval:   interval,
		Volatility: volatility,
		randSource: rand.New(rand.NewSource(seed)),
	}
}

// run emits trades onto dest until ctx is canceled, closing nothing on
// exit (the caller's fan-in owns dest's lifecycle).
func (s *Source) run(ctx context.Context, dest chan<- Trade) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	price := s.StartPrice
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			move := 1 + (s.randSource.Float64()*2-1)*s.Volatility
			price *= move
			volume := 1 + s.randSource.Float64()*9

			trade := Trade{
				PairID:      s.PairID,
				Timestamp:   uint64(now.Unix()),
				Price:       fixedpoint.FromFloat64(price),
				BaseAmount:  fixedpoint.FromFloat64(volume),
				QuoteAmount: fixedpoint.FromFloat64(price * volume),
			}
			select {
			case dest <- trade:
			case <-ctx.Done():
				return
			}
		}
	}
}

// FanIn merges several Sources into a single Trade channel, one goroutine
// per source, closing the returned channel once ctx is canceled and every
// source goroutine has exited.
func FanIn(ctx context.Context, sources []*Source) <-chan Trade {
	dest := make(chan Trade, 1000)
	var wg sync.WaitGroup
	wg.Add(len(sources))

	for _, src := range sources {
		go func(s *Source) {
			defer wg.Done()
			s.run(ctx, dest)
		}(src)
	}

	go func() {
		wg.Wait()
		close(dest)
	}()

	return dest
}
