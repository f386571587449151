// Package candle defines the OHLCV record produced by the aggregation
// engine. It deliberately carries no behavior beyond construction and
// invariant-checking — the update/finalize logic lives in
// internal/aggregator, which owns the Candle's lifecycle.
package candle

import (
	"fmt"

	"github.com/mas-avi/candlestream/internal/fixedpoint"
)

// Candle is a single OHLCV window for one pair at one granularity.
type Candle struct {
	OpenTime  uint64 // unix seconds, inclusive
	CloseTime uint64 // unix seconds, exclusive upper bound (OpenTime + window)

	Open  fixedpoint.Q
	High  fixedpoint.Q
	Low   fixedpoint.Q
	Close fixedpoint.Q

	Volume      fixedpoint.Q // total base-token volume
	QuoteVolume fixedpoint.Q // total quote-token volume

	Trades uint32

	// Provisional is true until the finalizer's watermark has passed
	// CloseTime. A caller must not treat a provisional candle's OHLCV as
	// final — a later trade within the window can still change it.
	Provisional bool
}

// New builds the first, single-trade candle for a window.
func New(openTime, closeTime uint64, price, baseAmount, quoteAmount fixedpoint.Q) Candle {
	return Candle{
		OpenTime:    openTime,
		CloseTime:   closeTime,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
		Volume:      baseAmount,
		QuoteVolume: quoteAmount,
		Trades:      1,
		Provisional: true,
	}
}

// Validate reports an error if the candle's fields are structurally
// inconsistent (used by tests, not by the hot update path).
func (c Candle) Validate() error {
	if c.CloseTime <= c.OpenTime {
		return fmt.Errorf("candle: close_time %d must be greater than open_time %d", c.CloseTime, c.OpenTime)
	}
	if c.Trades == 0 {
		return fmt.Errorf("candle: trades must be at least 1")
	}
	if c.High < c.Low {
		return fmt.Errorf("candle: high %s is below low %s", c.High, c.Low)
	}
	return nil
}
