// Package publisher defines the Publisher contract used by the worker's
// finalizer to hand off finalized candles, plus a small set of concrete
// sinks: an in-memory collector for tests, a NATS JetStream-backed durable
// adapter, and a fan-out that broadcasts to several publishers at once.
package publisher

import (
	"time"

	"github.com/mas-avi/candlestream/internal/candle"
)

// Publisher receives one finalized candle at a time. Implementations must
// not block the finalizer goroutine for long: a slow or failing publisher
// should return an error quickly rather than hang.
type Publisher interface {
	Publish(pairID string, window time.Duration, c candle.Candle) error
}
