package publisher

import (
	"sync"
	"time"

	"github.com/mas-avi/candlestream/internal/candle"
)

// Record is one candle captured by Memory, tagged with the pair and
// granularity it was published under.
type Record struct {
	PairID string
	Window time.Duration
	Candle candle.Candle
}

// Memory is an in-memory Publisher, grounded on the original's
// InMemoryPublisher: a mutex-guarded slice with a Snapshot accessor. Used
// by tests and by the demo output of cmd/replay and cmd/feeddemo.
type Memory struct {
	mu      sync.Mutex
	emitted []Record
}

// NewMemory constructs an empty Memory publisher.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish appends candle c to the in-memory log.
func (m *Memory) Publish(pairID string, window time.Duration, c candle.Candle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted = append(m.emitted, Record{PairID: pairID, Window: window, Candle: c})
	return nil
}

// Snapshot returns a copy of every candle published so far.
func (m *Memory) Snapshot() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.emitted))
	copy(out, m.emitted)
	return out
}
