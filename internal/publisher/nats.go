package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/mas-avi/candlestream/internal/candle"
)

// Config captures the runtime parameters for the JetStream-backed
// publisher, grounded on the original system's own NATS sink
// configuration.
type Config struct {
	URL            string
	Stream         string
	SubjectRoot    string
	PublishTimeout time.Duration
}

// Validate ensures required fields are populated and durations are sane.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("publisher: NATS URL is required")
	}
	if c.Stream == "" {
		return fmt.Errorf("publisher: NATS stream is required")
	}
	if c.SubjectRoot == "" {
		return fmt.Errorf("publisher: subject root cannot be empty")
	}
	if c.PublishTimeout <= 0 {
		return fmt.Errorf("publisher: publish timeout must be positive")
	}
	return nil
}

// NATS wraps a JetStream connection for emitting finalized candles.
type NATS struct {
	cfg  Config
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewNATS dials JetStream using the provided configuration. Connection and
// JetStream-context setup both surface as an initialization error rather
// than being deferred to the first Publish call.
func NewNATS(cfg Config) (*NATS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("candlestream"))
	if err != nil {
		return nil, fmt.Errorf("publisher: connect to nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("publisher: jetstream context: %w", err)
	}

	return &NATS{cfg: cfg, conn: conn, js: js}, nil
}

// Close drains and closes the underlying NATS connection.
func (n *NATS) Close() {
	if n.conn == nil {
		return
	}
	_ = n.conn.Drain()
	n.conn.Close()
}

// candleWire is the JSON-on-the-wire shape published to JetStream. The
// wire encoding is explicitly not part of the core engine's contract, so
// fixed-point fields are rendered as decimal strings rather than leaking
// the raw Q32.32 representation to downstream consumers.
type candleWire struct {
	PairID      string `json:"pair_id"`
	WindowSecs  int64  `json:"window_seconds"`
	OpenTime    uint64 `json:"open_time"`
	CloseTime   uint64 `json:"close_time"`
	Open        string `json:"open"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Close       string `json:"close"`
	Volume      string `json:"volume"`
	QuoteVolume string `json:"quote_volume"`
	Trades      uint32 `json:"trades"`
	Provisional bool   `json:"provisional"`
}

// Publish implements Publisher by JSON-encoding the candle and writing it
// to JetStream with a dedup message id, the same idiom as the original's
// msgID construction.
func (n *NATS) Publish(pairID string, window time.Duration, c candle.Candle) error {
	subject := fmt.Sprintf("%s.candle.%d", n.cfg.SubjectRoot, int64(window.Seconds()))
	msgID := fmt.Sprintf("%s:%d:%d", pairID, int64(window.Seconds()), c.OpenTime)

	payload := candleWire{
		PairID:      pairID,
		WindowSecs:  int64(window.Seconds()),
		OpenTime:    c.OpenTime,
		CloseTime:   c.CloseTime,
		Open:        c.Open.String(),
		High:        c.High.String(),
		Low:         c.Low.String(),
		Close:       c.Close.String(),
		Volume:      c.Volume.String(),
		QuoteVolume: c.QuoteVolume.String(),
		Trades:      c.Trades,
		Provisional: c.Provisional,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("publisher: marshal candle: %w", err)
	}

	msg := &nats.Msg{Subject: subject, Data: data}
	msg.Header = nats.Header{}
	msg.Header.Set("Nats-Msg-Id", msgID)
	msg.Header.Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.PublishTimeout)
	defer cancel()

	ack, err := n.js.PublishMsg(msg, nats.Context(ctx), nats.ExpectStream(n.cfg.Stream))
	if err != nil {
		return fmt.Errorf("publisher: publish %s: %w", subject, err)
	}
	if ack != nil && ack.Stream != "" && ack.Stream != n.cfg.Stream {
		return fmt.Errorf("publisher: unexpected stream ack %q (expected %q)", ack.Stream, n.cfg.Stream)
	}
	return nil
}
