// Package instrumentation holds the engine's Prometheus metrics.
package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains every Prometheus metric the worker and its publishers
// report. A nil *Metrics is valid everywhere it's accepted — every Record*
// method is nil-safe — so metrics are always an optional collaborator, not
// a required one.
type Metrics struct {
	TradesAccepted   prometheus.Counter
	TradesDropped    *prometheus.CounterVec
	CandlesFinalized prometheus.Counter
	PublisherErrors  prometheus.Counter
	WatermarkLagSecs prometheus.Gauge
}

// NewMetrics creates and registers every metric against the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		TradesAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "candlestream_trades_accepted_total",
			Help: "Total number of trades successfully folded into a candle window",
		}),
		TradesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlestream_trades_dropped_total",
			Help: "Total number of trades dropped, by reason",
		}, []string{"reason"}),
		CandlesFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "candlestream_candles_finalized_total",
			Help: "Total number of candles finalized by the watermark sweep",
		}),
		PublisherErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "candlestream_publisher_errors_total",
			Help: "Total number of publish attempts that returned an error",
		}),
		WatermarkLagSecs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "candlestream_watermark_lag_seconds",
			Help: "Seconds between wall-clock time and the most recent finalization pass's watermark",
		}),
	}
}

// RecordTradeAccepted increments the accepted-trade counter. Safe to call
// on a nil *Metrics.
func (m *Metrics) RecordTradeAccepted() {
	if m == nil {
		return
	}
	m.TradesAccepted.Inc()
}

// RecordTradeDropped increments the dropped-trade counter for reason. Safe
// to call on a nil *Metrics.
func (m *Metrics) RecordTradeDropped(reason string) {
	if m == nil {
		return
	}
	m.TradesDropped.WithLabelValues(reason).Inc()
}

// RecordCandleFinalized increments the finalized-candle counter. Safe to
// call on a nil *Metrics.
func (m *Metrics) RecordCandleFinalized() {
	if m == nil {
		return
	}
	m.CandlesFinalized.Inc()
}

// RecordPublisherError increments the publisher-error counter. Safe to
// call on a nil *Metrics.
func (m *Metrics) RecordPublisherError() {
	if m == nil {
		return
	}
	m.PublisherErrors.Inc()
}

// RecordWatermarkLag sets the watermark-lag gauge. Safe to call on a nil
// *Metrics.
func (m *Metrics) RecordWatermarkLag(lagSeconds float64) {
	if m == nil {
		return
	}
	m.WatermarkLagSecs.Set(lagSeconds)
}
