/*
Package main implements the candle aggregation worker.

The worker partitions incoming trades across a fixed number of shards,
maintains OHLCV candles for six fixed granularities per pair, and
publishes finalized candles to a durable NATS JetStream subject. When
given a -replay-file, it also feeds a CSV trade log into the worker for
demo and local-testing purposes; without one, it receives no trades and
idles until it is signalled to shut down.

Usage:

	go run main.go -replay-file=trades.csv
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mas-avi/candlestream/internal/config"
	"github.com/mas-avi/candlestream/internal/fixedpoint"
	"github.com/mas-avi/candlestream/internal/instrumentation"
	"github.com/mas-avi/candlestream/internal/publisher"
	"github.com/mas-avi/candlestream/internal/replay"
	"github.com/mas-avi/candlestream/internal/worker"
)

var replayFile = flag.String("replay-file", "", "optional CSV trade log to feed into the worker on startup")

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	metrics := instrumentation.NewMetrics()

	natsPub, err := publisher.NewNATS(cfg.NATSConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize NATS publisher")
	}
	defer natsPub.Close()

	w, err := worker.New(cfg.ShardCount,
		worker.WithTickPeriod(cfg.TickPeriod),
		worker.WithMetrics(metrics),
		worker.WithLogger(log.Logger),
		worker.WithPublisher(natsPub),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct worker")
	}

	if err := w.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start worker")
	}
	defer w.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.PrometheusAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server exited")
		}
	}()

	if *replayFile != "" {
		go runReplay(*replayFile, w)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	log.Info().
		Int("shard_count", cfg.ShardCount).
		Dur("tick_period", cfg.TickPeriod).
		Str("prometheus_addr", cfg.PrometheusAddr).
		Msg("candleworker started")

	<-sig
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

func runReplay(path string, w *worker.Worker) {
	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to open replay file")
		return
	}
	defer f.Close()

	stats, err := replay.Replay(f, func(pairID string, ts uint64, price, base, quote fixedpoint.Q) {
		w.OnTrade(pairID, ts, price, base, quote)
	})
	if err != nil {
		log.Error().Err(err).Msg("replay failed")
		return
	}
	log.Info().
		Int("lines_read", stats.LinesRead).
		Int("trades_fed", stats.TradesFed).
		Int("parse_errors", stats.ParseErrors).
		Msg("replay finished")
}
