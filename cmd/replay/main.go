/*
Package main implements a standalone CSV replay driver for the candle
engine: it constructs its own in-process worker, feeds it a trade log,
waits for the finalizer to sweep, and prints every candle an in-memory
publisher collected. Useful for local testing and demos; production
deployments wire a real Publisher via cmd/candleworker instead.

Usage:

	go run main.go -input=trades.csv -shards=4
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mas-avi/candlestream/internal/publisher"
	"github.com/mas-avi/candlestream/internal/replay"
	"github.com/mas-avi/candlestream/internal/worker"
)

var (
	inputPath   = flag.String("input", "trades.csv", "path to the CSV trade log to replay")
	shardCount  = flag.Int("shards", 4, "number of shards to partition pairs across")
	settleDelay = flag.Duration("settle", 2*time.Second, "time to let the finalizer drain after replay finishes")
)

func main() {
	flag.Parse()

	f, err := os.Open(*inputPath)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *inputPath, err)
	}
	defer f.Close()

	mem := publisher.NewMemory()
	w, err := worker.New(*shardCount, worker.WithPublisher(mem))
	if err != nil {
		log.Fatalf("failed to construct worker: %v", err)
	}
	if err := w.Start(); err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}

	stats, err := replay.Replay(f, w.OnTrade)
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	fmt.Printf("replayed %d trades (%d lines, %d parse errors)\n", stats.TradesFed, stats.LinesRead, stats.ParseErrors)

	time.Sleep(*settleDelay)
	w.Stop()

	for _, rec := range mem.Snapshot() {
		fmt.Printf("%s %s open=%s high=%s low=%s close=%s volume=%s trades=%d\n",
			rec.PairID, rec.Window, rec.Candle.Open, rec.Candle.High, rec.Candle.Low, rec.Candle.Close, rec.Candle.Volume, rec.Candle.Trades)
	}
}
