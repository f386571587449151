/*
Package main drives the synthetic trade feed (internal/feed) into a
worker for local demos and ad-hoc benchmarking, with no CSV file or
exchange connection required. It runs for a fixed duration, then prints
whatever candles the in-memory publisher collected.

Usage:

	go run main.go -duration=5s -shards=4
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/mas-avi/candlestream/internal/feed"
	"github.com/mas-avi/candlestream/internal/publisher"
	"github.com/mas-avi/candlestream/internal/worker"
)

var (
	shardCount  = flag.Int("shards", 4, "number of shards to partition pairs across")
	runDuration = flag.Duration("duration", 5*time.Second, "how long to run the synthetic feed before stopping")
	tickPeriod  = flag.Duration("tick", 50*time.Millisecond, "synthetic trade interval per source")
	settleDelay = flag.Duration("settle", time.Second, "time to let the finalizer drain after the feed stops")
)

func main() {
	flag.Parse()

	mem := publisher.NewMemory()
	w, err := worker.New(*shardCount, worker.WithPublisher(mem))
	if err != nil {
		log.Fatalf("failed to construct worker: %v", err)
	}
	if err := w.Start(); err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}

	sources := []*feed.Source{
		feed.NewSource("SOL/USDC", 150.0, *tickPeriod, 0.004, 1),
		feed.NewSource("BTC/USDC", 65000.0, *tickPeriod, 0.002, 2),
		feed.NewSource("ETH/USDC", 3200.0, *tickPeriod, 0.003, 3),
	}

	ctx, cancel := context.WithTimeout(context.Background(), *runDuration)
	defer cancel()

	var fed int
	for trade := range feed.FanIn(ctx, sources) {
		w.OnTrade(trade.PairID, trade.Timestamp, trade.Price, trade.BaseAmount, trade.QuoteAmount)
		fed++
	}
	fmt.Printf("fed %d synthetic trades across %d sources\n", fed, len(sources))

	time.Sleep(*settleDelay)
	w.Stop()

	for _, rec := range mem.Snapshot() {
		fmt.Printf("%s %s open=%s high=%s low=%s close=%s volume=%s trades=%d\n",
			rec.PairID, rec.Window, rec.Candle.Open, rec.Candle.High, rec.Candle.Low, rec.Candle.Close, rec.Candle.Volume, rec.Candle.Trades)
	}
}
