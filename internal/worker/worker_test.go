package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mas-avi/candlestream/internal/fixedpoint"
	"github.com/mas-avi/candlestream/internal/publisher"
)

func Test_New_RejectsNonPositiveShardCount(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)

	_, err = New(-1)
	assert.Error(t, err)
}

func Test_ShardFor_IsDeterministic(t *testing.T) {
	a := ShardFor("SOL/USDC", 16)
	b := ShardFor("SOL/USDC", 16)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 16)
}

func Test_ShardFor_DistributesAcrossShards(t *testing.T) {
	pairs := []string{"SOL/USDC", "BTC/USDC", "ETH/USDC", "DOGE/USDC", "AVAX/USDC"}
	seen := map[int]bool{}
	for _, p := range pairs {
		seen[ShardFor(p, 4)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func Test_StartStop_IsIdempotent(t *testing.T) {
	w, err := New(2)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	assert.NoError(t, w.Start()) // second Start must be a no-op, not an error

	w.Stop()
	w.Stop() // second Stop must be a no-op, not a panic
}

func Test_OnTrade_BeforeStart_IsDropped(t *testing.T) {
	w, err := New(2)
	require.NoError(t, err)

	w.OnTrade("SOL/USDC", 1700000060, fixedpoint.FromFloat64(100), fixedpoint.FromFloat64(1), fixedpoint.FromFloat64(100))

	idx := ShardFor("SOL/USDC", 2)
	windows := w.shards[idx].GetOrCreateWindows("SOL/USDC")
	for _, agg := range windows {
		assert.Equal(t, uint64(0), agg.LastTradeTime())
	}
}

func Test_WorkerEmitsFinalizedCandles(t *testing.T) {
	w, err := New(4)
	require.NoError(t, err)
	mem := publisher.NewMemory()
	w.SetPublisher(mem)

	require.NoError(t, w.Start())
	defer w.Stop()

	baseTime := uint64(time.Now().Unix()) - 120
	price := fixedpoint.FromFloat64(100.0)
	volume := fixedpoint.FromFloat64(10.0)

	w.OnTrade("SOL/USDC", baseTime, price, volume, volume)

	w.runFinalizationPass(baseTime + 60)

	found1m := false
	for _, rec := range mem.Snapshot() {
		if rec.Window == time.Minute && rec.Candle.OpenTime <= baseTime && rec.Candle.CloseTime > baseTime {
			assert.False(t, rec.Candle.Provisional)
			assert.Equal(t, uint32(1), rec.Candle.Trades)
			found1m = true
		}
	}
	assert.True(t, found1m, "expected a finalized 1m candle")
}

func Test_RunFinalizationPass_SkipsIdleAggregators(t *testing.T) {
	w, err := New(1)
	require.NoError(t, err)
	mem := publisher.NewMemory()
	w.SetPublisher(mem)
	require.NoError(t, w.Start())
	defer w.Stop()

	// force creation of aggregators with no trades, via shard lookup
	w.shards[0].GetOrCreateWindows("IDLE/USDC")

	assert.NotPanics(t, func() {
		w.runFinalizationPass(uint64(time.Now().Unix()))
	})
	assert.Empty(t, mem.Snapshot())
}

func Test_OnTrade_OverflowOnEveryGranularityLeavesWatermarkUnchanged(t *testing.T) {
	w, err := New(1)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	pairID := "SOL/USDC"
	// start of the next UTC day: ts and ts+1 share a window at every
	// granularity, and none of those windows closes while the test runs
	ts := (uint64(time.Now().Unix())/86400 + 1) * 86400

	// seed every granularity with a near-max volume so the next trade
	// overflows volume addition in each aggregator
	w.OnTrade(pairID, ts, fixedpoint.FromFloat64(1), fixedpoint.FromRaw(1<<62), fixedpoint.FromFloat64(1))
	w.OnTrade(pairID, ts+1, fixedpoint.FromFloat64(1), fixedpoint.FromRaw(1<<62), fixedpoint.FromFloat64(1))

	// the second trade overflowed volume addition on every granularity, so
	// the watermark must stay put at the first trade's timestamp rather
	// than silently advance on a failed update
	idx := ShardFor(pairID, 1)
	windows := w.shards[idx].GetOrCreateWindows(pairID)
	for _, agg := range windows {
		assert.Equal(t, ts, agg.LastTradeTime())
	}
}
