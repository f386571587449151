package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mas-avi/candlestream/internal/fixedpoint"
)

func Test_NewAggregator(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	assert.Equal(t, "SOL/USDC", a.PairID())
	assert.Equal(t, time.Minute, a.Window())
	assert.Equal(t, uint64(0), a.LastTradeTime())
}

func Test_WatermarkUpdatesOnTrade(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	price := fixedpoint.FromFloat64(100.0)
	volume := fixedpoint.FromFloat64(10.0)

	ts1 := uint64(1700000060)
	ts2 := uint64(1700000065)

	require.NoError(t, a.Update(ts1, price, volume, volume))
	assert.Equal(t, ts1, a.LastTradeTime())

	require.NoError(t, a.Update(ts2, price, volume, volume))
	assert.Equal(t, ts2, a.LastTradeTime())
}

func Test_FinalizeOldCandlesFlipsProvisionalFlag(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	price := fixedpoint.FromFloat64(100.0)
	volume := fixedpoint.FromFloat64(10.0)

	timestamp := uint64(1700000060)
	require.NoError(t, a.Update(timestamp, price, volume, volume))

	watermark := uint64(1700000100)
	finalized := a.FinalizeBefore(watermark)

	require.Len(t, finalized, 1)
	assert.False(t, finalized[0].Provisional)
	assert.Equal(t, uint64(1700000040), finalized[0].OpenTime)
	assert.Equal(t, uint64(1700000100), finalized[0].CloseTime)

	// second finalize pass at the same watermark must find nothing left
	assert.Empty(t, a.FinalizeBefore(watermark))
}

func Test_DoesNotFinalizeCurrentWindow(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	price := fixedpoint.FromFloat64(100.0)
	volume := fixedpoint.FromFloat64(10.0)

	timestamp := uint64(1700000060)
	require.NoError(t, a.Update(timestamp, price, volume, volume))

	watermark := uint64(1700000080)
	finalized := a.FinalizeBefore(watermark)

	assert.Empty(t, finalized)
}

func Test_MultipleWindowsFinalized(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	price := fixedpoint.FromFloat64(100.0)
	volume := fixedpoint.FromFloat64(10.0)
	baseTime := uint64(1700000000)

	require.NoError(t, a.Update(baseTime+10, price, volume, volume))
	require.NoError(t, a.Update(baseTime+70, price, volume, volume))
	require.NoError(t, a.Update(baseTime+130, price, volume, volume))

	watermark := baseTime + 120
	finalized := a.FinalizeBefore(watermark)

	require.Len(t, finalized, 2)
	for _, c := range finalized {
		assert.False(t, c.Provisional)
	}
}

func Test_Update_ThreeTradesSameWindow(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	baseTime := uint64(1700000040)

	require.NoError(t, a.Update(baseTime, fixedpoint.FromFloat64(100), fixedpoint.FromFloat64(1), fixedpoint.FromFloat64(100)))
	require.NoError(t, a.Update(baseTime+5, fixedpoint.FromFloat64(110), fixedpoint.FromFloat64(1), fixedpoint.FromFloat64(110)))
	require.NoError(t, a.Update(baseTime+10, fixedpoint.FromFloat64(90), fixedpoint.FromFloat64(1), fixedpoint.FromFloat64(90)))

	finalized := a.FinalizeBefore(baseTime + 60)
	require.Len(t, finalized, 1)
	c := finalized[0]

	assert.InDelta(t, 100, c.Open.ToFloat64(), 1e-9)
	assert.InDelta(t, 110, c.High.ToFloat64(), 1e-9)
	assert.InDelta(t, 90, c.Low.ToFloat64(), 1e-9)
	assert.InDelta(t, 90, c.Close.ToFloat64(), 1e-9)
	assert.InDelta(t, 3, c.Volume.ToFloat64(), 1e-9)
	assert.Equal(t, uint32(3), c.Trades)
}

func Test_Update_OutOfOrderTradeUpdatesOwnWindowButWatermarkNeverRegresses(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	baseTime := uint64(1700000100)

	require.NoError(t, a.Update(baseTime, fixedpoint.FromFloat64(100), fixedpoint.FromFloat64(1), fixedpoint.FromFloat64(100)))
	assert.Equal(t, baseTime, a.LastTradeTime())

	// a late-arriving trade with an earlier timestamp, landing in a
	// preceding window, must not move the watermark backwards
	require.NoError(t, a.Update(baseTime-90, fixedpoint.FromFloat64(90), fixedpoint.FromFloat64(1), fixedpoint.FromFloat64(90)))
	assert.Equal(t, baseTime, a.LastTradeTime())
}

func Test_Update_OverflowLeavesCandleUnchanged(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	ts := uint64(1700000040)

	require.NoError(t, a.Update(ts, fixedpoint.FromFloat64(100), fixedpoint.FromRaw(1<<62), fixedpoint.FromFloat64(100)))

	err := a.Update(ts+1, fixedpoint.FromFloat64(100), fixedpoint.FromRaw(1<<62), fixedpoint.FromFloat64(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, fixedpoint.ErrOverflow)

	finalized := a.FinalizeBefore(ts + 60)
	require.Len(t, finalized, 1)
	assert.Equal(t, uint32(1), finalized[0].Trades)
}

func Test_WindowStart(t *testing.T) {
	a := New("SOL/USDC", time.Minute)
	assert.Equal(t, uint64(1700000040), a.WindowStart(1700000060))
	assert.Equal(t, uint64(1700000040), a.WindowStart(1700000040))
	assert.Equal(t, uint64(1700000100), a.WindowStart(1700000100))
}

func Benchmark_Update(b *testing.B) {
	a := New("SOL/USDC", time.Minute)
	price := fixedpoint.FromFloat64(100.0)
	volume := fixedpoint.FromFloat64(1.0)
	ts := uint64(1700000000)
	for i := 0; i < b.N; i++ {
		_ = a.Update(ts+uint64(i%60), price, volume, volume)
	}
}
