package publisher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mas-avi/candlestream/internal/candle"
	"github.com/mas-avi/candlestream/internal/fixedpoint"
)

func sampleCandle() candle.Candle {
	return candle.New(1700000040, 1700000100, fixedpoint.FromFloat64(100), fixedpoint.FromFloat64(1), fixedpoint.FromFloat64(100))
}

func Test_Memory_Publish_AndSnapshot(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Publish("SOL/USDC", time.Minute, sampleCandle()))
	require.NoError(t, m.Publish("SOL/USDC", time.Minute, sampleCandle()))

	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "SOL/USDC", snap[0].PairID)
	assert.Equal(t, time.Minute, snap[0].Window)
}

func Test_Config_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{URL: "nats://localhost:4222", Stream: "candles", SubjectRoot: "candles", PublishTimeout: time.Second}},
		{name: "missing url", cfg: Config{Stream: "candles", SubjectRoot: "candles", PublishTimeout: time.Second}, wantErr: true},
		{name: "missing stream", cfg: Config{URL: "nats://localhost:4222", SubjectRoot: "candles", PublishTimeout: time.Second}, wantErr: true},
		{name: "missing subject root", cfg: Config{URL: "nats://localhost:4222", Stream: "candles", PublishTimeout: time.Second}, wantErr: true},
		{name: "non-positive timeout", cfg: Config{URL: "nats://localhost:4222", Stream: "candles", SubjectRoot: "candles"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func Test_Fanout_BroadcastsToAllRegistered(t *testing.T) {
	f := NewFanout()
	require.NoError(t, f.Start())
	defer f.Stop()

	a := NewMemory()
	b := NewMemory()
	require.NoError(t, f.Register(a))
	require.NoError(t, f.Register(b))

	// give the owning goroutine a moment to process the register requests
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, f.Publish("SOL/USDC", time.Minute, sampleCandle()))

	assert.Len(t, a.Snapshot(), 1)
	assert.Len(t, b.Snapshot(), 1)
}

func Test_Fanout_StartTwiceErrors(t *testing.T) {
	f := NewFanout()
	require.NoError(t, f.Start())
	defer f.Stop()
	assert.Error(t, f.Start())
}

func Test_Fanout_PublishBeforeStartErrors(t *testing.T) {
	f := NewFanout()
	err := f.Publish("SOL/USDC", time.Minute, sampleCandle())
	assert.Error(t, err)
}
