package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"demo-trader/internal/state"
)

// sourceFunc adapts a function to the CandleSource interface.
type sourceFunc func(ctx context.Context, symbol, timeframe string, limit int) ([]state.Candle, error)

func (f sourceFunc) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]state.Candle, error) {
	return f(ctx, symbol, timeframe, limit)
}

func emptySource() CandleSource {
	return sourceFunc(func(context.Context, string, string, int) ([]state.Candle, error) {
		return nil, nil
	})
}

func tick(symbol string, ts int64, price float64) state.Tick {
	return state.Tick{Symbol: symbol, Price: price, ServerTime: ts}
}

func newTestAggregator(t *testing.T, source CandleSource, capacity int) *Aggregator {
	t.Helper()
	agg := NewAggregator(source, capacity, 120, zap.NewNop())
	require.NoError(t, agg.Reset(context.Background(), "EURUSD", "1m"))
	return agg
}

func TestOnTickScenario(t *testing.T) {
	// Stream [(t=0,100),(t=30,101),(t=65,99)] on a 60s timeframe must yield
	// two candles, the second opening at the first one's close.
	agg := newTestAggregator(t, emptySource(), 100)

	assert.True(t, agg.OnTick(tick("EURUSD", 0, 100)))
	assert.True(t, agg.OnTick(tick("EURUSD", 30, 101)))
	assert.True(t, agg.OnTick(tick("EURUSD", 65, 99)))

	candles, _ := agg.Snapshot()
	require.Len(t, candles, 2)
	assert.Equal(t, state.Candle{BucketStart: 0, Open: 100, High: 101, Low: 100, Close: 101}, candles[0])
	assert.Equal(t, state.Candle{BucketStart: 60, Open: 101, High: 101, Low: 99, Close: 99}, candles[1])
}

func TestOnTickSeedsEmptySeries(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)

	require.True(t, agg.OnTick(tick("EURUSD", 90, 1.25)))
	candles, _ := agg.Snapshot()
	require.Len(t, candles, 1)
	assert.Equal(t, state.Candle{BucketStart: 60, Open: 1.25, High: 1.25, Low: 1.25, Close: 1.25}, candles[0])
}

func TestOnTickRejectsOtherSymbols(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)

	assert.False(t, agg.OnTick(tick("GBPUSD", 0, 100)))
	candles, _ := agg.Snapshot()
	assert.Empty(t, candles)
}

func TestOnTickDropsLateTicks(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)
	var lateDrops int
	agg.SetHooks(nil, func() { lateDrops++ })

	agg.OnTick(tick("EURUSD", 120, 100))
	agg.OnTick(tick("EURUSD", 180, 101))
	before, _ := agg.Snapshot()

	// A tick whose bucket precedes the newest candle never mutates the series.
	assert.False(t, agg.OnTick(tick("EURUSD", 60, 150)))
	assert.False(t, agg.OnTick(tick("EURUSD", 125, 150)))

	after, _ := agg.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, 2, lateDrops)
}

func TestOnTickOHLCInvariant(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)

	prices := []float64{100, 103, 97, 101, 99.5, 102}
	for i, p := range prices {
		agg.OnTick(tick("EURUSD", int64(i), p))
	}

	candles, _ := agg.Snapshot()
	require.Len(t, candles, 1)
	c := candles[0]
	assert.LessOrEqual(t, c.Low, c.Open)
	assert.LessOrEqual(t, c.Low, c.Close)
	assert.GreaterOrEqual(t, c.High, c.Open)
	assert.GreaterOrEqual(t, c.High, c.Close)
	assert.Equal(t, 97.0, c.Low)
	assert.Equal(t, 103.0, c.High)
	assert.Equal(t, 102.0, c.Close)
}

func TestGapFillOpensAtPreviousClose(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)

	agg.OnTick(tick("EURUSD", 0, 100))
	// Next tick skips several buckets entirely.
	agg.OnTick(tick("EURUSD", 350, 90))

	candles, _ := agg.Snapshot()
	require.Len(t, candles, 2)
	second := candles[1]
	assert.Equal(t, int64(300), second.BucketStart)
	assert.Equal(t, 100.0, second.Open)
	assert.Equal(t, 100.0, second.High)
	assert.Equal(t, 90.0, second.Low)
	assert.Equal(t, 90.0, second.Close)
}

func TestSeriesEvictsOldestAtCapacity(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 3)

	for i := int64(0); i < 5; i++ {
		agg.OnTick(tick("EURUSD", i*60, float64(100+i)))
	}

	candles, _ := agg.Snapshot()
	require.Len(t, candles, 3)
	assert.Equal(t, int64(120), candles[0].BucketStart)
	assert.Equal(t, int64(240), candles[2].BucketStart)
}

func TestStrictlyIncreasingBuckets(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)

	for _, ts := range []int64{5, 61, 62, 200, 199, 260} {
		agg.OnTick(tick("EURUSD", ts, 100))
	}

	candles, _ := agg.Snapshot()
	for i := 1; i < len(candles); i++ {
		assert.Greater(t, candles[i].BucketStart, candles[i-1].BucketStart)
		assert.Zero(t, candles[i].BucketStart%60)
	}
}

func TestResetBackfillsAndRealigns(t *testing.T) {
	backfill := []state.Candle{
		{BucketStart: 0, Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{BucketStart: 300, Open: 1.5, High: 1.6, Low: 1.4, Close: 1.45},
	}
	agg := NewAggregator(sourceFunc(func(_ context.Context, symbol, timeframe string, limit int) ([]state.Candle, error) {
		assert.Equal(t, "EURUSD", symbol)
		assert.Equal(t, "5m", timeframe)
		assert.Equal(t, 100, limit)
		return backfill, nil
	}), 100, 120, zap.NewNop())

	require.NoError(t, agg.Reset(context.Background(), "EURUSD", "5m"))

	candles, visible := agg.Snapshot()
	require.Len(t, candles, 2)
	assert.Equal(t, 2, visible)

	// A live tick continues the backfilled series on the 5m grid.
	agg.OnTick(tick("EURUSD", 601, 1.5))
	candles, _ = agg.Snapshot()
	require.Len(t, candles, 3)
	assert.Equal(t, int64(600), candles[2].BucketStart)
	assert.Equal(t, 1.45, candles[2].Open)
}

func TestResetDiscardsSeries(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)
	agg.OnTick(tick("EURUSD", 0, 100))
	agg.OnTick(tick("EURUSD", 65, 101))

	require.NoError(t, agg.Reset(context.Background(), "EURUSD", "15s"))

	candles, _ := agg.Snapshot()
	assert.Empty(t, candles)

	// Ticks now bucket on the new 15s grid.
	agg.OnTick(tick("EURUSD", 47, 100))
	candles, _ = agg.Snapshot()
	require.Len(t, candles, 1)
	assert.Equal(t, int64(45), candles[0].BucketStart)
}

func TestResetBackfillErrorLeavesEmptySeries(t *testing.T) {
	agg := NewAggregator(sourceFunc(func(context.Context, string, string, int) ([]state.Candle, error) {
		return nil, errors.New("upstream unavailable")
	}), 100, 120, zap.NewNop())

	err := agg.Reset(context.Background(), "EURUSD", "1m")
	require.Error(t, err)

	candles, _ := agg.Snapshot()
	assert.Empty(t, candles)

	// Live ticks still seed the series afterwards.
	assert.True(t, agg.OnTick(tick("EURUSD", 10, 100)))
}

func TestSupersededResetIsNoOp(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	stale := []state.Candle{{BucketStart: 0, Open: 1, High: 1, Low: 1, Close: 1}}
	fresh := []state.Candle{{BucketStart: 0, Open: 2, High: 2, Low: 2, Close: 2}}

	first := true
	agg := NewAggregator(sourceFunc(func(context.Context, string, string, int) ([]state.Candle, error) {
		if first {
			first = false
			close(started)
			<-release
			return stale, nil
		}
		return fresh, nil
	}), 100, 120, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- agg.Reset(context.Background(), "EURUSD", "1m") }()
	<-started

	// A second Reset supersedes the in-flight one.
	require.NoError(t, agg.Reset(context.Background(), "EURUSD", "5m"))
	close(release)
	require.NoError(t, <-done)

	candles, _ := agg.Snapshot()
	require.Len(t, candles, 1)
	assert.Equal(t, 2.0, candles[0].Close)
	assert.Equal(t, "5m", agg.Timeframe())
}

func TestSnapshotIsACopy(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)
	agg.OnTick(tick("EURUSD", 0, 100))

	candles, _ := agg.Snapshot()
	candles[0].Close = 999

	fresh, _ := agg.Snapshot()
	assert.Equal(t, 100.0, fresh[0].Close)
}

func TestLastPrice(t *testing.T) {
	agg := newTestAggregator(t, emptySource(), 100)

	_, ok := agg.LastPrice()
	assert.False(t, ok)

	agg.OnTick(tick("EURUSD", 0, 100))
	agg.OnTick(tick("EURUSD", 30, 101.5))

	price, ok := agg.LastPrice()
	require.True(t, ok)
	assert.Equal(t, 101.5, price)
}
