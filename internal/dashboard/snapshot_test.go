package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"demo-trader/internal/binary"
	"demo-trader/internal/market"
	"demo-trader/internal/state"
	"demo-trader/internal/valuation"
)

type staticSource []state.Candle

func (s staticSource) Candles(context.Context, string, string, int) ([]state.Candle, error) {
	return s, nil
}

func TestComposerSnapshot(t *testing.T) {
	store := state.NewStore()
	store.ApplyOverview(state.Overview{
		Balance: state.Balance{Available: 500, Locked: 100, Total: 600},
		OpenPositions: []state.Position{
			{
				ID: "s1", Symbol: "EURUSD", Side: state.SideBuy,
				EntryPrice: 100, Quantity: 1, RemainingQuantity: 1,
				PipSize: 0.01, Status: state.StatusOpen,
			},
			{
				ID: "b1", Symbol: "EURUSD", Side: state.SideCall,
				EntryPrice: 100.5, StakeAmount: 25,
				Status: state.StatusOpen, ExpiryTime: time.Now().Unix() + 60,
			},
		},
		History: []state.SettledTrade{{ID: "h1", Outcome: "win"}},
	}, time.Now())

	agg := market.NewAggregator(staticSource(nil), 100, 120, zap.NewNop())
	require.NoError(t, agg.Reset(context.Background(), "EURUSD", "1m"))
	agg.OnTick(state.Tick{Symbol: "EURUSD", Price: 101, ServerTime: 30})

	tracker := binary.NewTracker(store, zap.NewNop())
	tracker.Recompute()

	snap := NewComposer(store, agg, tracker).Snapshot()

	assert.Equal(t, "EURUSD", snap.Symbol)
	assert.Equal(t, "1m", snap.Timeframe)
	require.Len(t, snap.Candles, 1)
	assert.Equal(t, 1, snap.VisibleBars)
	assert.Len(t, snap.PriceLines, 2)
	assert.Len(t, snap.Countdowns, 1)
	assert.Len(t, snap.History[binary.OutcomeWin], 1)

	// Metrics reflect the latest candle close: pnl = (101-100)/0.01 = 100.
	assert.Equal(t, 100.0, snap.Metrics.OpenPnl)
	assert.Equal(t, 700.0, snap.Metrics.Equity)
	assert.Equal(t, valuation.SourceDerived, snap.Metrics.MarginUsed.Source)
}

func TestComposerSnapshotEmpty(t *testing.T) {
	store := state.NewStore()
	agg := market.NewAggregator(staticSource(nil), 100, 120, zap.NewNop())
	require.NoError(t, agg.Reset(context.Background(), "EURUSD", "1m"))
	tracker := binary.NewTracker(store, zap.NewNop())

	snap := NewComposer(store, agg, tracker).Snapshot()

	assert.Empty(t, snap.Candles)
	assert.Zero(t, snap.Metrics.OpenPnl)
	assert.Zero(t, snap.Metrics.Equity)
	assert.Nil(t, snap.Metrics.MarginLevel)
}
