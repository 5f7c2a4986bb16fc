// Package dashboard composes the outward-facing view: everything the
// rendering layer needs, assembled from the aggregator, store, valuation
// engine and binary tracker, and pushed to browsers on a fixed cadence.
package dashboard

import (
	"time"

	"demo-trader/internal/binary"
	"demo-trader/internal/market"
	"demo-trader/internal/state"
	"demo-trader/internal/valuation"
)

// Snapshot is one complete dashboard frame. It is recomputed from scratch on
// every request/broadcast; nothing in it aliases live component state.
type Snapshot struct {
	GeneratedAt int64  `json:"generatedAt"`
	Symbol      string `json:"symbol"`
	Timeframe   string `json:"timeframe"`

	Candles     []state.Candle `json:"candles"`
	VisibleBars int            `json:"visibleBars"`

	PriceLines []market.PriceLine `json:"priceLines"`

	Balance       state.Balance            `json:"balance"`
	Metrics       valuation.AccountMetrics `json:"metrics"`
	OpenPositions []state.Position         `json:"openPositions"`

	Countdowns []binary.Countdown                      `json:"countdowns"`
	History    map[binary.Outcome][]state.SettledTrade `json:"history"`

	Status state.PollStatus `json:"status"`
}

// Composer assembles snapshots from the owning components. It holds no state
// of its own.
type Composer struct {
	store   *state.Store
	agg     *market.Aggregator
	tracker *binary.Tracker
	now     func() time.Time
}

// NewComposer wires a Composer over the given components.
func NewComposer(store *state.Store, agg *market.Aggregator, tracker *binary.Tracker) *Composer {
	return &Composer{store: store, agg: agg, tracker: tracker, now: time.Now}
}

// Snapshot builds a complete dashboard frame: candle series with viewport
// hint, position price lines, revalued account metrics, binary countdowns
// and outcome-bucketed history.
func (c *Composer) Snapshot() Snapshot {
	symbol := c.agg.Symbol()
	candles, visible := c.agg.Snapshot()
	positions := c.store.OpenPositions()

	price, hasPrice := c.agg.LastPrice()
	metrics := valuation.Revalue(price, hasPrice, positions, c.store.Balance(), c.store.ServerMargin())

	return Snapshot{
		GeneratedAt:   c.now().Unix(),
		Symbol:        symbol,
		Timeframe:     c.agg.Timeframe(),
		Candles:       candles,
		VisibleBars:   visible,
		PriceLines:    market.ProjectPriceLines(symbol, positions),
		Balance:       c.store.Balance(),
		Metrics:       metrics,
		OpenPositions: positions,
		Countdowns:    c.tracker.Countdowns(),
		History:       binary.BucketHistory(c.store.History()),
		Status:        c.store.Status(),
	}
}
