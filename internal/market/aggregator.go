package market

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"demo-trader/internal/state"
)

// CandleSource loads historical candles for a symbol/timeframe pair. The
// upstream REST API implements this; tests substitute their own.
type CandleSource interface {
	Candles(ctx context.Context, symbol, timeframe string, limit int) ([]state.Candle, error)
}

// Aggregator owns the in-memory candle series for the active symbol and
// timeframe. Ticks are bucketed into fixed-interval OHLC bars; the series is
// bounded and evicts oldest-first. Consumers only ever see copies.
type Aggregator struct {
	mu       sync.Mutex
	log      *zap.Logger
	source   CandleSource
	capacity int
	visible  int

	symbol    string
	timeframe string
	interval  int64
	series    []state.Candle
	viewport  int

	// generation invalidates in-flight backfill loads: a Reset bumps it, and
	// a load that returns under an older generation is discarded unapplied.
	generation uint64

	onAppend   func()
	onLateDrop func()
}

// NewAggregator creates an Aggregator backed by the given candle source.
// capacity bounds the retained series length, visible is the advisory number
// of trailing bars a renderer should show.
func NewAggregator(source CandleSource, capacity, visible int, log *zap.Logger) *Aggregator {
	if capacity <= 0 {
		capacity = 500
	}
	if visible <= 0 || visible > capacity {
		visible = capacity
	}
	return &Aggregator{
		log:      log,
		source:   source,
		capacity: capacity,
		visible:  visible,
	}
}

// SetHooks registers optional counters invoked on candle append and on
// late-tick drop. Must be called before ticks start flowing.
func (a *Aggregator) SetHooks(onAppend, onLateDrop func()) {
	a.onAppend = onAppend
	a.onLateDrop = onLateDrop
}

// Reset discards the current series and backfills it for the new symbol and
// timeframe. Switching timeframe is destructive because bucket alignment is
// incompatible across intervals. If the backfill fails the series stays
// empty and live ticks seed it; the error is returned for status display.
// A Reset that is superseded by a newer Reset before its load returns is a
// no-op.
func (a *Aggregator) Reset(ctx context.Context, symbol, timeframe string) error {
	a.mu.Lock()
	a.generation++
	gen := a.generation
	a.symbol = symbol
	a.timeframe = timeframe
	a.interval = IntervalSeconds(timeframe)
	a.series = nil
	a.viewport = 0
	a.mu.Unlock()

	candles, err := a.source.Candles(ctx, symbol, timeframe, a.capacity)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != gen {
		// Superseded by a later Reset while the load was in flight.
		return nil
	}
	if err != nil {
		a.log.Warn("candle backfill failed, starting from live ticks",
			zap.String("symbol", symbol),
			zap.String("timeframe", timeframe),
			zap.Error(err))
		return fmt.Errorf("candle backfill for %s %s: %w", symbol, timeframe, err)
	}

	a.series = sanitizeSeries(candles, a.interval, a.capacity)
	a.viewport = min(len(a.series), a.visible)
	a.log.Info("candle series reloaded",
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.Int("candles", len(a.series)))
	return nil
}

// OnTick folds a normalized tick into the series. Returns true when the
// series was mutated. Ticks for other symbols and ticks whose bucket lies
// before the newest candle are dropped: closed candles are never mutated
// retroactively.
func (a *Aggregator) OnTick(t state.Tick) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t.Symbol != a.symbol || a.interval <= 0 {
		return false
	}

	bucket := BucketStart(t.ServerTime, a.interval)

	if len(a.series) == 0 {
		a.series = append(a.series, state.Candle{
			BucketStart: bucket,
			Open:        t.Price,
			High:        t.Price,
			Low:         t.Price,
			Close:       t.Price,
		})
		a.afterMutation()
		return true
	}

	last := &a.series[len(a.series)-1]
	switch {
	case bucket == last.BucketStart:
		if t.Price > last.High {
			last.High = t.Price
		}
		if t.Price < last.Low {
			last.Low = t.Price
		}
		last.Close = t.Price
		a.afterMutation()
		return true

	case bucket > last.BucketStart:
		// Gap-fill: the new candle opens at the previous close, since ticks
		// are never assumed contiguous across bucket boundaries.
		next := state.Candle{
			BucketStart: bucket,
			Open:        last.Close,
			High:        t.Price,
			Low:         t.Price,
			Close:       t.Price,
		}
		if t.Price > next.Open {
			next.High = t.Price
			next.Low = next.Open
		} else {
			next.High = next.Open
			next.Low = t.Price
		}
		a.series = append(a.series, next)
		if len(a.series) > a.capacity {
			a.series = a.series[len(a.series)-a.capacity:]
		}
		if a.onAppend != nil {
			a.onAppend()
		}
		a.afterMutation()
		return true

	default:
		// Late or out-of-order tick. Dropped by design; the next overview
		// poll bounds any drift this causes.
		if a.onLateDrop != nil {
			a.onLateDrop()
		}
		return false
	}
}

// Snapshot returns a copy of the series together with the advisory viewport
// hint (how many trailing bars should be visible).
func (a *Aggregator) Snapshot() ([]state.Candle, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]state.Candle, len(a.series))
	copy(out, a.series)
	return out, a.viewport
}

// LastPrice returns the close of the newest candle, if any.
func (a *Aggregator) LastPrice() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.series) == 0 {
		return 0, false
	}
	return a.series[len(a.series)-1].Close, true
}

// Symbol returns the active symbol.
func (a *Aggregator) Symbol() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.symbol
}

// Timeframe returns the active timeframe specifier.
func (a *Aggregator) Timeframe() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeframe
}

func (a *Aggregator) afterMutation() {
	a.viewport = min(len(a.series), a.visible)
}

// sanitizeSeries aligns backfilled candles to the interval, drops entries
// that would break the strictly-increasing timestamp invariant and trims to
// capacity keeping the newest.
func sanitizeSeries(candles []state.Candle, interval int64, capacity int) []state.Candle {
	out := make([]state.Candle, 0, len(candles))
	var lastBucket int64 = -1
	for _, c := range candles {
		if !isFinite(c.Open) || !isFinite(c.High) || !isFinite(c.Low) || !isFinite(c.Close) {
			continue
		}
		c.BucketStart = BucketStart(c.BucketStart, interval)
		if lastBucket >= 0 && c.BucketStart <= lastBucket {
			continue
		}
		lastBucket = c.BucketStart
		out = append(out, c)
	}
	if len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}
