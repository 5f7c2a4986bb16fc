// Package valuation computes account metrics from the latest price and the
// open position set. Revalue is a pure function: the same inputs always
// produce the same metrics, so it can run on every tick and every overview
// refresh without hidden state.
package valuation

import (
	"math"

	"demo-trader/internal/state"
)

// Source tags a figure as server-authoritative or locally derived. Derived
// margin values use locked balance as a proxy for margin used and are
// illustrative only; margin policy lives on the server.
type Source string

const (
	SourceServer  Source = "server"
	SourceDerived Source = "derived"
)

// Sourced is a numeric figure together with where it came from, so call
// sites can distinguish authoritative values from best-effort fallbacks.
type Sourced struct {
	Value  float64 `json:"value"`
	Source Source  `json:"source"`
}

// AccountMetrics is the derived account aggregate, recomputed on every price
// update. MarginLevel is nil when no margin is in use (renders as unbounded).
type AccountMetrics struct {
	Equity      float64  `json:"equity"`
	OpenPnl     float64  `json:"openPnl"`
	OpenPips    float64  `json:"openPips"`
	MarginUsed  Sourced  `json:"marginUsed"`
	FreeMargin  Sourced  `json:"freeMargin"`
	MarginLevel *Sourced `json:"marginLevel,omitempty"`
}

// PositionPnl returns the pip differential and account-currency P&L of one
// position at the given price. Fully closed positions (zero quantity or zero
// remaining) contribute nothing, as does a non-positive pip size.
func PositionPnl(price float64, p state.Position) (pips, pnl float64) {
	if p.Quantity == 0 || p.RemainingQuantity == 0 {
		return 0, 0
	}
	if p.PipSize <= 0 || !isFinite(p.PipSize) {
		return 0, 0
	}
	if !isFinite(price) || !isFinite(p.EntryPrice) {
		return 0, 0
	}

	pipDiff := (price - p.EntryPrice) / p.PipSize * p.Side.Direction()
	weighted := pipDiff * p.Portion()
	if !isFinite(weighted) {
		return 0, 0
	}
	// Pip value is expressed directly in account currency by construction of
	// the portion weighting.
	return weighted, weighted
}

// Revalue computes the account metrics for the current price, open position
// set and balances. Server-supplied margin figures take precedence over the
// local derivation. hasPrice=false (no finite price seen yet) zeroes the
// open P&L aggregates.
func Revalue(price float64, hasPrice bool, positions []state.Position, bal state.Balance, server state.ServerMargin) AccountMetrics {
	var openPnl, openPips float64
	if hasPrice && isFinite(price) {
		for _, p := range positions {
			if p.Status != state.StatusOpen {
				continue
			}
			pips, pnl := PositionPnl(price, p)
			openPips += pips
			openPnl += pnl
		}
	}
	if !isFinite(openPnl) || !isFinite(openPips) {
		openPnl, openPips = 0, 0
	}

	base := bal.Available + bal.Locked
	if !isFinite(base) {
		base = 0
	}

	equity := base + openPnl
	if server.Equity != nil && isFinite(*server.Equity) {
		equity = *server.Equity
	}

	m := AccountMetrics{
		Equity:   equity,
		OpenPnl:  openPnl,
		OpenPips: openPips,
	}

	if server.MarginUsed != nil && isFinite(*server.MarginUsed) {
		m.MarginUsed = Sourced{Value: *server.MarginUsed, Source: SourceServer}
	} else {
		// Fallback: locked balance stands in for margin used until the
		// server supplies the real figure.
		m.MarginUsed = Sourced{Value: bal.Locked, Source: SourceDerived}
	}

	if server.FreeMargin != nil && isFinite(*server.FreeMargin) {
		m.FreeMargin = Sourced{Value: *server.FreeMargin, Source: SourceServer}
	} else {
		m.FreeMargin = Sourced{Value: neutralize(equity - m.MarginUsed.Value), Source: SourceDerived}
	}

	switch {
	case server.MarginLevel != nil && isFinite(*server.MarginLevel):
		m.MarginLevel = &Sourced{Value: *server.MarginLevel, Source: SourceServer}
	case bal.Locked > 0:
		level := round2(equity / bal.Locked * 100)
		if isFinite(level) {
			m.MarginLevel = &Sourced{Value: level, Source: SourceDerived}
		}
	}
	// Locked == 0 leaves MarginLevel nil: unbounded.

	return m
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func neutralize(f float64) float64 {
	if !isFinite(f) {
		return 0
	}
	return f
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
