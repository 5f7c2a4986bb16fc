package market

import "demo-trader/internal/state"

// PriceLine is an annotated horizontal price level derived from an open
// position, consumed by the chart overlay. Read-only derived view; nothing
// here feeds back into position state.
type PriceLine struct {
	PositionID string     `json:"positionId"`
	Price      float64    `json:"price"`
	Side       state.Side `json:"side"`
	Remaining  float64    `json:"remaining"`
}

// ProjectPriceLines maps the open positions for a symbol onto overlay price
// lines. Closed and fully reduced positions are skipped.
func ProjectPriceLines(symbol string, positions []state.Position) []PriceLine {
	lines := make([]PriceLine, 0, len(positions))
	for _, p := range positions {
		if p.Symbol != symbol || p.Status != state.StatusOpen {
			continue
		}
		remaining := p.RemainingQuantity
		if p.Side.IsBinary() {
			remaining = p.StakeAmount
		}
		if remaining <= 0 || !isFinite(p.EntryPrice) {
			continue
		}
		lines = append(lines, PriceLine{
			PositionID: p.ID,
			Price:      p.EntryPrice,
			Side:       p.Side,
			Remaining:  remaining,
		})
	}
	return lines
}
