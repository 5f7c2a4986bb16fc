package market

import (
	"math"

	"demo-trader/internal/state"
)

// Normalizer validates raw price events from the push channel before they
// reach the aggregator. Malformed events are dropped silently; the caller
// only gets a yes/no answer, never an error to surface.
type Normalizer struct {
	drops func()
}

// NewNormalizer creates a Normalizer. onDrop is invoked once per discarded
// event and may be nil.
func NewNormalizer(onDrop func()) *Normalizer {
	return &Normalizer{drops: onDrop}
}

// Normalize reports whether the tick is well formed: a non-empty symbol, a
// finite positive-or-zero price and a positive server timestamp.
func (n *Normalizer) Normalize(t state.Tick) bool {
	if t.Symbol == "" || t.ServerTime <= 0 || !isFinite(t.Price) || t.Price < 0 {
		if n.drops != nil {
			n.drops()
		}
		return false
	}
	return true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
