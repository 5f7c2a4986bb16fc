// Package binary tracks countdowns and settlement classification for open
// binary option trades. Remaining time is wall-clock driven, independent of
// the price-tick channel; settlement outcomes are always server-sourced and
// only formatted here.
package binary

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"demo-trader/internal/state"
)

// Outcome is the settlement classification of a binary trade as reported by
// the server.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLose    Outcome = "lose"
	OutcomePush    Outcome = "push"
	OutcomePending Outcome = "pending"
)

// ClassifyOutcome maps a server-reported outcome string onto a known bucket.
// Anything unrecognized stays pending; the client never invents a result.
func ClassifyOutcome(raw string) Outcome {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "win", "won":
		return OutcomeWin
	case "lose", "lost", "loss":
		return OutcomeLose
	case "push", "draw", "tie":
		return OutcomePush
	default:
		return OutcomePending
	}
}

// BucketHistory groups settled trades by their classified outcome.
func BucketHistory(trades []state.SettledTrade) map[Outcome][]state.SettledTrade {
	buckets := make(map[Outcome][]state.SettledTrade)
	for _, t := range trades {
		o := ClassifyOutcome(t.Outcome)
		buckets[o] = append(buckets[o], t)
	}
	return buckets
}

// Countdown is the per-trade remaining-time view handed to the renderer.
type Countdown struct {
	PositionID  string     `json:"positionId"`
	Symbol      string     `json:"symbol"`
	Side        state.Side `json:"side"`
	TimeLeftSec int64      `json:"timeLeftSec"`
	Display     string     `json:"display"`
	Expired     bool       `json:"expired"`
}

// Tracker recomputes countdowns for open binary trades once per second from
// a shared wall-clock tick. Trades leave the open set only when a subsequent
// overview refresh reports them settled.
type Tracker struct {
	store *state.Store
	log   *zap.Logger
	now   func() time.Time

	mu         sync.RWMutex
	countdowns []Countdown
}

// NewTracker creates a Tracker over the given store.
func NewTracker(store *state.Store, log *zap.Logger) *Tracker {
	return &Tracker{store: store, log: log, now: time.Now}
}

// Run recomputes countdowns every second until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	t.Recompute()
	for {
		select {
		case <-ctx.Done():
			t.log.Info("binary tracker stopped")
			return
		case <-ticker.C:
			t.Recompute()
		}
	}
}

// Recompute rebuilds the countdown list from the current open binary
// positions and wall clock.
func (t *Tracker) Recompute() {
	now := t.now().Unix()
	positions := t.store.OpenBinaryPositions()

	countdowns := make([]Countdown, 0, len(positions))
	for _, p := range positions {
		left := p.ExpiryTime - now
		if left < 0 {
			left = 0
		}
		countdowns = append(countdowns, Countdown{
			PositionID:  p.ID,
			Symbol:      p.Symbol,
			Side:        p.Side,
			TimeLeftSec: left,
			Display:     FormatTimeLeft(left),
			Expired:     left == 0,
		})
	}

	t.mu.Lock()
	t.countdowns = countdowns
	t.mu.Unlock()
}

// Countdowns returns a copy of the latest countdown snapshot.
func (t *Tracker) Countdowns() []Countdown {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Countdown, len(t.countdowns))
	copy(out, t.countdowns)
	return out
}

// FormatTimeLeft renders remaining seconds as MM:SS, or HH:MM:SS from one
// hour upward.
func FormatTimeLeft(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := secs % 3600 / 60
	s := secs % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
