package overview

import (
	"context"
	"time"

	"go.uber.org/zap"

	"demo-trader/internal/state"
)

// Poller reconciles the local store with the server's authoritative overview
// on a fixed interval. Each successful response replaces balances, open
// positions and history wholesale; a failed poll retains the previous
// snapshot and retries on the next scheduled run, so local state never
// diverges for more than one interval.
type Poller struct {
	client   *Client
	store    *state.Store
	interval time.Duration
	log      *zap.Logger

	onSuccess func()
	onFailure func()
}

// NewPoller creates a Poller with the given reconciliation interval.
func NewPoller(client *Client, store *state.Store, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		client:   client,
		store:    store,
		interval: interval,
		log:      log,
	}
}

// SetHooks registers optional counters for poll outcomes. Must be called
// before Run.
func (p *Poller) SetHooks(onSuccess, onFailure func()) {
	p.onSuccess = onSuccess
	p.onFailure = onFailure
}

// Run polls immediately, then on every interval tick until the context is
// cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("overview poller stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce performs a single reconciliation round trip. The overview is
// applied only after the response is fully received and decoded, so an
// overlapping or slow poll can never leave partially applied state behind.
func (p *Poller) PollOnce(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	ov, err := p.client.Overview(reqCtx)
	if err != nil {
		p.store.SetPollError(err.Error())
		if p.onFailure != nil {
			p.onFailure()
		}
		p.log.Warn("overview poll failed, keeping previous snapshot", zap.Error(err))
		return
	}

	p.Apply(ov)
	if p.onSuccess != nil {
		p.onSuccess()
	}
}

// Apply replaces the store contents from a fully received overview. Mutation
// responses (place/close) reuse this path, making them equivalent to a poll.
func (p *Poller) Apply(ov state.Overview) {
	p.store.ApplyOverview(ov, time.Now())
}
