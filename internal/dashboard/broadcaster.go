package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"demo-trader/internal/websocket"
)

// Broadcaster pushes a fresh snapshot to all websocket clients on a fixed
// interval.
type Broadcaster struct {
	composer *Composer
	hub      *websocket.Hub
	interval time.Duration
	log      *zap.Logger

	onBroadcast func()
}

// NewBroadcaster creates a Broadcaster; interval defaults to one second.
func NewBroadcaster(composer *Composer, hub *websocket.Hub, interval time.Duration, log *zap.Logger) *Broadcaster {
	if interval <= 0 {
		interval = time.Second
	}
	return &Broadcaster{composer: composer, hub: hub, interval: interval, log: log}
}

// SetHook registers an optional counter invoked per broadcast. Must be
// called before Run.
func (b *Broadcaster) SetHook(onBroadcast func()) {
	b.onBroadcast = onBroadcast
}

// Run broadcasts until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("snapshot broadcaster stopped")
			return
		case <-ticker.C:
			b.broadcastOnce()
		}
	}
}

func (b *Broadcaster) broadcastOnce() {
	if b.hub.ClientCount() == 0 {
		return
	}
	payload, err := json.Marshal(b.composer.Snapshot())
	if err != nil {
		b.log.Error("marshal snapshot failed", zap.Error(err))
		return
	}
	b.hub.Broadcast(payload)
	if b.onBroadcast != nil {
		b.onBroadcast()
	}
}
