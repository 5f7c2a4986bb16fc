package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"demo-trader/internal/amqp"
	"demo-trader/internal/api"
	"demo-trader/internal/binary"
	"demo-trader/internal/config"
	"demo-trader/internal/dashboard"
	"demo-trader/internal/logger"
	"demo-trader/internal/market"
	"demo-trader/internal/metrics"
	"demo-trader/internal/overview"
	"demo-trader/internal/state"
	"demo-trader/internal/websocket"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Production)
	defer log.Sync()
	log.Info("starting trading dashboard backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core components.
	store := state.NewStore()
	client := overview.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)

	agg := market.NewAggregator(client, cfg.Market.SeriesCapacity, cfg.Market.VisibleBars, log)
	agg.SetHooks(metrics.CandlesAppended.Inc, metrics.LateTicksDropped.Inc)
	if err := agg.Reset(ctx, cfg.Market.Symbol, cfg.Market.Timeframe); err != nil {
		// Not fatal: live ticks will seed the series and the status message
		// tells the user what happened.
		store.SetPollError(err.Error())
	}

	normalizer := market.NewNormalizer(metrics.TicksDropped.Inc)

	// Tick push channel.
	consumer, err := amqp.NewConsumer(cfg.AMQP.URI, cfg.AMQP.TickQueue, log)
	if err != nil {
		log.Fatal("initialize tick consumer", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetDropHook(metrics.TicksShed.Inc)

	if err := consumer.Start(ctx, func(t state.Tick) {
		if !normalizer.Normalize(t) {
			return
		}
		if agg.OnTick(t) {
			metrics.TicksAccepted.Inc()
		}
	}); err != nil {
		log.Fatal("start tick consumer", zap.Error(err))
	}

	// Server reconciliation and wall-clock countdowns.
	poller := overview.NewPoller(client, store, cfg.PollInterval, log)
	poller.SetHooks(metrics.PollsSucceeded.Inc, metrics.PollsFailed.Inc)
	go poller.Run(ctx)

	tracker := binary.NewTracker(store, log)
	go tracker.Run(ctx)

	// Outbound surfaces.
	hub := websocket.NewHub(log)
	go hub.Run()

	composer := dashboard.NewComposer(store, agg, tracker)
	broadcaster := dashboard.NewBroadcaster(composer, hub, cfg.BroadcastInterval, log)
	broadcaster.SetHook(metrics.SnapshotsBroadcast.Inc)
	go broadcaster.Run(ctx)

	handler := api.NewHandler(composer, agg, client, poller, hub, log)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: handler.Router(cfg.Production),
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")
	cancel()
	srv.Shutdown(context.Background())
}
