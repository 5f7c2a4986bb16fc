// Package api serves the browser-facing HTTP surface: dashboard snapshots,
// candle data, timeframe switching, trade placement/close passthrough, the
// websocket endpoint and Prometheus metrics.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"demo-trader/internal/dashboard"
	"demo-trader/internal/market"
	"demo-trader/internal/overview"
	"demo-trader/internal/websocket"
)

// Handler holds the components the HTTP layer reads from and acts on.
type Handler struct {
	composer *dashboard.Composer
	agg      *market.Aggregator
	client   *overview.Client
	poller   *overview.Poller
	hub      *websocket.Hub
	log      *zap.Logger
}

// NewHandler wires the HTTP handler over the given components.
func NewHandler(
	composer *dashboard.Composer,
	agg *market.Aggregator,
	client *overview.Client,
	poller *overview.Poller,
	hub *websocket.Hub,
	log *zap.Logger,
) *Handler {
	return &Handler{
		composer: composer,
		agg:      agg,
		client:   client,
		poller:   poller,
		hub:      hub,
		log:      log,
	}
}

// Router builds the gin engine with all routes registered.
func (h *Handler) Router(production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", func(c *gin.Context) {
		h.hub.ServeWs(c.Writer, c.Request)
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/state", h.State)
		apiGroup.GET("/candles", h.Candles)
		apiGroup.POST("/timeframe", h.SwitchTimeframe)
		apiGroup.POST("/trades", h.PlaceTrade)
		apiGroup.POST("/trades/:id/close", h.CloseTrade)
	}

	return r
}
