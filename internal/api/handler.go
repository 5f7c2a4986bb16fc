package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"demo-trader/internal/overview"
	"demo-trader/internal/state"
)

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// State handles GET /api/state: the full composed dashboard snapshot, the
// same payload the websocket broadcast carries.
func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.composer.Snapshot())
}

// Candles handles GET /api/candles: the current series plus viewport hint.
func (h *Handler) Candles(c *gin.Context) {
	candles, visible := h.agg.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"symbol":      h.agg.Symbol(),
		"timeframe":   h.agg.Timeframe(),
		"candles":     candles,
		"visibleBars": visible,
	})
}

type timeframeRequest struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe" binding:"required"`
}

// SwitchTimeframe handles POST /api/timeframe. The switch is destructive:
// the series is discarded and backfilled for the new interval. A failed
// backfill still switches (live ticks will seed the series) and the error is
// reported as the status message.
func (h *Handler) SwitchTimeframe(c *gin.Context) {
	var req timeframeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	symbol := req.Symbol
	if symbol == "" {
		symbol = h.agg.Symbol()
	}

	if err := h.agg.Reset(c.Request.Context(), symbol, req.Timeframe); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"symbol":    symbol,
			"timeframe": req.Timeframe,
			"status":    err.Error(),
		})
		return
	}

	candles, visible := h.agg.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"symbol":      symbol,
		"timeframe":   req.Timeframe,
		"candles":     candles,
		"visibleBars": visible,
	})
}

// PlaceTrade handles POST /api/trades. The upstream response is a full
// overview snapshot and is applied to the store the same way a poll is.
func (h *Handler) PlaceTrade(c *gin.Context) {
	var req overview.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateTradeRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ov, err := h.client.PlaceTrade(c.Request.Context(), req)
	if err != nil {
		h.log.Warn("place trade failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.poller.Apply(ov)
	c.JSON(http.StatusOK, h.composer.Snapshot())
}

type closeRequest struct {
	Amount float64 `json:"amount"`
}

// CloseTrade handles POST /api/trades/:id/close. Amount zero or absent
// requests a full close.
func (h *Handler) CloseTrade(c *gin.Context) {
	var req closeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ov, err := h.client.CloseTrade(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		h.log.Warn("close trade failed",
			zap.String("positionId", c.Param("id")),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.poller.Apply(ov)
	c.JSON(http.StatusOK, h.composer.Snapshot())
}

func validateTradeRequest(req overview.TradeRequest) error {
	switch req.Side {
	case state.SideBuy, state.SideSell:
		if req.Quantity <= 0 {
			return errQuantityRequired
		}
	case state.SideCall, state.SidePut:
		if req.StakeAmount <= 0 {
			return errStakeRequired
		}
		if req.ExpirySeconds <= 0 {
			return errExpiryRequired
		}
	default:
		return errUnknownSide
	}
	if req.Symbol == "" {
		return errSymbolRequired
	}
	return nil
}
