// Package overview talks to the upstream trading API: historical candles,
// the trading overview and the place/close mutation endpoints. Mutation
// responses are full overview snapshots and are applied exactly like a poll
// result, so no follow-up fetch is needed.
package overview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"demo-trader/internal/state"
)

const defaultRequestTimeout = 10 * time.Second

// Client is a thin HTTP client over the upstream trading API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a Client for the given base URL, e.g.
// "http://broker.local/api".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

// TradeRequest is the payload for placing a spot or binary position. Label
// is filled with a client-generated id when empty so the server can echo the
// position back recognizably.
type TradeRequest struct {
	Label         string     `json:"label"`
	Symbol        string     `json:"symbol"`
	Side          state.Side `json:"side"`
	Quantity      float64    `json:"quantity,omitempty"`
	StakeAmount   float64    `json:"stakeAmount,omitempty"`
	ExpirySeconds int64      `json:"expirySeconds,omitempty"` // binary only
}

// Candles fetches up to limit historical candles for the symbol/timeframe.
// Satisfies market.CandleSource.
func (c *Client) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]state.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", timeframe)
	q.Set("limit", strconv.Itoa(limit))

	var candles []state.Candle
	if err := c.get(ctx, "/candles?"+q.Encode(), &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// Overview fetches the full trading overview: balances, open positions,
// recent history and optional server-computed margin figures.
func (c *Client) Overview(ctx context.Context) (state.Overview, error) {
	var ov state.Overview
	if err := c.get(ctx, "/overview", &ov); err != nil {
		return state.Overview{}, err
	}
	return ov, nil
}

// PlaceTrade submits a new position. The response is the refreshed overview.
func (c *Client) PlaceTrade(ctx context.Context, req TradeRequest) (state.Overview, error) {
	if req.Label == "" {
		req.Label = uuid.NewString()
	}
	var ov state.Overview
	if err := c.post(ctx, "/trades", req, &ov); err != nil {
		return state.Overview{}, err
	}
	return ov, nil
}

// CloseTrade closes (possibly partially) an open spot position. amount <= 0
// requests a full close. The response is the refreshed overview.
func (c *Client) CloseTrade(ctx context.Context, positionID string, amount float64) (state.Overview, error) {
	body := map[string]float64{}
	if amount > 0 {
		body["amount"] = amount
	}
	var ov state.Overview
	if err := c.post(ctx, "/trades/"+url.PathEscape(positionID)+"/close", body, &ov); err != nil {
		return state.Overview{}, err
	}
	return ov, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
