package state

// Side identifies the direction of a position. Spot positions use buy/sell,
// binary positions use call/put.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
	SideCall Side = "call"
	SidePut  Side = "put"
)

// Direction returns +1 for long-side positions (buy/call) and -1 for
// short-side positions (sell/put).
func (s Side) Direction() float64 {
	if s == SideSell || s == SidePut {
		return -1
	}
	return 1
}

// IsBinary reports whether the side belongs to a binary option.
func (s Side) IsBinary() bool {
	return s == SideCall || s == SidePut
}

// PositionStatus is the lifecycle state of a position. A position moves
// open -> closed exactly once and never reopens.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// Tick represents a single price change in the market.
type Tick struct {
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	ServerTime int64   `json:"serverTimeSec"` // unix seconds, server clock
}

// Candle is one OHLC bucket. Only the newest candle of a series is ever
// mutated; earlier candles are immutable once superseded.
type Candle struct {
	BucketStart int64   `json:"time"` // unix seconds, aligned to the timeframe interval
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
}

// Position represents a single open or recently closed trade, spot or binary.
type Position struct {
	ID                string         `json:"id"`
	Symbol            string         `json:"symbol"`
	Side              Side           `json:"side"`
	EntryPrice        float64        `json:"entryPrice"`
	Quantity          float64        `json:"quantity"`
	RemainingQuantity float64        `json:"remainingQuantity"`
	PipSize           float64        `json:"pipSize"`
	StakeAmount       float64        `json:"stakeAmount"`
	Status            PositionStatus `json:"status"`

	// Proportion overrides the remaining/quantity ratio used to weight pip
	// P&L when the server supplies an explicit figure.
	Proportion *float64 `json:"proportion,omitempty"`

	// ExpiryTime is set for binary positions only (unix seconds).
	ExpiryTime int64 `json:"expiryTime,omitempty"`
}

// Portion is the proportional remaining stake used to weight this position's
// pip P&L. Defaults to RemainingQuantity/Quantity when the server did not
// supply an explicit proportion.
func (p Position) Portion() float64 {
	if p.Proportion != nil {
		return *p.Proportion
	}
	if p.Quantity <= 0 {
		return 0
	}
	return p.RemainingQuantity / p.Quantity
}

// SettledTrade is a history row reported by the server. Outcome is always
// server-sourced; the client never fabricates a settlement result.
type SettledTrade struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Side        Side    `json:"side"`
	EntryPrice  float64 `json:"entryPrice"`
	ClosePrice  float64 `json:"closePrice"`
	StakeAmount float64 `json:"stakeAmount"`
	Outcome     string  `json:"outcome"` // win | lose | push
	SettledAt   int64   `json:"settledAt"`
}

// Balance is the server-authoritative account balance. Total is expected to
// equal Available+Locked modulo float rounding.
type Balance struct {
	Available float64 `json:"available"`
	Locked    float64 `json:"locked"`
	Total     float64 `json:"total"`
}

// ServerMargin carries the optional server-computed account figures from an
// overview response. Nil fields mean the server did not supply them and the
// client falls back to local derivation.
type ServerMargin struct {
	Equity      *float64 `json:"equity,omitempty"`
	MarginUsed  *float64 `json:"marginUsed,omitempty"`
	FreeMargin  *float64 `json:"freeMargin,omitempty"`
	MarginLevel *float64 `json:"marginLevel,omitempty"`
}

// Overview is the full trading snapshot returned by the upstream API. Each
// successful fetch replaces the locally held balances, open positions and
// history wholesale.
type Overview struct {
	Balance       Balance        `json:"balance"`
	OpenPositions []Position     `json:"openPositions"`
	History       []SettledTrade `json:"history"` // oldest-first
	Margin        ServerMargin   `json:"margin"`
}
