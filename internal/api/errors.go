package api

import "errors"

var (
	errSymbolRequired   = errors.New("symbol is required")
	errUnknownSide      = errors.New("side must be one of buy, sell, call, put")
	errQuantityRequired = errors.New("quantity must be positive for spot trades")
	errStakeRequired    = errors.New("stakeAmount must be positive for binary trades")
	errExpiryRequired   = errors.New("expirySeconds must be positive for binary trades")
)
