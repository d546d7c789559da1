// Package uniswapv2 implements the V2 pricing library: reserve quoting,
// fee-adjusted swap amounts, multi-hop path resolution, canonical token
// ordering and the helpers clients need to address pairs and sign permits.
package uniswapv2

import "errors"

var (
	ErrInsufficientAmount       = errors.New("insufficient amount")
	ErrInsufficientLiquidity    = errors.New("insufficient liquidity")
	ErrInsufficientInputAmount  = errors.New("insufficient input amount")
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	ErrInvalidPath              = errors.New("invalid path")
	ErrIdenticalAddresses       = errors.New("identical addresses")
	ErrZeroAddress              = errors.New("zero address")
	ErrInvalidFee               = errors.New("invalid fee")
	ErrInvalidSignature         = errors.New("invalid signature")
)
