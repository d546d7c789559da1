package ledger

import "errors"

var (
	ErrInvalidAmount               = errors.New("invalid amount")
	ErrOverflow                    = errors.New("arithmetic overflow")
	ErrInsufficientBalance         = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance       = errors.New("transfer amount exceeds allowance")
	ErrUnknownToken                = errors.New("unknown token")
	ErrExpired                     = errors.New("expired")
	ErrInvalidSignature            = errors.New("invalid signature")
	ErrLocked                      = errors.New("locked")
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	ErrInsufficientLiquidityBurned = errors.New("insufficient liquidity burned")
	ErrInsufficientOutputAmount    = errors.New("insufficient output amount")
	ErrInsufficientInputAmount     = errors.New("insufficient input amount")
	ErrInsufficientLiquidity       = errors.New("insufficient liquidity")
	ErrInvalidTo                   = errors.New("invalid to")
	ErrK                           = errors.New("k")
)
