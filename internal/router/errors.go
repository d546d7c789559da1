package router

import (
	"errors"
	"fmt"

	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

var (
	ErrExpired                  = errors.New("expired")
	ErrExcessiveInputAmount     = errors.New("excessive input amount")
	ErrPairNotFound             = errors.New("pair not found")
	ErrNativeUnsupported        = errors.New("native asset not configured")
	ErrInvalidConfig            = errors.New("invalid router config")
	ErrInvalidPath              = uniswapv2.ErrInvalidPath
	ErrInsufficientAmount       = uniswapv2.ErrInsufficientAmount
	ErrInsufficientLiquidity    = uniswapv2.ErrInsufficientLiquidity
	ErrInsufficientInputAmount  = uniswapv2.ErrInsufficientInputAmount
	ErrInsufficientOutputAmount = uniswapv2.ErrInsufficientOutputAmount

	// ErrInsufficientAAmount and ErrInsufficientBAmount name the side whose
	// floor was breached; both match ErrInsufficientAmount.
	ErrInsufficientAAmount = fmt.Errorf("%w: token A below minimum", ErrInsufficientAmount)
	ErrInsufficientBAmount = fmt.Errorf("%w: token B below minimum", ErrInsufficientAmount)
)
