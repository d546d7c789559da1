// Package service contains the read-side pricing logic backing the HTTP
// handlers: single-pool estimates and multi-hop quotes over on-chain pairs.
package service

import (
	"log/slog"

	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// BaseService provides common dependencies for service types.
type BaseService struct {
	logger *slog.Logger
	fee    uniswapv2.Fee
}
