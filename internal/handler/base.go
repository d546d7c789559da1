// Package handler defines HTTP request handlers and related utilities.
package handler

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
)

// defaultRequestTimeout bounds the node reads made for one request.
const defaultRequestTimeout = 10 * time.Second

// BaseHandler provides common dependencies for HTTP handlers.
type BaseHandler struct {
	logger  *slog.Logger
	timeout time.Duration
}

func newBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{logger: logger, timeout: defaultRequestTimeout}
}

// requestContext derives the context for the node reads of one request.
func (h *BaseHandler) requestContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c, h.timeout)
}

func (h *BaseHandler) parseAmount(amountStr string) (*big.Int, error) {
	if amountStr == "" {
		return nil, ErrAmountRequired
	}

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, ErrInvalidAmountFormat
	}

	if amount.Sign() <= 0 {
		return nil, ErrAmountNonPositive
	}

	return amount, nil
}

func (h *BaseHandler) parseAddress(field, raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, NewAddressRequired(field)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, NewInvalidAddress(field)
	}
	return common.HexToAddress(raw), nil
}

// parseReserve reads a reserve; unlike amounts a zero reserve is accepted
// and left to the pricing code to reject.
func (h *BaseHandler) parseReserve(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, ErrAmountRequired
	}
	reserve, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, ErrInvalidAmountFormat
	}
	if reserve.Sign() < 0 {
		return nil, ErrReserveNegative
	}
	return reserve, nil
}

// parsePath splits a comma separated list of token addresses.
func (h *BaseHandler) parsePath(raw string) ([]common.Address, error) {
	if raw == "" {
		return nil, ErrPathRequired
	}
	parts := strings.Split(raw, ",")
	path := make([]common.Address, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !common.IsHexAddress(p) {
			return nil, NewInvalidPathAddress(i)
		}
		path = append(path, common.HexToAddress(p))
	}
	return path, nil
}
