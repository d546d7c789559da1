package handler

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/Reswap-DEX/reswap-periphery/internal/eth"
	"github.com/Reswap-DEX/reswap-periphery/internal/service"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// maxDecimals keeps 10^decimals within uint256.
const maxDecimals = 77

type QuoteHandler struct {
	BaseHandler
	service *service.QuoteService
}

func NewQuoteHandler(logger *slog.Logger, svc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		BaseHandler: newBaseHandler(logger),
		service:     svc,
	}
}

type QuoteRequest struct {
	Amount   string `query:"amount"`
	ReserveA string `query:"reserve_a"`
	ReserveB string `query:"reserve_b"`
}

type AmountsRequest struct {
	Path     string `query:"path"`
	Amount   string `query:"amount"`
	Decimals string `query:"decimals"`
}

// AmountsResponse lists the amount flowing through every path token. When
// decimals were requested, Formatted carries the same amounts in token
// units.
type AmountsResponse struct {
	Path      []string `json:"path"`
	Amounts   []string `json:"amounts"`
	Formatted []string `json:"formatted,omitempty"`
}

// HandleQuote serves the proportional quote for explicit reserves.
func (h *QuoteHandler) HandleQuote() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req QuoteRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("failed to bind query parameters", "err", err)
			return ErrInvalidQueryParameters
		}
		amount, err := h.parseAmount(req.Amount)
		if err != nil {
			return NewInvalidAmount("amount", err)
		}
		reserveA, err := h.parseReserve(req.ReserveA)
		if err != nil {
			return NewInvalidAmount("reserve_a", err)
		}
		reserveB, err := h.parseReserve(req.ReserveB)
		if err != nil {
			return NewInvalidAmount("reserve_b", err)
		}
		out, err := h.service.Quote(amount, reserveA, reserveB)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.SendString(out.String())
	}
}

// HandleAmountsOut prices an exact input along the path.
func (h *QuoteHandler) HandleAmountsOut() fiber.Handler {
	return h.handleAmounts(h.service.AmountsOut)
}

// HandleAmountsIn prices an exact output along the path.
func (h *QuoteHandler) HandleAmountsIn() fiber.Handler {
	return h.handleAmounts(h.service.AmountsIn)
}

type pricer func(ctx context.Context, amount *big.Int, path []common.Address) ([]*big.Int, error)

func (h *QuoteHandler) handleAmounts(price pricer) fiber.Handler {
	return func(c fiber.Ctx) error {
		var req AmountsRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("failed to bind query parameters", "err", err)
			return ErrInvalidQueryParameters
		}
		path, err := h.parsePath(req.Path)
		if err != nil {
			return err
		}
		amount, err := h.parseAmount(req.Amount)
		if err != nil {
			return NewInvalidAmount("amount", err)
		}
		decimals, err := parseDecimals(req.Decimals, len(path))
		if err != nil {
			return err
		}

		ctx, cancel := h.requestContext(c)
		defer cancel()
		amounts, err := price(ctx, amount, path)
		if err != nil {
			return h.handleServiceError(err)
		}

		resp := AmountsResponse{
			Path:    make([]string, len(path)),
			Amounts: make([]string, len(amounts)),
		}
		for i := range path {
			resp.Path[i] = path[i].Hex()
			resp.Amounts[i] = amounts[i].String()
		}
		if decimals != nil {
			resp.Formatted = make([]string, len(amounts))
			for i, a := range amounts {
				resp.Formatted[i] = decimal.NewFromBigInt(a, -decimals[i]).String()
			}
		}
		h.logger.Debug("amounts computed", "path", req.Path, "amounts", resp.Amounts)
		return c.JSON(resp)
	}
}

// parseDecimals reads one decimals value per path token. A single value
// applies to every token.
func parseDecimals(raw string, n int) ([]int32, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 1 && len(parts) != n {
		return nil, ErrInvalidDecimals
	}
	out := make([]int32, n)
	for i := range out {
		p := parts[0]
		if len(parts) == n {
			p = parts[i]
		}
		d, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil || d > maxDecimals {
			return nil, ErrInvalidDecimals
		}
		out[i] = int32(d)
	}
	return out, nil
}

func (h *QuoteHandler) handleServiceError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrNodeTimeout
	case errors.Is(err, uniswapv2.ErrInvalidPath):
		return ErrInvalidPath
	case errors.Is(err, eth.ErrPairNotDeployed):
		return ErrPairNotFound
	case errors.Is(err, uniswapv2.ErrInsufficientLiquidity):
		return ErrInsufficientLiquidity
	case errors.Is(err, uniswapv2.ErrInsufficientAmount),
		errors.Is(err, uniswapv2.ErrInsufficientInputAmount),
		errors.Is(err, uniswapv2.ErrInsufficientOutputAmount):
		return ErrAmountNonPositive
	default:
		h.logger.Error("service quote failed", "err", err)
		return ErrEstimationFailedInternal
	}
}
