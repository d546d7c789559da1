package handler

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"

	"github.com/Reswap-DEX/reswap-periphery/internal/service"
)

// EstimateHandler prices a single swap against one named pool.
type EstimateHandler struct {
	BaseHandler
	service *service.EstimateService
}

func NewEstimateHandler(logger *slog.Logger, svc *service.EstimateService) *EstimateHandler {
	return &EstimateHandler{
		BaseHandler: newBaseHandler(logger),
		service:     svc,
	}
}

type EstimateRequest struct {
	Pool     string `query:"pool"`
	Src      string `query:"src"`
	Dst      string `query:"dst"`
	AmountIn string `query:"src_amount"`
}

type estimate struct {
	pool, src, dst common.Address
	amountIn       *big.Int
}

func (h *EstimateHandler) Handle() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req EstimateRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("failed to bind query parameters", "err", err)
			return ErrInvalidQueryParameters
		}
		in, err := h.parseEstimate(&req)
		if err != nil {
			return err
		}

		ctx, cancel := h.requestContext(c)
		defer cancel()
		amountOut, err := h.service.Estimate(ctx, in.pool, in.src, in.dst, in.amountIn)
		if err != nil {
			return h.handleServiceError(err)
		}

		h.logger.Debug("estimate computed", "pool", in.pool.Hex(), "in", in.amountIn.String(), "out", amountOut.String())
		return c.SendString(amountOut.String())
	}
}

func (h *EstimateHandler) parseEstimate(req *EstimateRequest) (estimate, error) {
	var (
		in  estimate
		err error
	)
	if in.pool, err = h.parseAddress("pool", req.Pool); err != nil {
		return in, err
	}
	if in.src, err = h.parseAddress("src", req.Src); err != nil {
		return in, err
	}
	if in.dst, err = h.parseAddress("dst", req.Dst); err != nil {
		return in, err
	}
	if in.src == in.dst {
		return in, ErrSameAddresses
	}
	if in.amountIn, err = h.parseAmount(req.AmountIn); err != nil {
		return in, NewInvalidAmountIn(err)
	}
	return in, nil
}

func (h *EstimateHandler) handleServiceError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrNodeTimeout
	case errors.Is(err, service.ErrSameToken):
		return ErrSameTokenBadRequest
	case errors.Is(err, service.ErrPairMismatch):
		return ErrPairMismatchBadRequest
	case errors.Is(err, service.ErrEmptyReserves):
		return ErrEmptyReservesBadRequest
	}
	h.logger.Error("service estimate failed", "err", err)
	return ErrEstimationFailedInternal
}
