package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Reswap-DEX/reswap-periphery/internal/eth"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// EstimateService provides V2 output amount estimations for a known pool by
// reading on-chain pair storage directly.
type EstimateService struct {
	BaseService
	client eth.StorageReader
}

// NewEstimateService constructs an EstimateService that prices with fee.
func NewEstimateService(logger *slog.Logger, client eth.StorageReader, fee uniswapv2.Fee) *EstimateService {
	return &EstimateService{
		BaseService: BaseService{logger: logger, fee: fee},
		client:      client,
	}
}

// Estimate computes the expected output amount for swapping amountIn of src to
// dst in the provided pool at the latest block.
func (e *EstimateService) Estimate(ctx context.Context, pool, src, dst common.Address, amountIn *big.Int) (*big.Int, error) {
	e.logger.Debug("estimating swap", "pool", pool.Hex(), "src", src.Hex(), "dst", dst.Hex(), "in", amountIn.String())

	if src == dst {
		return nil, ErrSameToken
	}

	bn, err := e.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}

	state, err := eth.ReadPair(ctx, e.client, pool, new(big.Int).SetUint64(bn))
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut, ok := state.Reserves(src, dst)
	if !ok {
		return nil, ErrPairMismatch
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, ErrEmptyReserves
	}

	var outAmt, tmp1, tmp2 big.Int
	out := e.fee.AmountOutTo(&outAmt, &tmp1, &tmp2, amountIn, reserveIn, reserveOut)
	e.logger.Debug("amount out computed", "block", bn, "out", out.String())
	return out, nil
}
