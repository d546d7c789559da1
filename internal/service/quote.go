package service

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Reswap-DEX/reswap-periphery/internal/eth"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// QuoteService prices multi-hop paths over pairs located by their CREATE2
// address. Every hop of one quote is read from the same block.
type QuoteService struct {
	BaseService
	pairs *eth.PairReader
}

func NewQuoteService(logger *slog.Logger, pairs *eth.PairReader, fee uniswapv2.Fee) *QuoteService {
	return &QuoteService{
		BaseService: BaseService{logger: logger, fee: fee},
		pairs:       pairs,
	}
}

// Quote returns the amount of B equivalent to amountA at the given
// reserves.
func (q *QuoteService) Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	return uniswapv2.Quote(amountA, reserveA, reserveB)
}

// AmountsOut prices an exact input along path.
func (q *QuoteService) AmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	src, err := q.snapshot(ctx, path)
	if err != nil {
		return nil, err
	}
	amounts, err := q.fee.AmountsOut(ctx, src, amountIn, path)
	if err != nil {
		return nil, err
	}
	q.logger.Debug("amounts out computed", "hops", len(path)-1, "in", amountIn.String(), "out", amounts[len(amounts)-1].String())
	return amounts, nil
}

// AmountsIn prices an exact output along path.
func (q *QuoteService) AmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	src, err := q.snapshot(ctx, path)
	if err != nil {
		return nil, err
	}
	amounts, err := q.fee.AmountsIn(ctx, src, amountOut, path)
	if err != nil {
		return nil, err
	}
	q.logger.Debug("amounts in computed", "hops", len(path)-1, "out", amountOut.String(), "in", amounts[0].String())
	return amounts, nil
}

func (q *QuoteService) snapshot(ctx context.Context, path []common.Address) (*eth.PairReader, error) {
	if err := uniswapv2.ValidatePath(path); err != nil {
		return nil, err
	}
	return q.pairs.Latest(ctx)
}
