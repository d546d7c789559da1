package uniswapv2

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ReserveSource provides the reserves of the pair formed by tokenA and
// tokenB, ordered as requested (reserveA belongs to tokenA).
type ReserveSource interface {
	GetReserves(ctx context.Context, tokenA, tokenB common.Address) (reserveA, reserveB *big.Int, err error)
}

// Ordering compares two token addresses and decides which one is token0 of
// their pair. It returns a negative number when a sorts first.
type Ordering func(a, b common.Address) int

// ByAddress orders tokens by the magnitude of their address.
func ByAddress(a, b common.Address) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// SortTokens returns the two tokens in canonical order.
func SortTokens(order Ordering, tokenA, tokenB common.Address) (token0, token1 common.Address, err error) {
	if tokenA == tokenB {
		return common.Address{}, common.Address{}, ErrIdenticalAddresses
	}
	if order == nil {
		order = ByAddress
	}
	token0, token1 = tokenA, tokenB
	if order(tokenA, tokenB) > 0 {
		token0, token1 = tokenB, tokenA
	}
	if token0 == (common.Address{}) {
		return common.Address{}, common.Address{}, ErrZeroAddress
	}
	return token0, token1, nil
}

// PairSalt is the CREATE2 salt of the pair holding token0 and token1.
func PairSalt(token0, token1 common.Address) common.Hash {
	return crypto.Keccak256Hash(token0.Bytes(), token1.Bytes())
}

// PairFor computes the CREATE2 address of the pair for tokenA and tokenB
// without any lookup.
func PairFor(order Ordering, factory common.Address, initCodeHash common.Hash, tokenA, tokenB common.Address) (common.Address, error) {
	token0, token1, err := SortTokens(order, tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.CreateAddress2(factory, PairSalt(token0, token1), initCodeHash.Bytes()), nil
}

// ValidatePath checks that path has at least two tokens and that no hop
// pairs a token with itself.
func ValidatePath(path []common.Address) error {
	if len(path) < 2 {
		return ErrInvalidPath
	}
	for i := 0; i < len(path)-1; i++ {
		if path[i] == path[i+1] {
			return fmt.Errorf("%w: %w at hop %d", ErrInvalidPath, ErrIdenticalAddresses, i)
		}
	}
	return nil
}

// AmountsOut walks path forward and returns the amount flowing through
// every token for an exact input.
func (f Fee) AmountsOut(ctx context.Context, src ReserveSource, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	if !positive(amountIn) {
		return nil, ErrInsufficientInputAmount
	}
	amounts := make([]*big.Int, len(path))
	amounts[0] = new(big.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := src.GetReserves(ctx, path[i], path[i+1])
		if err != nil {
			return nil, fmt.Errorf("reserves for hop %d: %w", i, err)
		}
		out, err := f.AmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// AmountsIn walks path backward and returns the amount flowing through
// every token for an exact output.
func (f Fee) AmountsIn(ctx context.Context, src ReserveSource, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	if !positive(amountOut) {
		return nil, ErrInsufficientOutputAmount
	}
	amounts := make([]*big.Int, len(path))
	amounts[len(amounts)-1] = new(big.Int).Set(amountOut)
	for i := len(path) - 1; i > 0; i-- {
		reserveIn, reserveOut, err := src.GetReserves(ctx, path[i-1], path[i])
		if err != nil {
			return nil, fmt.Errorf("reserves for hop %d: %w", i-1, err)
		}
		in, err := f.AmountIn(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i-1, err)
		}
		amounts[i-1] = in
	}
	return amounts, nil
}

// GetAmountsOut is AmountsOut with the default fee.
func GetAmountsOut(ctx context.Context, src ReserveSource, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	return DefaultFee.AmountsOut(ctx, src, amountIn, path)
}

// GetAmountsIn is AmountsIn with the default fee.
func GetAmountsIn(ctx context.Context, src ReserveSource, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	return DefaultFee.AmountsIn(ctx, src, amountOut, path)
}
