// Package router settles swaps and liquidity changes against V2 pairs. Every
// public operation checks its deadline and path, prices the request with
// pkg/uniswapv2 against a snapshot of the pair reserves and then performs
// all transfers and pair calls inside one unit of work, so a failure at any
// step leaves no effect behind.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Reswap-DEX/reswap-periphery/internal/contracts"
	"github.com/Reswap-DEX/reswap-periphery/internal/metrics"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// Config holds the collaborators and settings of a Router.
type Config struct {
	// Address is the router's own account. Tokens pass through it only
	// within a single operation.
	Address    common.Address
	Registry   contracts.Registry
	Tokens     contracts.TokenDirectory
	Settlement contracts.Settlement
	// Native and Bank are required by the native asset entry points only.
	Native contracts.NativeWrapper
	Bank   contracts.NativeBank
	// Fee defaults to uniswapv2.DefaultFee.
	Fee     uniswapv2.Fee
	Clock   func() time.Time
	Logger  *slog.Logger
	Metrics *metrics.Router
}

func (c *Config) validate() error {
	if c.Address == (common.Address{}) {
		return fmt.Errorf("%w: router address is required", ErrInvalidConfig)
	}
	if c.Registry == nil {
		return fmt.Errorf("%w: registry is required", ErrInvalidConfig)
	}
	if c.Tokens == nil {
		return fmt.Errorf("%w: token directory is required", ErrInvalidConfig)
	}
	if c.Settlement == nil {
		return fmt.Errorf("%w: settlement is required", ErrInvalidConfig)
	}
	if (c.Native == nil) != (c.Bank == nil) {
		return fmt.Errorf("%w: native wrapper and native bank go together", ErrInvalidConfig)
	}
	if err := c.Fee.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Router is stateless between calls; the only shared mutable state lives in
// the pairs, serialised by the Settlement.
type Router struct {
	address  common.Address
	registry contracts.Registry
	tokens   contracts.TokenDirectory
	settle   contracts.Settlement
	native   contracts.NativeWrapper
	bank     contracts.NativeBank
	fee      uniswapv2.Fee
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Router
}

// New validates cfg and returns a Router.
func New(cfg Config) (*Router, error) {
	if cfg.Fee == (uniswapv2.Fee{}) {
		cfg.Fee = uniswapv2.DefaultFee
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Router{
		address:  cfg.Address,
		registry: cfg.Registry,
		tokens:   cfg.Tokens,
		settle:   cfg.Settlement,
		native:   cfg.Native,
		bank:     cfg.Bank,
		fee:      cfg.Fee,
		now:      cfg.Clock,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Address is the router's account.
func (r *Router) Address() common.Address { return r.address }

// Fee is the swap fee used for pricing.
func (r *Router) Fee() uniswapv2.Fee { return r.fee }

// ensure rejects a request whose deadline has passed.
func (r *Router) ensure(deadline time.Time) error {
	if now := r.now(); now.After(deadline) {
		return fmt.Errorf("%w: deadline %s passed at %s", ErrExpired, deadline.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}
	return nil
}

// ensurePath applies the deadline check and then the path checks.
func (r *Router) ensurePath(deadline time.Time, path []common.Address) error {
	if err := r.ensure(deadline); err != nil {
		return err
	}
	return uniswapv2.ValidatePath(path)
}

// execute runs fn as one unit of work once check has passed.
func execute[T any](ctx context.Context, r *Router, op string, caller common.Address, check error, fn func() (T, error)) (T, error) {
	start := time.Now()
	var res T
	err := check
	if err == nil {
		err = r.settle.Atomic(ctx, func() error {
			var err error
			res, err = fn()
			return err
		})
	}
	r.metrics.Observe(op, start, err)
	if err != nil {
		r.logger.Debug("router operation failed", "op", op, "caller", caller.Hex(), "err", err)
		var zero T
		return zero, err
	}
	r.logger.Debug("router operation settled", "op", op, "caller", caller.Hex())
	return res, nil
}

// GetReserves returns the reserves of the tokenA/tokenB pair in the
// requested order. It makes the router a uniswapv2.ReserveSource.
func (r *Router) GetReserves(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	var reserveA, reserveB *big.Int
	err := r.settle.Atomic(ctx, func() error {
		var err error
		reserveA, reserveB, err = r.reserves(tokenA, tokenB)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return reserveA, reserveB, nil
}

// reserves is GetReserves for callers already inside a unit of work.
func (r *Router) reserves(tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	pair, err := r.pairFor(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	reserveA, reserveB := reservesFor(pair, tokenA)
	return reserveA, reserveB, nil
}

// unitReserves serves reserves to the path pricers while a unit of work
// holds the settlement lock.
type unitReserves struct{ r *Router }

func (u unitReserves) GetReserves(_ context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	return u.r.reserves(tokenA, tokenB)
}

func (r *Router) pairFor(tokenA, tokenB common.Address) (contracts.Pair, error) {
	pair, ok := r.registry.GetPair(tokenA, tokenB)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrPairNotFound, tokenA.Hex(), tokenB.Hex())
	}
	return pair, nil
}

func (r *Router) token(addr common.Address) (contracts.Token, error) {
	t, err := r.tokens.Token(addr)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", addr.Hex(), err)
	}
	return t, nil
}

func (r *Router) requireNative() error {
	if r.native == nil {
		return ErrNativeUnsupported
	}
	return nil
}

// reservesFor orients the pair reserves so that reserveA belongs to tokenA.
func reservesFor(pair contracts.Pair, tokenA common.Address) (reserveA, reserveB *big.Int) {
	reserve0, reserve1, _ := pair.GetReserves()
	if tokenA == pair.Token0() {
		return reserve0, reserve1
	}
	return reserve1, reserve0
}

// outputsFor maps an output amount of the hop starting at input onto the
// pair's (amount0Out, amount1Out).
func outputsFor(pair contracts.Pair, input common.Address, amountOut *big.Int) (amount0Out, amount1Out *big.Int) {
	if input == pair.Token0() {
		return new(big.Int), amountOut
	}
	return amountOut, new(big.Int)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// Quote returns the amount of tokenB equivalent to amountA at the given
// reserves.
func (r *Router) Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	return uniswapv2.Quote(amountA, reserveA, reserveB)
}

// GetAmountOut prices a single hop for an exact input.
func (r *Router) GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return r.fee.AmountOut(amountIn, reserveIn, reserveOut)
}

// GetAmountIn prices a single hop for an exact output.
func (r *Router) GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return r.fee.AmountIn(amountOut, reserveIn, reserveOut)
}

// GetAmountsOut prices path for an exact input against current reserves.
func (r *Router) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	var amounts []*big.Int
	err := r.settle.Atomic(ctx, func() error {
		var err error
		amounts, err = r.fee.AmountsOut(ctx, unitReserves{r}, amountIn, path)
		return err
	})
	return amounts, err
}

// GetAmountsIn prices path for an exact output against current reserves.
func (r *Router) GetAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	var amounts []*big.Int
	err := r.settle.Atomic(ctx, func() error {
		var err error
		amounts, err = r.fee.AmountsIn(ctx, unitReserves{r}, amountOut, path)
		return err
	})
	return amounts, err
}
