package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SwapExactInParams sells exactly AmountIn of Path[0]. For the native entry
// points AmountIn is the native value attached to the call.
type SwapExactInParams struct {
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Path         []common.Address
	To           common.Address
	Deadline     time.Time
}

// SwapExactOutParams buys exactly AmountOut of the last token in Path. For
// SwapNativeForExactTokens AmountInMax is the native value attached to the
// call and the unspent part is refunded.
type SwapExactOutParams struct {
	AmountOut   *big.Int
	AmountInMax *big.Int
	Path        []common.Address
	To          common.Address
	Deadline    time.Time
}

const (
	opSwapExactTokensForTokens    = "swap_exact_tokens_for_tokens"
	opSwapTokensForExactTokens    = "swap_tokens_for_exact_tokens"
	opSwapExactNativeForTokens    = "swap_exact_native_for_tokens"
	opSwapTokensForExactNative    = "swap_tokens_for_exact_native"
	opSwapExactTokensForNative    = "swap_exact_tokens_for_native"
	opSwapNativeForExactTokens    = "swap_native_for_exact_tokens"
	opSwapExactTokensForTokensFoT = "swap_exact_tokens_for_tokens_fot"
	opSwapExactNativeForTokensFoT = "swap_exact_native_for_tokens_fot"
	opSwapExactTokensForNativeFoT = "swap_exact_tokens_for_native_fot"
)

// SwapExactTokensForTokens sells p.AmountIn of p.Path[0] along the path and
// returns the amount flowing through every hop.
func (r *Router) SwapExactTokensForTokens(ctx context.Context, caller common.Address, p SwapExactInParams) ([]*big.Int, error) {
	check := r.ensurePath(p.Deadline, p.Path)
	return execute(ctx, r, opSwapExactTokensForTokens, caller, check, func() ([]*big.Int, error) {
		amounts, err := r.quoteExactIn(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := r.pullToFirstPair(caller, p.Path, amounts[0]); err != nil {
			return nil, err
		}
		return amounts, r.swap(amounts, p.Path, p.To)
	})
}

// SwapTokensForExactTokens buys p.AmountOut of the last path token, spending
// at most p.AmountInMax of p.Path[0].
func (r *Router) SwapTokensForExactTokens(ctx context.Context, caller common.Address, p SwapExactOutParams) ([]*big.Int, error) {
	check := r.ensurePath(p.Deadline, p.Path)
	return execute(ctx, r, opSwapTokensForExactTokens, caller, check, func() ([]*big.Int, error) {
		amounts, err := r.quoteExactOut(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := r.pullToFirstPair(caller, p.Path, amounts[0]); err != nil {
			return nil, err
		}
		return amounts, r.swap(amounts, p.Path, p.To)
	})
}

// SwapExactNativeForTokens sells the attached native value. The path must
// start with the wrapped native token.
func (r *Router) SwapExactNativeForTokens(ctx context.Context, caller common.Address, p SwapExactInParams) ([]*big.Int, error) {
	check := r.nativePathCheck(p.Deadline, p.Path, true)
	return execute(ctx, r, opSwapExactNativeForTokens, caller, check, func() ([]*big.Int, error) {
		amounts, err := r.quoteExactIn(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := r.wrapToFirstPair(caller, p.Path, amounts[0]); err != nil {
			return nil, err
		}
		return amounts, r.swap(amounts, p.Path, p.To)
	})
}

// SwapTokensForExactNative buys p.AmountOut of native value. The path must
// end with the wrapped native token.
func (r *Router) SwapTokensForExactNative(ctx context.Context, caller common.Address, p SwapExactOutParams) ([]*big.Int, error) {
	check := r.nativePathCheck(p.Deadline, p.Path, false)
	return execute(ctx, r, opSwapTokensForExactNative, caller, check, func() ([]*big.Int, error) {
		amounts, err := r.quoteExactOut(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := r.pullToFirstPair(caller, p.Path, amounts[0]); err != nil {
			return nil, err
		}
		if err := r.swap(amounts, p.Path, r.address); err != nil {
			return nil, err
		}
		return amounts, r.unwrapTo(p.To, amounts[len(amounts)-1])
	})
}

// SwapExactTokensForNative sells p.AmountIn of p.Path[0] for native value.
// The path must end with the wrapped native token.
func (r *Router) SwapExactTokensForNative(ctx context.Context, caller common.Address, p SwapExactInParams) ([]*big.Int, error) {
	check := r.nativePathCheck(p.Deadline, p.Path, false)
	return execute(ctx, r, opSwapExactTokensForNative, caller, check, func() ([]*big.Int, error) {
		amounts, err := r.quoteExactIn(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := r.pullToFirstPair(caller, p.Path, amounts[0]); err != nil {
			return nil, err
		}
		if err := r.swap(amounts, p.Path, r.address); err != nil {
			return nil, err
		}
		return amounts, r.unwrapTo(p.To, amounts[len(amounts)-1])
	})
}

// SwapNativeForExactTokens buys p.AmountOut of the last path token with the
// attached native value p.AmountInMax and refunds what was not spent.
func (r *Router) SwapNativeForExactTokens(ctx context.Context, caller common.Address, p SwapExactOutParams) ([]*big.Int, error) {
	check := r.nativePathCheck(p.Deadline, p.Path, true)
	return execute(ctx, r, opSwapNativeForExactTokens, caller, check, func() ([]*big.Int, error) {
		amounts, err := r.quoteExactOut(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := r.receiveNative(caller, p.AmountInMax); err != nil {
			return nil, err
		}
		pair, err := r.pairFor(p.Path[0], p.Path[1])
		if err != nil {
			return nil, err
		}
		if err := r.wrapTo(pair.Address(), amounts[0]); err != nil {
			return nil, err
		}
		if err := r.swap(amounts, p.Path, p.To); err != nil {
			return nil, err
		}
		return amounts, r.refundNative(caller, new(big.Int).Sub(p.AmountInMax, amounts[0]))
	})
}

// SwapExactTokensForTokensSupportingFeeOnTransfer sells p.AmountIn of
// p.Path[0] when any token on the path may charge a fee on transfer. Each
// hop is priced from what its pair actually received, and the floor is
// checked against what p.To actually received, which is returned.
func (r *Router) SwapExactTokensForTokensSupportingFeeOnTransfer(ctx context.Context, caller common.Address, p SwapExactInParams) (*big.Int, error) {
	check := r.ensurePath(p.Deadline, p.Path)
	return execute(ctx, r, opSwapExactTokensForTokensFoT, caller, check, func() (*big.Int, error) {
		if err := r.pullToFirstPair(caller, p.Path, p.AmountIn); err != nil {
			return nil, err
		}
		return r.swapMeasured(p.Path, p.To, p.AmountOutMin)
	})
}

// SwapExactNativeForTokensSupportingFeeOnTransfer is the native-in form of
// SwapExactTokensForTokensSupportingFeeOnTransfer.
func (r *Router) SwapExactNativeForTokensSupportingFeeOnTransfer(ctx context.Context, caller common.Address, p SwapExactInParams) (*big.Int, error) {
	check := r.nativePathCheck(p.Deadline, p.Path, true)
	return execute(ctx, r, opSwapExactNativeForTokensFoT, caller, check, func() (*big.Int, error) {
		if err := r.wrapToFirstPair(caller, p.Path, p.AmountIn); err != nil {
			return nil, err
		}
		return r.swapMeasured(p.Path, p.To, p.AmountOutMin)
	})
}

// SwapExactTokensForNativeSupportingFeeOnTransfer is the native-out form of
// SwapExactTokensForTokensSupportingFeeOnTransfer.
func (r *Router) SwapExactTokensForNativeSupportingFeeOnTransfer(ctx context.Context, caller common.Address, p SwapExactInParams) (*big.Int, error) {
	check := r.nativePathCheck(p.Deadline, p.Path, false)
	return execute(ctx, r, opSwapExactTokensForNativeFoT, caller, check, func() (*big.Int, error) {
		if err := r.pullToFirstPair(caller, p.Path, p.AmountIn); err != nil {
			return nil, err
		}
		out, err := r.swapMeasured(p.Path, r.address, p.AmountOutMin)
		if err != nil {
			return nil, err
		}
		return out, r.unwrapTo(p.To, out)
	})
}

// nativePathCheck applies the guard and requires the wrapped native token at
// the head of the path when in is set, or at its tail otherwise.
func (r *Router) nativePathCheck(deadline time.Time, path []common.Address, in bool) error {
	if err := r.requireNative(); err != nil {
		return err
	}
	if err := r.ensurePath(deadline, path); err != nil {
		return err
	}
	end, where := path[len(path)-1], "end"
	if in {
		end, where = path[0], "start"
	}
	if end != r.native.Address() {
		return fmt.Errorf("%w: wrapped native %s expected at the %s of the path", ErrInvalidPath, r.native.Address().Hex(), where)
	}
	return nil
}

func (r *Router) quoteExactIn(ctx context.Context, p SwapExactInParams) ([]*big.Int, error) {
	amounts, err := r.fee.AmountsOut(ctx, unitReserves{r}, p.AmountIn, p.Path)
	if err != nil {
		return nil, err
	}
	out, floor := amounts[len(amounts)-1], orZero(p.AmountOutMin)
	if out.Cmp(floor) < 0 {
		return nil, fmt.Errorf("%w: got %s, min %s", ErrInsufficientOutputAmount, out, floor)
	}
	return amounts, nil
}

func (r *Router) quoteExactOut(ctx context.Context, p SwapExactOutParams) ([]*big.Int, error) {
	amounts, err := r.fee.AmountsIn(ctx, unitReserves{r}, p.AmountOut, p.Path)
	if err != nil {
		return nil, err
	}
	if p.AmountInMax == nil || amounts[0].Cmp(p.AmountInMax) > 0 {
		return nil, fmt.Errorf("%w: need %s, max %v", ErrExcessiveInputAmount, amounts[0], p.AmountInMax)
	}
	return amounts, nil
}

func (r *Router) pullToFirstPair(caller common.Address, path []common.Address, amount *big.Int) error {
	pair, err := r.pairFor(path[0], path[1])
	if err != nil {
		return err
	}
	return r.pull(path[0], caller, pair.Address(), amount)
}

// wrapToFirstPair takes the attached value, wraps it and funds the first
// pair.
func (r *Router) wrapToFirstPair(caller common.Address, path []common.Address, value *big.Int) error {
	pair, err := r.pairFor(path[0], path[1])
	if err != nil {
		return err
	}
	if err := r.receiveNative(caller, value); err != nil {
		return err
	}
	return r.wrapTo(pair.Address(), value)
}

// hopRecipient is the pair of the hop after i, or to on the last hop.
func (r *Router) hopRecipient(path []common.Address, i int, to common.Address) (common.Address, error) {
	if i >= len(path)-2 {
		return to, nil
	}
	next, err := r.pairFor(path[i+1], path[i+2])
	if err != nil {
		return common.Address{}, err
	}
	return next.Address(), nil
}

// swap executes every hop with precomputed amounts. The first pair must
// already hold amounts[0].
func (r *Router) swap(amounts []*big.Int, path []common.Address, to common.Address) error {
	for i := 0; i < len(path)-1; i++ {
		input, output := path[i], path[i+1]
		pair, err := r.pairFor(input, output)
		if err != nil {
			return err
		}
		dst, err := r.hopRecipient(path, i, to)
		if err != nil {
			return err
		}
		amount0Out, amount1Out := outputsFor(pair, input, amounts[i+1])
		if err := pair.Swap(amount0Out, amount1Out, dst); err != nil {
			return fmt.Errorf("hop %d swap: %w", i, err)
		}
	}
	return nil
}

// swapMeasured executes every hop pricing the input from the pair's balance
// above its reserve. It returns the increase in to's balance of the last
// path token, which must reach floor.
func (r *Router) swapMeasured(path []common.Address, to common.Address, floor *big.Int) (*big.Int, error) {
	last, err := r.token(path[len(path)-1])
	if err != nil {
		return nil, err
	}
	before := last.BalanceOf(to)
	for i := 0; i < len(path)-1; i++ {
		input, output := path[i], path[i+1]
		pair, err := r.pairFor(input, output)
		if err != nil {
			return nil, err
		}
		token, err := r.token(input)
		if err != nil {
			return nil, err
		}
		reserveIn, reserveOut := reservesFor(pair, input)
		amountIn := new(big.Int).Sub(token.BalanceOf(pair.Address()), reserveIn)
		amountOut, err := r.fee.AmountOut(amountIn, reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		dst, err := r.hopRecipient(path, i, to)
		if err != nil {
			return nil, err
		}
		amount0Out, amount1Out := outputsFor(pair, input, amountOut)
		if err := pair.Swap(amount0Out, amount1Out, dst); err != nil {
			return nil, fmt.Errorf("hop %d swap: %w", i, err)
		}
	}
	received := new(big.Int).Sub(last.BalanceOf(to), before)
	if floor = orZero(floor); received.Cmp(floor) < 0 {
		return nil, fmt.Errorf("%w: got %s, min %s", ErrInsufficientOutputAmount, received, floor)
	}
	return received, nil
}
