package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/Reswap-DEX/reswap-periphery/internal/contracts"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// AddLiquidityParams describes a two-token deposit. The desired amounts are
// upper bounds; the mins are the slippage floor for the amounts actually
// deposited.
type AddLiquidityParams struct {
	TokenA         common.Address
	TokenB         common.Address
	AmountADesired *big.Int
	AmountBDesired *big.Int
	AmountAMin     *big.Int
	AmountBMin     *big.Int
	To             common.Address
	Deadline       time.Time
}

// AddLiquidityNativeParams deposits Token against the native asset. Value is
// the native amount attached to the call and doubles as the desired native
// amount; whatever the pool ratio leaves unused is refunded.
type AddLiquidityNativeParams struct {
	Token              common.Address
	AmountTokenDesired *big.Int
	AmountTokenMin     *big.Int
	AmountNativeMin    *big.Int
	Value              *big.Int
	To                 common.Address
	Deadline           time.Time
}

// LiquidityResult reports the amounts deposited and the liquidity minted.
type LiquidityResult struct {
	AmountA   *big.Int
	AmountB   *big.Int
	Liquidity *big.Int
}

// RemoveLiquidityParams burns Liquidity shares of the TokenA/TokenB pair.
type RemoveLiquidityParams struct {
	TokenA     common.Address
	TokenB     common.Address
	Liquidity  *big.Int
	AmountAMin *big.Int
	AmountBMin *big.Int
	To         common.Address
	Deadline   time.Time
}

// RemoveLiquidityNativeParams burns shares of the Token/native pair.
type RemoveLiquidityNativeParams struct {
	Token           common.Address
	Liquidity       *big.Int
	AmountTokenMin  *big.Int
	AmountNativeMin *big.Int
	To              common.Address
	Deadline        time.Time
}

// Permit is a signed approval of the router to spend the caller's liquidity
// shares. ApproveMax signs for the maximum allowance instead of the exact
// liquidity amount.
type Permit struct {
	ApproveMax bool
	Signature  []byte
}

// WithdrawResult reports what a removal paid out.
type WithdrawResult struct {
	AmountA *big.Int
	AmountB *big.Int
}

const (
	opAddLiquidity                     = "add_liquidity"
	opAddLiquidityNative               = "add_liquidity_native"
	opRemoveLiquidity                  = "remove_liquidity"
	opRemoveLiquidityNative            = "remove_liquidity_native"
	opRemoveLiquidityWithPermit        = "remove_liquidity_with_permit"
	opRemoveLiquidityNativeWithPermit  = "remove_liquidity_native_with_permit"
	opRemoveLiquidityNativeFoT         = "remove_liquidity_native_fot"
	opRemoveLiquidityNativeWithPermitF = "remove_liquidity_native_with_permit_fot"
)

// depositAmounts picks the amounts to deposit so that they match the pair's
// current price, creating the pair on first use.
func (r *Router) depositAmounts(tokenA, tokenB common.Address, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int) (contracts.Pair, *big.Int, *big.Int, error) {
	pair, ok := r.registry.GetPair(tokenA, tokenB)
	if !ok {
		var err error
		if pair, err = r.registry.CreatePair(tokenA, tokenB); err != nil {
			return nil, nil, nil, fmt.Errorf("create pair: %w", err)
		}
	}
	if amountADesired == nil || amountBDesired == nil {
		return nil, nil, nil, ErrInsufficientAmount
	}
	amountAMin, amountBMin = orZero(amountAMin), orZero(amountBMin)

	reserveA, reserveB := reservesFor(pair, tokenA)
	if reserveA.Sign() == 0 && reserveB.Sign() == 0 {
		return pair, amountADesired, amountBDesired, nil
	}
	amountBOptimal, err := uniswapv2.Quote(amountADesired, reserveA, reserveB)
	if err != nil {
		return nil, nil, nil, err
	}
	if amountBOptimal.Cmp(amountBDesired) <= 0 {
		if amountBOptimal.Cmp(amountBMin) < 0 {
			return nil, nil, nil, fmt.Errorf("%w: got %s, min %s", ErrInsufficientBAmount, amountBOptimal, amountBMin)
		}
		return pair, amountADesired, amountBOptimal, nil
	}
	amountAOptimal, err := uniswapv2.Quote(amountBDesired, reserveB, reserveA)
	if err != nil {
		return nil, nil, nil, err
	}
	// amountAOptimal <= amountADesired holds whenever amountBOptimal overshot.
	if amountAOptimal.Cmp(amountADesired) > 0 {
		return nil, nil, nil, fmt.Errorf("%w: optimal A %s above desired %s", ErrInsufficientAAmount, amountAOptimal, amountADesired)
	}
	if amountAOptimal.Cmp(amountAMin) < 0 {
		return nil, nil, nil, fmt.Errorf("%w: got %s, min %s", ErrInsufficientAAmount, amountAOptimal, amountAMin)
	}
	return pair, amountAOptimal, amountBDesired, nil
}

// AddLiquidity deposits tokenA and tokenB from caller at the pair's current
// ratio and mints liquidity to p.To. The router must be approved for both
// tokens.
func (r *Router) AddLiquidity(ctx context.Context, caller common.Address, p AddLiquidityParams) (LiquidityResult, error) {
	check := r.ensurePath(p.Deadline, []common.Address{p.TokenA, p.TokenB})
	return execute(ctx, r, opAddLiquidity, caller, check, func() (LiquidityResult, error) {
		pair, amountA, amountB, err := r.depositAmounts(p.TokenA, p.TokenB, p.AmountADesired, p.AmountBDesired, p.AmountAMin, p.AmountBMin)
		if err != nil {
			return LiquidityResult{}, err
		}
		if err := r.pull(p.TokenA, caller, pair.Address(), amountA); err != nil {
			return LiquidityResult{}, err
		}
		if err := r.pull(p.TokenB, caller, pair.Address(), amountB); err != nil {
			return LiquidityResult{}, err
		}
		liquidity, err := pair.Mint(p.To)
		if err != nil {
			return LiquidityResult{}, fmt.Errorf("mint: %w", err)
		}
		return LiquidityResult{AmountA: amountA, AmountB: amountB, Liquidity: liquidity}, nil
	})
}

// AddLiquidityNative is AddLiquidity with the native asset on one side. In
// the result AmountA is the token amount and AmountB the native amount.
func (r *Router) AddLiquidityNative(ctx context.Context, caller common.Address, p AddLiquidityNativeParams) (LiquidityResult, error) {
	check := r.requireNative()
	if check == nil {
		check = r.ensurePath(p.Deadline, []common.Address{p.Token, r.native.Address()})
	}
	return execute(ctx, r, opAddLiquidityNative, caller, check, func() (LiquidityResult, error) {
		pair, amountToken, amountNative, err := r.depositAmounts(p.Token, r.native.Address(), p.AmountTokenDesired, p.Value, p.AmountTokenMin, p.AmountNativeMin)
		if err != nil {
			return LiquidityResult{}, err
		}
		if err := r.pull(p.Token, caller, pair.Address(), amountToken); err != nil {
			return LiquidityResult{}, err
		}
		if err := r.receiveNative(caller, p.Value); err != nil {
			return LiquidityResult{}, err
		}
		if err := r.wrapTo(pair.Address(), amountNative); err != nil {
			return LiquidityResult{}, err
		}
		liquidity, err := pair.Mint(p.To)
		if err != nil {
			return LiquidityResult{}, fmt.Errorf("mint: %w", err)
		}
		if err := r.refundNative(caller, new(big.Int).Sub(p.Value, amountNative)); err != nil {
			return LiquidityResult{}, err
		}
		return LiquidityResult{AmountA: amountToken, AmountB: amountNative, Liquidity: liquidity}, nil
	})
}

// RemoveLiquidity burns caller's liquidity shares and pays both tokens to
// p.To. The router must be approved for the shares.
func (r *Router) RemoveLiquidity(ctx context.Context, caller common.Address, p RemoveLiquidityParams) (WithdrawResult, error) {
	check := r.ensurePath(p.Deadline, []common.Address{p.TokenA, p.TokenB})
	return execute(ctx, r, opRemoveLiquidity, caller, check, func() (WithdrawResult, error) {
		return r.removeLiquidity(caller, p)
	})
}

// RemoveLiquidityWithPermit is RemoveLiquidity authorised by a signed
// approval instead of a prior Approve.
func (r *Router) RemoveLiquidityWithPermit(ctx context.Context, caller common.Address, p RemoveLiquidityParams, permit Permit) (WithdrawResult, error) {
	check := r.ensurePath(p.Deadline, []common.Address{p.TokenA, p.TokenB})
	return execute(ctx, r, opRemoveLiquidityWithPermit, caller, check, func() (WithdrawResult, error) {
		if err := r.permit(caller, p.TokenA, p.TokenB, p.Liquidity, p.Deadline, permit); err != nil {
			return WithdrawResult{}, err
		}
		return r.removeLiquidity(caller, p)
	})
}

// RemoveLiquidityNative burns shares of the Token/native pair and pays out
// the token and unwrapped native value. In the result AmountA is the token
// amount and AmountB the native amount.
func (r *Router) RemoveLiquidityNative(ctx context.Context, caller common.Address, p RemoveLiquidityNativeParams) (WithdrawResult, error) {
	check := r.nativeRemovalCheck(p)
	return execute(ctx, r, opRemoveLiquidityNative, caller, check, func() (WithdrawResult, error) {
		return r.removeLiquidityNative(caller, p)
	})
}

// RemoveLiquidityNativeWithPermit is RemoveLiquidityNative authorised by a
// signed approval.
func (r *Router) RemoveLiquidityNativeWithPermit(ctx context.Context, caller common.Address, p RemoveLiquidityNativeParams, permit Permit) (WithdrawResult, error) {
	check := r.nativeRemovalCheck(p)
	return execute(ctx, r, opRemoveLiquidityNativeWithPermit, caller, check, func() (WithdrawResult, error) {
		if err := r.permit(caller, p.Token, r.native.Address(), p.Liquidity, p.Deadline, permit); err != nil {
			return WithdrawResult{}, err
		}
		return r.removeLiquidityNative(caller, p)
	})
}

// RemoveLiquidityNativeSupportingFeeOnTransfer is RemoveLiquidityNative for
// tokens that charge a fee on transfer. The router forwards the token amount
// it actually received from the pair rather than the amount the pair
// computed. AmountA reports that received amount.
func (r *Router) RemoveLiquidityNativeSupportingFeeOnTransfer(ctx context.Context, caller common.Address, p RemoveLiquidityNativeParams) (WithdrawResult, error) {
	check := r.nativeRemovalCheck(p)
	return execute(ctx, r, opRemoveLiquidityNativeFoT, caller, check, func() (WithdrawResult, error) {
		return r.removeLiquidityNativeMeasured(caller, p)
	})
}

// RemoveLiquidityNativeWithPermitSupportingFeeOnTransfer combines the permit
// and fee-on-transfer variants.
func (r *Router) RemoveLiquidityNativeWithPermitSupportingFeeOnTransfer(ctx context.Context, caller common.Address, p RemoveLiquidityNativeParams, permit Permit) (WithdrawResult, error) {
	check := r.nativeRemovalCheck(p)
	return execute(ctx, r, opRemoveLiquidityNativeWithPermitF, caller, check, func() (WithdrawResult, error) {
		if err := r.permit(caller, p.Token, r.native.Address(), p.Liquidity, p.Deadline, permit); err != nil {
			return WithdrawResult{}, err
		}
		return r.removeLiquidityNativeMeasured(caller, p)
	})
}

func (r *Router) nativeRemovalCheck(p RemoveLiquidityNativeParams) error {
	if err := r.requireNative(); err != nil {
		return err
	}
	return r.ensurePath(p.Deadline, []common.Address{p.Token, r.native.Address()})
}

func (r *Router) removeLiquidity(caller common.Address, p RemoveLiquidityParams) (WithdrawResult, error) {
	pair, err := r.pairFor(p.TokenA, p.TokenB)
	if err != nil {
		return WithdrawResult{}, err
	}
	if err := pair.TransferFrom(r.address, caller, pair.Address(), p.Liquidity); err != nil {
		return WithdrawResult{}, fmt.Errorf("transfer liquidity: %w", err)
	}
	amount0, amount1, err := pair.Burn(p.To)
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("burn: %w", err)
	}
	amountA, amountB := amount0, amount1
	if p.TokenA != pair.Token0() {
		amountA, amountB = amount1, amount0
	}
	if minA := orZero(p.AmountAMin); amountA.Cmp(minA) < 0 {
		return WithdrawResult{}, fmt.Errorf("%w: got %s, min %s", ErrInsufficientAAmount, amountA, minA)
	}
	if minB := orZero(p.AmountBMin); amountB.Cmp(minB) < 0 {
		return WithdrawResult{}, fmt.Errorf("%w: got %s, min %s", ErrInsufficientBAmount, amountB, minB)
	}
	return WithdrawResult{AmountA: amountA, AmountB: amountB}, nil
}

func (r *Router) burnToRouter(caller common.Address, p RemoveLiquidityNativeParams) (WithdrawResult, error) {
	return r.removeLiquidity(caller, RemoveLiquidityParams{
		TokenA:     p.Token,
		TokenB:     r.native.Address(),
		Liquidity:  p.Liquidity,
		AmountAMin: p.AmountTokenMin,
		AmountBMin: p.AmountNativeMin,
		To:         r.address,
		Deadline:   p.Deadline,
	})
}

func (r *Router) removeLiquidityNative(caller common.Address, p RemoveLiquidityNativeParams) (WithdrawResult, error) {
	res, err := r.burnToRouter(caller, p)
	if err != nil {
		return WithdrawResult{}, err
	}
	if err := r.push(p.Token, p.To, res.AmountA); err != nil {
		return WithdrawResult{}, err
	}
	if err := r.unwrapTo(p.To, res.AmountB); err != nil {
		return WithdrawResult{}, err
	}
	return res, nil
}

func (r *Router) removeLiquidityNativeMeasured(caller common.Address, p RemoveLiquidityNativeParams) (WithdrawResult, error) {
	token, err := r.token(p.Token)
	if err != nil {
		return WithdrawResult{}, err
	}
	before := token.BalanceOf(r.address)
	res, err := r.burnToRouter(caller, p)
	if err != nil {
		return WithdrawResult{}, err
	}
	received := new(big.Int).Sub(token.BalanceOf(r.address), before)
	if err := token.Transfer(r.address, p.To, received); err != nil {
		return WithdrawResult{}, fmt.Errorf("transfer %s: %w", p.Token.Hex(), err)
	}
	if err := r.unwrapTo(p.To, res.AmountB); err != nil {
		return WithdrawResult{}, err
	}
	return WithdrawResult{AmountA: received, AmountB: res.AmountB}, nil
}

// permit records caller's signed approval of the router on the tokenA/tokenB
// pair.
func (r *Router) permit(caller, tokenA, tokenB common.Address, liquidity *big.Int, deadline time.Time, permit Permit) error {
	pair, err := r.pairFor(tokenA, tokenB)
	if err != nil {
		return err
	}
	value := liquidity
	if permit.ApproveMax {
		value = math.MaxBig256
	}
	if err := pair.Permit(caller, r.address, value, deadline, permit.Signature); err != nil {
		return fmt.Errorf("permit: %w", err)
	}
	return nil
}

// pull moves amount of token from owner to dst using the router's
// allowance.
func (r *Router) pull(tokenAddr, owner, dst common.Address, amount *big.Int) error {
	token, err := r.token(tokenAddr)
	if err != nil {
		return err
	}
	if err := token.TransferFrom(r.address, owner, dst, amount); err != nil {
		return fmt.Errorf("transfer %s from %s: %w", tokenAddr.Hex(), owner.Hex(), err)
	}
	return nil
}

// push pays amount of token out of the router.
func (r *Router) push(tokenAddr, to common.Address, amount *big.Int) error {
	token, err := r.token(tokenAddr)
	if err != nil {
		return err
	}
	if err := token.Transfer(r.address, to, amount); err != nil {
		return fmt.Errorf("transfer %s: %w", tokenAddr.Hex(), err)
	}
	return nil
}

// receiveNative takes the value attached to a call.
func (r *Router) receiveNative(caller common.Address, value *big.Int) error {
	if err := r.bank.TransferNative(caller, r.address, value); err != nil {
		return fmt.Errorf("attach native value: %w", err)
	}
	return nil
}

func (r *Router) refundNative(to common.Address, dust *big.Int) error {
	if dust.Sign() <= 0 {
		return nil
	}
	if err := r.bank.TransferNative(r.address, to, dust); err != nil {
		return fmt.Errorf("refund native: %w", err)
	}
	return nil
}

// wrapTo wraps amount of the router's native value and sends it to dst.
func (r *Router) wrapTo(dst common.Address, amount *big.Int) error {
	if err := r.native.Deposit(r.address, amount); err != nil {
		return fmt.Errorf("wrap: %w", err)
	}
	if err := r.native.Transfer(r.address, dst, amount); err != nil {
		return fmt.Errorf("transfer wrapped: %w", err)
	}
	return nil
}

// unwrapTo unwraps amount of the router's wrapped balance and sends the
// native value to `to`.
func (r *Router) unwrapTo(to common.Address, amount *big.Int) error {
	if err := r.native.Withdraw(r.address, amount); err != nil {
		return fmt.Errorf("unwrap: %w", err)
	}
	if err := r.bank.TransferNative(r.address, to, amount); err != nil {
		return fmt.Errorf("send native: %w", err)
	}
	return nil
}
