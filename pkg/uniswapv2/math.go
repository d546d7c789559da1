package uniswapv2

import "math/big"

// Fee is the proportional swap fee expressed as the share of the input that
// is kept for pricing: amountIn * Numerator / Denominator. The default
// 997/1000 is the 0.3% fee.
type Fee struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultFee is the 0.3% fee used by the V2 pair contracts.
var DefaultFee = Fee{Numerator: 997, Denominator: 1000}

// Validate reports whether the fee can be used for pricing.
func (f Fee) Validate() error {
	if f.Denominator == 0 || f.Numerator == 0 || f.Numerator > f.Denominator {
		return ErrInvalidFee
	}
	return nil
}

func (f Fee) num() *big.Int { return new(big.Int).SetUint64(f.Numerator) }
func (f Fee) den() *big.Int { return new(big.Int).SetUint64(f.Denominator) }

// Quote returns the amount of the other asset equivalent to amountA at the
// reserve ratio, rounded down.
func Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if !positive(amountA) {
		return nil, ErrInsufficientAmount
	}
	if !positive(reserveA) || !positive(reserveB) {
		return nil, ErrInsufficientLiquidity
	}
	out := new(big.Int).Mul(amountA, reserveB)
	return out.Quo(out, reserveA), nil
}

// AmountOutTo computes the fee-adjusted output for amountIn without argument
// checks. dst, t1 and t2 are caller-owned scratch values; dst is returned.
func (f Fee) AmountOutTo(dst, t1, t2 *big.Int, amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	// t1 = amountIn * feeNum
	t1.SetUint64(f.Numerator)
	t1.Mul(amountIn, t1)
	// t2 = reserveIn * feeDen + t1  (denominator)
	t2.SetUint64(f.Denominator)
	t2.Mul(reserveIn, t2)
	t2.Add(t2, t1)
	// dst = t1 * reserveOut / t2  (avoid aliasing z==y)
	dst.Mul(t1, reserveOut)
	return dst.Quo(dst, t2)
}

// AmountOut returns the maximum output for amountIn given the pair reserves.
func (f Fee) AmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if !positive(amountIn) {
		return nil, ErrInsufficientInputAmount
	}
	if !positive(reserveIn) || !positive(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}
	var t1, t2 big.Int
	return f.AmountOutTo(new(big.Int), &t1, &t2, amountIn, reserveIn, reserveOut), nil
}

// AmountIn returns the minimum input required to receive amountOut. The
// result is rounded up so the pair is never underpaid.
func (f Fee) AmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if !positive(amountOut) {
		return nil, ErrInsufficientOutputAmount
	}
	if !positive(reserveIn) || !positive(reserveOut) || amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, f.den())
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, f.num())
	in := numerator.Quo(numerator, denominator)
	return in.Add(in, big.NewInt(1)), nil
}

// GetAmountOut is AmountOut with the default fee.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return DefaultFee.AmountOut(amountIn, reserveIn, reserveOut)
}

// GetAmountIn is AmountIn with the default fee.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return DefaultFee.AmountIn(amountOut, reserveIn, reserveOut)
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
