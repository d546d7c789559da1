package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Reswap-DEX/reswap-periphery/internal/contracts"
)

// MinimumLiquidity is locked forever on the first mint so that the share
// price can never be driven to zero.
const MinimumLiquidity = 1000

var (
	maxReserve = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))
	q112       = new(big.Int).Lsh(big.NewInt(1), 112)
)

// Pair is a constant-product pool over token0 and token1. The embedded
// ERC20 is its liquidity token.
type Pair struct {
	*ERC20
	factory *Factory
	token0  contracts.Token
	token1  contracts.Token

	reserve0           *big.Int
	reserve1           *big.Int
	blockTimestampLast uint32

	price0CumulativeLast *big.Int
	price1CumulativeLast *big.Int
	kLast                *big.Int

	locked bool
}

func newPair(f *Factory, addr common.Address, token0, token1 contracts.Token) *Pair {
	return &Pair{
		ERC20:                newERC20(f.state, addr, "Reswap V2"),
		factory:              f,
		token0:               token0,
		token1:               token1,
		reserve0:             new(big.Int),
		reserve1:             new(big.Int),
		price0CumulativeLast: new(big.Int),
		price1CumulativeLast: new(big.Int),
		kLast:                new(big.Int),
	}
}

func (p *Pair) Token0() common.Address { return p.token0.Address() }
func (p *Pair) Token1() common.Address { return p.token1.Address() }

func (p *Pair) GetReserves() (*big.Int, *big.Int, uint32) {
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1), p.blockTimestampLast
}

// PriceCumulativeLast returns the UQ112x112 time-weighted price
// accumulators.
func (p *Pair) PriceCumulativeLast() (price0, price1 *big.Int) {
	return new(big.Int).Set(p.price0CumulativeLast), new(big.Int).Set(p.price1CumulativeLast)
}

// KLast is reserve0*reserve1 as of the last liquidity event while the
// protocol fee is on.
func (p *Pair) KLast() *big.Int { return new(big.Int).Set(p.kLast) }

func (p *Pair) guarded(fn func() error) error {
	if p.locked {
		return ErrLocked
	}
	return p.state.nested(func() error {
		setField(p.state, &p.locked, true)
		if err := fn(); err != nil {
			return err
		}
		setField(p.state, &p.locked, false)
		return nil
	})
}

func (p *Pair) Mint(to common.Address) (liquidity *big.Int, err error) {
	err = p.guarded(func() error {
		balance0 := p.token0.BalanceOf(p.addr)
		balance1 := p.token1.BalanceOf(p.addr)
		amount0 := new(big.Int).Sub(balance0, p.reserve0)
		amount1 := new(big.Int).Sub(balance1, p.reserve1)

		feeOn, err := p.mintFee(p.reserve0, p.reserve1)
		if err != nil {
			return err
		}
		totalSupply := p.TotalSupply()
		if totalSupply.Sign() == 0 {
			if amount0.Sign() < 0 || amount1.Sign() < 0 {
				return ErrInsufficientLiquidityMinted
			}
			liquidity = new(big.Int).Mul(amount0, amount1)
			liquidity.Sqrt(liquidity)
			liquidity.Sub(liquidity, big.NewInt(MinimumLiquidity))
			if liquidity.Sign() > 0 {
				if err := p.mint(common.Address{}, uint256.NewInt(MinimumLiquidity)); err != nil {
					return err
				}
			}
		} else {
			l0 := new(big.Int).Mul(amount0, totalSupply)
			l0.Quo(l0, p.reserve0)
			l1 := new(big.Int).Mul(amount1, totalSupply)
			l1.Quo(l1, p.reserve1)
			liquidity = l0
			if l1.Cmp(l0) < 0 {
				liquidity = l1
			}
		}
		if liquidity.Sign() <= 0 {
			return ErrInsufficientLiquidityMinted
		}
		if err := p.mintShares(to, liquidity); err != nil {
			return err
		}
		if err := p.update(balance0, balance1); err != nil {
			return err
		}
		if feeOn {
			setField(p.state, &p.kLast, new(big.Int).Mul(p.reserve0, p.reserve1))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return liquidity, nil
}

func (p *Pair) Burn(to common.Address) (amount0, amount1 *big.Int, err error) {
	err = p.guarded(func() error {
		balance0 := p.token0.BalanceOf(p.addr)
		balance1 := p.token1.BalanceOf(p.addr)
		liquidity := p.BalanceOf(p.addr)

		feeOn, err := p.mintFee(p.reserve0, p.reserve1)
		if err != nil {
			return err
		}
		totalSupply := p.TotalSupply()
		if totalSupply.Sign() == 0 {
			return ErrInsufficientLiquidityBurned
		}
		amount0 = new(big.Int).Mul(liquidity, balance0)
		amount0.Quo(amount0, totalSupply)
		amount1 = new(big.Int).Mul(liquidity, balance1)
		amount1.Quo(amount1, totalSupply)
		if amount0.Sign() <= 0 || amount1.Sign() <= 0 {
			return ErrInsufficientLiquidityBurned
		}
		v, err := toU256(liquidity)
		if err != nil {
			return err
		}
		if err := p.burn(p.addr, v); err != nil {
			return err
		}
		if err := p.token0.Transfer(p.addr, to, amount0); err != nil {
			return fmt.Errorf("transfer token0: %w", err)
		}
		if err := p.token1.Transfer(p.addr, to, amount1); err != nil {
			return fmt.Errorf("transfer token1: %w", err)
		}
		if err := p.update(p.token0.BalanceOf(p.addr), p.token1.BalanceOf(p.addr)); err != nil {
			return err
		}
		if feeOn {
			setField(p.state, &p.kLast, new(big.Int).Mul(p.reserve0, p.reserve1))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// Swap sends the requested outputs to `to` first and then checks that the
// balances left behind, net of the fee on whatever came in, keep
// reserve0*reserve1 from decreasing.
func (p *Pair) Swap(amount0Out, amount1Out *big.Int, to common.Address) error {
	if amount0Out == nil || amount1Out == nil || amount0Out.Sign() < 0 || amount1Out.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount0Out.Sign() == 0 && amount1Out.Sign() == 0 {
		return ErrInsufficientOutputAmount
	}
	return p.guarded(func() error {
		reserve0, reserve1 := p.reserve0, p.reserve1
		if amount0Out.Cmp(reserve0) >= 0 || amount1Out.Cmp(reserve1) >= 0 {
			return ErrInsufficientLiquidity
		}
		if to == p.Token0() || to == p.Token1() {
			return ErrInvalidTo
		}
		if amount0Out.Sign() > 0 {
			if err := p.token0.Transfer(p.addr, to, amount0Out); err != nil {
				return fmt.Errorf("transfer token0: %w", err)
			}
		}
		if amount1Out.Sign() > 0 {
			if err := p.token1.Transfer(p.addr, to, amount1Out); err != nil {
				return fmt.Errorf("transfer token1: %w", err)
			}
		}
		balance0 := p.token0.BalanceOf(p.addr)
		balance1 := p.token1.BalanceOf(p.addr)

		amount0In := amountIn(balance0, reserve0, amount0Out)
		amount1In := amountIn(balance1, reserve1, amount1Out)
		if amount0In.Sign() == 0 && amount1In.Sign() == 0 {
			return ErrInsufficientInputAmount
		}

		fee := p.factory.fee
		den := new(big.Int).SetUint64(fee.Denominator)
		cut := new(big.Int).SetUint64(fee.Denominator - fee.Numerator)
		adjusted0 := new(big.Int).Mul(balance0, den)
		adjusted0.Sub(adjusted0, new(big.Int).Mul(amount0In, cut))
		adjusted1 := new(big.Int).Mul(balance1, den)
		adjusted1.Sub(adjusted1, new(big.Int).Mul(amount1In, cut))

		kAfter := new(big.Int).Mul(adjusted0, adjusted1)
		kBefore := new(big.Int).Mul(reserve0, reserve1)
		kBefore.Mul(kBefore, new(big.Int).Mul(den, den))
		if kAfter.Cmp(kBefore) < 0 {
			return ErrK
		}
		return p.update(balance0, balance1)
	})
}

// amountIn is how much of a token arrived beyond what the pair still owes:
// balance - (reserve - out), floored at zero.
func amountIn(balance, reserve, out *big.Int) *big.Int {
	owed := new(big.Int).Sub(reserve, out)
	if balance.Cmp(owed) <= 0 {
		return new(big.Int)
	}
	return owed.Sub(balance, owed)
}

// Skim sends any balance in excess of the reserves to `to`.
func (p *Pair) Skim(to common.Address) error {
	return p.guarded(func() error {
		excess0 := new(big.Int).Sub(p.token0.BalanceOf(p.addr), p.reserve0)
		excess1 := new(big.Int).Sub(p.token1.BalanceOf(p.addr), p.reserve1)
		if excess0.Sign() > 0 {
			if err := p.token0.Transfer(p.addr, to, excess0); err != nil {
				return err
			}
		}
		if excess1.Sign() > 0 {
			if err := p.token1.Transfer(p.addr, to, excess1); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sync sets the reserves to the current balances.
func (p *Pair) Sync() error {
	return p.guarded(func() error {
		return p.update(p.token0.BalanceOf(p.addr), p.token1.BalanceOf(p.addr))
	})
}

func (p *Pair) mintShares(to common.Address, amount *big.Int) error {
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	return p.mint(to, v)
}

func (p *Pair) update(balance0, balance1 *big.Int) error {
	if balance0.Cmp(maxReserve) > 0 || balance1.Cmp(maxReserve) > 0 {
		return fmt.Errorf("%w: reserves exceed uint112", ErrOverflow)
	}
	now := uint32(p.state.Now().Unix())
	elapsed := now - p.blockTimestampLast
	if elapsed > 0 && p.reserve0.Sign() != 0 && p.reserve1.Sign() != 0 {
		e := new(big.Int).SetUint64(uint64(elapsed))
		price0 := new(big.Int).Mul(p.reserve1, q112)
		price0.Quo(price0, p.reserve0).Mul(price0, e)
		price1 := new(big.Int).Mul(p.reserve0, q112)
		price1.Quo(price1, p.reserve1).Mul(price1, e)
		setField(p.state, &p.price0CumulativeLast, new(big.Int).Add(p.price0CumulativeLast, price0))
		setField(p.state, &p.price1CumulativeLast, new(big.Int).Add(p.price1CumulativeLast, price1))
	}
	setField(p.state, &p.reserve0, new(big.Int).Set(balance0))
	setField(p.state, &p.reserve1, new(big.Int).Set(balance1))
	setField(p.state, &p.blockTimestampLast, now)
	return nil
}

// mintFee mints the protocol's 1/6 share of the growth in sqrt(k) since
// the last liquidity event.
func (p *Pair) mintFee(reserve0, reserve1 *big.Int) (bool, error) {
	feeTo := p.factory.FeeTo()
	feeOn := feeTo != (common.Address{})
	if !feeOn {
		if p.kLast.Sign() != 0 {
			setField(p.state, &p.kLast, new(big.Int))
		}
		return false, nil
	}
	if p.kLast.Sign() == 0 {
		return true, nil
	}
	rootK := new(big.Int).Mul(reserve0, reserve1)
	rootK.Sqrt(rootK)
	rootKLast := new(big.Int).Sqrt(p.kLast)
	if rootK.Cmp(rootKLast) <= 0 {
		return true, nil
	}
	numerator := new(big.Int).Sub(rootK, rootKLast)
	numerator.Mul(numerator, p.TotalSupply())
	denominator := new(big.Int).Mul(rootK, big.NewInt(5))
	denominator.Add(denominator, rootKLast)
	liquidity := numerator.Quo(numerator, denominator)
	if liquidity.Sign() > 0 {
		if err := p.mintShares(feeTo, liquidity); err != nil {
			return true, err
		}
	}
	return true, nil
}
