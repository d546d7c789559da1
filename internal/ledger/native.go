package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WrappedNative is the token form of the native asset. Deposits lock native
// value in the contract and mint the same amount of tokens.
type WrappedNative struct {
	*ERC20
}

// DeployWrappedNative deploys the wrapped native token.
func (s *State) DeployWrappedNative(name string, opts ...TokenOption) *WrappedNative {
	w := &WrappedNative{ERC20: newERC20(s, s.newAddress(), name)}
	for _, opt := range opts {
		opt(w.ERC20)
	}
	s.register(w)
	return w
}

// Deposit wraps value of from's native balance.
func (w *WrappedNative) Deposit(from common.Address, value *big.Int) error {
	v, err := toU256(value)
	if err != nil {
		return err
	}
	return w.state.nested(func() error {
		if err := w.state.TransferNative(from, w.addr, value); err != nil {
			return err
		}
		return w.mint(from, v)
	})
}

// Withdraw unwraps amount of from's tokens back into native value.
func (w *WrappedNative) Withdraw(from common.Address, amount *big.Int) error {
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	return w.state.nested(func() error {
		if err := w.burn(from, v); err != nil {
			return err
		}
		return w.state.TransferNative(w.addr, from, amount)
	})
}
