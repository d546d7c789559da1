package ledger

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

var maxUint256 = new(uint256.Int).SetAllOne()

// ERC20 is a fungible token with EIP-2612 permits. A token built with
// WithTransferFee burns part of every transfer from the sender, so the
// recipient receives less than the requested amount.
type ERC20 struct {
	state    *State
	addr     common.Address
	name     string
	symbol   string
	decimals uint8
	feeNum   uint64
	feeDen   uint64
}

// TokenOption configures a deployed token.
type TokenOption func(*ERC20)

// WithSymbol sets the token symbol.
func WithSymbol(symbol string) TokenOption {
	return func(t *ERC20) { t.symbol = symbol }
}

// WithDecimals sets the display decimals.
func WithDecimals(decimals uint8) TokenOption {
	return func(t *ERC20) { t.decimals = decimals }
}

// WithTransferFee burns amount*num/den of every transfer.
func WithTransferFee(num, den uint64) TokenOption {
	return func(t *ERC20) { t.feeNum, t.feeDen = num, den }
}

// DeployToken deploys a token at the next deployer address and registers
// it with the state.
func (s *State) DeployToken(name string, opts ...TokenOption) *ERC20 {
	t := newERC20(s, s.newAddress(), name)
	for _, opt := range opts {
		opt(t)
	}
	s.register(t)
	return t
}

func newERC20(s *State, addr common.Address, name string) *ERC20 {
	return &ERC20{state: s, addr: addr, name: name, symbol: name, decimals: 18}
}

func (t *ERC20) Address() common.Address { return t.addr }
func (t *ERC20) Name() string            { return t.name }
func (t *ERC20) Symbol() string          { return t.symbol }
func (t *ERC20) Decimals() uint8         { return t.decimals }

// ChargesTransferFee reports whether transfers deliver less than requested.
func (t *ERC20) ChargesTransferFee() bool { return t.feeNum > 0 && t.feeDen > 0 }

func (t *ERC20) TotalSupply() *big.Int {
	return t.state.supply(t.addr).ToBig()
}

func (t *ERC20) BalanceOf(owner common.Address) *big.Int {
	return t.state.balance(t.addr, owner).ToBig()
}

func (t *ERC20) Allowance(owner, spender common.Address) *big.Int {
	return t.allowance(owner, spender).ToBig()
}

func (t *ERC20) allowance(owner, spender common.Address) *uint256.Int {
	if v, ok := t.state.allowances[approval{t.addr, owner, spender}]; ok {
		return v
	}
	return new(uint256.Int)
}

func (t *ERC20) Approve(owner, spender common.Address, amount *big.Int) error {
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	setEntry(t.state, t.state.allowances, approval{t.addr, owner, spender}, v)
	return nil
}

func (t *ERC20) Transfer(from, to common.Address, amount *big.Int) error {
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	return t.move(from, to, v)
}

// TransferFrom moves tokens on behalf of from. An allowance of 2^256-1 is
// never decreased.
func (t *ERC20) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	allowed := t.allowance(from, spender)
	if allowed.Lt(v) {
		return fmt.Errorf("%w: allowance %s, amount %s", ErrInsufficientAllowance, allowed.Dec(), v.Dec())
	}
	if err := t.move(from, to, v); err != nil {
		return err
	}
	if !allowed.Eq(maxUint256) {
		setEntry(t.state, t.state.allowances, approval{t.addr, from, spender}, new(uint256.Int).Sub(allowed, v))
	}
	return nil
}

func (t *ERC20) move(from, to common.Address, amount *uint256.Int) error {
	if t.state.balance(t.addr, from).Lt(amount) {
		return fmt.Errorf("%w: %s of %s", ErrInsufficientBalance, from.Hex(), t.symbol)
	}
	delivered := amount
	if t.ChargesTransferFee() {
		fee, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(t.feeNum), uint256.NewInt(t.feeDen))
		if err := t.burn(from, fee); err != nil {
			return err
		}
		delivered = new(uint256.Int).Sub(amount, fee)
	}
	if err := t.state.debit(t.addr, from, delivered); err != nil {
		return err
	}
	return t.state.credit(t.addr, to, delivered)
}

// Mint creates amount new tokens for to.
func (t *ERC20) Mint(to common.Address, amount *big.Int) error {
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	return t.mint(to, v)
}

func (t *ERC20) mint(to common.Address, amount *uint256.Int) error {
	supply, overflow := new(uint256.Int).AddOverflow(t.state.supply(t.addr), amount)
	if overflow {
		return ErrOverflow
	}
	setEntry(t.state, t.state.supplies, t.addr, supply)
	return t.state.credit(t.addr, to, amount)
}

func (t *ERC20) burn(from common.Address, amount *uint256.Int) error {
	if err := t.state.debit(t.addr, from, amount); err != nil {
		return err
	}
	setEntry(t.state, t.state.supplies, t.addr, new(uint256.Int).Sub(t.state.supply(t.addr), amount))
	return nil
}

func (t *ERC20) Nonces(owner common.Address) uint64 {
	return t.state.nonces[holding{t.addr, owner}]
}

func (t *ERC20) DomainSeparator() common.Hash {
	return uniswapv2.DomainSeparator(t.name, t.state.chainID, t.addr)
}

// Permit sets spender's allowance over owner's tokens from an EIP-712
// signature by owner. Each signature is valid for one nonce.
func (t *ERC20) Permit(owner, spender common.Address, value *big.Int, deadline time.Time, sig []byte) error {
	if t.state.Now().After(deadline) {
		return ErrExpired
	}
	v, err := toU256(value)
	if err != nil {
		return err
	}
	key := holding{t.addr, owner}
	nonce := t.state.nonces[key]
	digest := uniswapv2.ApprovalDigest(t.DomainSeparator(), owner, spender, value, nonce, deadline)
	signer, err := uniswapv2.RecoverApprover(digest, sig)
	if err != nil || signer == (common.Address{}) || signer != owner {
		return ErrInvalidSignature
	}
	setEntry(t.state, t.state.nonces, key, nonce+1)
	setEntry(t.state, t.state.allowances, approval{t.addr, owner, spender}, v)
	return nil
}
