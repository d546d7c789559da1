// Package contracts declares the collaborators the router settles against:
// tokens, reserve pairs, the pair registry, the wrapped native asset and the
// unit of work that makes a router call all-or-nothing.
package contracts

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Token is a fungible asset. Transfer and TransferFrom may deliver less than
// amount to the recipient when the token charges a fee on transfer, so
// callers that care about the delivered amount measure BalanceOf.
type Token interface {
	Address() common.Address
	BalanceOf(owner common.Address) *big.Int
	Allowance(owner, spender common.Address) *big.Int
	Approve(owner, spender common.Address, amount *big.Int) error
	Transfer(from, to common.Address, amount *big.Int) error
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
}

// PermitToken accepts an off-chain signed approval in place of Approve.
type PermitToken interface {
	Token
	Nonces(owner common.Address) uint64
	DomainSeparator() common.Hash
	Permit(owner, spender common.Address, value *big.Int, deadline time.Time, sig []byte) error
}

// Pair is a two-token reserve pool. Its own token is the liquidity share.
type Pair interface {
	PermitToken
	Token0() common.Address
	Token1() common.Address
	TotalSupply() *big.Int
	GetReserves() (reserve0, reserve1 *big.Int, blockTimestampLast uint32)
	// Mint credits liquidity for whatever was transferred in since the last
	// reserve update.
	Mint(to common.Address) (*big.Int, error)
	// Burn redeems the liquidity tokens held by the pair itself.
	Burn(to common.Address) (amount0, amount1 *big.Int, err error)
	Swap(amount0Out, amount1Out *big.Int, to common.Address) error
}

// Registry maps an unordered token pair to its pool.
type Registry interface {
	GetPair(tokenA, tokenB common.Address) (Pair, bool)
	// CreatePair returns the existing pair when one is already registered.
	CreatePair(tokenA, tokenB common.Address) (Pair, error)
}

// TokenDirectory resolves token addresses to token handles.
type TokenDirectory interface {
	Token(addr common.Address) (Token, error)
}

// NativeWrapper converts between the native asset and its token form.
type NativeWrapper interface {
	Token
	Deposit(from common.Address, value *big.Int) error
	Withdraw(from common.Address, amount *big.Int) error
}

// NativeBank moves the native asset itself. It carries the value attached
// to native entry points.
type NativeBank interface {
	NativeBalance(addr common.Address) *big.Int
	TransferNative(from, to common.Address, amount *big.Int) error
}

// Settlement runs fn as one unit of work: if fn returns an error, every
// effect it had on tokens, pairs and native balances is undone. Units of
// work are serialised.
type Settlement interface {
	Atomic(ctx context.Context, fn func() error) error
}
