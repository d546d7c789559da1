package ledger

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Reswap-DEX/reswap-periphery/internal/contracts"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// PairInitCodeHash stands in for the pair creation code hash in CREATE2
// address derivation.
var PairInitCodeHash = crypto.Keccak256Hash([]byte("ReswapV2Pair"))

type pairKey struct {
	token0, token1 common.Address
}

// Factory creates and indexes pairs. It implements contracts.Registry.
type Factory struct {
	state *State
	addr  common.Address
	order uniswapv2.Ordering
	fee   uniswapv2.Fee
	feeTo common.Address

	pairs map[pairKey]*Pair
	all   []*Pair
}

// FactoryOption configures a factory.
type FactoryOption func(*Factory)

// WithOrdering sets the canonical token ordering of new pairs.
func WithOrdering(order uniswapv2.Ordering) FactoryOption {
	return func(f *Factory) { f.order = order }
}

// WithPairFee sets the swap fee enforced by new pairs.
func WithPairFee(fee uniswapv2.Fee) FactoryOption {
	return func(f *Factory) { f.fee = fee }
}

// DeployFactory deploys an empty factory.
func (s *State) DeployFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		state: s,
		addr:  s.newAddress(),
		order: uniswapv2.ByAddress,
		fee:   uniswapv2.DefaultFee,
		pairs: make(map[pairKey]*Pair),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Address() common.Address { return f.addr }

// FeeTo is the protocol fee recipient; the zero address disables the fee.
func (f *Factory) FeeTo() common.Address { return f.feeTo }

func (f *Factory) SetFeeTo(to common.Address) {
	setField(f.state, &f.feeTo, to)
}

// Pair returns the pair for tokenA and tokenB in either order.
func (f *Factory) Pair(tokenA, tokenB common.Address) (*Pair, bool) {
	token0, token1, err := uniswapv2.SortTokens(f.order, tokenA, tokenB)
	if err != nil {
		return nil, false
	}
	p, ok := f.pairs[pairKey{token0, token1}]
	return p, ok
}

func (f *Factory) GetPair(tokenA, tokenB common.Address) (contracts.Pair, bool) {
	p, ok := f.Pair(tokenA, tokenB)
	if !ok {
		return nil, false
	}
	return p, true
}

// CreatePair deploys the pair for tokenA and tokenB at its CREATE2 address,
// or returns the existing one.
func (f *Factory) CreatePair(tokenA, tokenB common.Address) (contracts.Pair, error) {
	token0, token1, err := uniswapv2.SortTokens(f.order, tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	if p, ok := f.pairs[pairKey{token0, token1}]; ok {
		return p, nil
	}
	t0, err := f.state.Token(token0)
	if err != nil {
		return nil, fmt.Errorf("token0 %s: %w", token0.Hex(), err)
	}
	t1, err := f.state.Token(token1)
	if err != nil {
		return nil, fmt.Errorf("token1 %s: %w", token1.Hex(), err)
	}
	addr, err := uniswapv2.PairFor(f.order, f.addr, PairInitCodeHash, token0, token1)
	if err != nil {
		return nil, err
	}
	p := newPair(f, addr, t0, t1)
	f.state.register(p)
	setEntry(f.state, f.pairs, pairKey{token0, token1}, p)
	setField(f.state, &f.all, append(slices.Clip(f.all), p))
	return p, nil
}

// AllPairs lists pair addresses in creation order.
func (f *Factory) AllPairs() []common.Address {
	out := make([]common.Address, len(f.all))
	for i, p := range f.all {
		out[i] = p.Address()
	}
	return out
}
