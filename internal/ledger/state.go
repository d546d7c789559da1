// Package ledger is an in-memory settlement layer for the router: tokens,
// the wrapped native asset, V2 pairs and their factory, all backed by one
// journaled State so that a unit of work either commits entirely or leaves
// no trace.
package ledger

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Reswap-DEX/reswap-periphery/internal/contracts"
)

// Deployer is the account that deploys tokens and factories.
var Deployer = common.HexToAddress("0x00000000000000000000000000000000000d3910")

type holding struct {
	token, owner common.Address
}

type approval struct {
	token, owner, spender common.Address
}

// State holds every balance, allowance and native balance of the ledger.
// Mutations are journaled while a unit of work is open so they can be
// undone.
type State struct {
	mu      sync.Mutex
	chainID *big.Int
	now     func() time.Time

	balances   map[holding]*uint256.Int
	allowances map[approval]*uint256.Int
	supplies   map[common.Address]*uint256.Int
	nonces     map[holding]uint64
	native     map[common.Address]*uint256.Int
	tokens     map[common.Address]contracts.Token
	deployed   map[common.Address]uint64

	journal []func()
	depth   int
}

// Option configures a State.
type Option func(*State)

// WithChainID sets the chain id used in permit domains.
func WithChainID(id int64) Option {
	return func(s *State) { s.chainID = big.NewInt(id) }
}

// WithClock sets the block clock.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// NewState returns an empty ledger.
func NewState(opts ...Option) *State {
	s := &State{
		chainID:    big.NewInt(1),
		now:        time.Now,
		balances:   make(map[holding]*uint256.Int),
		allowances: make(map[approval]*uint256.Int),
		supplies:   make(map[common.Address]*uint256.Int),
		nonces:     make(map[holding]uint64),
		native:     make(map[common.Address]*uint256.Int),
		tokens:     make(map[common.Address]contracts.Token),
		deployed:   make(map[common.Address]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the current block time.
func (s *State) Now() time.Time { return s.now() }

// ChainID is the chain id used in permit domains.
func (s *State) ChainID() *big.Int { return new(big.Int).Set(s.chainID) }

// Atomic runs fn as a single unit of work. Every mutation made by fn is
// reverted when fn returns an error or panics. Units of work are
// serialised and must not be nested.
func (s *State) Atomic(ctx context.Context, fn func() error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nested(fn)
}

// nested runs fn inside a journal scope; pair calls use it so a failing
// call has no partial effect even outside Atomic.
func (s *State) nested(fn func() error) (err error) {
	mark := len(s.journal)
	s.depth++
	defer func() {
		if r := recover(); r != nil {
			s.rollback(mark)
			panic(r)
		}
		if err != nil {
			s.rollback(mark)
			return
		}
		s.depth--
		if s.depth == 0 {
			clear(s.journal)
			s.journal = s.journal[:0]
		}
	}()
	return fn()
}

func (s *State) rollback(mark int) {
	for i := len(s.journal) - 1; i >= mark; i-- {
		s.journal[i]()
	}
	clear(s.journal[mark:])
	s.journal = s.journal[:mark]
	s.depth--
}

func (s *State) record(undo func()) {
	if s.depth > 0 {
		s.journal = append(s.journal, undo)
	}
}

// setEntry writes m[k] = v and journals the previous entry.
func setEntry[K comparable, V any](s *State, m map[K]V, k K, v V) {
	prev, had := m[k]
	s.record(func() {
		if had {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
	m[k] = v
}

// setField writes *p = v and journals the previous value.
func setField[T any](s *State, p *T, v T) {
	prev := *p
	s.record(func() { *p = prev })
	*p = v
}

func (s *State) newAddress() common.Address {
	nonce := s.deployed[Deployer]
	setEntry(s, s.deployed, Deployer, nonce+1)
	return crypto.CreateAddress(Deployer, nonce)
}

func (s *State) register(t contracts.Token) {
	setEntry(s, s.tokens, t.Address(), t)
}

// Token resolves a deployed token, including pair liquidity tokens.
func (s *State) Token(addr common.Address) (contracts.Token, error) {
	t, ok := s.tokens[addr]
	if !ok {
		return nil, ErrUnknownToken
	}
	return t, nil
}

func (s *State) balance(token, owner common.Address) *uint256.Int {
	if v, ok := s.balances[holding{token, owner}]; ok {
		return v
	}
	return new(uint256.Int)
}

func (s *State) credit(token, owner common.Address, amount *uint256.Int) error {
	next, overflow := new(uint256.Int).AddOverflow(s.balance(token, owner), amount)
	if overflow {
		return ErrOverflow
	}
	setEntry(s, s.balances, holding{token, owner}, next)
	return nil
}

func (s *State) debit(token, owner common.Address, amount *uint256.Int) error {
	next, underflow := new(uint256.Int).SubOverflow(s.balance(token, owner), amount)
	if underflow {
		return ErrInsufficientBalance
	}
	setEntry(s, s.balances, holding{token, owner}, next)
	return nil
}

func (s *State) supply(token common.Address) *uint256.Int {
	if v, ok := s.supplies[token]; ok {
		return v
	}
	return new(uint256.Int)
}

func (s *State) nativeBalance(addr common.Address) *uint256.Int {
	if v, ok := s.native[addr]; ok {
		return v
	}
	return new(uint256.Int)
}

// NativeBalance returns the native asset balance of addr.
func (s *State) NativeBalance(addr common.Address) *big.Int {
	return s.nativeBalance(addr).ToBig()
}

// TransferNative moves native value between accounts.
func (s *State) TransferNative(from, to common.Address, amount *big.Int) error {
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	fromNext, underflow := new(uint256.Int).SubOverflow(s.nativeBalance(from), v)
	if underflow {
		return ErrInsufficientBalance
	}
	setEntry(s, s.native, from, fromNext)
	toNext, overflow := new(uint256.Int).AddOverflow(s.nativeBalance(to), v)
	if overflow {
		return ErrOverflow
	}
	setEntry(s, s.native, to, toNext)
	return nil
}

// MintNative credits native value out of thin air, the way a genesis
// allocation would.
func (s *State) MintNative(to common.Address, amount *big.Int) error {
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(s.nativeBalance(to), v)
	if overflow {
		return ErrOverflow
	}
	setEntry(s, s.native, to, next)
	return nil
}

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return u, nil
}
