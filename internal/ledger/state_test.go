package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestAtomic_RollsBackOnError(t *testing.T) {
	s := NewState()
	tok := s.DeployToken("A")
	require.NoError(t, tok.Mint(alice, big.NewInt(100)))
	require.NoError(t, s.MintNative(alice, big.NewInt(50)))

	boom := errors.New("boom")
	err := s.Atomic(context.Background(), func() error {
		require.NoError(t, tok.Transfer(alice, bob, big.NewInt(40)))
		require.NoError(t, tok.Approve(alice, bob, big.NewInt(7)))
		require.NoError(t, s.TransferNative(alice, bob, big.NewInt(20)))
		s.DeployToken("B")
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.Equal(t, big.NewInt(100), tok.BalanceOf(alice))
	require.Equal(t, 0, tok.BalanceOf(bob).Sign())
	require.Equal(t, 0, tok.Allowance(alice, bob).Sign())
	require.Equal(t, big.NewInt(50), s.NativeBalance(alice))
	require.Equal(t, 0, s.NativeBalance(bob).Sign())

	// the rolled back deployment did not consume its address
	next := s.DeployToken("C")
	_, err = s.Token(next.Address())
	require.NoError(t, err)
	require.Len(t, s.tokens, 2)
}

func TestAtomic_Commits(t *testing.T) {
	s := NewState()
	tok := s.DeployToken("A")
	require.NoError(t, tok.Mint(alice, big.NewInt(100)))

	err := s.Atomic(context.Background(), func() error {
		return tok.Transfer(alice, bob, big.NewInt(40))
	})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(60), tok.BalanceOf(alice))
	require.Equal(t, big.NewInt(40), tok.BalanceOf(bob))
	require.Empty(t, s.journal)
	require.Zero(t, s.depth)
}

func TestAtomic_RollsBackOnPanic(t *testing.T) {
	s := NewState()
	tok := s.DeployToken("A")
	require.NoError(t, tok.Mint(alice, big.NewInt(100)))

	require.Panics(t, func() {
		_ = s.Atomic(context.Background(), func() error {
			_ = tok.Transfer(alice, bob, big.NewInt(40))
			panic("halt")
		})
	})
	require.Equal(t, big.NewInt(100), tok.BalanceOf(alice))

	// the lock was released
	require.NoError(t, s.Atomic(context.Background(), func() error { return nil }))
}

func TestAtomic_CancelledContext(t *testing.T) {
	s := NewState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Atomic(ctx, func() error { called = true; return nil })
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestTransferNative(t *testing.T) {
	s := NewState()
	require.NoError(t, s.MintNative(alice, big.NewInt(10)))
	require.ErrorIs(t, s.TransferNative(alice, bob, big.NewInt(11)), ErrInsufficientBalance)
	require.ErrorIs(t, s.TransferNative(alice, bob, big.NewInt(-1)), ErrInvalidAmount)
	require.NoError(t, s.TransferNative(alice, bob, big.NewInt(4)))
	require.Equal(t, big.NewInt(6), s.NativeBalance(alice))
	require.Equal(t, big.NewInt(4), s.NativeBalance(bob))
}
