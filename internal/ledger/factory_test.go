package ledger

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

func TestFactory_CreatePair(t *testing.T) {
	s := NewState()
	f := s.DeployFactory()
	a := s.DeployToken("A")
	b := s.DeployToken("B")

	_, ok := f.GetPair(a.Address(), b.Address())
	require.False(t, ok)

	p, err := f.CreatePair(b.Address(), a.Address())
	require.NoError(t, err)

	want, err := uniswapv2.PairFor(uniswapv2.ByAddress, f.Address(), PairInitCodeHash, a.Address(), b.Address())
	require.NoError(t, err)
	require.Equal(t, want, p.Address())

	token0, token1, _ := uniswapv2.SortTokens(uniswapv2.ByAddress, a.Address(), b.Address())
	require.Equal(t, token0, p.Token0())
	require.Equal(t, token1, p.Token1())

	// idempotent
	again, err := f.CreatePair(a.Address(), b.Address())
	require.NoError(t, err)
	require.Equal(t, p.Address(), again.Address())
	require.Len(t, f.AllPairs(), 1)

	got, ok := f.GetPair(a.Address(), b.Address())
	require.True(t, ok)
	require.Equal(t, p.Address(), got.Address())

	// the liquidity token is addressable like any other token
	lp, err := s.Token(p.Address())
	require.NoError(t, err)
	require.Equal(t, p.Address(), lp.Address())
}

func TestFactory_CreatePairErrors(t *testing.T) {
	s := NewState()
	f := s.DeployFactory()
	a := s.DeployToken("A")

	_, err := f.CreatePair(a.Address(), a.Address())
	require.ErrorIs(t, err, uniswapv2.ErrIdenticalAddresses)
	_, err = f.CreatePair(a.Address(), common.Address{})
	require.ErrorIs(t, err, uniswapv2.ErrZeroAddress)
	_, err = f.CreatePair(a.Address(), common.HexToAddress("0x1234"))
	require.ErrorIs(t, err, ErrUnknownToken)
}

func TestFactory_CustomOrdering(t *testing.T) {
	s := NewState()
	reverse := func(x, y common.Address) int { return -uniswapv2.ByAddress(x, y) }
	f := s.DeployFactory(WithOrdering(reverse))
	a := s.DeployToken("A")
	b := s.DeployToken("B")

	p, err := f.CreatePair(a.Address(), b.Address())
	require.NoError(t, err)
	if uniswapv2.ByAddress(a.Address(), b.Address()) < 0 {
		require.Equal(t, b.Address(), p.Token0())
	} else {
		require.Equal(t, a.Address(), p.Token0())
	}
}

func TestFactory_CreatePairRolledBack(t *testing.T) {
	s := NewState()
	f := s.DeployFactory()
	a := s.DeployToken("A")
	b := s.DeployToken("B")

	err := s.Atomic(context.Background(), func() error {
		if _, err := f.CreatePair(a.Address(), b.Address()); err != nil {
			return err
		}
		return ErrK
	})
	require.ErrorIs(t, err, ErrK)
	_, ok := f.GetPair(a.Address(), b.Address())
	require.False(t, ok)
	require.Empty(t, f.AllPairs())
}
