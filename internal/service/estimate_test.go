package service

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Reswap-DEX/reswap-periphery/internal/eth/ethtest"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

var (
	token0 = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token1 = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	pool   = common.HexToAddress("0x0000000000000000000000000000000000000abc")
)

func newEstimateService(t *testing.T, reserve0, reserve1 int64, fee uniswapv2.Fee) *EstimateService {
	t.Helper()
	node := ethtest.NewNode(123)
	node.SetPair(pool, token0, token1, big.NewInt(reserve0), big.NewInt(reserve1), 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEstimateService(logger, node.Client(t), fee)
}

func TestEstimate_Success(t *testing.T) {
	t.Parallel()

	// reserves: 1_000_000 : 2_000_000
	r0, r1 := int64(1_000_000), int64(2_000_000)
	amountIn := big.NewInt(1_000)
	svc := newEstimateService(t, r0, r1, uniswapv2.DefaultFee)

	out, err := svc.Estimate(context.Background(), pool, token0, token1, amountIn)
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}

	// compute expected
	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	numerator := new(big.Int).Mul(amountInWithFee, big.NewInt(r1))
	denominator := new(big.Int).Add(new(big.Int).Mul(big.NewInt(r0), big.NewInt(1000)), amountInWithFee)
	expected := new(big.Int).Div(numerator, denominator)

	if out.Cmp(expected) != 0 {
		t.Fatalf("unexpected amountOut: got %s want %s", out, expected)
	}

	// reverse direction uses the reserves the other way round
	out, err = svc.Estimate(context.Background(), pool, token1, token0, amountIn)
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}
	if want, _ := uniswapv2.GetAmountOut(amountIn, big.NewInt(r1), big.NewInt(r0)); out.Cmp(want) != 0 {
		t.Fatalf("unexpected reverse amountOut: got %s want %s", out, want)
	}
}

func TestEstimate_CustomFee(t *testing.T) {
	t.Parallel()

	fee := uniswapv2.Fee{Numerator: 9975, Denominator: 10000}
	svc := newEstimateService(t, 1_000_000, 1_000_000, fee)

	out, err := svc.Estimate(context.Background(), pool, token0, token1, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}
	want, _ := fee.AmountOut(big.NewInt(1_000), big.NewInt(1_000_000), big.NewInt(1_000_000))
	if out.Cmp(want) != 0 {
		t.Fatalf("unexpected amountOut: got %s want %s", out, want)
	}
}

func TestEstimate_Errors(t *testing.T) {
	t.Parallel()

	wrong := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	tests := []struct {
		name     string
		r0, r1   int64
		src, dst common.Address
		want     error
	}{
		{"pair mismatch", 1, 1, token0, wrong, ErrPairMismatch},
		{"same token", 1, 1, token0, token0, ErrSameToken},
		{"empty reserves", 0, 0, token0, token1, ErrEmptyReserves},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newEstimateService(t, tt.r0, tt.r1, uniswapv2.DefaultFee)
			_, err := svc.Estimate(context.Background(), pool, tt.src, tt.dst, big.NewInt(1))
			if err != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
