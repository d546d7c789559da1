package config

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "http://localhost:8545")
	for _, k := range []string{"ADDR", "LOG_LEVEL", "LOG_FORMAT", "FACTORY_ADDRESS", "PAIR_INIT_CODE_HASH", "SWAP_FEE_NUMERATOR", "SWAP_FEE_DENOMINATOR"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":1337" || cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.FactoryAddress != common.HexToAddress(DefaultFactoryAddress) || cfg.PairInitCodeHash != common.HexToHash(DefaultPairInitCodeHash) {
		t.Fatalf("unexpected deployment %s %s", cfg.FactoryAddress.Hex(), cfg.PairInitCodeHash.Hex())
	}
	if cfg.Fee != uniswapv2.DefaultFee {
		t.Fatalf("unexpected fee %+v", cfg.Fee)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "http://localhost:8545")
	t.Setenv("ADDR", ":8080")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("FACTORY_ADDRESS", "0x152eE697f2E276fA89E96742e9bB9aB1F2E61bE3")
	t.Setenv("PAIR_INIT_CODE_HASH", "0xcdf2deca40a0bd56de8e3ce5c7df6727e5b1bf2ac96f283fa9c4b3e6b42ea9d2")
	t.Setenv("SWAP_FEE_NUMERATOR", "9975")
	t.Setenv("SWAP_FEE_DENOMINATOR", "10000")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.FactoryAddress != common.HexToAddress("0x152eE697f2E276fA89E96742e9bB9aB1F2E61bE3") {
		t.Fatalf("unexpected factory %s", cfg.FactoryAddress.Hex())
	}
	if cfg.Fee != (uniswapv2.Fee{Numerator: 9975, Denominator: 10000}) {
		t.Fatalf("unexpected fee %+v", cfg.Fee)
	}
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"missing rpc", map[string]string{"ETH_RPC_URL": ""}, ErrMissingRPCEndpoint},
		{"bad factory", map[string]string{"FACTORY_ADDRESS": "factory"}, ErrInvalidFactoryAddress},
		{"short hash", map[string]string{"PAIR_INIT_CODE_HASH": "0x1234"}, ErrInvalidInitCodeHash},
		{"hash without prefix", map[string]string{"PAIR_INIT_CODE_HASH": "96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f"}, ErrInvalidInitCodeHash},
		{"fee not a number", map[string]string{"SWAP_FEE_NUMERATOR": "x"}, ErrInvalidFee},
		{"fee above one", map[string]string{"SWAP_FEE_NUMERATOR": "1001"}, ErrInvalidFee},
		{"zero denominator", map[string]string{"SWAP_FEE_DENOMINATOR": "0"}, ErrInvalidFee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ETH_RPC_URL", "http://localhost:8545")
			for _, k := range []string{"FACTORY_ADDRESS", "PAIR_INIT_CODE_HASH", "SWAP_FEE_NUMERATOR", "SWAP_FEE_DENOMINATOR"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
