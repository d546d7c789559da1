package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// Uniswap V2 mainnet deployment, used when no factory is configured.
const (
	DefaultFactoryAddress   = "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"
	DefaultPairInitCodeHash = "0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f"
)

type Config struct {
	Addr        string
	RPCEndpoint string
	LogLevel    string
	LogFormat   string

	// FactoryAddress and PairInitCodeHash locate pairs by CREATE2 address.
	FactoryAddress   common.Address
	PairInitCodeHash common.Hash
	Fee              uniswapv2.Fee
}

func FromEnv() (*Config, error) {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":1337"
	}

	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		return nil, ErrMissingRPCEndpoint
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "text"
	}

	factory := getenv("FACTORY_ADDRESS", DefaultFactoryAddress)
	if !common.IsHexAddress(factory) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFactoryAddress, factory)
	}

	initCodeHash, err := parseHash(getenv("PAIR_INIT_CODE_HASH", DefaultPairInitCodeHash))
	if err != nil {
		return nil, err
	}

	fee, err := parseFee(getenv("SWAP_FEE_NUMERATOR", "997"), getenv("SWAP_FEE_DENOMINATOR", "1000"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:             addr,
		RPCEndpoint:      rpcURL,
		LogLevel:         logLevel,
		LogFormat:        logFormat,
		FactoryAddress:   common.HexToAddress(factory),
		PairInitCodeHash: initCodeHash,
		Fee:              fee,
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %q", ErrInvalidInitCodeHash, s)
	}
	return common.BytesToHash(b), nil
}

func parseFee(num, den string) (uniswapv2.Fee, error) {
	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return uniswapv2.Fee{}, fmt.Errorf("%w: numerator %q", ErrInvalidFee, num)
	}
	d, err := strconv.ParseUint(den, 10, 64)
	if err != nil {
		return uniswapv2.Fee{}, fmt.Errorf("%w: denominator %q", ErrInvalidFee, den)
	}
	fee := uniswapv2.Fee{Numerator: n, Denominator: d}
	if err := fee.Validate(); err != nil {
		return uniswapv2.Fee{}, fmt.Errorf("%w: %d/%d", ErrInvalidFee, n, d)
	}
	return fee, nil
}
