package config

import "errors"

// ErrMissingRPCEndpoint indicates that the required ETH_RPC_URL variable is
// not set in the environment.
var ErrMissingRPCEndpoint = errors.New("missing ETH_RPC_URL environment variable")

var (
	ErrInvalidFactoryAddress = errors.New("invalid FACTORY_ADDRESS")
	ErrInvalidInitCodeHash   = errors.New("invalid PAIR_INIT_CODE_HASH")
	ErrInvalidFee            = errors.New("invalid SWAP_FEE_NUMERATOR/SWAP_FEE_DENOMINATOR")
)
