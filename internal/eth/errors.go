package eth

import "errors"

// ErrPairNotDeployed is returned when the computed pair address holds no
// pair state.
var ErrPairNotDeployed = errors.New("pair not deployed")
