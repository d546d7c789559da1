package service

import "errors"

// Estimate failures the handlers map to client errors.
var (
	ErrSameToken     = errors.New("src and dst are the same token")
	ErrPairMismatch  = errors.New("pool does not hold src/dst")
	ErrEmptyReserves = errors.New("pool has an empty reserve")
)
