package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
)

// ErrInvalidQueryParameters indicates that the request query string could not
// be parsed into the expected structure.
var ErrInvalidQueryParameters = fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")

// ErrSameAddresses is returned when src and dst addresses are identical.
var ErrSameAddresses = fiber.NewError(fiber.StatusBadRequest, "src and dst addresses cannot be the same")

// ErrAmountRequired is returned when the amount parameter is missing.
var ErrAmountRequired = fiber.NewError(fiber.StatusBadRequest, "amount is required")

// ErrInvalidAmountFormat is returned when the amount cannot be parsed as a
// base-10 integer.
var ErrInvalidAmountFormat = fiber.NewError(fiber.StatusBadRequest, "invalid amount format")

// ErrAmountNonPositive is returned when the amount is zero or negative.
var ErrAmountNonPositive = fiber.NewError(fiber.StatusBadRequest, "amount must be greater than zero")

// ErrSameTokenBadRequest maps a same-token validation failure to a 400 error.
var ErrSameTokenBadRequest = fiber.NewError(fiber.StatusBadRequest, "src and dst tokens cannot be the same")

// ErrPairMismatchBadRequest is returned when the pool does not hold src and dst.
var ErrPairMismatchBadRequest = fiber.NewError(fiber.StatusBadRequest, "pool does not trade src against dst")

// ErrEmptyReservesBadRequest maps empty-reserve pool state to a 400 error.
var ErrEmptyReservesBadRequest = fiber.NewError(fiber.StatusBadRequest, "pool has insufficient reserves")

// ErrEstimationFailedInternal signals a generic server-side estimation error.
var ErrEstimationFailedInternal = fiber.NewError(fiber.StatusInternalServerError, "estimation failed")

// ErrReserveNegative is returned when a reserve is below zero.
var ErrReserveNegative = fiber.NewError(fiber.StatusBadRequest, "reserve cannot be negative")

// ErrNodeTimeout is returned when the Ethereum node does not answer within
// the request timeout.
var ErrNodeTimeout = fiber.NewError(fiber.StatusGatewayTimeout, "ethereum node did not answer in time")

var (
	ErrPathRequired          = fiber.NewError(fiber.StatusBadRequest, "path is required")
	ErrInvalidPath           = fiber.NewError(fiber.StatusBadRequest, "path needs at least two tokens and no repeated hop")
	ErrPairNotFound          = fiber.NewError(fiber.StatusNotFound, "no pair deployed for a hop of the path")
	ErrInsufficientLiquidity = fiber.NewError(fiber.StatusUnprocessableEntity, "insufficient liquidity")
	ErrInvalidDecimals       = fiber.NewError(fiber.StatusBadRequest, "decimals must list one value between 0 and 77 per path token")
)

// NewInvalidAmountIn wraps an amount parsing error into a 400 Bad Request with
// a descriptive message.
func NewInvalidAmountIn(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid amount_in: "+err.Error())
}

// NewInvalidAmount reports an unparsable numeric query field.
func NewInvalidAmount(field string, err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field+": "+err.Error())
}

// NewAddressRequired returns a 400 Bad Request for a missing address field.
func NewAddressRequired(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, field+" address is required")
}

// NewInvalidAddress returns a 400 Bad Request for an invalid address format.
func NewInvalidAddress(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field+" address")
}

// NewInvalidPathAddress points at the malformed entry of a path.
func NewInvalidPathAddress(index int) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid address at path index "+strconv.Itoa(index))
}
