package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/Reswap-DEX/reswap-periphery/internal/metrics"
)

// Metrics counts requests by route and the status code they end with.
func Metrics(m *metrics.API) fiber.Handler {
	return func(c fiber.Ctx) error {
		err := c.Next()
		code := c.Response().StatusCode()
		if err != nil {
			code = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
		}
		m.Requests.WithLabelValues(c.Route().Path, strconv.Itoa(code)).Inc()
		return err
	}
}
