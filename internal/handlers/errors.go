package handlers

import (
	"errors"
	"net/http"

	"studiobook/internal/common"
	"studiobook/internal/services"

	"github.com/labstack/echo/v4"
)

// serviceError translates the engine's error taxonomy into the shared error
// envelope. Retryable failures (store outage, code exhaustion) get a 503 so
// clients back off and try again; precondition failures on redemption get a
// 409.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidDiscount):
		return common.SendClientError(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", err.Error(), nil))
	case errors.Is(err, services.ErrForbidden):
		return c.JSON(http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", err.Error(), nil))
	case errors.Is(err, services.ErrAlreadyUsed), errors.Is(err, services.ErrCouponExpired):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("CONFLICT", err.Error(), nil))
	case errors.Is(err, services.ErrCodeExhaustion), errors.Is(err, services.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, common.CreateErrorResponse("RETRY_LATER", "Temporarily unavailable, try again", nil))
	default:
		return c.JSON(http.StatusInternalServerError, common.CreateErrorResponse("INTERNAL", "Internal server error", nil))
	}
}
