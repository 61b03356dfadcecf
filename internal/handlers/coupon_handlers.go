package handlers

import (
	"net/http"

	"studiobook/internal/common"
	"studiobook/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CouponHandlers handles HTTP requests for the coupon ledger
type CouponHandlers struct {
	couponService services.CouponService
}

func NewCouponHandlers(couponService services.CouponService) *CouponHandlers {
	return &CouponHandlers{couponService: couponService}
}

// IssueCoupon handles POST /coupons
// @Summary Issue a free-standing coupon
// @Tags coupons
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /v1/coupons [post]
func (h *CouponHandlers) IssueCoupon(c echo.Context) error {
	ctx := c.Request().Context()

	var req services.IssueCouponRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	coupon, err := h.couponService.Issue(ctx, &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Coupon issued successfully",
		"coupon":  coupon,
	})
}

// GetCoupon handles GET /coupons/:code
func (h *CouponHandlers) GetCoupon(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.Param("code")
	if code == "" {
		return common.SendClientError(c, "Coupon code is required")
	}

	coupon, err := h.couponService.GetByCode(ctx, code)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"coupon": coupon})
}

// RedeemCoupon handles POST /coupons/:code/redeem
// @Summary Redeem a coupon exactly once for the authenticated user
// @Tags coupons
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/coupons/{code}/redeem [post]
func (h *CouponHandlers) RedeemCoupon(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	code := c.Param("code")
	if code == "" {
		return common.SendClientError(c, "Coupon code is required")
	}

	coupon, err := h.couponService.Redeem(ctx, code, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Coupon redeemed successfully",
		"coupon":  coupon,
	})
}

// ReleaseCoupon handles POST /coupons/:code/release
func (h *CouponHandlers) ReleaseCoupon(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.Param("code")
	if code == "" {
		return common.SendClientError(c, "Coupon code is required")
	}

	var performedBy *uuid.UUID
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		performedBy = &userID
	}

	coupon, err := h.couponService.Release(ctx, code, performedBy)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Coupon released successfully",
		"coupon":  coupon,
	})
}

// DeleteCoupon handles DELETE /coupons/:id
func (h *CouponHandlers) DeleteCoupon(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "coupon id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var performedBy *uuid.UUID
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		performedBy = &userID
	}

	if err := h.couponService.Delete(ctx, id, performedBy); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Coupon deleted",
	})
}

// ListPlanCoupons handles GET /plans/:id/coupons
func (h *CouponHandlers) ListPlanCoupons(c echo.Context) error {
	ctx := c.Request().Context()

	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	coupons, err := h.couponService.ListByPlan(ctx, planID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"coupons": coupons})
}
