package handlers

import (
	"net/http"
	"strconv"

	"studiobook/internal/common"
	"studiobook/internal/services"

	"github.com/labstack/echo/v4"
)

// PlanHandlers handles HTTP requests for subscription plans
type PlanHandlers struct {
	planService services.PlanService
}

func NewPlanHandlers(planService services.PlanService) *PlanHandlers {
	return &PlanHandlers{planService: planService}
}

// ActivatePlan handles POST /plans
// @Summary Activate a plan for the authenticated user
// @Description Called after the payment collaborator confirms a charge. Perk coupons are issued best-effort.
// @Tags plans
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /v1/plans [post]
func (h *PlanHandlers) ActivatePlan(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		Tier        string  `json:"tier"`
		Amount      float64 `json:"amount"`
		BillingMode string  `json:"billing_mode"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Tier == "" {
		return common.SendClientError(c, "Tier is required")
	}
	if req.BillingMode == "" {
		return common.SendClientError(c, "Billing mode is required")
	}

	plan, err := h.planService.Activate(ctx, userID, req.Tier, req.Amount, req.BillingMode)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Plan activated successfully",
		"plan":    plan,
	})
}

// ListPlans handles GET /plans
func (h *PlanHandlers) ListPlans(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	rawLimit, _ := strconv.Atoi(c.QueryParam("limit"))
	rawOffset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(rawLimit, rawOffset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	plans, err := h.planService.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans":  plans,
		"limit":  limit,
		"offset": offset,
	})
}

// GetPlan handles GET /plans/:id
func (h *PlanHandlers) GetPlan(c echo.Context) error {
	ctx := c.Request().Context()

	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	plan, err := h.planService.GetByID(ctx, planID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"plan": plan})
}

// MarkPlanRead handles PUT /plans/:id/read
func (h *PlanHandlers) MarkPlanRead(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	plan, err := h.planService.MarkRead(ctx, planID, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Plan marked as read",
		"plan":    plan,
	})
}

// ListTiers handles GET /plans/tiers
func (h *PlanHandlers) ListTiers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tiers": h.planService.AvailableTiers(),
	})
}
