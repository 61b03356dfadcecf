package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"studiobook/internal/common"
	"studiobook/internal/jobs/background"
	"studiobook/internal/services"

	"github.com/labstack/echo/v4"
)

// sweepSecretHeader authenticates external sweep triggers (the cron
// collaborator). The engine itself assumes the caller is already trusted;
// this check is the transport-level precondition.
const sweepSecretHeader = "X-Sweep-Secret"

// JobHandlers exposes manual triggers and status for background jobs
type JobHandlers struct {
	planService services.PlanService
	scheduler   *background.JobScheduler
	sweepSecret string
}

func NewJobHandlers(planService services.PlanService, scheduler *background.JobScheduler, sweepSecret string) *JobHandlers {
	return &JobHandlers{
		planService: planService,
		scheduler:   scheduler,
		sweepSecret: sweepSecret,
	}
}

// TriggerSweep handles POST /jobs/sweep-expired. Safe to call repeatedly:
// a second run with nothing new to expire reports zero.
// @Summary Expire all active plans past their end date
// @Tags jobs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/jobs/sweep-expired [post]
func (h *JobHandlers) TriggerSweep(c echo.Context) error {
	secret := c.Request().Header.Get(sweepSecretHeader)
	if h.sweepSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.sweepSecret)) != 1 {
		return common.SendUnauthorizedError(c)
	}

	expired, err := h.planService.SweepExpired(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"expired_count": len(expired),
		"expired_ids":   expired,
	})
}

// JobStatus handles GET /jobs/status
func (h *JobHandlers) JobStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.GetJobStatus(c.Request().Context()))
}
