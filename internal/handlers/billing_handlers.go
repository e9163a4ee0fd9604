package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"factura/internal/common"
	"factura/internal/config"
	"factura/internal/jobs"
	"factura/internal/jobs/background"

	"github.com/labstack/echo/v4"
)

// BillingHandlers exposes manual triggers for the billing-cycle jobs. They
// run the same code paths as the scheduler, lock included.
type BillingHandlers struct {
	runner    *jobs.BillingJobRunner
	scheduler *background.JobScheduler
	settings  config.BillingSettings
}

// NewBillingHandlers creates a new billing handlers instance
func NewBillingHandlers(runner *jobs.BillingJobRunner, scheduler *background.JobScheduler, settings config.BillingSettings) *BillingHandlers {
	return &BillingHandlers{
		runner:    runner,
		scheduler: scheduler,
		settings:  settings,
	}
}

// logOperator records which authenticated user triggered a manual run.
// Scheduler-driven runs never pass through here.
func logOperator(c echo.Context, jobName string) {
	if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
		log.Printf("Manual %s run triggered by user %s", jobName, userID)
	}
}

// RunBilling handles POST /billing/run. The optional days_before_due query
// parameter overrides the configured lookahead for this run only.
func (h *BillingHandlers) RunBilling(c echo.Context) error {
	ctx := c.Request().Context()
	logOperator(c, jobs.JobNameBilling)

	lookaheadDays := h.settings.LookaheadDays
	if raw := c.QueryParam("days_before_due"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return common.SendValidationError(c, "days_before_due", "must be a non-negative integer")
		}
		lookaheadDays = parsed
	}

	summary, err := h.runner.RunBilling(ctx, lookaheadDays)
	if err != nil {
		if errors.Is(err, jobs.ErrRunInProgress) {
			return c.JSON(http.StatusConflict, common.CreateErrorResponse("RUN_IN_PROGRESS", err.Error(), nil))
		}
		return common.SendServerError(c, "Billing run failed: "+err.Error())
	}

	return c.JSON(http.StatusOK, summary)
}

// RunReminders handles POST /billing/reminders
func (h *BillingHandlers) RunReminders(c echo.Context) error {
	ctx := c.Request().Context()
	logOperator(c, jobs.JobNameReminders)

	raw := c.QueryParam("days_ahead")
	if raw == "" {
		return common.SendValidationError(c, "days_ahead", "days_ahead is required")
	}
	daysAhead, err := strconv.Atoi(raw)
	if err != nil || daysAhead < 0 {
		return common.SendValidationError(c, "days_ahead", "must be a non-negative integer")
	}

	summary, err := h.runner.RunReminders(ctx, daysAhead)
	if err != nil {
		if errors.Is(err, jobs.ErrRunInProgress) {
			return c.JSON(http.StatusConflict, common.CreateErrorResponse("RUN_IN_PROGRESS", err.Error(), nil))
		}
		return common.SendServerError(c, "Reminder run failed: "+err.Error())
	}

	return c.JSON(http.StatusOK, summary)
}

// RunOverdueSweep handles POST /billing/overdue-sweep
func (h *BillingHandlers) RunOverdueSweep(c echo.Context) error {
	ctx := c.Request().Context()
	logOperator(c, jobs.JobNameOverdueSweep)

	marked, err := h.runner.RunOverdueSweep(ctx)
	if err != nil {
		if errors.Is(err, jobs.ErrRunInProgress) {
			return c.JSON(http.StatusConflict, common.CreateErrorResponse("RUN_IN_PROGRESS", err.Error(), nil))
		}
		return common.SendServerError(c, "Overdue sweep failed: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]int{"marked_overdue": marked})
}

// GetJobStatus handles GET /billing/jobs
func (h *BillingHandlers) GetJobStatus(c echo.Context) error {
	resp := map[string]interface{}{
		"runs": h.runner.Statuses(),
	}
	if h.scheduler != nil {
		resp["scheduled"] = h.scheduler.ScheduledJobs()
	}
	return c.JSON(http.StatusOK, resp)
}
