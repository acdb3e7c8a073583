package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	billingapp "github.com/rentledger/backend/internal/application/billing"
	"github.com/rentledger/backend/internal/infrastructure/scheduler"
	"github.com/rentledger/backend/internal/interfaces/http/dto"
)

// AccrualScheduler is the scheduler surface the handler needs
type AccrualScheduler interface {
	TriggerManualRun(ctx context.Context) error
	GetStatus() map[string]any
}

// BatchRunner runs a synchronous accrual batch
type BatchRunner interface {
	RunBatch(ctx context.Context, now time.Time) (*billingapp.BatchResult, error)
}

// PenaltyRunHandler handles penalty accrual run endpoints
type PenaltyRunHandler struct {
	BaseHandler
	sched  AccrualScheduler
	runner BatchRunner
}

// NewPenaltyRunHandler creates a new PenaltyRunHandler
func NewPenaltyRunHandler(sched AccrualScheduler, runner BatchRunner) *PenaltyRunHandler {
	return &PenaltyRunHandler{
		sched:  sched,
		runner: runner,
	}
}

// TriggerRun starts an accrual run. By default the run executes in the
// background through the scheduler; pass ?sync=true to run inline and get
// the batch summary in the response.
func (h *PenaltyRunHandler) TriggerRun(c *gin.Context) {
	if c.Query("sync") == "true" {
		result, err := h.runner.RunBatch(c.Request.Context(), time.Now())
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Success(c, result)
		return
	}

	if h.sched == nil {
		h.UnprocessableEntity(c, dto.ErrCodeInvalidState, "Scheduler is not configured")
		return
	}

	if err := h.sched.TriggerManualRun(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrRunInProgress):
			h.Conflict(c, "An accrual run is already in progress")
		case errors.Is(err, scheduler.ErrSchedulerNotRunning):
			h.UnprocessableEntity(c, dto.ErrCodeInvalidState, "Scheduler is not running")
		default:
			h.InternalError(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{
		"message": "Accrual run started",
	}))
}

// GetStatus returns the scheduler's current state
func (h *PenaltyRunHandler) GetStatus(c *gin.Context) {
	if h.sched == nil {
		h.UnprocessableEntity(c, dto.ErrCodeInvalidState, "Scheduler is not configured")
		return
	}
	h.Success(c, h.sched.GetStatus())
}
