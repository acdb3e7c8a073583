package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// maxLockRetries bounds the re-read-and-retry loop on version conflicts
	maxLockRetries = 3
	// defaultBatchParallelism bounds concurrent bill processing in a run
	defaultBatchParallelism = 8
)

// ReasonUnchanged marks an accrual that found the bill already at the
// assessed penalty, so nothing was written.
const ReasonUnchanged = "unchanged"

// AccrualMetrics records engine observability counters. A no-op
// implementation is used when metrics are disabled.
type AccrualMetrics interface {
	ObserveRun(duration time.Duration, processed, applied, failed int)
	IncLockRetry()
	IncPenaltyApplied(amount decimal.Decimal)
}

// NoopAccrualMetrics discards all observations
type NoopAccrualMetrics struct{}

func (NoopAccrualMetrics) ObserveRun(time.Duration, int, int, int) {}
func (NoopAccrualMetrics) IncLockRetry()                           {}
func (NoopAccrualMetrics) IncPenaltyApplied(decimal.Decimal)       {}

// AccrualResult reports what a single-bill accrual did
type AccrualResult struct {
	BillID      uuid.UUID       `json:"bill_id"`
	Applied     bool            `json:"applied"`
	Amount      decimal.Decimal `json:"amount"`
	DaysOverdue int             `json:"days_overdue"`
	Reason      string          `json:"reason,omitempty"`
}

// BillFailure records a bill that could not be processed in a batch run
type BillFailure struct {
	BillID uuid.UUID `json:"bill_id"`
	Error  string    `json:"error"`
}

// BatchResult summarizes a batch accrual run
type BatchResult struct {
	ProcessedBills     int             `json:"processed_bills"`
	PenaltiesApplied   int             `json:"penalties_applied"`
	TotalPenaltyAmount decimal.Decimal `json:"total_penalty_amount"`
	Failed             []BillFailure   `json:"failed,omitempty"`
	StartedAt          time.Time       `json:"started_at"`
	Duration           time.Duration   `json:"duration"`
}

// PenaltyPreviewResponse is the read-only penalty view for a bill
type PenaltyPreviewResponse struct {
	BillID         uuid.UUID       `json:"bill_id"`
	BillNumber     string          `json:"bill_number"`
	Status         string          `json:"status"`
	DueDate        time.Time       `json:"due_date"`
	CurrentPenalty decimal.Decimal `json:"current_penalty"`
	AssessedAmount decimal.Decimal `json:"assessed_amount"`
	DaysOverdue    int             `json:"days_overdue"`
	WouldApply     bool            `json:"would_apply"`
	Reason         string          `json:"reason,omitempty"`
}

// AdjustPenaltyResult reports the outcome of a manual penalty override
type AdjustPenaltyResult struct {
	BillID          uuid.UUID       `json:"bill_id"`
	PreviousPenalty decimal.Decimal `json:"previous_penalty"`
	NewPenalty      decimal.Decimal `json:"new_penalty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// PenaltyLogResponse represents one penalty audit entry in API responses
type PenaltyLogResponse struct {
	ID             uuid.UUID       `json:"id"`
	Kind           string          `json:"kind"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	DaysOverdue    int             `json:"days_overdue"`
	Note           string          `json:"note,omitempty"`
	RecordedAt     time.Time       `json:"recorded_at"`
}

// PenaltyAccrualService drives late-penalty accrual over bills. Accrual is a
// pure function of (dueDate, now) via the policy, so runs are idempotent and
// safe to repeat.
type PenaltyAccrualService struct {
	billRepo    billing.BillRepository
	logRepo     billing.PenaltyLogRepository
	policy      billing.PenaltyPolicy
	eventBus    shared.EventPublisher
	clock       shared.Clock
	logger      *zap.Logger
	metrics     AccrualMetrics
	parallelism int
}

// PenaltyAccrualServiceOption configures the service
type PenaltyAccrualServiceOption func(*PenaltyAccrualService)

// WithBatchParallelism overrides the batch concurrency limit
func WithBatchParallelism(n int) PenaltyAccrualServiceOption {
	return func(s *PenaltyAccrualService) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithAccrualMetrics attaches a metrics sink
func WithAccrualMetrics(m AccrualMetrics) PenaltyAccrualServiceOption {
	return func(s *PenaltyAccrualService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewPenaltyAccrualService creates a new accrual service
func NewPenaltyAccrualService(
	billRepo billing.BillRepository,
	logRepo billing.PenaltyLogRepository,
	policy billing.PenaltyPolicy,
	eventBus shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
	opts ...PenaltyAccrualServiceOption,
) *PenaltyAccrualService {
	s := &PenaltyAccrualService{
		billRepo:    billRepo,
		logRepo:     logRepo,
		policy:      policy,
		eventBus:    eventBus,
		clock:       clock,
		logger:      logger,
		metrics:     NoopAccrualMetrics{},
		parallelism: defaultBatchParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyPenaltyToBill evaluates the policy for one bill at the given instant
// and persists the outcome. Version conflicts are retried with a fresh read.
func (s *PenaltyAccrualService) ApplyPenaltyToBill(ctx context.Context, billID uuid.UUID, now time.Time) (*AccrualResult, error) {
	var lastErr error

	for attempt := 0; attempt < maxLockRetries; attempt++ {
		bill, err := s.billRepo.FindByID(ctx, billID)
		if err != nil {
			return nil, err
		}
		if bill == nil {
			return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
		}

		assessment := s.policy.Evaluate(bill, now)
		if !assessment.ShouldApply {
			return &AccrualResult{BillID: billID, Applied: false, Reason: assessment.Reason}, nil
		}

		// Steady state: the stored penalty already matches the assessment.
		if bill.Penalty.Amount.Equal(assessment.Amount) && bill.Penalty.Days == assessment.Days {
			return &AccrualResult{
				BillID:      billID,
				Applied:     false,
				Amount:      bill.Penalty.Amount,
				DaysOverdue: bill.Penalty.Days,
				Reason:      ReasonUnchanged,
			}, nil
		}

		previous := bill.Penalty.Amount
		expectedVersion := bill.Version

		if err := bill.ApplyPenalty(assessment, now); err != nil {
			return nil, err
		}

		if err := s.billRepo.SaveWithLock(ctx, bill, expectedVersion); err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == shared.ErrConcurrencyConflict.Code {
				s.metrics.IncLockRetry()
				lastErr = err
				continue
			}
			return nil, err
		}

		s.appendLog(ctx, billing.NewPenaltyLogEntry(
			bill.ID, billing.PenaltyChangeAccrual, previous, assessment.Amount, assessment.Days, "", now,
		))
		s.publishEvents(ctx, bill)
		s.metrics.IncPenaltyApplied(assessment.Amount)

		return &AccrualResult{
			BillID:      billID,
			Applied:     true,
			Amount:      assessment.Amount,
			DaysOverdue: assessment.Days,
		}, nil
	}

	return nil, lastErr
}

// RunBatch accrues penalties over every overdue candidate at the given
// instant. Bills are processed with bounded parallelism and one bill's
// failure never aborts the run.
func (s *PenaltyAccrualService) RunBatch(ctx context.Context, now time.Time) (*BatchResult, error) {
	start := s.clock.Now()

	candidates, err := s.billRepo.FindOverdueCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		ProcessedBills:     len(candidates),
		TotalPenaltyAmount: decimal.Zero,
		StartedAt:          now,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for _, billID := range candidates {
		id := billID
		g.Go(func() error {
			accrual, err := s.ApplyPenaltyToBill(gctx, id, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, BillFailure{BillID: id, Error: err.Error()})
				s.logger.Warn("penalty accrual failed for bill",
					zap.String("bill_id", id.String()),
					zap.Error(err))
				return nil
			}
			if accrual.Applied {
				result.PenaltiesApplied++
				result.TotalPenaltyAmount = result.TotalPenaltyAmount.Add(accrual.Amount)
			}
			return nil
		})
	}

	// goroutines never return errors, but Wait releases the limiter
	_ = g.Wait()

	result.Duration = s.clock.Now().Sub(start)

	if result.PenaltiesApplied > 0 && s.eventBus != nil {
		event := billing.NewPenaltiesBatchAppliedEvent(result.PenaltiesApplied, len(result.Failed), result.TotalPenaltyAmount)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish batch summary event", zap.Error(err))
		}
	}

	s.metrics.ObserveRun(result.Duration, result.ProcessedBills, result.PenaltiesApplied, len(result.Failed))

	s.logger.Info("penalty accrual run completed",
		zap.Int("processed", result.ProcessedBills),
		zap.Int("applied", result.PenaltiesApplied),
		zap.Int("failed", len(result.Failed)),
		zap.String("total_penalty", result.TotalPenaltyAmount.String()),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// CalculateCurrentPenalty returns what the policy would assess for the bill
// right now without writing anything.
func (s *PenaltyAccrualService) CalculateCurrentPenalty(ctx context.Context, billID uuid.UUID) (*PenaltyPreviewResponse, error) {
	bill, err := s.billRepo.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
	}

	now := s.clock.Now()
	assessment := s.policy.Evaluate(bill, now)

	return &PenaltyPreviewResponse{
		BillID:         bill.ID,
		BillNumber:     bill.BillNumber,
		Status:         bill.Status.String(),
		DueDate:        bill.DueDate,
		CurrentPenalty: bill.Penalty.Amount,
		AssessedAmount: assessment.Amount,
		DaysOverdue:    assessment.Days,
		WouldApply:     assessment.ShouldApply,
		Reason:         assessment.Reason,
	}, nil
}

// AdjustPenalty applies an administrative delta to a bill's penalty
func (s *PenaltyAccrualService) AdjustPenalty(ctx context.Context, billID uuid.UUID, delta decimal.Decimal, note string) (*AdjustPenaltyResult, error) {
	var lastErr error

	for attempt := 0; attempt < maxLockRetries; attempt++ {
		bill, err := s.billRepo.FindByID(ctx, billID)
		if err != nil {
			return nil, err
		}
		if bill == nil {
			return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
		}

		now := s.clock.Now()
		expectedVersion := bill.Version

		previous, current, err := bill.AdjustPenalty(delta, now)
		if err != nil {
			return nil, err
		}

		if err := s.billRepo.SaveWithLock(ctx, bill, expectedVersion); err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == shared.ErrConcurrencyConflict.Code {
				s.metrics.IncLockRetry()
				lastErr = err
				continue
			}
			return nil, err
		}

		s.appendLog(ctx, billing.NewPenaltyLogEntry(
			bill.ID, billing.PenaltyChangeAdjustment, previous, current, bill.Penalty.Days, note, now,
		))
		s.publishEvents(ctx, bill)

		return &AdjustPenaltyResult{
			BillID:          bill.ID,
			PreviousPenalty: previous,
			NewPenalty:      current,
			TotalAmount:     bill.TotalAmount,
			RemainingAmount: bill.RemainingAmount,
		}, nil
	}

	return nil, lastErr
}

// GetPenaltyHistory returns the audit trail for a bill, newest first
func (s *PenaltyAccrualService) GetPenaltyHistory(ctx context.Context, billID uuid.UUID) ([]PenaltyLogResponse, error) {
	bill, err := s.billRepo.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
	}

	entries, err := s.logRepo.FindByBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	responses := make([]PenaltyLogResponse, len(entries))
	for i, e := range entries {
		responses[i] = PenaltyLogResponse{
			ID:             e.ID,
			Kind:           string(e.Kind),
			PreviousAmount: e.PreviousAmount,
			NewAmount:      e.NewAmount,
			DaysOverdue:    e.DaysOverdue,
			Note:           e.Note,
			RecordedAt:     e.RecordedAt,
		}
	}
	return responses, nil
}

func (s *PenaltyAccrualService) appendLog(ctx context.Context, entry *billing.PenaltyLogEntry) {
	if s.logRepo == nil {
		return
	}
	if err := s.logRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append penalty log entry",
			zap.String("bill_id", entry.BillID.String()),
			zap.Error(err))
	}
}

func (s *PenaltyAccrualService) publishEvents(ctx context.Context, bill *billing.Bill) {
	if s.eventBus == nil {
		return
	}
	for _, event := range bill.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	bill.ClearDomainEvents()
}
