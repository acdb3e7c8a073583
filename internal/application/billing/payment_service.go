package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/rentledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentService records payments against bills
type PaymentService struct {
	billRepo billing.BillRepository
	eventBus shared.EventPublisher
	clock    shared.Clock
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(billRepo billing.BillRepository, eventBus shared.EventPublisher, clock shared.Clock) *PaymentService {
	return &PaymentService{
		billRepo: billRepo,
		eventBus: eventBus,
		clock:    clock,
	}
}

// RecordPaymentRequest carries the inputs for applying a payment
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method" binding:"required,oneof=CASH TRANSFER OTHER"`
	Reference string          `json:"reference"`
}

// RecordPayment applies a payment to a bill under the optimistic lock
func (s *PaymentService) RecordPayment(ctx context.Context, billID uuid.UUID, req RecordPaymentRequest) (*BillResponse, error) {
	var lastErr error

	for attempt := 0; attempt < maxLockRetries; attempt++ {
		bill, err := s.billRepo.FindByID(ctx, billID)
		if err != nil {
			return nil, err
		}
		if bill == nil {
			return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
		}

		expectedVersion := bill.Version
		amount := valueobject.NewMoneyIDR(req.Amount)

		if err := bill.RecordPayment(amount, billing.PaymentMethod(req.Method), req.Reference, s.clock.Now()); err != nil {
			return nil, err
		}

		if err := s.billRepo.SaveWithLock(ctx, bill, expectedVersion); err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == shared.ErrConcurrencyConflict.Code {
				lastErr = err
				continue
			}
			return nil, err
		}

		s.publishEvents(ctx, bill)

		return toBillResponse(bill), nil
	}

	return nil, lastErr
}

func (s *PaymentService) publishEvents(ctx context.Context, bill *billing.Bill) {
	if s.eventBus == nil {
		return
	}
	for _, event := range bill.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	bill.ClearDomainEvents()
}
