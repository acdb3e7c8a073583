package billing

import (
	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeBillCreated           = "billing.bill.created"
	EventTypeBillPaid              = "billing.bill.paid"
	EventTypeBillPartiallyPaid     = "billing.bill.partially_paid"
	EventTypePenaltyApplied        = "billing.penalty.applied"
	EventTypePenaltyAdjusted       = "billing.penalty.adjusted"
	EventTypePenaltiesBatchApplied = "billing.penalty.batch_applied"
)

const aggregateTypeBill = "Bill"

// BillCreatedEvent is raised when a new bill is issued
type BillCreatedEvent struct {
	shared.BaseDomainEvent
	BillNumber string          `json:"bill_number"`
	PropertyID uuid.UUID       `json:"property_id"`
	Kind       BillKind        `json:"kind"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Period     string          `json:"period"`
}

// NewBillCreatedEvent creates a new bill created event
func NewBillCreatedEvent(bill *Bill) *BillCreatedEvent {
	return &BillCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillCreated, aggregateTypeBill, bill.ID, bill.TenantID),
		BillNumber:      bill.BillNumber,
		PropertyID:      bill.PropertyID,
		Kind:            bill.Kind,
		BaseAmount:      bill.BaseAmount,
		Period:          bill.Period.String(),
	}
}

// PenaltyAppliedEvent is raised when the accrual engine records a penalty on a bill
type PenaltyAppliedEvent struct {
	shared.BaseDomainEvent
	BillNumber       string          `json:"bill_number"`
	PenaltyAmount    decimal.Decimal `json:"penalty_amount"`
	DaysOverdue      int             `json:"days_overdue"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// NewPenaltyAppliedEvent creates a new penalty applied event
func NewPenaltyAppliedEvent(bill *Bill) *PenaltyAppliedEvent {
	return &PenaltyAppliedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePenaltyApplied, aggregateTypeBill, bill.ID, bill.TenantID),
		BillNumber:       bill.BillNumber,
		PenaltyAmount:    bill.Penalty.Amount,
		DaysOverdue:      bill.Penalty.Days,
		TotalOutstanding: bill.RemainingAmount,
	}
}

// PenaltyAdjustedEvent is raised when an operator manually changes a penalty
type PenaltyAdjustedEvent struct {
	shared.BaseDomainEvent
	BillNumber     string          `json:"bill_number"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	Delta          decimal.Decimal `json:"delta"`
	NewAmount      decimal.Decimal `json:"new_amount"`
}

// NewPenaltyAdjustedEvent creates a new penalty adjusted event
func NewPenaltyAdjustedEvent(bill *Bill, previous, delta decimal.Decimal) *PenaltyAdjustedEvent {
	return &PenaltyAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePenaltyAdjusted, aggregateTypeBill, bill.ID, bill.TenantID),
		BillNumber:      bill.BillNumber,
		PreviousAmount:  previous,
		Delta:           delta,
		NewAmount:       bill.Penalty.Amount,
	}
}

// BillPaidEvent is raised when a bill is settled in full
type BillPaidEvent struct {
	shared.BaseDomainEvent
	BillNumber string          `json:"bill_number"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// NewBillPaidEvent creates a new bill paid event
func NewBillPaidEvent(bill *Bill) *BillPaidEvent {
	return &BillPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaid, aggregateTypeBill, bill.ID, bill.TenantID),
		BillNumber:      bill.BillNumber,
		PaidAmount:      bill.PaidAmount,
	}
}

// BillPartiallyPaidEvent is raised when a payment leaves an outstanding balance
type BillPartiallyPaidEvent struct {
	shared.BaseDomainEvent
	BillNumber      string          `json:"bill_number"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// NewBillPartiallyPaidEvent creates a new partial payment event
func NewBillPartiallyPaidEvent(bill *Bill, paymentAmount decimal.Decimal) *BillPartiallyPaidEvent {
	return &BillPartiallyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPartiallyPaid, aggregateTypeBill, bill.ID, bill.TenantID),
		BillNumber:      bill.BillNumber,
		PaymentAmount:   paymentAmount,
		RemainingAmount: bill.RemainingAmount,
	}
}

// PenaltiesBatchAppliedEvent summarizes a completed accrual run. It is not
// tied to a single bill or renter, so the aggregate and tenant IDs are nil.
type PenaltiesBatchAppliedEvent struct {
	shared.BaseDomainEvent
	BillsPenalized     int             `json:"bills_penalized"`
	BillsFailed        int             `json:"bills_failed"`
	TotalPenaltyAmount decimal.Decimal `json:"total_penalty_amount"`
}

// NewPenaltiesBatchAppliedEvent creates a new batch summary event
func NewPenaltiesBatchAppliedEvent(penalized, failed int, totalAmount decimal.Decimal) *PenaltiesBatchAppliedEvent {
	return &PenaltiesBatchAppliedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypePenaltiesBatchApplied, aggregateTypeBill, uuid.Nil, uuid.Nil),
		BillsPenalized:     penalized,
		BillsFailed:        failed,
		TotalPenaltyAmount: totalAmount,
	}
}
