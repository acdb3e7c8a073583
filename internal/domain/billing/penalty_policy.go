package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPenaltyRatePerDay is the flat daily late fee in the default currency.
var DefaultPenaltyRatePerDay = decimal.NewFromInt(50)

// PenaltyAssessment is the outcome of evaluating a bill against a penalty
// policy at a given instant. When ShouldApply is false, Reason says why.
type PenaltyAssessment struct {
	ShouldApply bool
	Amount      decimal.Decimal
	Days        int
	Reason      string
}

// Assessment reasons for bills that do not qualify.
const (
	ReasonAlreadyPaid = "already paid"
	ReasonNotDue      = "not due"
)

// PenaltyPolicy computes the penalty a bill carries at a given instant.
// Implementations must be pure: the same (bill, now) pair always yields the
// same assessment, so re-running accrual never compounds penalties.
type PenaltyPolicy interface {
	Evaluate(bill *Bill, now time.Time) PenaltyAssessment
}

// DailyRatePolicy charges a flat rate per whole day overdue. The day count
// floors at 1 once the due date has passed, so a bill one hour late already
// carries a full day's penalty.
type DailyRatePolicy struct {
	ratePerDay decimal.Decimal
}

// NewDailyRatePolicy creates a policy with the given daily rate.
// Non-positive rates fall back to the default.
func NewDailyRatePolicy(ratePerDay decimal.Decimal) *DailyRatePolicy {
	if ratePerDay.LessThanOrEqual(decimal.Zero) {
		ratePerDay = DefaultPenaltyRatePerDay
	}
	return &DailyRatePolicy{ratePerDay: ratePerDay}
}

// RatePerDay returns the configured daily rate
func (p *DailyRatePolicy) RatePerDay() decimal.Decimal {
	return p.ratePerDay
}

// Evaluate computes the penalty the bill should carry at the given instant
func (p *DailyRatePolicy) Evaluate(bill *Bill, now time.Time) PenaltyAssessment {
	if bill.IsPaid() {
		return PenaltyAssessment{ShouldApply: false, Amount: decimal.Zero, Reason: ReasonAlreadyPaid}
	}
	if !now.After(bill.DueDate) {
		return PenaltyAssessment{ShouldApply: false, Amount: decimal.Zero, Reason: ReasonNotDue}
	}

	days := bill.DaysOverdueAt(now)
	return PenaltyAssessment{
		ShouldApply: true,
		Amount:      p.ratePerDay.Mul(decimal.NewFromInt(int64(days))),
		Days:        days,
	}
}
