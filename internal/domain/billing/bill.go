package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/rentledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BillStatus represents the status of a bill
type BillStatus string

const (
	BillStatusPending BillStatus = "PENDING" // Issued, nothing paid, not yet penalized
	BillStatusPartial BillStatus = "PARTIAL" // Partially paid, outstanding balance remains
	BillStatusOverdue BillStatus = "OVERDUE" // Past due date with a penalty applied
	BillStatusPaid    BillStatus = "PAID"    // Fully paid, remaining = 0
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusPartial, BillStatusOverdue, BillStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of BillStatus
func (s BillStatus) String() string {
	return string(s)
}

// CanAccruePenalty returns true if the accrual engine may touch a bill in this status
func (s BillStatus) CanAccruePenalty() bool {
	return s == BillStatusPending || s == BillStatusPartial || s == BillStatusOverdue
}

// CanApplyPayment returns true if payments can be applied in this status
func (s BillStatus) CanApplyPayment() bool {
	return s != BillStatusPaid
}

// BillKind represents what a bill charges for
type BillKind string

const (
	BillKindRent    BillKind = "RENT"
	BillKindUtility BillKind = "UTILITY"
	BillKindOther   BillKind = "OTHER"
)

// IsValid checks if the bill kind is valid
func (k BillKind) IsValid() bool {
	switch k {
	case BillKindRent, BillKindUtility, BillKindOther:
		return true
	}
	return false
}

// Penalty is the late-payment surcharge recorded against a bill.
// Amount and Days are always derived together from (dueDate, now) by the
// penalty policy; they never accumulate across accrual runs.
type Penalty struct {
	Amount    decimal.Decimal `json:"amount"`
	Days      int             `json:"days"`
	AppliedAt *time.Time      `json:"applied_at,omitempty"`
}

// IsZero returns true if no penalty is recorded
func (p Penalty) IsZero() bool {
	return p.Amount.IsZero() && p.Days == 0 && p.AppliedAt == nil
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodOther    PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentRecord represents a payment applied to a bill.
// This is a value object within the Bill aggregate, stored as JSONB.
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
	AppliedAt time.Time       `json:"applied_at"`
}

// PaymentRecords is a slice of PaymentRecord that implements GORM Scanner/Valuer for JSONB storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// BillPeriod identifies the billing month
type BillPeriod struct {
	Month int `json:"month"` // 1-12
	Year  int `json:"year"`
}

// IsValid checks if the period is a valid month/year
func (p BillPeriod) IsValid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000
}

// String returns the period as YYYY-MM
func (p BillPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Bill is the aggregate root for a single billing-period charge owed by a
// renter. The accrual engine mutates the penalty fields and status; payment
// recording mutates PaidAmount and status. Amount invariants hold at every
// mutation:
//
//	TotalAmount     = BaseAmount + Penalty.Amount
//	RemainingAmount = max(0, TotalAmount - PaidAmount)
//
// BaseAmount is immutable once set. Totals are always recomputed from it,
// never reconstructed by subtracting a previously-applied penalty.
type Bill struct {
	shared.BaseAggregateRoot
	BillNumber      string          `json:"bill_number"`
	TenantID        uuid.UUID       `json:"tenant_id"` // the renter
	PropertyID      uuid.UUID       `json:"property_id"`
	RoomID          uuid.UUID       `json:"room_id"`
	Period          BillPeriod      `json:"period"`
	Kind            BillKind        `json:"kind"`
	DueDate         time.Time       `json:"due_date"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	Penalty         Penalty         `json:"penalty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          BillStatus      `json:"status"`
	PaymentRecords  PaymentRecords  `json:"payment_records"`
	Remark          string          `json:"remark,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
}

// NewBill creates a new bill in PENDING status with a zero penalty
func NewBill(
	billNumber string,
	tenantID uuid.UUID,
	propertyID uuid.UUID,
	roomID uuid.UUID,
	period BillPeriod,
	kind BillKind,
	baseAmount valueobject.Money,
	dueDate time.Time,
) (*Bill, error) {
	if billNumber == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NUMBER", "Bill number cannot be empty")
	}
	if len(billNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_BILL_NUMBER", "Bill number cannot exceed 50 characters")
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if roomID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ROOM", "Room ID cannot be empty")
	}
	if !period.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Billing period must be a valid month and year")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Bill kind is not valid")
	}
	if baseAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Base amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}

	b := &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BillNumber:        billNumber,
		TenantID:          tenantID,
		PropertyID:        propertyID,
		RoomID:            roomID,
		Period:            period,
		Kind:              kind,
		DueDate:           dueDate,
		BaseAmount:        baseAmount.Amount(),
		Penalty:           Penalty{Amount: decimal.Zero},
		TotalAmount:       baseAmount.Amount(),
		PaidAmount:        decimal.Zero,
		RemainingAmount:   baseAmount.Amount(),
		Status:            BillStatusPending,
		PaymentRecords:    PaymentRecords{},
	}

	b.AddDomainEvent(NewBillCreatedEvent(b))

	return b, nil
}

// recomputeTotals re-derives the dependent amounts from the immutable base.
func (b *Bill) recomputeTotals() {
	b.TotalAmount = b.BaseAmount.Add(b.Penalty.Amount)
	remaining := b.TotalAmount.Sub(b.PaidAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	b.RemainingAmount = remaining
}

// ApplyPenalty records the assessed penalty on the bill, replacing any
// previously recorded penalty. Amounts are recomputed from BaseAmount.
// PENDING moves to OVERDUE; PARTIAL keeps its status label but carries the
// penalty in its amounts.
func (b *Bill) ApplyPenalty(assessment PenaltyAssessment, now time.Time) error {
	if !b.Status.CanAccruePenalty() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply penalty to bill in %s status", b.Status))
	}
	if !assessment.ShouldApply {
		return shared.NewDomainError("INVALID_INPUT", "Assessment does not call for a penalty")
	}
	if assessment.Amount.IsNegative() || assessment.Days < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Penalty amount and days must be non-negative")
	}

	appliedAt := now
	b.Penalty = Penalty{
		Amount:    assessment.Amount,
		Days:      assessment.Days,
		AppliedAt: &appliedAt,
	}
	b.recomputeTotals()

	if b.Status == BillStatusPending {
		b.Status = BillStatusOverdue
	}

	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewPenaltyAppliedEvent(b))

	return nil
}

// AdjustPenalty applies an administrative delta to the current penalty,
// clamping at zero. Clamping to zero clears the applied-at timestamp and the
// day count. Returns the penalty before and after the adjustment.
func (b *Bill) AdjustPenalty(delta decimal.Decimal, now time.Time) (previous, current decimal.Decimal, err error) {
	if b.Status == BillStatusPaid {
		return decimal.Zero, decimal.Zero, shared.NewDomainError("INVALID_STATE", "Cannot adjust penalty on a paid bill")
	}

	previous = b.Penalty.Amount
	current = previous.Add(delta)
	if current.IsNegative() {
		current = decimal.Zero
	}

	if current.IsZero() {
		b.Penalty = Penalty{Amount: decimal.Zero}
	} else {
		b.Penalty.Amount = current
		if b.Penalty.AppliedAt == nil {
			appliedAt := now
			b.Penalty.AppliedAt = &appliedAt
		}
	}
	b.recomputeTotals()

	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewPenaltyAdjustedEvent(b, previous, delta))

	return previous, current, nil
}

// RecordPayment applies a payment to the bill. PaidAmount only ever grows.
// Overpayment beyond the remaining amount is rejected.
func (b *Bill) RecordPayment(amount valueobject.Money, method PaymentMethod, reference string, now time.Time) error {
	if !b.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to bill in %s status", b.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(b.RemainingAmount) {
		return shared.NewDomainError("EXCEEDS_REMAINING", fmt.Sprintf("Payment amount %s exceeds remaining amount %s",
			amount.Amount().StringFixed(2), b.RemainingAmount.StringFixed(2)))
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	b.PaymentRecords = append(b.PaymentRecords, PaymentRecord{
		ID:        uuid.New(),
		Amount:    amount.Amount(),
		Method:    method,
		Reference: reference,
		AppliedAt: now,
	})

	b.PaidAmount = b.PaidAmount.Add(amount.Amount())
	b.recomputeTotals()

	if b.RemainingAmount.IsZero() {
		b.Status = BillStatusPaid
		paidAt := now
		b.PaidAt = &paidAt
		b.AddDomainEvent(NewBillPaidEvent(b))
	} else {
		// An overdue bill stays overdue until settled in full.
		if b.Status == BillStatusPending {
			b.Status = BillStatusPartial
		}
		b.AddDomainEvent(NewBillPartiallyPaidEvent(b, amount.Amount()))
	}

	b.UpdatedAt = now
	b.IncrementVersion()

	return nil
}

// SetRemark sets the remark
func (b *Bill) SetRemark(remark string) {
	b.Remark = remark
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// Helper methods

// GetBaseAmountMoney returns the base amount as Money
func (b *Bill) GetBaseAmountMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(b.BaseAmount)
}

// GetTotalAmountMoney returns the total amount as Money
func (b *Bill) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(b.TotalAmount)
}

// GetRemainingAmountMoney returns the remaining amount as Money
func (b *Bill) GetRemainingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(b.RemainingAmount)
}

// IsPaid returns true if the bill is fully paid
func (b *Bill) IsPaid() bool {
	return b.Status == BillStatusPaid
}

// IsOverdueAt returns true if the bill is past due and not fully paid at the given instant
func (b *Bill) IsOverdueAt(now time.Time) bool {
	if b.Status == BillStatusPaid {
		return false
	}
	return now.After(b.DueDate)
}

// DaysOverdueAt returns the number of whole days past due at the given
// instant, clamped to a minimum of 1 once the due date has passed.
func (b *Bill) DaysOverdueAt(now time.Time) int {
	if !b.IsOverdueAt(now) {
		return 0
	}
	days := int(now.Sub(b.DueDate).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// PaymentCount returns the number of payments applied
func (b *Bill) PaymentCount() int {
	return len(b.PaymentRecords)
}
