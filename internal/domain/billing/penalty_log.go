package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PenaltyChangeKind distinguishes engine accruals from manual overrides
type PenaltyChangeKind string

const (
	PenaltyChangeAccrual    PenaltyChangeKind = "ACCRUAL"
	PenaltyChangeAdjustment PenaltyChangeKind = "ADJUSTMENT"
)

// PenaltyLogEntry is an append-only audit record of a penalty change on a
// bill. One entry is written per accrual that changed the amount and per
// manual adjustment.
type PenaltyLogEntry struct {
	shared.BaseEntity
	BillID         uuid.UUID         `json:"bill_id"`
	Kind           PenaltyChangeKind `json:"kind"`
	PreviousAmount decimal.Decimal   `json:"previous_amount"`
	NewAmount      decimal.Decimal   `json:"new_amount"`
	DaysOverdue    int               `json:"days_overdue"`
	Note           string            `json:"note,omitempty"`
	RecordedAt     time.Time         `json:"recorded_at"`
}

// NewPenaltyLogEntry creates a new audit entry
func NewPenaltyLogEntry(billID uuid.UUID, kind PenaltyChangeKind, previous, newAmount decimal.Decimal, daysOverdue int, note string, recordedAt time.Time) *PenaltyLogEntry {
	return &PenaltyLogEntry{
		BaseEntity:     shared.NewBaseEntity(),
		BillID:         billID,
		Kind:           kind,
		PreviousAmount: previous,
		NewAmount:      newAmount,
		DaysOverdue:    daysOverdue,
		Note:           note,
		RecordedAt:     recordedAt,
	}
}

// PenaltyLogRepository persists the penalty audit trail
type PenaltyLogRepository interface {
	Append(ctx context.Context, entry *PenaltyLogEntry) error
	FindByBill(ctx context.Context, billID uuid.UUID) ([]*PenaltyLogEntry, error)
}
