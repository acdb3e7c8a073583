package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillModel is the persistence model for the Bill aggregate root.
type BillModel struct {
	AggregateModel
	BillNumber       string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	TenantID         uuid.UUID              `gorm:"type:uuid;not null;index"`
	PropertyID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	RoomID           uuid.UUID              `gorm:"type:uuid;not null"`
	PeriodMonth      int                    `gorm:"not null"`
	PeriodYear       int                    `gorm:"not null;index"`
	Kind             billing.BillKind       `gorm:"type:varchar(20);not null"`
	DueDate          time.Time              `gorm:"not null;index"`
	BaseAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PenaltyAmount    decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	PenaltyDays      int                    `gorm:"not null;default:0"`
	PenaltyAppliedAt *time.Time
	TotalAmount      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingAmount  decimal.Decimal        `gorm:"type:decimal(18,4);not null;index"`
	Status           billing.BillStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentRecords   billing.PaymentRecords `gorm:"type:jsonb;default:'[]'"`
	Remark           string                 `gorm:"type:text"`
	PaidAt           *time.Time
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill aggregate.
func (m *BillModel) ToDomain() *billing.Bill {
	bill := &billing.Bill{
		BillNumber: m.BillNumber,
		TenantID:   m.TenantID,
		PropertyID: m.PropertyID,
		RoomID:     m.RoomID,
		Period:     billing.BillPeriod{Month: m.PeriodMonth, Year: m.PeriodYear},
		Kind:       m.Kind,
		DueDate:    m.DueDate,
		BaseAmount: m.BaseAmount,
		Penalty: billing.Penalty{
			Amount:    m.PenaltyAmount,
			Days:      m.PenaltyDays,
			AppliedAt: m.PenaltyAppliedAt,
		},
		TotalAmount:     m.TotalAmount,
		PaidAmount:      m.PaidAmount,
		RemainingAmount: m.RemainingAmount,
		Status:          m.Status,
		PaymentRecords:  m.PaymentRecords,
		Remark:          m.Remark,
		PaidAt:          m.PaidAt,
	}
	bill.ID = m.ID
	bill.CreatedAt = m.CreatedAt
	bill.UpdatedAt = m.UpdatedAt
	bill.Version = m.Version
	return bill
}

// FromDomain populates the persistence model from a domain Bill aggregate.
func (m *BillModel) FromDomain(bill *billing.Bill) {
	m.FromDomainAggregateRoot(bill.BaseAggregateRoot)
	m.BillNumber = bill.BillNumber
	m.TenantID = bill.TenantID
	m.PropertyID = bill.PropertyID
	m.RoomID = bill.RoomID
	m.PeriodMonth = bill.Period.Month
	m.PeriodYear = bill.Period.Year
	m.Kind = bill.Kind
	m.DueDate = bill.DueDate
	m.BaseAmount = bill.BaseAmount
	m.PenaltyAmount = bill.Penalty.Amount
	m.PenaltyDays = bill.Penalty.Days
	m.PenaltyAppliedAt = bill.Penalty.AppliedAt
	m.TotalAmount = bill.TotalAmount
	m.PaidAmount = bill.PaidAmount
	m.RemainingAmount = bill.RemainingAmount
	m.Status = bill.Status
	m.PaymentRecords = bill.PaymentRecords
	m.Remark = bill.Remark
	m.PaidAt = bill.PaidAt
}

// BillModelFromDomain creates a new persistence model from a domain Bill.
func BillModelFromDomain(bill *billing.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(bill)
	return m
}

// PenaltyLogModel is the persistence model for penalty audit entries.
type PenaltyLogModel struct {
	BaseModel
	BillID         uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Kind           billing.PenaltyChangeKind `gorm:"type:varchar(20);not null"`
	PreviousAmount decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	NewAmount      decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	DaysOverdue    int                       `gorm:"not null;default:0"`
	Note           string                    `gorm:"type:varchar(500)"`
	RecordedAt     time.Time                 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PenaltyLogModel) TableName() string {
	return "penalty_logs"
}

// ToDomain converts the persistence model to a domain PenaltyLogEntry.
func (m *PenaltyLogModel) ToDomain() *billing.PenaltyLogEntry {
	return &billing.PenaltyLogEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		BillID:         m.BillID,
		Kind:           m.Kind,
		PreviousAmount: m.PreviousAmount,
		NewAmount:      m.NewAmount,
		DaysOverdue:    m.DaysOverdue,
		Note:           m.Note,
		RecordedAt:     m.RecordedAt,
	}
}

// PenaltyLogModelFromDomain creates a new persistence model from a domain entry.
func PenaltyLogModelFromDomain(e *billing.PenaltyLogEntry) *PenaltyLogModel {
	m := &PenaltyLogModel{}
	m.FromDomainBaseEntity(e.BaseEntity)
	m.BillID = e.BillID
	m.Kind = e.Kind
	m.PreviousAmount = e.PreviousAmount
	m.NewAmount = e.NewAmount
	m.DaysOverdue = e.DaysOverdue
	m.Note = e.Note
	m.RecordedAt = e.RecordedAt
	return m
}
