package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPenaltyLogRepository implements PenaltyLogRepository using GORM
type GormPenaltyLogRepository struct {
	db *gorm.DB
}

// NewGormPenaltyLogRepository creates a new GormPenaltyLogRepository
func NewGormPenaltyLogRepository(db *gorm.DB) *GormPenaltyLogRepository {
	return &GormPenaltyLogRepository{db: db}
}

// Append persists a new penalty log entry
func (r *GormPenaltyLogRepository) Append(ctx context.Context, entry *billing.PenaltyLogEntry) error {
	model := models.PenaltyLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByBill returns all penalty log entries for a bill, oldest first
func (r *GormPenaltyLogRepository) FindByBill(ctx context.Context, billID uuid.UUID) ([]*billing.PenaltyLogEntry, error) {
	var logModels []models.PenaltyLogModel
	if err := r.db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("recorded_at ASC").
		Find(&logModels).Error; err != nil {
		return nil, err
	}
	entries := make([]*billing.PenaltyLogEntry, len(logModels))
	for i := range logModels {
		entries[i] = logModels[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormPenaltyLogRepository implements PenaltyLogRepository
var _ billing.PenaltyLogRepository = (*GormPenaltyLogRepository)(nil)
