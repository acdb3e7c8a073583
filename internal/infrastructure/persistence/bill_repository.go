package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/rentledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// Save creates or updates a bill
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves the bill guarded by its optimistic version.
// Select("*") forces every column into the UPDATE: a struct update would
// skip zero-valued fields, silently dropping writes that clear a penalty
// (days back to 0, applied_at back to NULL).
func (r *GormBillRepository) SaveWithLock(ctx context.Context, bill *billing.Bill, expectedVersion int) error {
	model := models.BillModelFromDomain(bill)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", bill.ID, expectedVersion).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a bill by its ID. Returns nil without error when no bill exists.
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBillNumber finds a bill by its bill number
func (r *GormBillRepository) FindByBillNumber(ctx context.Context, billNumber string) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).
		Where("bill_number = ?", billNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOverdueCandidates returns the IDs of all unpaid bills past their due date
func (r *GormBillRepository) FindOverdueCandidates(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Where("status <> ? AND due_date < ?", billing.BillStatusPaid, now).
		Order("due_date ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindByTenant finds bills for a renter with pagination
func (r *GormBillRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*billing.Bill], error) {
	base := r.db.WithContext(ctx).Model(&models.BillModel{}).
		Where("tenant_id = ?", tenantID)
	return r.paginate(base, filter)
}

// List finds bills matching the filter with pagination
func (r *GormBillRepository) List(ctx context.Context, filter shared.Filter) (shared.Paginated[*billing.Bill], error) {
	base := r.db.WithContext(ctx).Model(&models.BillModel{})
	return r.paginate(base, filter)
}

func (r *GormBillRepository) paginate(base *gorm.DB, filter shared.Filter) (shared.Paginated[*billing.Bill], error) {
	var empty shared.Paginated[*billing.Bill]
	base = r.applyBillFilter(base, filter).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return empty, err
	}

	query := r.applyPagination(base, filter)
	var billModels []models.BillModel
	if err := query.Find(&billModels).Error; err != nil {
		return empty, err
	}

	bills := make([]*billing.Bill, len(billModels))
	for i := range billModels {
		bills[i] = billModels[i].ToDomain()
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return shared.NewPaginated(bills, total, page, pageSize), nil
}

// ExistsByBillNumber checks if a bill number is already taken
func (r *GormBillRepository) ExistsByBillNumber(ctx context.Context, billNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Where("bill_number = ?", billNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateBillNumber generates a unique bill number for the period
func (r *GormBillRepository) GenerateBillNumber(ctx context.Context, period billing.BillPeriod) (string, error) {
	// Format: BILL-YYYYMM-XXXXX
	prefix := fmt.Sprintf("BILL-%04d%02d-", period.Year, period.Month)

	// Find the highest number for the period
	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Select("bill_number").
		Where("bill_number LIKE ?", prefix+"%").
		Order("bill_number DESC").
		Limit(1).
		Pluck("bill_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// Delete removes a bill
func (r *GormBillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BillModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyBillFilter applies filter options without pagination
func (r *GormBillRepository) applyBillFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("bill_number ILIKE ? OR remark ILIKE ?", searchPattern, searchPattern)
	}

	if v, ok := filter.Filters["tenant_id"]; ok {
		query = query.Where("tenant_id = ?", v)
	}
	if v, ok := filter.Filters["property_id"]; ok {
		query = query.Where("property_id = ?", v)
	}
	if v, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["kind"]; ok {
		query = query.Where("kind = ?", v)
	}
	if v, ok := filter.Filters["overdue"]; ok {
		if overdue, isBool := v.(bool); isBool && overdue {
			query = query.Where("status <> ? AND due_date < ?", billing.BillStatusPaid, time.Now())
		}
	}

	return query
}

// applyPagination applies pagination and ordering to the query
func (r *GormBillRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, BillSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return query.Offset(offset).Limit(pageSize)
}

// Ensure GormBillRepository implements BillRepository
var _ billing.BillRepository = (*GormBillRepository)(nil)
