package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/notification"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/rentledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Save creates or updates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	model := models.NotificationModelFromDomain(n)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a notification by its ID. Returns nil without error when none exists.
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var model models.NotificationModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant returns notifications for a renter, newest first by default
func (r *GormNotificationRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*notification.Notification], error) {
	var empty shared.Paginated[*notification.Notification]
	base := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("tenant_id = ?", tenantID)

	if v, ok := filter.Filters["unread"]; ok {
		if unread, isBool := v.(bool); isBool && unread {
			base = base.Where("read_at IS NULL")
		}
	}
	if v, ok := filter.Filters["kind"]; ok {
		base = base.Where("kind = ?", v)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return empty, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	orderBy := ValidateSortField(filter.OrderBy, NotificationSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query := base.Order(orderBy + " " + orderDir).
		Offset((page - 1) * pageSize).Limit(pageSize)

	var notificationModels []models.NotificationModel
	if err := query.Find(&notificationModels).Error; err != nil {
		return empty, err
	}
	notifications := make([]*notification.Notification, len(notificationModels))
	for i := range notificationModels {
		notifications[i] = notificationModels[i].ToDomain()
	}
	return shared.NewPaginated(notifications, total, page, pageSize), nil
}

// CountUnread counts unread notifications for a renter
func (r *GormNotificationRepository) CountUnread(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("tenant_id = ? AND read_at IS NULL", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormNotificationRepository implements notification.Repository
var _ notification.Repository = (*GormNotificationRepository)(nil)
