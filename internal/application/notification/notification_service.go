package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/notification"
	"github.com/rentledger/backend/internal/domain/shared"
)

// NotificationService provides in-app notification queries for renters
type NotificationService struct {
	repo  notification.Repository
	clock shared.Clock
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo notification.Repository, clock shared.Clock) *NotificationService {
	return &NotificationService{repo: repo, clock: clock}
}

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	BillID    *uuid.UUID `json:"bill_id,omitempty"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ListForTenant returns a renter's notifications, newest first
func (s *NotificationService) ListForTenant(ctx context.Context, tenantID uuid.UUID, page, pageSize int) (shared.Paginated[*NotificationResponse], error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}

	result, err := s.repo.FindByTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[*NotificationResponse]{}, err
	}

	responses := make([]*NotificationResponse, len(result.Items))
	for i, n := range result.Items {
		responses[i] = toNotificationResponse(n)
	}
	return shared.NewPaginated(responses, result.Total, result.Page, result.PageSize), nil
}

// UnreadCount returns the number of unread notifications for a renter
func (s *NotificationService) UnreadCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, tenantID)
}

// MarkRead marks a notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) (*NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Notification not found")
	}

	n.MarkRead(s.clock.Now())
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}
	return toNotificationResponse(n), nil
}

func toNotificationResponse(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		TenantID:  n.TenantID,
		BillID:    n.BillID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
