package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/shared"
)

// Channel is the delivery channel for a notification
type Channel string

const (
	ChannelInApp Channel = "IN_APP"
	ChannelEmail Channel = "EMAIL"
)

// Kind categorizes what a notification is about
type Kind string

const (
	KindPenaltyApplied Kind = "PENALTY_APPLIED"
	KindBatchSummary   Kind = "PENALTY_BATCH_SUMMARY"
	KindBillPaid       Kind = "BILL_PAID"
)

// Notification is an in-app message addressed to a renter. Email delivery is
// a side channel; only the in-app copy is persisted.
type Notification struct {
	shared.BaseEntity
	TenantID uuid.UUID  `json:"tenant_id"`
	BillID   *uuid.UUID `json:"bill_id,omitempty"`
	Kind     Kind       `json:"kind"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	ReadAt   *time.Time `json:"read_at,omitempty"`
}

// New creates an unread notification
func New(tenantID uuid.UUID, billID *uuid.UUID, kind Kind, title, body string) (*Notification, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Notification title cannot be empty")
	}
	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		BillID:     billID,
		Kind:       kind,
		Title:      title,
		Body:       body,
	}, nil
}

// IsRead returns true if the notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkRead marks the notification as read. Marking twice is a no-op.
func (n *Notification) MarkRead(now time.Time) {
	if n.ReadAt != nil {
		return
	}
	readAt := now
	n.ReadAt = &readAt
	n.UpdatedAt = now
}

// Repository persists in-app notifications
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*Notification], error)
	CountUnread(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// EmailSender delivers a notification copy by email. Implementations are
// best-effort; callers log failures and move on.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RealtimePublisher pushes a notification to connected clients, typically
// over a pub/sub channel. Best-effort like EmailSender.
type RealtimePublisher interface {
	PublishNotification(ctx context.Context, n *Notification) error
}
