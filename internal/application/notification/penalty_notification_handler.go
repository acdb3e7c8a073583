package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/domain/notification"
	"github.com/rentledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ContactDirectory resolves a renter's email address. Renters without a known
// address simply get no email copy.
type ContactDirectory interface {
	EmailForTenant(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PenaltyNotificationHandler turns penalty domain events into renter
// notifications: a persisted in-app message, a realtime push and an email
// copy. Every delivery is best-effort; a failure is logged and never
// propagated back to the accrual engine.
type PenaltyNotificationHandler struct {
	repo     notification.Repository
	realtime notification.RealtimePublisher
	email    notification.EmailSender
	contacts ContactDirectory
	logger   *zap.Logger
}

// NewPenaltyNotificationHandler creates a new handler
func NewPenaltyNotificationHandler(repo notification.Repository, logger *zap.Logger) *PenaltyNotificationHandler {
	return &PenaltyNotificationHandler{
		repo:   repo,
		logger: logger,
	}
}

// WithRealtimePublisher sets the realtime push channel
func (h *PenaltyNotificationHandler) WithRealtimePublisher(p notification.RealtimePublisher) *PenaltyNotificationHandler {
	h.realtime = p
	return h
}

// WithEmail sets the email sender and the directory used to resolve addresses
func (h *PenaltyNotificationHandler) WithEmail(sender notification.EmailSender, contacts ContactDirectory) *PenaltyNotificationHandler {
	h.email = sender
	h.contacts = contacts
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *PenaltyNotificationHandler) EventTypes() []string {
	return []string{
		billing.EventTypePenaltyApplied,
		billing.EventTypePenaltyAdjusted,
		billing.EventTypeBillPaid,
	}
}

// Handle processes a billing event into notifications
func (h *PenaltyNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.PenaltyAppliedEvent:
		title := fmt.Sprintf("Late fee added to bill %s", e.BillNumber)
		body := fmt.Sprintf("A late fee of %s was added to bill %s (%d day(s) overdue). Outstanding balance: %s.",
			e.PenaltyAmount.StringFixed(2), e.BillNumber, e.DaysOverdue, e.TotalOutstanding.StringFixed(2))
		h.deliver(ctx, e.TenantID(), e.AggregateID(), notification.KindPenaltyApplied, title, body)
	case *billing.PenaltyAdjustedEvent:
		title := fmt.Sprintf("Late fee on bill %s updated", e.BillNumber)
		body := fmt.Sprintf("The late fee on bill %s was changed from %s to %s.",
			e.BillNumber, e.PreviousAmount.StringFixed(2), e.NewAmount.StringFixed(2))
		h.deliver(ctx, e.TenantID(), e.AggregateID(), notification.KindPenaltyApplied, title, body)
	case *billing.BillPaidEvent:
		title := fmt.Sprintf("Bill %s settled", e.BillNumber)
		body := fmt.Sprintf("Bill %s has been paid in full. Thank you.", e.BillNumber)
		h.deliver(ctx, e.TenantID(), e.AggregateID(), notification.KindBillPaid, title, body)
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

func (h *PenaltyNotificationHandler) deliver(ctx context.Context, tenantID, billID uuid.UUID, kind notification.Kind, title, body string) {
	n, err := notification.New(tenantID, &billID, kind, title, body)
	if err != nil {
		h.logger.Error("failed to build notification",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return
	}

	if h.repo != nil {
		if err := h.repo.Save(ctx, n); err != nil {
			h.logger.Error("failed to persist in-app notification",
				zap.String("tenant_id", tenantID.String()),
				zap.String("bill_id", billID.String()),
				zap.Error(err))
		}
	}

	if h.realtime != nil {
		if err := h.realtime.PublishNotification(ctx, n); err != nil {
			h.logger.Warn("failed to push realtime notification",
				zap.String("notification_id", n.ID.String()),
				zap.Error(err))
		}
	}

	h.sendEmail(ctx, tenantID, title, body)
}

func (h *PenaltyNotificationHandler) sendEmail(ctx context.Context, tenantID uuid.UUID, subject, body string) {
	if h.email == nil || h.contacts == nil {
		return
	}

	address, err := h.contacts.EmailForTenant(ctx, tenantID)
	if err != nil || address == "" {
		if err != nil {
			h.logger.Warn("failed to resolve renter email",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		}
		return
	}

	if err := h.email.Send(ctx, address, subject, body); err != nil {
		h.logger.Warn("failed to send email notification",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}
}

// Ensure PenaltyNotificationHandler implements shared.EventHandler
var _ shared.EventHandler = (*PenaltyNotificationHandler)(nil)
