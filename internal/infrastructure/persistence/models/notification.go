package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/notification"
	"github.com/rentledger/backend/internal/domain/shared"
)

// NotificationModel is the persistence model for in-app notifications.
type NotificationModel struct {
	BaseModel
	TenantID uuid.UUID         `gorm:"type:uuid;not null;index"`
	BillID   *uuid.UUID        `gorm:"type:uuid;index"`
	Kind     notification.Kind `gorm:"type:varchar(30);not null"`
	Title    string            `gorm:"type:varchar(200);not null"`
	Body     string            `gorm:"type:text"`
	ReadAt   *time.Time        `gorm:"index"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification.
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID: m.TenantID,
		BillID:   m.BillID,
		Kind:     m.Kind,
		Title:    m.Title,
		Body:     m.Body,
		ReadAt:   m.ReadAt,
	}
}

// NotificationModelFromDomain creates a new persistence model from a domain Notification.
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{}
	m.FromDomainBaseEntity(n.BaseEntity)
	m.TenantID = n.TenantID
	m.BillID = n.BillID
	m.Kind = n.Kind
	m.Title = n.Title
	m.Body = n.Body
	m.ReadAt = n.ReadAt
	return m
}
