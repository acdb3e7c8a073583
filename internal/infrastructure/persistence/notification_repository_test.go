package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rentledger/backend/internal/domain/notification"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/rentledger/backend/internal/infrastructure/persistence/models"
)

func setupNotificationTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.NotificationModel{})
	require.NoError(t, err)

	return db
}

func newNotification(t *testing.T, tenantID uuid.UUID, kind notification.Kind, title string) *notification.Notification {
	t.Helper()
	n, err := notification.New(tenantID, nil, kind, title, "body text")
	require.NoError(t, err)
	return n
}

func TestGormNotificationRepository_SaveAndFindByID(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	billID := uuid.New()
	n, err := notification.New(tenantID, &billID, notification.KindPenaltyApplied,
		"Late penalty applied", "A penalty of 50 was added to bill BILL-202401-00001")
	require.NoError(t, err)

	err = repo.Save(ctx, n)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, n.ID, found.ID)
	assert.Equal(t, tenantID, found.TenantID)
	require.NotNil(t, found.BillID)
	assert.Equal(t, billID, *found.BillID)
	assert.Equal(t, notification.KindPenaltyApplied, found.Kind)
	assert.Equal(t, "Late penalty applied", found.Title)
	assert.False(t, found.IsRead())
}

func TestGormNotificationRepository_FindByID_NotFound(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewGormNotificationRepository(db)

	found, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGormNotificationRepository_Save_MarkRead(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()

	n := newNotification(t, uuid.New(), notification.KindBillPaid, "Bill paid")
	require.NoError(t, repo.Save(ctx, n))

	n.MarkRead(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, n))

	found, err := repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsRead())
	require.NotNil(t, found.ReadAt)
	assert.True(t, found.ReadAt.Equal(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)))
}

func TestGormNotificationRepository_FindByTenant(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	otherTenant := uuid.New()

	first := newNotification(t, tenantID, notification.KindPenaltyApplied, "first")
	second := newNotification(t, tenantID, notification.KindBillPaid, "second")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	other := newNotification(t, otherTenant, notification.KindPenaltyApplied, "other renter")

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, other))

	result, err := repo.FindByTenant(ctx, tenantID, shared.Filter{Page: 1, PageSize: 20})
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Items, 2)
	// Newest first
	assert.Equal(t, "second", result.Items[0].Title)
	assert.Equal(t, "first", result.Items[1].Title)
}

func TestGormNotificationRepository_FindByTenant_Filters(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	read := newNotification(t, tenantID, notification.KindPenaltyApplied, "read one")
	read.MarkRead(time.Now())
	unread := newNotification(t, tenantID, notification.KindBillPaid, "unread one")

	require.NoError(t, repo.Save(ctx, read))
	require.NoError(t, repo.Save(ctx, unread))

	t.Run("unread only", func(t *testing.T) {
		result, err := repo.FindByTenant(ctx, tenantID, shared.Filter{
			Page:     1,
			PageSize: 20,
			Filters:  map[string]any{"unread": true},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Total)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "unread one", result.Items[0].Title)
	})

	t.Run("by kind", func(t *testing.T) {
		result, err := repo.FindByTenant(ctx, tenantID, shared.Filter{
			Page:     1,
			PageSize: 20,
			Filters:  map[string]any{"kind": string(notification.KindBillPaid)},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Total)
		require.Len(t, result.Items, 1)
		assert.Equal(t, notification.KindBillPaid, result.Items[0].Kind)
	})
}

func TestGormNotificationRepository_FindByTenant_Pagination(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		n := newNotification(t, tenantID, notification.KindPenaltyApplied, "entry")
		n.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, n))
	}

	result, err := repo.FindByTenant(ctx, tenantID, shared.Filter{Page: 2, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.Total)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 3, result.TotalPages)
}

func TestGormNotificationRepository_CountUnread(t *testing.T) {
	db := setupNotificationTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	read := newNotification(t, tenantID, notification.KindPenaltyApplied, "read")
	read.MarkRead(time.Now())
	unread1 := newNotification(t, tenantID, notification.KindPenaltyApplied, "unread 1")
	unread2 := newNotification(t, tenantID, notification.KindBillPaid, "unread 2")
	otherRenter := newNotification(t, uuid.New(), notification.KindPenaltyApplied, "elsewhere")

	require.NoError(t, repo.Save(ctx, read))
	require.NoError(t, repo.Save(ctx, unread1))
	require.NoError(t, repo.Save(ctx, unread2))
	require.NoError(t, repo.Save(ctx, otherRenter))

	count, err := repo.CountUnread(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
