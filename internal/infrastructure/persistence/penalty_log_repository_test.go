package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/infrastructure/persistence/models"
)

func setupPenaltyLogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.PenaltyLogModel{})
	require.NoError(t, err)

	return db
}

func TestGormPenaltyLogRepository_AppendAndFindByBill(t *testing.T) {
	db := setupPenaltyLogTestDB(t)
	repo := NewGormPenaltyLogRepository(db)
	ctx := context.Background()

	billID := uuid.New()
	recordedAt := time.Date(2024, 2, 1, 2, 0, 0, 0, time.UTC)

	entry := billing.NewPenaltyLogEntry(billID, billing.PenaltyChangeAccrual,
		decimal.Zero, decimal.NewFromInt(50), 1, "", recordedAt)
	require.NoError(t, repo.Append(ctx, entry))

	entries, err := repo.FindByBill(ctx, billID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, billID, got.BillID)
	assert.Equal(t, billing.PenaltyChangeAccrual, got.Kind)
	assert.True(t, got.PreviousAmount.IsZero())
	assert.True(t, got.NewAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, got.DaysOverdue)
	assert.True(t, got.RecordedAt.Equal(recordedAt))
}

func TestGormPenaltyLogRepository_FindByBill_OrderedOldestFirst(t *testing.T) {
	db := setupPenaltyLogTestDB(t)
	repo := NewGormPenaltyLogRepository(db)
	ctx := context.Background()

	billID := uuid.New()
	base := time.Date(2024, 2, 1, 2, 0, 0, 0, time.UTC)

	// Insert out of chronological order
	second := billing.NewPenaltyLogEntry(billID, billing.PenaltyChangeAccrual,
		decimal.NewFromInt(50), decimal.NewFromInt(100), 2, "", base.Add(24*time.Hour))
	first := billing.NewPenaltyLogEntry(billID, billing.PenaltyChangeAccrual,
		decimal.Zero, decimal.NewFromInt(50), 1, "", base)
	third := billing.NewPenaltyLogEntry(billID, billing.PenaltyChangeAdjustment,
		decimal.NewFromInt(100), decimal.NewFromInt(75), 2, "goodwill waiver", base.Add(30*time.Hour))

	require.NoError(t, repo.Append(ctx, second))
	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, third))

	entries, err := repo.FindByBill(ctx, billID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.True(t, entries[0].NewAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, entries[1].NewAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, entries[2].NewAmount.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, billing.PenaltyChangeAdjustment, entries[2].Kind)
	assert.Equal(t, "goodwill waiver", entries[2].Note)
}

func TestGormPenaltyLogRepository_FindByBill_ScopedToBill(t *testing.T) {
	db := setupPenaltyLogTestDB(t)
	repo := NewGormPenaltyLogRepository(db)
	ctx := context.Background()

	billID := uuid.New()
	otherBillID := uuid.New()
	now := time.Now().UTC()

	mine := billing.NewPenaltyLogEntry(billID, billing.PenaltyChangeAccrual,
		decimal.Zero, decimal.NewFromInt(50), 1, "", now)
	other := billing.NewPenaltyLogEntry(otherBillID, billing.PenaltyChangeAccrual,
		decimal.Zero, decimal.NewFromInt(50), 1, "", now)

	require.NoError(t, repo.Append(ctx, mine))
	require.NoError(t, repo.Append(ctx, other))

	entries, err := repo.FindByBill(ctx, billID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, billID, entries[0].BillID)
}

func TestGormPenaltyLogRepository_FindByBill_Empty(t *testing.T) {
	db := setupPenaltyLogTestDB(t)
	repo := NewGormPenaltyLogRepository(db)

	entries, err := repo.FindByBill(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
