package notification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tenantID := uuid.New()
	billID := uuid.New()

	t.Run("creates unread notification", func(t *testing.T) {
		n, err := New(tenantID, &billID, KindPenaltyApplied, "Late fee applied", "A late fee of 250 was added to bill BILL-202401-00001")
		require.NoError(t, err)

		assert.Equal(t, tenantID, n.TenantID)
		require.NotNil(t, n.BillID)
		assert.Equal(t, billID, *n.BillID)
		assert.False(t, n.IsRead())
	})

	t.Run("rejects nil tenant", func(t *testing.T) {
		_, err := New(uuid.Nil, nil, KindPenaltyApplied, "title", "body")
		require.Error(t, err)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := New(tenantID, nil, KindPenaltyApplied, "", "body")
		require.Error(t, err)
	})
}

func TestMarkRead(t *testing.T) {
	n, err := New(uuid.New(), nil, KindBillPaid, "Bill settled", "")
	require.NoError(t, err)

	first := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	n.MarkRead(first)
	require.True(t, n.IsRead())
	assert.Equal(t, first, *n.ReadAt)

	// second mark keeps the original timestamp
	n.MarkRead(first.Add(time.Hour))
	assert.Equal(t, first, *n.ReadAt)
}
