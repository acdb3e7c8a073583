package notifier

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentledger/backend/internal/infrastructure/config"
)

func TestStaticContactDirectory(t *testing.T) {
	t.Run("returns registered email", func(t *testing.T) {
		dir := NewStaticContactDirectory()
		tenantID := uuid.New()
		dir.SetEmail(tenantID, "renter@example.com")

		email, err := dir.EmailForTenant(context.Background(), tenantID)

		require.NoError(t, err)
		assert.Equal(t, "renter@example.com", email)
	})

	t.Run("returns empty for unknown renter", func(t *testing.T) {
		dir := NewStaticContactDirectory()

		email, err := dir.EmailForTenant(context.Background(), uuid.New())

		require.NoError(t, err)
		assert.Empty(t, email)
	})

	t.Run("empty address removes the entry", func(t *testing.T) {
		dir := NewStaticContactDirectory()
		tenantID := uuid.New()
		dir.SetEmail(tenantID, "renter@example.com")
		dir.SetEmail(tenantID, "")

		email, err := dir.EmailForTenant(context.Background(), tenantID)

		require.NoError(t, err)
		assert.Empty(t, email)
	})
}

func TestNoopEmailSender(t *testing.T) {
	sender := NewNoopEmailSender(zap.NewNop())

	err := sender.Send(context.Background(), "renter@example.com", "subject", "body")

	assert.NoError(t, err)
}

func TestSMTPEmailSender_ContextCancelled(t *testing.T) {
	sender := NewSMTPEmailSender(config.SMTPConfig{
		Host: "localhost",
		Port: 2525,
		From: "billing@rentledger.local",
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.Send(ctx, "renter@example.com", "subject", "body")

	assert.ErrorIs(t, err, context.Canceled)
}
