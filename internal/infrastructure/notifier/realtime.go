package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rentledger/backend/internal/domain/notification"
)

// defaultChannelPrefix is the Redis Pub/Sub channel prefix for renter notifications
const defaultChannelPrefix = "rentledger:notifications"

// RedisNotificationPublisher pushes notifications to connected clients over
// Redis Pub/Sub. Each renter gets a dedicated channel so frontends can
// subscribe to just their own feed.
type RedisNotificationPublisher struct {
	client        *redis.Client
	ownsClient    bool
	channelPrefix string
	logger        *zap.Logger
}

// RedisNotificationPublisherOption is a functional option for the publisher
type RedisNotificationPublisherOption func(*RedisNotificationPublisher)

// WithChannelPrefix sets the Pub/Sub channel prefix
func WithChannelPrefix(prefix string) RedisNotificationPublisherOption {
	return func(p *RedisNotificationPublisher) {
		p.channelPrefix = prefix
	}
}

// WithPublisherLogger sets the logger for the publisher
func WithPublisherLogger(logger *zap.Logger) RedisNotificationPublisherOption {
	return func(p *RedisNotificationPublisher) {
		p.logger = logger
	}
}

// NewRedisNotificationPublisher creates a publisher with its own Redis client
func NewRedisNotificationPublisher(addr, password string, db int, opts ...RedisNotificationPublisherOption) (*RedisNotificationPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	publisher := &RedisNotificationPublisher{
		client:        client,
		ownsClient:    true,
		channelPrefix: defaultChannelPrefix,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(publisher)
	}
	return publisher, nil
}

// NewRedisNotificationPublisherWithClient creates a publisher with an existing client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisNotificationPublisherWithClient(client *redis.Client, opts ...RedisNotificationPublisherOption) *RedisNotificationPublisher {
	publisher := &RedisNotificationPublisher{
		client:        client,
		ownsClient:    false,
		channelPrefix: defaultChannelPrefix,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(publisher)
	}
	return publisher
}

// notificationPayload is the wire format pushed to subscribers
type notificationPayload struct {
	ID        string  `json:"id"`
	TenantID  string  `json:"tenant_id"`
	BillID    *string `json:"bill_id,omitempty"`
	Kind      string  `json:"kind"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	CreatedAt int64   `json:"created_at"`
}

// PublishNotification pushes a notification to the renter's channel
func (p *RedisNotificationPublisher) PublishNotification(ctx context.Context, n *notification.Notification) error {
	payload := notificationPayload{
		ID:        n.ID.String(),
		TenantID:  n.TenantID.String(),
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt.UnixNano(),
	}
	if n.BillID != nil {
		billID := n.BillID.String()
		payload.BillID = &billID
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal notification payload",
			zap.String("notification_id", n.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	channel := fmt.Sprintf("%s:%s", p.channelPrefix, n.TenantID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish notification",
			zap.String("channel", channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Close releases the Redis client when this publisher owns it
func (p *RedisNotificationPublisher) Close() error {
	if p.ownsClient {
		return p.client.Close()
	}
	return nil
}

var _ notification.RealtimePublisher = (*RedisNotificationPublisher)(nil)
