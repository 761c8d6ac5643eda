package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event types pushed to dashboards.
const (
	EventMessageNew          = "message:new"
	EventConversationRead    = "conversation:read"
	EventConversationDeleted = "conversation:deleted"
	EventUnreadCount         = "unread:count"
	EventApplicationUpdated  = "application:updated"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

// Publisher fans events out to a user's live connections. Delivery is best
// effort; the polling endpoints stay authoritative.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event Event)
}

// ChannelName is the redis channel carrying one user's events.
func ChannelName(userID uuid.UUID) string {
	return fmt.Sprintf("user_events:%s", userID.String())
}

type redisPublisher struct {
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewPublisher returns a publisher backed by redis PUBLISH. With a nil client
// every Publish is a no-op.
func NewPublisher(redisClient *redis.Client, logger *zap.Logger) Publisher {
	return &redisPublisher{redisClient: redisClient, logger: logger}
}

func (p *redisPublisher) Publish(ctx context.Context, userID uuid.UUID, event Event) {
	if p.redisClient == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	if err := p.redisClient.Publish(ctx, ChannelName(userID), payload).Err(); err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}
