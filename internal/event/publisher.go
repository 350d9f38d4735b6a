// Package event provides model event publishing over Redis pub/sub.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stalker/stalker/internal/model"
)

// Model event names published after successful writes.
const (
	UserSave   = "user:save"
	UserUpdate = "user:update"
)

// PublishTimeout is the max time to wait for a Redis publish.
const PublishTimeout = 100 * time.Millisecond

// Publisher broadcasts model events on Redis pub/sub channels.
// Channels are namespaced as "<namespace>:<event>".
type Publisher struct {
	redis     *redis.Client
	namespace string
	logger    *slog.Logger
}

// NewPublisher creates a new model event publisher.
func NewPublisher(client *redis.Client, namespace string, logger *slog.Logger) *Publisher {
	return &Publisher{
		redis:     client,
		namespace: namespace,
		logger:    logger.With("component", "event.publisher"),
	}
}

// Channel returns the pub/sub channel name for an event.
func (p *Publisher) Channel(event string) string {
	return p.namespace + ":" + event
}

// Publish broadcasts an event carrying the full user record.
// Delivery is fire-and-forget: there is no acknowledgment from subscribers
// and a publish failure must never fail the write that triggered it.
func (p *Publisher) Publish(ctx context.Context, event string, user *model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	if err := p.redis.Publish(ctx, p.Channel(event), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}

	p.logger.Debug("event published",
		"event", event,
		"user_id", user.ID,
	)

	return nil
}
