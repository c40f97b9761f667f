// Package messaging feeds billing events published on Redis into the dispatcher.
package messaging

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/event"
	"github.com/wekeepgrowing/semo-billing/pkg/messaging"
)

// BillingEventHandler applies one billing event for a user
type BillingEventHandler interface {
	HandlePayload(ctx context.Context, payload event.BillingPayload, userID int64) error
}

// Consumer subscribes to a channel of JSON billing events. Pub/sub has no
// redelivery, so failed events are logged and dropped.
type Consumer struct {
	client  messaging.RedisClient
	channel string
	handler BillingEventHandler
	logger  *zap.Logger
}

func NewConsumer(client messaging.RedisClient, channel string, handler BillingEventHandler, logger *zap.Logger) *Consumer {
	return &Consumer{
		client:  client,
		channel: channel,
		handler: handler,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled or the subscription ends
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.client.Subscribe(ctx, c.channel)
	if err != nil {
		return err
	}
	c.logger.Info("Billing event consumer subscribed", zap.String("channel", c.channel))

	for msg := range messages {
		c.handle(ctx, msg)
	}

	c.logger.Info("Billing event consumer stopped", zap.String("channel", c.channel))
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg messaging.Message) {
	var payload event.BillingPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Warn("Dropping undecodable billing event",
			zap.String("channel", msg.Channel),
			zap.Error(err))
		return
	}
	if payload.UserID == nil {
		c.logger.Warn("Dropping billing event without userId",
			zap.String("type", payload.Type),
			zap.String("event_id", payload.EventID))
		return
	}

	if err := c.handler.HandlePayload(ctx, payload, *payload.UserID); err != nil {
		c.logger.Error("Failed to handle billing event",
			zap.String("type", payload.Type),
			zap.Int64("user_id", *payload.UserID),
			zap.String("event_id", payload.EventID),
			zap.Error(err))
	}
}
