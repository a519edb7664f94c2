package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"thelocals/models"
)

// Publisher pushes booking row changes onto the change feed.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger}
}

// PublishBookingChange broadcasts the full row to every subscriber of the
// booking's channel. Publish failures are reported, not fatal: the row is
// already persisted and a reconnecting projector re-fetches on activation.
func (p *Publisher) PublishBookingChange(ctx context.Context, b *models.Booking) error {
	delta := models.DeltaFromBooking(b)
	payload, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("failed to encode booking change: %w", err)
	}
	if err := p.client.Publish(ctx, channelFor(b.ID), payload).Err(); err != nil {
		p.logger.Warn("failed to publish booking change",
			zap.String("bookingId", b.ID), zap.Error(err))
		return fmt.Errorf("failed to publish booking change: %w", err)
	}
	return nil
}
