package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"thelocals/models"
	"thelocals/projector"
)

// Subscriber adapts Redis pub/sub to the projector's Feed interface.
// go-redis reconnects the pub/sub link on its own; the health prober
// surfaces gaps to the projector as degraded/live flips so the UI can show
// a staleness indicator without ever clearing known state.
type Subscriber struct {
	client *redis.Client
	logger *zap.Logger
}

func NewSubscriber(client *redis.Client, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{client: client, logger: logger}
}

const healthProbeInterval = 15 * time.Second

// Subscribe opens the booking's change channel and pumps deliveries into
// onUpdate until the returned unsubscribe func (or ctx) tears it down.
func (s *Subscriber) Subscribe(ctx context.Context, bookingID string,
	onUpdate func(models.BookingDelta),
	onState func(projector.ConnectionState)) (projector.Unsubscribe, error) {

	sub := s.client.Subscribe(ctx, channelFor(bookingID))
	// Confirm the subscription before reporting success.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	done := make(chan struct{})
	go s.pump(ctx, bookingID, sub, onUpdate, onState, done)

	var once bool
	return func() {
		if once {
			return
		}
		once = true
		_ = sub.Close()
		<-done
	}, nil
}

func (s *Subscriber) pump(ctx context.Context, bookingID string, sub *redis.PubSub,
	onUpdate func(models.BookingDelta),
	onState func(projector.ConnectionState), done chan struct{}) {

	defer close(done)

	msgs := sub.Channel()
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()

	onState(projector.ConnLive)
	healthy := true

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				onState(projector.ConnLost)
				return
			}
			var delta models.BookingDelta
			if err := json.Unmarshal([]byte(msg.Payload), &delta); err != nil {
				s.logger.Warn("dropping malformed feed payload",
					zap.String("bookingId", bookingID), zap.Error(err))
				continue
			}
			if !healthy {
				healthy = true
				onState(projector.ConnLive)
			}
			onUpdate(delta)

		case <-ticker.C:
			if err := s.client.Ping(ctx).Err(); err != nil {
				if healthy {
					healthy = false
					onState(projector.ConnDegraded)
				}
			} else if !healthy {
				healthy = true
				onState(projector.ConnLive)
			}

		case <-ctx.Done():
			onState(projector.ConnLost)
			return
		}
	}
}
