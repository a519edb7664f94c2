package booking

import (
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"thelocals/config"
	"thelocals/models"
	"thelocals/services/tasks"
)

// ExpiryScheduler arranges for an unaccepted request to be cancelled
// once its acceptance window closes.
type ExpiryScheduler interface {
	ScheduleRequestExpiry(bookingID string) error
}

// AsynqExpiryScheduler enqueues the delayed expire task on the shared
// Redis queue; the cron worker picks it up when it fires.
type AsynqExpiryScheduler struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewExpiryScheduler(client *asynq.Client, logger *zap.Logger) *AsynqExpiryScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqExpiryScheduler{Client: client, Logger: logger}
}

func (s *AsynqExpiryScheduler) ScheduleRequestExpiry(bookingID string) error {
	delay := time.Duration(config.AppConfig.RequestExpiryMinutes) * time.Minute
	task, opts, err := tasks.NewExpireTask(models.ExpirePayload{BookingID: bookingID}, delay)
	if err != nil {
		return err
	}
	info, err := s.Client.Enqueue(task, opts...)
	if err != nil {
		return err
	}
	s.Logger.Debug("scheduled request expiry",
		zap.String("bookingId", bookingID), zap.String("taskId", info.ID))
	return nil
}
