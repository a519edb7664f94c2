package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"thelocals/config"
	"thelocals/models"
	"thelocals/services/booking"
	"thelocals/services/tasks"
	"thelocals/utils"
)

// InitExpiryWorker runs the async worker that cancels live requests
// nobody accepted within the acceptance window.
func InitExpiryWorker(bookingSvc booking.BookingService) {
	logger := utils.GetLogger()

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingExpire, handleExpireTask(bookingSvc, logger))

	go func() {
		logger.Info("starting expiry worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("expiry worker failed to start",
				zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("expiry worker gave up after max retries")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

func handleExpireTask(bookingSvc booking.BookingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ExpirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid expire payload", zap.Error(err))
			return err
		}
		if err := bookingSvc.ExpireRequest(ctx, p.BookingID); err != nil {
			logger.Error("failed to expire request",
				zap.String("bookingId", p.BookingID), zap.Error(err))
			return err
		}
		return nil
	}
}
