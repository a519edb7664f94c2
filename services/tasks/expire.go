package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"thelocals/models"
)

const TypeBookingExpire = "booking:expire"

// NewExpireTask builds the delayed task that cancels a request nobody
// accepted within the acceptance window.
func NewExpireTask(payload models.ExpirePayload, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingExpire, b)
	opts := []asynq.Option{asynq.ProcessIn(delay)}

	return task, opts, nil
}
