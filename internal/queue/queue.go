// Package queue runs fire-and-forget background tasks with panic
// isolation, so a misbehaving task never takes the server down.
package queue

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/logger"
)

// Runner dispatches named background tasks. Each task gets its own
// goroutine, a detached context with a deadline, and a recover guard.
type Runner struct {
	taskTimeout time.Duration
}

func NewRunner(taskTimeout time.Duration) *Runner {
	if taskTimeout <= 0 {
		taskTimeout = 30 * time.Second
	}
	return &Runner{taskTimeout: taskTimeout}
}

// Submit runs fn in the background. The context handed to fn is detached
// from the caller's request so the task survives the response being sent.
func (r *Runner) Submit(name string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Log.WithFields(logrus.Fields{
					"task":  name,
					"panic": rec,
					"stack": string(debug.Stack()),
				}).Error("background task panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.taskTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"task":  name,
				"error": err,
			}).Error("background task failed")
		}
	}()
}
