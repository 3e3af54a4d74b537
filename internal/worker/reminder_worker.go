package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/service"
)

// ReminderWorker periodically runs the reminder sweep in-process. Deployments
// with an external scheduler hitting the reminders endpoint leave it disabled.
type ReminderWorker struct {
	reminders     *service.ReminderService
	lookaheadDays int
	interval      time.Duration
	logger        *zap.Logger
}

// NewReminderWorker constructs the worker.
func NewReminderWorker(reminders *service.ReminderService, lookaheadDays int, interval time.Duration, logger *zap.Logger) *ReminderWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReminderWorker{
		reminders:     reminders,
		lookaheadDays: lookaheadDays,
		interval:      interval,
		logger:        logger,
	}
}

// Start blocks until ctx is cancelled, running a sweep every interval.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.reminders.CheckAndSend(ctx, w.lookaheadDays); err != nil {
				w.logger.Error("reminder sweep failed", zap.Error(err))
			}
		}
	}
}
