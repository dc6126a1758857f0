package syncer

import (
	"go.uber.org/zap"
)

// SyncTag is the task name registered with the platform scheduler
const SyncTag = "sync-expenses"

// Scheduler is the host platform's background task facility, when one
// exists. Registering a tag asks the platform to run a sync attempt even
// when the application is not in the foreground.
type Scheduler interface {
	Register(tag string) error
}

// Trigger requests sync attempts on behalf of the submission path. It
// prefers the platform scheduler; when none is configured or registration
// fails it falls back to waking the in-process sync worker directly.
// Failures are logged, never propagated: the queued entry stays valid and
// the network monitor's online transition remains the fallback trigger.
type Trigger struct {
	scheduler Scheduler
	worker    *Worker
	logger    *zap.Logger
}

// NewTrigger creates a new background sync trigger
func NewTrigger(scheduler Scheduler, worker *Worker, logger *zap.Logger) *Trigger {
	return &Trigger{
		scheduler: scheduler,
		worker:    worker,
		logger:    logger,
	}
}

// RequestSync registers a background sync attempt
func (t *Trigger) RequestSync() {
	if t.scheduler != nil {
		err := t.scheduler.Register(SyncTag)
		if err == nil {
			t.logger.Debug("Background sync registered", zap.String("tag", SyncTag))
			return
		}
		t.logger.Warn("Background sync registration failed, waking worker directly",
			zap.String("tag", SyncTag),
			zap.Error(err))
	}
	if t.worker != nil {
		t.worker.Wake()
	}
}
