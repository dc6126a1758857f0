package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/netmon"
)

// Worker is the background drain context. It attempts a sync pass whenever
// it is woken by the trigger, whenever the network monitor reports an
// offline-to-online transition, and on a periodic retry tick as a catch-all
// for entries that failed earlier passes.
type Worker struct {
	engine        *Engine
	monitor       *netmon.Monitor
	retryInterval time.Duration
	logger        *zap.Logger

	wake chan struct{}

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewWorker creates a new background sync worker
func NewWorker(engine *Engine, monitor *netmon.Monitor, retryInterval time.Duration, logger *zap.Logger) *Worker {
	if retryInterval <= 0 {
		retryInterval = 2 * time.Minute
	}
	return &Worker{
		engine:        engine,
		monitor:       monitor,
		retryInterval: retryInterval,
		logger:        logger,
		wake:          make(chan struct{}, 1),
	}
}

// Start subscribes to online transitions and begins the drain loop
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return nil
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true

	w.monitor.OnOnline("sync-worker", w.Wake)

	w.logger.Info("Sync worker started",
		zap.Duration("retry_interval", w.retryInterval))

	go w.loop()
	return nil
}

// Stop stops the drain loop
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isRunning {
		return
	}
	w.isRunning = false
	if w.cancel != nil {
		w.cancel()
	}
}

// Name returns the worker name
func (w *Worker) Name() string {
	return "SyncWorker"
}

// Wake requests an immediate drain attempt. Non-blocking; a wake while one
// is already pending is coalesced.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.wake:
			w.drain()
		case <-ticker.C:
			w.drain()
		}
	}
}

func (w *Worker) drain() {
	if !w.monitor.Online() {
		w.logger.Debug("Skipping drain attempt while offline")
		return
	}
	if _, err := w.engine.RunSyncPass(w.ctx); err != nil {
		w.logger.Error("Background sync pass failed", zap.Error(err))
	}
}
