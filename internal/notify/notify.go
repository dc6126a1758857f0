// Package notify collects the few user-visible notices the sync subsystem
// produces. Per-entry sync failures are logged, never surfaced; only the
// aggregate outcomes reach the user to keep repeated background attempts
// quiet.
package notify

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notice levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notice is one user-visible message
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier publishes user-visible notices
type Notifier interface {
	Publish(n Notice)
}

// StoredOffline is the one-time notice emitted when a submission is queued
func StoredOffline() Notice {
	return Notice{
		Level:   LevelInfo,
		Message: "Expense stored offline and will sync automatically once reconnected",
		At:      time.Now(),
	}
}

// Synced is the aggregate notice emitted after a drain that submitted at
// least one entry
func Synced(count int) Notice {
	return Notice{
		Level:   LevelSuccess,
		Message: fmt.Sprintf("%d offline expense(s) synced", count),
		At:      time.Now(),
	}
}

// Hub buffers notices until the application shell collects them
type Hub struct {
	mu      sync.Mutex
	pending []Notice
	logger  *zap.Logger
}

// NewHub creates a new notice hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger}
}

// Publish appends a notice for later collection
func (h *Hub) Publish(n Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, n)
	h.logger.Info("Notice published",
		zap.String("level", n.Level),
		zap.String("message", n.Message))
}

// Drain returns all pending notices and clears the buffer
func (h *Hub) Drain() []Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.pending
	h.pending = nil
	return out
}

var _ Notifier = (*Hub)(nil)
