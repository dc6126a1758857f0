// Package syncer drains the durable offline queue against the remote
// expense API. Drain passes may fire concurrently from the foreground and
// the background worker; correctness rests on RemoveByID being idempotent
// and on removal happening only after a confirmed successful submission.
package syncer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/api"
	"github.com/printocards/expense-sync/internal/entity"
	"github.com/printocards/expense-sync/internal/notify"
	"github.com/printocards/expense-sync/internal/session"
)

// Store is the durable queue as the sync engine sees it
type Store interface {
	ListAll(ctx context.Context) ([]*entity.QueuedExpense, error)
	RemoveByID(ctx context.Context, id int64) error
}

// Submitter replays one expense against the remote API
type Submitter interface {
	SubmitExpense(ctx context.Context, baseURL, token string, sub *api.Submission) (*api.ExpenseRecord, error)
}

// Engine replays queued expenses one at a time
type Engine struct {
	store    Store
	client   Submitter
	session  *session.Session
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewEngine creates a new sync engine
func NewEngine(store Store, client Submitter, sess *session.Session, notifier notify.Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		client:   client,
		session:  sess,
		notifier: notifier,
		logger:   logger,
	}
}

// RunSyncPass attempts one full drain of the queue and returns the number of
// entries confirmed submitted.
//
// Entries are processed independently in insertion order: a failing entry is
// left queued and logged, and never blocks the rest of the pass. Entries
// owned by a different user than the active session are skipped without a
// network call. An empty queue is a silent no-op. One aggregate notice is
// published when at least one entry synced; none otherwise.
func (e *Engine) RunSyncPass(ctx context.Context) (int, error) {
	entries, err := e.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read offline queue: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	currentUser := e.session.UserID()
	synced := 0

	for _, entry := range entries {
		if currentUser != "" && entry.Expense.UserID != "" && entry.Expense.UserID != currentUser {
			e.logger.Debug("Skipping queued expense owned by another user",
				zap.Int64("queue_id", entry.ID),
				zap.String("owner", entry.Expense.UserID))
			continue
		}

		if err := e.replay(ctx, entry); err != nil {
			e.logger.Warn("Failed to sync queued expense, leaving it queued",
				zap.Int64("queue_id", entry.ID),
				zap.String("category", entry.Expense.Category),
				zap.Error(err))
			continue
		}

		if err := e.store.RemoveByID(ctx, entry.ID); err != nil {
			// The server accepted the entry but it is still queued; the next
			// pass will re-send it and the idempotency key absorbs the
			// duplicate.
			e.logger.Error("Failed to remove synced expense from queue",
				zap.Int64("queue_id", entry.ID),
				zap.Error(err))
			continue
		}

		synced++
		e.logger.Info("Offline expense synced",
			zap.Int64("queue_id", entry.ID),
			zap.String("category", entry.Expense.Category))
	}

	if synced > 0 {
		e.notifier.Publish(notify.Synced(synced))
	}
	return synced, nil
}

func (e *Engine) replay(ctx context.Context, entry *entity.QueuedExpense) error {
	image, ext, err := api.DecodeReceiptImage(entry.ImageBase64)
	if err != nil {
		return err
	}

	sub := &api.Submission{
		Category:       entry.Expense.Category,
		Amount:         entry.Expense.Amount,
		Date:           entry.Expense.Date,
		Location:       entry.Expense.Location,
		Note:           entry.Expense.Note,
		Kilometers:     entry.Expense.Kilometers,
		Image:          image,
		IdempotencyKey: entry.ClientRef,
	}
	if len(image) > 0 {
		sub.ImageName = fmt.Sprintf("receipt-%d.%s", time.Now().UnixMilli(), ext)
	}

	token := entry.AuthToken
	if token == "" {
		token = e.session.Token()
	}

	_, err = e.client.SubmitExpense(ctx, entry.APIBaseURL, token, sub)
	return err
}
