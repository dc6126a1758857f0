// Package submit is the offline-aware submission path: it makes "submit
// expense" resilient to being offline without the user needing to know. A
// direct attempt that gets no server response is redirected into the durable
// queue and acknowledged immediately with a synthetic pending view; a
// server-side rejection is surfaced as a normal error and never queued.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/api"
	"github.com/printocards/expense-sync/internal/entity"
	"github.com/printocards/expense-sync/internal/notify"
	"github.com/printocards/expense-sync/internal/session"
	"github.com/printocards/expense-sync/internal/view"
)

// Queue is the durable local queue as the submission path sees it
type Queue interface {
	Enqueue(ctx context.Context, q *entity.QueuedExpense) (int64, error)
}

// Client submits expenses directly to the remote API
type Client interface {
	SubmitExpense(ctx context.Context, baseURL, token string, sub *api.Submission) (*api.ExpenseRecord, error)
	BaseURL() string
}

// SyncRequester registers a background sync attempt after an enqueue
type SyncRequester interface {
	RequestSync()
}

// Result is the outcome of one submission attempt
type Result struct {
	State State

	// Record is set when the server accepted the submission directly.
	Record *api.ExpenseRecord

	// Pending is set when the submission was queued offline.
	Pending *entity.PendingExpenseView
}

// Submitter runs the per-attempt state machine
type Submitter struct {
	client   Client
	queue    Queue
	session  *session.Session
	trigger  SyncRequester
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewSubmitter creates a new offline-aware submitter
func NewSubmitter(
	client Client,
	queue Queue,
	sess *session.Session,
	trigger SyncRequester,
	notifier notify.Notifier,
	logger *zap.Logger,
) *Submitter {
	return &Submitter{
		client:   client,
		queue:    queue,
		session:  sess,
		trigger:  trigger,
		notifier: notifier,
		logger:   logger,
	}
}

// Submit attempts one direct submission of the expense, with imageBase64 as
// the optional receipt image (data URL or bare base64).
//
// A malformed image or a server rejection fails the attempt outright. A
// transport failure with no response queues the payload, capturing the
// active session's user, token and the API endpoint, and returns a synthetic
// pending view so the caller is not blocked. Only a persistence failure at
// enqueue time propagates from the offline branch.
func (s *Submitter) Submit(ctx context.Context, expense entity.Expense, imageBase64 string) (*Result, error) {
	machine := NewMachine()

	if expense.UserID == "" {
		expense.UserID = s.session.UserID()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	image, ext, err := api.DecodeReceiptImage(imageBase64)
	if err != nil {
		_ = machine.Fire(TriggerReject)
		return nil, err
	}

	clientRef := uuid.NewString()
	sub := &api.Submission{
		Category:       expense.Category,
		Amount:         expense.Amount,
		Date:           expense.Date,
		Location:       expense.Location,
		Note:           expense.Note,
		Kilometers:     expense.Kilometers,
		Image:          image,
		IdempotencyKey: clientRef,
	}
	if len(image) > 0 {
		sub.ImageName = fmt.Sprintf("receipt-%d.%s", time.Now().UnixMilli(), ext)
	}

	record, err := s.client.SubmitExpense(ctx, "", s.session.Token(), sub)
	if err == nil {
		_ = machine.Fire(TriggerSucceed)
		return &Result{State: machine.State(), Record: record}, nil
	}

	if !api.IsTransportError(err) {
		_ = machine.Fire(TriggerReject)
		s.logger.Warn("Expense submission failed",
			zap.String("category", expense.Category),
			zap.Error(err))
		return nil, err
	}

	entry := &entity.QueuedExpense{
		ClientRef:   clientRef,
		Expense:     expense,
		ImageBase64: imageBase64,
		AuthToken:   s.session.Token(),
		APIBaseURL:  s.client.BaseURL(),
		CreatedAt:   time.Now().UnixMilli(),
	}

	if _, err := s.queue.Enqueue(ctx, entry); err != nil {
		// Offline and the local store failed too: there is nowhere durable
		// to put the data, so the caller must see the loss risk.
		return nil, fmt.Errorf("failed to store expense offline: %w", err)
	}

	if s.trigger != nil {
		s.trigger.RequestSync()
	}
	s.notifier.Publish(notify.StoredOffline())

	_ = machine.Fire(TriggerQueue)
	return &Result{State: machine.State(), Pending: view.Pending(entry)}, nil
}
