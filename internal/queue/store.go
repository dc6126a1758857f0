// Package queue implements the durable local queue of not-yet-submitted
// expenses. The store survives process restarts; insert, full scan and
// delete-by-id are each a single SQLite statement, so the database's
// transaction guarantees serialize the foreground and background contexts.
package queue

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/entity"
	"github.com/printocards/expense-sync/internal/submit"
	"github.com/printocards/expense-sync/internal/syncer"
	"github.com/printocards/expense-sync/pkg/database"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the SQLite-backed durable queue
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore creates a new queue store
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Migrate applies the queue schema migrations to the given database
func Migrate(db *database.DB, logger *zap.Logger) error {
	return database.NewMigrator(db, logger).Run(migrationsFS)
}

// Enqueue persists a new queued expense and assigns its identifier.
// Persistence errors propagate to the caller: there is nowhere durable to
// put the data, so this is the one failure the offline path cannot absorb.
func (s *Store) Enqueue(ctx context.Context, q *entity.QueuedExpense) (int64, error) {
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().UnixMilli()
	}

	query := `
		INSERT INTO pending_expenses (
			client_ref, user_id, category, amount, expense_date, location,
			note, kilometers, claim_created_at, image_base64, auth_token,
			api_base_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var claimCreatedAt string
	if !q.Expense.CreatedAt.IsZero() {
		claimCreatedAt = q.Expense.CreatedAt.UTC().Format(time.RFC3339)
	}

	result, err := s.db.ExecContext(ctx, query,
		q.ClientRef,
		q.Expense.UserID,
		q.Expense.Category,
		q.Expense.Amount,
		q.Expense.Date,
		q.Expense.Location,
		q.Expense.Note,
		q.Expense.Kilometers,
		claimCreatedAt,
		q.ImageBase64,
		q.AuthToken,
		q.APIBaseURL,
		q.CreatedAt,
	)
	if err != nil {
		s.logger.Error("Failed to enqueue expense", zap.Error(err))
		return 0, fmt.Errorf("failed to enqueue expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	q.ID = id
	s.logger.Info("Expense queued offline",
		zap.Int64("queue_id", id),
		zap.String("category", q.Expense.Category),
		zap.String("user_id", q.Expense.UserID))
	return id, nil
}

// ListAll returns every queued entry in insertion order. Pure read; safe to
// call repeatedly.
func (s *Store) ListAll(ctx context.Context) ([]*entity.QueuedExpense, error) {
	query := `
		SELECT id, client_ref, user_id, category, amount, expense_date,
			location, note, kilometers, claim_created_at, image_base64,
			auth_token, api_base_url, created_at
		FROM pending_expenses
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list queued expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list queued expenses: %w", err)
	}
	defer rows.Close()

	var entries []*entity.QueuedExpense
	for rows.Next() {
		var q entity.QueuedExpense
		var kilometers sql.NullFloat64
		var claimCreatedAt string

		err := rows.Scan(
			&q.ID,
			&q.ClientRef,
			&q.Expense.UserID,
			&q.Expense.Category,
			&q.Expense.Amount,
			&q.Expense.Date,
			&q.Expense.Location,
			&q.Expense.Note,
			&kilometers,
			&claimCreatedAt,
			&q.ImageBase64,
			&q.AuthToken,
			&q.APIBaseURL,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queued expense: %w", err)
		}

		if kilometers.Valid {
			q.Expense.Kilometers = &kilometers.Float64
		}
		if claimCreatedAt != "" {
			if t, err := time.Parse(time.RFC3339, claimCreatedAt); err == nil {
				q.Expense.CreatedAt = t
			}
		}

		entries = append(entries, &q)
	}

	return entries, rows.Err()
}

// RemoveByID deletes exactly one entry. Idempotent: removing an id that is
// not present is not an error, which keeps concurrent drain passes safe.
func (s *Store) RemoveByID(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM pending_expenses WHERE id = ?", id)
	if err != nil {
		s.logger.Error("Failed to remove queued expense", zap.Int64("queue_id", id), zap.Error(err))
		return fmt.Errorf("failed to remove queued expense: %w", err)
	}
	return nil
}

// ClearAll removes every entry. Used only by the explicit device reset flow,
// never by the sync engine and never on logout.
func (s *Store) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM pending_expenses")
	if err != nil {
		s.logger.Error("Failed to clear queue", zap.Error(err))
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	s.logger.Info("Offline queue cleared")
	return nil
}

// Count returns the number of queued entries
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pending_expenses").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count queued expenses: %w", err)
	}
	return n, nil
}

// Verify interface compliance
var (
	_ syncer.Store = (*Store)(nil)
	_ submit.Queue = (*Store)(nil)
)
