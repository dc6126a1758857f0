// Package view recomputes the client expense view: queued offline entries
// rendered with synthetic identifiers and a fixed Pending status, merged
// ahead of server-confirmed records. Nothing here is persisted.
package view

import (
	"time"

	"github.com/printocards/expense-sync/internal/api"
	"github.com/printocards/expense-sync/internal/entity"
)

// Pending renders one queued entry as the user sees it
func Pending(q *entity.QueuedExpense) *entity.PendingExpenseView {
	createdAt := q.Expense.CreatedAt
	if createdAt.IsZero() && q.CreatedAt > 0 {
		createdAt = time.UnixMilli(q.CreatedAt).UTC()
	}

	return &entity.PendingExpenseView{
		ID:         entity.SyntheticID(q.ID),
		QueueID:    q.ID,
		Status:     entity.StatusPending,
		Offline:    true,
		Category:   q.Expense.Category,
		Amount:     q.Expense.Amount,
		Date:       q.Expense.Date,
		Location:   q.Expense.Location,
		Note:       q.Expense.Note,
		Kilometers: q.Expense.Kilometers,
		ImageURL:   q.ImageBase64,
		CreatedAt:  createdAt.Format(time.RFC3339),
	}
}

// ForUser renders the queued entries visible to the given user. Entries
// owned by other users stay hidden but remain queued for their rightful
// owner; entries with no recorded owner are shown to everyone, matching the
// sync engine's ownership rule.
func ForUser(entries []*entity.QueuedExpense, userID string) []*entity.PendingExpenseView {
	views := make([]*entity.PendingExpenseView, 0, len(entries))
	for _, q := range entries {
		if userID != "" && q.Expense.UserID != "" && q.Expense.UserID != userID {
			continue
		}
		views = append(views, Pending(q))
	}
	return views
}

// ClientExpense is one row of the merged client view
type ClientExpense struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Offline   bool    `json:"offline"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Location  string  `json:"location,omitempty"`
	Note      string  `json:"note,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// Merge unions pending offline entries with server-confirmed records,
// pending first. Recomputed whenever either side changes.
func Merge(pending []*entity.PendingExpenseView, confirmed []api.ExpenseRecord) []ClientExpense {
	merged := make([]ClientExpense, 0, len(pending)+len(confirmed))
	for _, p := range pending {
		merged = append(merged, ClientExpense{
			ID:        p.ID,
			Status:    p.Status,
			Offline:   true,
			Category:  p.Category,
			Amount:    p.Amount,
			Date:      p.Date,
			Location:  p.Location,
			Note:      p.Note,
			ImageURL:  p.ImageURL,
			CreatedAt: p.CreatedAt,
		})
	}
	for _, r := range confirmed {
		merged = append(merged, ClientExpense{
			ID:        r.ID,
			Status:    r.Status,
			Category:  r.Category,
			Amount:    r.Amount,
			Date:      r.Date,
			Location:  r.Location,
			Note:      r.Note,
			ImageURL:  r.ImageURL,
			CreatedAt: r.CreatedAt,
		})
	}
	return merged
}
