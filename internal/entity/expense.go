package entity

import (
	"fmt"
	"time"
)

// Expense statuses as reported by the expense API
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
	StatusPaid     = "Paid"
)

// CategoryOwnVehicleFuel is the one category with an extra kilometers field;
// the server derives the amount from it when present.
const CategoryOwnVehicleFuel = "Own Vehicle Fuel"

// Expense is the domain payload of a field expense claim
type Expense struct {
	Category   string   `json:"category"`
	Amount     float64  `json:"amount"`
	Date       string   `json:"date"` // ISO calendar date (2006-01-02)
	Location   string   `json:"location,omitempty"`
	Note       string   `json:"note,omitempty"`
	Kilometers *float64 `json:"kilometers,omitempty"`

	// UserID identifies the owning salesman. Captured at submission time so
	// queued entries can be attributed after a logout/login.
	UserID string `json:"user_id,omitempty"`

	// CreatedAt is when the user filled in the claim, not when the server
	// accepted it.
	CreatedAt time.Time `json:"created_at"`
}

// QueuedExpense is a claim that could not reach the server and is held in
// the durable local queue pending replay.
//
// Entries are immutable once written: a failed replay never rewrites the
// entry, and an entry is removed only after a confirmed successful
// submission or an explicit user cancel.
type QueuedExpense struct {
	// ID is assigned by the store on insert and never reused while the
	// entry exists.
	ID int64

	// ClientRef is a per-entry idempotency key sent on every replay, so a
	// duplicate submission from concurrent drain passes can be collapsed
	// server-side.
	ClientRef string

	Expense Expense

	// ImageBase64 is the receipt image captured at enqueue time, as a data
	// URL or bare base64 string. The original file handle cannot be
	// persisted across restarts, so the bytes are inlined.
	ImageBase64 string

	// AuthToken is the bearer credential captured at enqueue time. It may be
	// stale by the time the entry is replayed; the sync engine falls back to
	// the live session token when it is empty.
	AuthToken string

	// APIBaseURL is the endpoint captured at enqueue time, preserved in case
	// configuration changes before the entry syncs.
	APIBaseURL string

	// CreatedAt is the local enqueue timestamp in epoch milliseconds.
	CreatedAt int64
}

// PendingExpenseView is a queued entry as rendered to the user: a synthetic
// identifier, a fixed Pending status and an offline marker. It is never
// persisted; it is recomputed from the queue.
type PendingExpenseView struct {
	ID         string   `json:"id"`
	QueueID    int64    `json:"queue_id"`
	Status     string   `json:"status"`
	Offline    bool     `json:"offline"`
	Category   string   `json:"category"`
	Amount     float64  `json:"amount"`
	Date       string   `json:"date"`
	Location   string   `json:"location,omitempty"`
	Note       string   `json:"note,omitempty"`
	Kilometers *float64 `json:"kilometers,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

// SyntheticID derives the user-facing identifier of a queued entry from its
// local queue id.
func SyntheticID(queueID int64) string {
	return fmt.Sprintf("offline-%d", queueID)
}
