package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/api"
	"github.com/printocards/expense-sync/internal/entity"
	"github.com/printocards/expense-sync/internal/netmon"
	"github.com/printocards/expense-sync/internal/notify"
	"github.com/printocards/expense-sync/internal/queue"
	"github.com/printocards/expense-sync/internal/session"
	"github.com/printocards/expense-sync/internal/submit"
	"github.com/printocards/expense-sync/internal/syncer"
	"github.com/printocards/expense-sync/internal/view"
)

// Response is the standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Handlers contains all control API request handlers
type Handlers struct {
	submitter *submit.Submitter
	store     *queue.Store
	engine    *syncer.Engine
	monitor   *netmon.Monitor
	session   *session.Session
	hub       *notify.Hub
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	submitter *submit.Submitter,
	store *queue.Store,
	engine *syncer.Engine,
	monitor *netmon.Monitor,
	sess *session.Session,
	hub *notify.Hub,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		submitter: submitter,
		store:     store,
		engine:    engine,
		monitor:   monitor,
		session:   sess,
		hub:       hub,
		logger:    logger,
	}
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type submitRequest struct {
	Category    string   `json:"category" binding:"required"`
	Amount      float64  `json:"amount" binding:"min=0"`
	Date        string   `json:"date" binding:"required"`
	Location    string   `json:"location"`
	Note        string   `json:"note"`
	Kilometers  *float64 `json:"kilometers"`
	ImageBase64 string   `json:"image_base64"`
}

// SubmitExpense handles POST /api/v1/expenses via the offline-aware path.
// 201 when the server accepted the expense directly, 202 when it was stored
// offline for later sync.
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	expense := entity.Expense{
		Category:   req.Category,
		Amount:     req.Amount,
		Date:       req.Date,
		Location:   req.Location,
		Note:       req.Note,
		Kilometers: req.Kilometers,
	}

	result, err := h.submitter.Submit(c.Request.Context(), expense, req.ImageBase64)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: apiErr.Message})
			return
		}
		var decodeErr *api.DecodeError
		if errors.As(err, &decodeErr) {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: decodeErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	if result.State == submit.StateQueuedOffline {
		c.JSON(http.StatusAccepted, Response{Success: true, Data: result.Pending})
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: result.Record})
}

// ListQueue handles GET /api/v1/queue
func (h *Handlers) ListQueue(c *gin.Context) {
	entries, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	views := view.ForUser(entries, h.session.UserID())
	c.JSON(http.StatusOK, Response{Success: true, Data: views})
}

// CancelQueued handles DELETE /api/v1/queue/:id. The cancel is local only:
// the entry never reached the server, so there is nothing remote to undo.
func (h *Handlers) CancelQueued(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid queue id"})
		return
	}

	if err := h.store.RemoveByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	h.logger.Info("Queued expense cancelled", zap.Int64("queue_id", id))
	c.JSON(http.StatusOK, Response{Success: true})
}

// RunSync handles POST /api/v1/sync: one explicit drain pass
func (h *Handlers) RunSync(c *gin.Context) {
	synced, err := h.engine.RunSyncPass(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"synced": synced}})
}

// Status handles GET /api/v1/status
func (h *Handlers) Status(c *gin.Context) {
	queued, err := h.store.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"online": h.monitor.Online(),
		"queued": queued,
	}})
}

// Notices handles GET /api/v1/notices: returns and clears pending notices
func (h *Handlers) Notices(c *gin.Context) {
	notices := h.hub.Drain()
	if notices == nil {
		notices = []notify.Notice{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: notices})
}

type loginRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Token  string `json:"token" binding:"required"`
}

// Login handles POST /api/v1/session: sets the active user and attempts a
// drain, since login is one of the moments queued entries may become
// submittable
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	h.session.Set(req.UserID, req.Token)
	h.logger.Info("Session started", zap.String("user_id", req.UserID))

	synced, err := h.engine.RunSyncPass(c.Request.Context())
	if err != nil {
		h.logger.Warn("Post-login sync pass failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"synced": synced}})
}

// Logout handles DELETE /api/v1/session. The queue is left intact: entries
// belonging to the departing user stay queued for when they next log in.
func (h *Handlers) Logout(c *gin.Context) {
	h.session.Clear()
	h.logger.Info("Session ended")
	c.JSON(http.StatusOK, Response{Success: true})
}

// ClearQueue handles DELETE /api/v1/queue: the explicit reset flow that
// drops every queued entry regardless of owner
func (h *Handlers) ClearQueue(c *gin.Context) {
	if err := h.store.ClearAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}
