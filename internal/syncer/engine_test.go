package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/api"
	"github.com/printocards/expense-sync/internal/entity"
	"github.com/printocards/expense-sync/internal/notify"
	"github.com/printocards/expense-sync/internal/session"
)

// memStore is an in-memory queue, enough to observe what a drain removes
type memStore struct {
	entries []*entity.QueuedExpense

	listErr error
}

func (m *memStore) ListAll(ctx context.Context) ([]*entity.QueuedExpense, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*entity.QueuedExpense, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memStore) RemoveByID(ctx context.Context, id int64) error {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *memStore) ids() []int64 {
	var ids []int64
	for _, e := range m.entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func queued(id int64, userID, category string) *entity.QueuedExpense {
	return &entity.QueuedExpense{
		ID:        id,
		ClientRef: entity.SyntheticID(id),
		Expense: entity.Expense{
			Category: category,
			Amount:   100,
			Date:     "2024-03-01",
			UserID:   userID,
		},
		AuthToken:  "tok-" + userID,
		APIBaseURL: "",
	}
}

func newTestEngine(t *testing.T, store Store, baseURL, activeUser string) (*Engine, *notify.Hub) {
	t.Helper()
	sess := session.New()
	if activeUser != "" {
		sess.Set(activeUser, "live-token")
	}
	hub := notify.NewHub(zap.NewNop())
	client := api.NewClient(api.Config{BaseURL: baseURL}, zap.NewNop())
	return NewEngine(store, client, sess, hub, zap.NewNop()), hub
}

func TestEngine_EmptyQueueIsSilentNoop(t *testing.T) {
	store := &memStore{}
	engine, hub := newTestEngine(t, store, "http://127.0.0.1:1", "u1")

	synced, err := engine.RunSyncPass(context.Background())

	require.NoError(t, err)
	assert.Zero(t, synced)
	assert.Empty(t, hub.Drain())
}

func TestEngine_DrainsQueueInOrder(t *testing.T) {
	var categories []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		categories = append(categories, r.FormValue("category"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"x","status":"Pending"}`))
	}))
	defer srv.Close()

	store := &memStore{entries: []*entity.QueuedExpense{
		queued(1, "u1", "Fuel"),
		queued(2, "u1", "Food"),
		queued(3, "u1", "Stay"),
	}}
	engine, hub := newTestEngine(t, store, srv.URL, "u1")

	synced, err := engine.RunSyncPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, synced)
	assert.Empty(t, store.entries)
	assert.Equal(t, []string{"Fuel", "Food", "Stay"}, categories)

	notices := hub.Drain()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Message, "3 offline expense(s) synced")
}

func TestEngine_FailingEntryDoesNotBlockOthers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		if r.FormValue("category") == "Poison" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"invalid category"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"x","status":"Pending"}`))
	}))
	defer srv.Close()

	store := &memStore{entries: []*entity.QueuedExpense{
		queued(1, "u1", "Fuel"),
		queued(2, "u1", "Poison"),
		queued(3, "u1", "Stay"),
	}}
	engine, _ := newTestEngine(t, store, srv.URL, "u1")

	synced, err := engine.RunSyncPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	// The rejected entry stays queued, not silently dropped.
	assert.Equal(t, []int64{2}, store.ids())
}

func TestEngine_OwnershipFiltering(t *testing.T) {
	var seenUsers []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		seenUsers = append(seenUsers, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"x","status":"Pending"}`))
	}))
	defer srv.Close()

	store := &memStore{entries: []*entity.QueuedExpense{
		queued(1, "userA", "Fuel"),
		queued(2, "userB", "Food"),
		queued(3, "userA", "Stay"),
	}}
	engine, _ := newTestEngine(t, store, srv.URL, "userA")

	synced, err := engine.RunSyncPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	// User B's entry stays queued and never hit the network.
	assert.Equal(t, []int64{2}, store.ids())
	assert.Equal(t, []string{"Bearer tok-userA", "Bearer tok-userA"}, seenUsers)
}

func TestEngine_MalformedImageLeavesEntryQueued(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"x","status":"Pending"}`))
	}))
	defer srv.Close()

	bad := queued(1, "u1", "Fuel")
	bad.ImageBase64 = "data:image/png;base64,%%%%"
	store := &memStore{entries: []*entity.QueuedExpense{
		bad,
		queued(2, "u1", "Food"),
	}}
	engine, _ := newTestEngine(t, store, srv.URL, "u1")

	synced, err := engine.RunSyncPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Equal(t, []int64{1}, store.ids())
	// The decode failure never reached the server.
	assert.Equal(t, 1, hits)
}

func TestEngine_OfflineLeavesEverythingQueued(t *testing.T) {
	store := &memStore{entries: []*entity.QueuedExpense{
		queued(1, "u1", "Fuel"),
		queued(2, "u1", "Food"),
	}}
	engine, hub := newTestEngine(t, store, "http://127.0.0.1:1", "u1")

	synced, err := engine.RunSyncPass(context.Background())

	require.NoError(t, err)
	assert.Zero(t, synced)
	assert.Equal(t, []int64{1, 2}, store.ids())
	// Zero synced means zero noise.
	assert.Empty(t, hub.Drain())
}

func TestEngine_FallsBackToLiveSessionToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"x","status":"Pending"}`))
	}))
	defer srv.Close()

	entry := queued(1, "u1", "Fuel")
	entry.AuthToken = ""
	store := &memStore{entries: []*entity.QueuedExpense{entry}}
	engine, _ := newTestEngine(t, store, srv.URL, "u1")

	synced, err := engine.RunSyncPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Equal(t, "Bearer live-token", gotAuth)
}

func TestEngine_ListFailurePropagates(t *testing.T) {
	store := &memStore{listErr: assert.AnError}
	engine, _ := newTestEngine(t, store, "http://127.0.0.1:1", "u1")

	_, err := engine.RunSyncPass(context.Background())
	require.Error(t, err)
}
