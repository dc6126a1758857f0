package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/entity"
	"github.com/printocards/expense-sync/internal/netmon"
)

type fakeScheduler struct {
	tags []string
	err  error
}

func (s *fakeScheduler) Register(tag string) error {
	if s.err != nil {
		return s.err
	}
	s.tags = append(s.tags, tag)
	return nil
}

type alwaysOnlineProber struct{}

func (alwaysOnlineProber) Probe(ctx context.Context) bool { return true }

func TestTrigger_PrefersScheduler(t *testing.T) {
	sched := &fakeScheduler{}
	trigger := NewTrigger(sched, nil, zap.NewNop())

	trigger.RequestSync()

	require.Equal(t, []string{SyncTag}, sched.tags)
}

func TestTrigger_FallsBackToWorkerWake(t *testing.T) {
	hits := startCountingServer(t)

	store := &memStore{entries: []*entity.QueuedExpense{queued(1, "u1", "Fuel")}}
	engine, _ := newTestEngine(t, store, hits.srv.URL, "u1")

	monitor := netmon.NewMonitor(alwaysOnlineProber{}, time.Hour, zap.NewNop())
	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	w := NewWorker(engine, monitor, time.Hour, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	trigger := NewTrigger(&fakeScheduler{err: assert.AnError}, w, zap.NewNop())
	trigger.RequestSync()

	waitFor(t, func() bool { return hits.count.Load() >= 1 })
	waitFor(t, func() bool { return len(store.ids()) == 0 })
}

func TestWorker_DrainsOnOnlineTransition(t *testing.T) {
	hits := startCountingServer(t)

	store := &memStore{entries: []*entity.QueuedExpense{queued(1, "u1", "Fuel")}}
	engine, _ := newTestEngine(t, store, hits.srv.URL, "u1")

	prober := &flipProber{}
	monitor := netmon.NewMonitor(prober, time.Hour, zap.NewNop())
	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()
	require.False(t, monitor.Online())

	w := NewWorker(engine, monitor, time.Hour, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// Waking while offline does nothing.
	w.Wake()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), hits.count.Load())

	monitor.SetOnline(true)
	waitFor(t, func() bool { return hits.count.Load() >= 1 })
}

type flipProber struct {
	online atomic.Bool
}

func (p *flipProber) Probe(ctx context.Context) bool { return p.online.Load() }

type countingServer struct {
	srv   *httptest.Server
	count atomic.Int32
}

func startCountingServer(t *testing.T) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.count.Add(1)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"x","status":"Pending"}`))
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
