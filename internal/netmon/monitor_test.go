package netmon

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
)

type fakeProber struct {
	online atomic.Bool
}

func (p *fakeProber) Probe(ctx context.Context) bool {
	return p.online.Load()
}

func TestMonitor_InitialStateFromProbe(t *testing.T) {
	prober := &fakeProber{}
	prober.online.Store(true)

	m := NewMonitor(prober, time.Hour, zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.True(t, m.Online())
}

func TestMonitor_OnlineTransitionNotifiesSubscribers(t *testing.T) {
	prober := &fakeProber{}

	m := NewMonitor(prober, time.Hour, zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()
	require.False(t, m.Online())

	var fired atomic.Int32
	m.OnOnline("test", func() { fired.Add(1) })

	// Still offline: no transition.
	m.SetOnline(false)
	assert.Equal(t, int32(0), fired.Load())

	m.SetOnline(true)
	assert.True(t, m.Online())
	assert.Equal(t, int32(1), fired.Load())

	// Repeated online signals are not transitions.
	m.SetOnline(true)
	assert.Equal(t, int32(1), fired.Load())

	m.SetOnline(false)
	m.SetOnline(true)
	assert.Equal(t, int32(2), fired.Load())
}

func TestMonitor_PanickingSubscriberDoesNotBreakOthers(t *testing.T) {
	m := NewMonitor(&fakeProber{}, time.Hour, zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	var fired atomic.Int32
	m.OnOnline("bad", func() { panic("boom") })
	m.OnOnline("good", func() { fired.Add(1) })

	m.SetOnline(true)
	assert.Equal(t, int32(1), fired.Load())
}

func TestMonitor_PollLoopDetectsTransition(t *testing.T) {
	prober := &fakeProber{}

	m := NewMonitor(prober, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()
	require.False(t, m.Online())

	done := make(chan struct{})
	m.OnOnline("test", func() { close(done) })

	prober.online.Store(true)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop never observed the online transition")
	}
	assert.True(t, m.Online())
}

func TestHTTPProber(t *testing.T) {
	t.Run("any response counts as online", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		p := NewHTTPProber(srv.URL, time.Second)
		assert.True(t, p.Probe(context.Background()))
	})

	t.Run("connection refused is offline", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		p := NewHTTPProber(url, time.Second)
		assert.False(t, p.Probe(context.Background()))
	})
}

func TestHealthURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com/api/health", HealthURL("https://api.example.com/api/", "/health"))
	assert.Equal(t, "https://api.example.com/api/health", HealthURL("https://api.example.com/api", "health"))
}
