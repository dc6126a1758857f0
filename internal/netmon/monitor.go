// Package netmon tracks whether the device currently has a usable path to
// the expense API. The signal is best effort: a captive portal can read as
// online, and the sync engine's per-entry failure handling covers that.
package netmon

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Prober answers whether the network currently looks reachable
type Prober interface {
	Probe(ctx context.Context) bool
}

// HTTPProber probes by issuing a request against the API health endpoint.
// Any HTTP response counts as online, including error statuses: the server
// answered, so the network path is up.
type HTTPProber struct {
	client *http.Client
	url    string
}

// NewHTTPProber creates a prober for the given health URL
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// Probe issues one health request
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// HealthURL joins an API base URL with its health path
func HealthURL(baseURL, healthPath string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(healthPath, "/")
}

type subscription struct {
	name string
	fn   func()
}

// Monitor exposes the current online state synchronously and notifies
// subscribers on every offline-to-online transition
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	online    bool
	subs      []subscription
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewMonitor creates a new network state monitor
func NewMonitor(prober Prober, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		logger:   logger,
	}
}

// Start reads the initial state with one synchronous probe and begins the
// poll loop
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.isRunning = true
	m.mu.Unlock()

	initial := m.prober.Probe(ctx)
	m.setState(initial)

	m.logger.Info("Network monitor started",
		zap.Bool("online", initial),
		zap.Duration("probe_interval", m.interval))

	go m.pollLoop()
	return nil
}

// Stop stops the poll loop
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return
	}
	m.isRunning = false
	if m.cancel != nil {
		m.cancel()
	}
	m.logger.Info("Network monitor stopped")
}

// Name returns the worker name
func (m *Monitor) Name() string {
	return "NetworkMonitor"
}

func (m *Monitor) pollLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.setState(m.prober.Probe(m.ctx))
		}
	}
}

// Online returns the current state synchronously
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline injects an explicit state signal, e.g. from a platform
// connectivity hook, without waiting for the next probe
func (m *Monitor) SetOnline(online bool) {
	m.setState(online)
}

// OnOnline subscribes fn to offline-to-online transitions; fn runs once per
// transition, on the monitor's goroutine
func (m *Monitor) OnOnline(name string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, subscription{name: name, fn: fn})
}

func (m *Monitor) setState(online bool) {
	m.mu.Lock()
	wentOnline := online && !m.online
	wentOffline := !online && m.online
	m.online = online
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	if wentOffline {
		m.logger.Info("Network went offline")
	}
	if !wentOnline {
		return
	}

	m.logger.Info("Network came online", zap.Int("subscribers", len(subs)))
	for _, sub := range subs {
		m.safeNotify(sub)
	}
}

func (m *Monitor) safeNotify(sub subscription) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Online transition handler panicked",
				zap.String("handler", sub.name),
				zap.Any("panic", r))
		}
	}()
	sub.fn()
}
