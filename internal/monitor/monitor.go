package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger probes backend reachability. The REST client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor periodically probes the backend so callers can fall back to guest
// mode while it is unreachable.
type Monitor struct {
	probe Pinger

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(probe Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probe:    probe,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// RefreshOnce runs a single probe immediately and returns the new status.
func (m *Monitor) RefreshOnce(ctx context.Context) Status {
	m.refresh(ctx)
	return m.GetStatus()
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := Status{Online: true, LastCheck: time.Now()}
	if err := m.probe.Ping(ctx); err != nil {
		status.Online = false
		status.LastError = err.Error()
	}

	m.mu.Lock()
	wasOnline := m.status.Online
	m.status = status
	m.mu.Unlock()

	if wasOnline && !status.Online {
		m.logger.Warn("backend unreachable", zap.String("error", status.LastError))
	}
	if !wasOnline && status.Online {
		m.logger.Info("backend reachable")
	}
}
