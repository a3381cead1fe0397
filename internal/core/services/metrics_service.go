package services

import (
	"sync"
	"time"

	"camwall/internal/core/domain"
)

// FeedMetrics are the aggregate counters for one position since startup.
type FeedMetrics struct {
	Position        domain.Position `json:"position"`
	Drops           int64           `json:"drops"`
	Restarts        int64           `json:"restarts"`
	QualitySwitches int64           `json:"quality_switches"`
	LastProbe       time.Duration   `json:"last_probe_latency"`
	PTZCommands     int64           `json:"ptz_commands"`
}

// MetricsService keeps in-process aggregates for the status API. The
// Prometheus collector handles the scrape side; this exists so /api/v1/metrics
// can answer without a scrape round-trip.
type MetricsService struct {
	mu        sync.RWMutex
	feeds     map[domain.Position]*FeedMetrics
	focuses   int64
	startedAt time.Time
}

func NewMetricsService() *MetricsService {
	return &MetricsService{
		feeds:     make(map[domain.Position]*FeedMetrics),
		startedAt: time.Now(),
	}
}

func (m *MetricsService) feedFor(pos domain.Position) *FeedMetrics {
	fm, ok := m.feeds[pos]
	if !ok {
		fm = &FeedMetrics{Position: pos}
		m.feeds[pos] = fm
	}
	return fm
}

func (m *MetricsService) IncrementDrops(pos domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedFor(pos).Drops++
}

func (m *MetricsService) IncrementRestarts(pos domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedFor(pos).Restarts++
}

func (m *MetricsService) IncrementSwitches(pos domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedFor(pos).QualitySwitches++
}

func (m *MetricsService) RecordProbeLatency(pos domain.Position, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedFor(pos).LastProbe = latency
}

func (m *MetricsService) IncrementPTZCommands(pos domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedFor(pos).PTZCommands++
}

func (m *MetricsService) IncrementFocuses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focuses++
}

// Snapshot returns a copy of all per-position aggregates plus uptime.
func (m *MetricsService) Snapshot() ([]FeedMetrics, int64, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FeedMetrics, 0, domain.MaxPositions)
	for pos := domain.Position(0); pos < domain.MaxPositions; pos++ {
		if fm, ok := m.feeds[pos]; ok {
			out = append(out, *fm)
		} else {
			out = append(out, FeedMetrics{Position: pos})
		}
	}
	return out, m.focuses, time.Since(m.startedAt)
}
