package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
)

type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) StartAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFeedService) Start(ctx context.Context, pos domain.Position) error {
	args := m.Called(ctx, pos)
	return args.Error(0)
}

func (m *MockFeedService) Stop(pos domain.Position) error {
	args := m.Called(pos)
	return args.Error(0)
}

func (m *MockFeedService) Restart(ctx context.Context, pos domain.Position) error {
	args := m.Called(ctx, pos)
	return args.Error(0)
}

func (m *MockFeedService) Status(pos domain.Position) (domain.FeedStatus, error) {
	args := m.Called(pos)
	return args.Get(0).(domain.FeedStatus), args.Error(1)
}

func (m *MockFeedService) Statuses() []domain.FeedStatus {
	args := m.Called()
	return args.Get(0).([]domain.FeedStatus)
}

func (m *MockFeedService) SetMuted(pos domain.Position, muted bool) {
	m.Called(pos, muted)
}

func (m *MockFeedService) Shutdown() {
	m.Called()
}

type MockViewService struct {
	mock.Mock
}

func (m *MockViewService) Wall() domain.Wall {
	args := m.Called()
	return args.Get(0).(domain.Wall)
}

func (m *MockViewService) Focus(ctx context.Context, pos domain.Position) (domain.Wall, error) {
	args := m.Called(ctx, pos)
	return args.Get(0).(domain.Wall), args.Error(1)
}

func (m *MockViewService) Grid(ctx context.Context) domain.Wall {
	args := m.Called(ctx)
	return args.Get(0).(domain.Wall)
}

func (m *MockViewService) SetAudio(ctx context.Context, pos domain.Position, enabled bool) (domain.Wall, error) {
	args := m.Called(ctx, pos, enabled)
	return args.Get(0).(domain.Wall), args.Error(1)
}

func (m *MockViewService) Focused() (domain.Position, bool) {
	args := m.Called()
	return args.Get(0).(domain.Position), args.Bool(1)
}

type MockPTZController struct {
	mock.Mock
}

func (m *MockPTZController) Move(ctx context.Context, camera *domain.Camera, pan, tilt float64) error {
	args := m.Called(ctx, camera, pan, tilt)
	return args.Error(0)
}

func (m *MockPTZController) Stop(ctx context.Context, camera *domain.Camera) error {
	args := m.Called(ctx, camera)
	return args.Error(0)
}

// recordingPublisher collects published events for assertions.
type recordingPublisher struct {
	mu         sync.Mutex
	feedEvents []domain.FeedEvent
	wallEvents []domain.WallEvent
}

func (p *recordingPublisher) PublishFeed(event domain.FeedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feedEvents = append(p.feedEvents, event)
}

func (p *recordingPublisher) PublishWall(event domain.WallEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wallEvents = append(p.wallEvents, event)
}

func (p *recordingPublisher) lastWall() (domain.WallEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.wallEvents) == 0 {
		return domain.WallEvent{}, false
	}
	return p.wallEvents[len(p.wallEvents)-1], true
}

// nopCollector satisfies ports.MetricsCollector in tests.
type nopCollector struct{}

func (nopCollector) SetFeedState(domain.Position, domain.FeedState)       {}
func (nopCollector) RecordDrop(domain.Position)                           {}
func (nopCollector) RecordRestart(domain.Position)                        {}
func (nopCollector) RecordQualitySwitch(domain.Position)                  {}
func (nopCollector) RecordProbeLatency(domain.Position, time.Duration)    {}
func (nopCollector) RecordPTZCommand(pos domain.Position, command string) {}

// fakeRunner hands each session's config to the test and runs the supplied
// behavior.
type fakeRunner struct {
	mu       sync.Mutex
	urls     []string
	sessions chan ports.RunnerConfig
	behavior func(ctx context.Context, cfg ports.RunnerConfig) error
}

func newFakeRunner(behavior func(ctx context.Context, cfg ports.RunnerConfig) error) *fakeRunner {
	return &fakeRunner{
		sessions: make(chan ports.RunnerConfig, 16),
		behavior: behavior,
	}
}

func (r *fakeRunner) Run(ctx context.Context, cfg ports.RunnerConfig) error {
	r.mu.Lock()
	r.urls = append(r.urls, cfg.URL)
	r.mu.Unlock()
	r.sessions <- cfg
	return r.behavior(ctx, cfg)
}

func (r *fakeRunner) sessionURLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.urls))
	copy(out, r.urls)
	return out
}

// fakeProber answers probes with a fixed latency or error.
type fakeProber struct {
	latency time.Duration
	err     error
}

func (p *fakeProber) Probe(ctx context.Context, host string, port int) (time.Duration, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.latency, nil
}
