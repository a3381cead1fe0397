package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
	"camwall/pkg/config"
	"camwall/pkg/retry"
	"camwall/pkg/utils"
)

// errNeverPlayed marks a session that ended before the first packet arrived,
// so the connect retry ladder applies instead of the reconnect path.
var errNeverPlayed = errors.New("session ended before playback started")

// FeedService supervises one RTSP session per wall position. Each feed runs
// in its own goroutine and walks the connect / play / degrade / pause ladder
// independently of the others.
type FeedService struct {
	cameras   ports.CameraRepository
	runner    ports.FeedRunner
	prober    ports.Prober
	publisher ports.EventPublisher
	collector ports.MetricsCollector
	metrics   *MetricsService
	creds     domain.Credentials
	cfg       *config.Config
	logger    *zap.SugaredLogger

	mu    sync.Mutex
	feeds map[domain.Position]*feed
	wg    sync.WaitGroup
}

// feed is the supervision state of one position. Guarded by FeedService.mu.
type feed struct {
	cancel      context.CancelFunc // ends supervision entirely
	sessionStop context.CancelFunc // ends only the current RTSP session
	done        chan struct{}

	status      domain.FeedStatus
	camera      *domain.Camera
	dropTimes   []time.Time
	lastSwitch  time.Time
	failures    int
	pause       time.Duration
	played      bool // current session delivered at least one packet
	switchToSub bool // drop threshold tripped, reconnect at sub quality
}

func NewFeedService(
	cameras ports.CameraRepository,
	runner ports.FeedRunner,
	prober ports.Prober,
	publisher ports.EventPublisher,
	collector ports.MetricsCollector,
	metrics *MetricsService,
	creds domain.Credentials,
	cfg *config.Config,
	logger *zap.SugaredLogger,
) *FeedService {
	return &FeedService{
		cameras:   cameras,
		runner:    runner,
		prober:    prober,
		publisher: publisher,
		collector: collector,
		metrics:   metrics,
		creds:     creds,
		cfg:       cfg,
		logger:    logger,
		feeds:     make(map[domain.Position]*feed),
	}
}

// StartAll starts supervision for every configured camera. Positions whose
// stream URL duplicates an earlier position stay disabled so two panes never
// pull the same session.
func (s *FeedService) StartAll(ctx context.Context) error {
	cams, err := s.cameras.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(cams, func(i, j int) bool { return cams[i].Position < cams[j].Position })

	usable := domain.DedupeStreamURLs(cams, s.creds, func(c *domain.Camera) domain.Quality {
		return c.Preferred
	})

	for _, cam := range cams {
		if _, ok := usable[cam.Position]; !ok {
			s.logger.Infow("feed disabled",
				"position", cam.Position,
				"reason", "unconfigured or duplicate stream url")
			continue
		}
		if err := s.Start(ctx, cam.Position); err != nil {
			s.logger.Errorw("failed to start feed", "position", cam.Position, "error", err)
		}
	}
	return nil
}

// Start begins supervising the camera at pos. It is a no-op error if the
// position is already running or another feed already pulls the same URL.
func (s *FeedService) Start(ctx context.Context, pos domain.Position) error {
	if !pos.Valid() {
		return domain.ErrInvalidPosition
	}
	cam, err := s.cameras.GetByPosition(ctx, pos)
	if err != nil {
		return err
	}
	if !cam.Configured(s.creds) {
		return domain.ErrMissingCredential
	}

	url := cam.StreamURL(s.creds, cam.Preferred)

	s.mu.Lock()
	if _, running := s.feeds[pos]; running {
		s.mu.Unlock()
		return domain.ErrPositionOccupied
	}
	for other, fd := range s.feeds {
		if fd.camera.StreamURL(s.creds, fd.status.Quality) == url {
			s.mu.Unlock()
			s.logger.Warnw("duplicate stream url", "position", pos, "conflicts_with", other)
			return domain.ErrDuplicateStream
		}
	}

	feedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	fd := &feed{
		cancel: cancel,
		done:   make(chan struct{}),
		camera: cam,
		pause:  s.cfg.Feed.PauseInitial,
		status: domain.FeedStatus{
			Position:  pos,
			State:     domain.FeedConnecting,
			Quality:   cam.Preferred,
			Muted:     true,
			UpdatedAt: time.Now(),
		},
	}
	s.feeds[pos] = fd
	s.mu.Unlock()

	s.publishStatus(fd.status)
	s.collector.SetFeedState(pos, domain.FeedConnecting)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(fd.done)
		s.supervise(feedCtx, fd)
	}()
	return nil
}

// Stop ends supervision for the position and marks it disabled.
func (s *FeedService) Stop(pos domain.Position) error {
	s.mu.Lock()
	fd, ok := s.feeds[pos]
	if !ok {
		s.mu.Unlock()
		return domain.ErrFeedNotRunning
	}
	delete(s.feeds, pos)
	s.mu.Unlock()

	fd.cancel()
	<-fd.done

	status := fd.status
	status.State = domain.FeedDisabled
	status.UpdatedAt = time.Now()
	s.publishStatus(status)
	s.collector.SetFeedState(pos, domain.FeedDisabled)
	return nil
}

// Restart tears the feed down and starts it fresh at the camera's preferred
// quality, clearing the failure ladder.
func (s *FeedService) Restart(ctx context.Context, pos domain.Position) error {
	if err := s.Stop(pos); err != nil && !errors.Is(err, domain.ErrFeedNotRunning) {
		return err
	}
	return s.Start(ctx, pos)
}

// Status returns a snapshot for one position.
func (s *FeedService) Status(pos domain.Position) (domain.FeedStatus, error) {
	if !pos.Valid() {
		return domain.FeedStatus{}, domain.ErrInvalidPosition
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fd, ok := s.feeds[pos]
	if !ok {
		return domain.FeedStatus{Position: pos, State: domain.FeedDisabled}, nil
	}
	return fd.status, nil
}

// Statuses returns snapshots for all positions, running or not.
func (s *FeedService) Statuses() []domain.FeedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.FeedStatus, 0, domain.MaxPositions)
	for pos := domain.Position(0); pos < domain.MaxPositions; pos++ {
		if fd, ok := s.feeds[pos]; ok {
			out = append(out, fd.status)
		} else {
			out = append(out, domain.FeedStatus{Position: pos, State: domain.FeedDisabled})
		}
	}
	return out
}

// SetMuted flags whether the position's audio should play. The runner keeps
// pulling the audio track either way; muting is a routing decision made by
// the view layer.
func (s *FeedService) SetMuted(pos domain.Position, muted bool) {
	s.mu.Lock()
	fd, ok := s.feeds[pos]
	if !ok || fd.status.Muted == muted {
		s.mu.Unlock()
		return
	}
	fd.status.Muted = muted
	fd.status.UpdatedAt = time.Now()
	status := fd.status
	s.mu.Unlock()

	s.publishStatus(status)
}

// Shutdown stops every feed and waits for the supervision goroutines.
func (s *FeedService) Shutdown() {
	s.mu.Lock()
	for pos, fd := range s.feeds {
		fd.cancel()
		delete(s.feeds, pos)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// supervise is the per-position loop: probe, connect with backoff, run the
// session, then classify how it ended and either reconnect, degrade quality,
// or back off.
func (s *FeedService) supervise(ctx context.Context, fd *feed) {
	pos := fd.status.Position
	connectCfg := retry.Config{
		MaxAttempts:  s.cfg.Feed.ConnectAttempts,
		InitialDelay: s.cfg.Feed.ConnectBackoff,
		Multiplier:   2.0,
	}

	for ctx.Err() == nil {
		s.setState(fd, domain.FeedConnecting, "")

		var sessionErr error
		err := retry.Do(ctx, connectCfg, func() error {
			sessionErr = s.runSession(ctx, fd)
			if s.sessionPlayed(fd) {
				return nil
			}
			if sessionErr == nil {
				sessionErr = errNeverPlayed
			}
			return sessionErr
		})

		if ctx.Err() != nil {
			return
		}

		if err != nil {
			// Never reached playback across the whole attempt budget.
			s.onConnectFailure(ctx, fd, err)
			continue
		}

		// Session played and then ended: quality switch or mid-stream loss.
		s.mu.Lock()
		switched := fd.switchToSub
		fd.switchToSub = false
		if switched {
			fd.status.Quality = domain.QualitySub
			fd.status.Switches++
		} else {
			fd.status.Restarts++
		}
		s.mu.Unlock()

		if switched {
			s.logger.Warnw("degrading feed to sub quality", "position", pos)
			s.collector.RecordQualitySwitch(pos)
			s.metrics.IncrementSwitches(pos)
		} else {
			s.logger.Warnw("feed session ended, reconnecting",
				"position", pos, "error", sessionErr)
			s.collector.RecordRestart(pos)
			s.metrics.IncrementRestarts(pos)
		}
	}
}

// runSession probes the camera and runs one RTSP session to completion.
func (s *FeedService) runSession(ctx context.Context, fd *feed) error {
	pos := fd.status.Position

	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.Feed.ConnectTimeout)
	latency, err := s.prober.Probe(probeCtx, fd.camera.Host, fd.camera.RTSPPort)
	cancel()
	if err != nil {
		s.logger.Debugw("probe failed", "position", pos, "host", fd.camera.Host, "error", err)
		return err
	}

	s.mu.Lock()
	fd.status.ProbeLatency = latency
	fd.played = false
	quality := fd.status.Quality
	url := fd.camera.StreamURL(s.creds, quality)
	sessCtx, sessCancel := context.WithCancel(ctx)
	fd.sessionStop = sessCancel
	s.mu.Unlock()
	defer sessCancel()

	s.collector.RecordProbeLatency(pos, latency)
	s.metrics.RecordProbeLatency(pos, latency)

	sessionID := utils.GenerateSessionID()
	s.logger.Debugw("starting rtsp session",
		"position", pos, "session_id", sessionID, "quality", quality, "probe_latency", latency)

	return s.runner.Run(sessCtx, ports.RunnerConfig{
		URL:           url,
		WithAudio:     fd.camera.Audio,
		PlayTimeout:   s.cfg.Feed.PlayTimeout,
		StallInterval: s.cfg.Feed.StallInterval,
		Events: ports.RunnerEvents{
			Playing: func() { s.handlePlaying(pos) },
			Drop:    func(reason string) { s.handleDrop(pos, reason) },
		},
	})
}

// onConnectFailure advances the failure ladder: after MaxFailures exhausted
// connect rounds the feed pauses, doubling the pause up to the cap.
func (s *FeedService) onConnectFailure(ctx context.Context, fd *feed, err error) {
	pos := fd.status.Position

	s.mu.Lock()
	fd.failures++
	failures := fd.failures
	pause := fd.pause
	s.mu.Unlock()

	s.setState(fd, domain.FeedFailed, err.Error())
	s.logger.Errorw("feed connect failed",
		"position", pos, "failures", failures, "error", err)

	if failures < s.cfg.Feed.MaxFailures {
		return
	}

	s.setState(fd, domain.FeedPaused, err.Error())
	s.logger.Warnw("feed paused after repeated failures",
		"position", pos, "pause", pause)

	select {
	case <-ctx.Done():
		return
	case <-time.After(pause):
	}

	s.mu.Lock()
	fd.failures = 0
	fd.pause = fd.pause * 2
	if fd.pause > s.cfg.Feed.PauseMax {
		fd.pause = s.cfg.Feed.PauseMax
	}
	s.mu.Unlock()
}

// handlePlaying runs on the runner goroutine when the first packet arrives.
func (s *FeedService) handlePlaying(pos domain.Position) {
	s.mu.Lock()
	fd, ok := s.feeds[pos]
	if !ok {
		s.mu.Unlock()
		return
	}
	fd.played = true
	fd.failures = 0
	fd.pause = s.cfg.Feed.PauseInitial
	fd.dropTimes = nil
	fd.status.State = domain.FeedPlaying
	fd.status.Drops = 0
	fd.status.LastError = ""
	fd.status.StartedAt = time.Now()
	fd.status.UpdatedAt = time.Now()
	status := fd.status
	s.mu.Unlock()

	s.logger.Infow("feed playing", "position", pos, "quality", status.Quality)
	s.publishStatus(status)
	s.collector.SetFeedState(pos, domain.FeedPlaying)
}

// handleDrop runs on the runner goroutine for every detected drop. Crossing
// the threshold inside the sliding window degrades a main-quality feed to
// sub, at most once per cooldown; a sub feed just goes unstable.
func (s *FeedService) handleDrop(pos domain.Position, reason string) {
	now := time.Now()

	s.mu.Lock()
	fd, ok := s.feeds[pos]
	if !ok {
		s.mu.Unlock()
		return
	}

	cutoff := now.Add(-s.cfg.Feed.DropWindow)
	kept := fd.dropTimes[:0]
	for _, t := range fd.dropTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	fd.dropTimes = append(kept, now)
	fd.status.Drops = len(fd.dropTimes)
	fd.status.UpdatedAt = now

	var stopSession context.CancelFunc
	var unstable bool
	if len(fd.dropTimes) >= s.cfg.Feed.DropThreshold {
		switch {
		case fd.status.Quality == domain.QualityMain && now.Sub(fd.lastSwitch) >= s.cfg.Feed.SwitchCooldown:
			fd.switchToSub = true
			fd.lastSwitch = now
			fd.dropTimes = nil
			stopSession = fd.sessionStop
		default:
			unstable = true
		}
	}
	status := fd.status
	s.mu.Unlock()

	s.logger.Debugw("packet drop", "position", pos, "reason", reason, "drops_in_window", status.Drops)
	s.collector.RecordDrop(pos)
	s.metrics.IncrementDrops(pos)
	s.publishStatus(status)

	if unstable {
		s.setState(fd, domain.FeedUnstable, "drop threshold exceeded")
	}
	if stopSession != nil {
		stopSession()
	}
}

func (s *FeedService) sessionPlayed(fd *feed) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fd.played
}

// setState updates a feed's state and fans the change out.
func (s *FeedService) setState(fd *feed, state domain.FeedState, lastErr string) {
	s.mu.Lock()
	if fd.status.State == state && fd.status.LastError == lastErr {
		s.mu.Unlock()
		return
	}
	fd.status.State = state
	fd.status.LastError = lastErr
	fd.status.UpdatedAt = time.Now()
	status := fd.status
	s.mu.Unlock()

	s.publishStatus(status)
	s.collector.SetFeedState(status.Position, state)
}

func (s *FeedService) publishStatus(status domain.FeedStatus) {
	if s.publisher != nil {
		s.publisher.PublishFeed(domain.FeedEvent{Type: "feed_state", Status: status})
	}
}
