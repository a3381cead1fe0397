package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
	"camwall/pkg/config"
)

// PTZService drives pan/tilt for the focused camera. Commands are serialized
// per position: a second move while one is in flight is rejected rather than
// queued, because stale queued moves on a camera head are worse than dropped
// ones.
type PTZService struct {
	controller ports.PTZController
	cameras    ports.CameraRepository
	view       ports.ViewService
	collector  ports.MetricsCollector
	metrics    *MetricsService
	cfg        *config.Config
	logger     *zap.SugaredLogger
	limiter    *rate.Limiter

	mu        sync.Mutex
	busy      map[domain.Position]bool
	nudges    map[domain.Position]int
	watchdogs map[domain.Position]*time.Timer
}

func NewPTZService(
	controller ports.PTZController,
	cameras ports.CameraRepository,
	view ports.ViewService,
	collector ports.MetricsCollector,
	metrics *MetricsService,
	cfg *config.Config,
	logger *zap.SugaredLogger,
) *PTZService {
	return &PTZService{
		controller: controller,
		cameras:    cameras,
		view:       view,
		collector:  collector,
		metrics:    metrics,
		cfg:        cfg,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(cfg.PTZ.CommandsPerSecond), cfg.PTZ.Burst),
		busy:       make(map[domain.Position]bool),
		nudges:     make(map[domain.Position]int),
		watchdogs:  make(map[domain.Position]*time.Timer),
	}
}

// Move starts a continuous move in the given direction. The move is stopped
// by Stop, or by the watchdog if no Stop arrives within the move timeout.
func (s *PTZService) Move(ctx context.Context, pos domain.Position, dir domain.PTZDirection) error {
	cam, err := s.authorize(ctx, pos)
	if err != nil {
		return err
	}
	if !s.limiter.Allow() {
		return domain.ErrPTZBusy
	}

	if !s.acquire(pos) {
		return domain.ErrPTZBusy
	}

	pan, tilt := dir.Velocity(s.cfg.PTZ.Velocity)
	if err := s.controller.Move(ctx, cam, pan, tilt); err != nil {
		s.release(pos)
		s.logger.Errorw("ptz move failed", "position", pos, "direction", dir, "error", err)
		return err
	}

	s.armWatchdog(pos, cam)
	s.collector.RecordPTZCommand(pos, "move")
	s.metrics.IncrementPTZCommands(pos)
	s.logger.Debugw("ptz move", "position", pos, "direction", dir)
	return nil
}

// Stop halts an in-flight move.
func (s *PTZService) Stop(ctx context.Context, pos domain.Position) error {
	cam, err := s.authorize(ctx, pos)
	if err != nil {
		return err
	}

	s.disarmWatchdog(pos)
	err = s.controller.Stop(ctx, cam)
	s.release(pos)
	if err != nil {
		s.logger.Errorw("ptz stop failed", "position", pos, "error", err)
		return err
	}

	s.collector.RecordPTZCommand(pos, "stop")
	s.metrics.IncrementPTZCommands(pos)
	return nil
}

// Nudge applies a minimal tilt impulse, alternating direction on every call
// so repeated nudges wiggle in place instead of drifting.
func (s *PTZService) Nudge(ctx context.Context, pos domain.Position) error {
	cam, err := s.authorize(ctx, pos)
	if err != nil {
		return err
	}
	if !s.limiter.Allow() {
		return domain.ErrPTZBusy
	}

	if !s.acquire(pos) {
		return domain.ErrPTZBusy
	}
	defer s.release(pos)

	s.mu.Lock()
	s.nudges[pos]++
	tilt := s.cfg.PTZ.NudgeVelocity
	if s.nudges[pos]%2 == 0 {
		tilt = -tilt
	}
	s.mu.Unlock()

	if err := s.controller.Move(ctx, cam, 0, tilt); err != nil {
		s.logger.Errorw("ptz nudge failed", "position", pos, "error", err)
		return err
	}

	select {
	case <-ctx.Done():
	case <-time.After(s.cfg.PTZ.NudgeDuration):
	}

	if err := s.controller.Stop(ctx, cam); err != nil {
		s.logger.Errorw("ptz nudge stop failed", "position", pos, "error", err)
		return err
	}

	s.collector.RecordPTZCommand(pos, "nudge")
	s.metrics.IncrementPTZCommands(pos)
	return nil
}

// authorize checks that the position is valid, focused, and has a camera
// with an ONVIF endpoint.
func (s *PTZService) authorize(ctx context.Context, pos domain.Position) (*domain.Camera, error) {
	if !pos.Valid() {
		return nil, domain.ErrInvalidPosition
	}
	if focused, ok := s.view.Focused(); !ok || focused != pos {
		return nil, domain.ErrNotFocused
	}
	cam, err := s.cameras.GetByPosition(ctx, pos)
	if err != nil {
		return nil, err
	}
	if cam.Host == "" || cam.ONVIFPort == 0 {
		return nil, domain.ErrPTZUnavailable
	}
	return cam, nil
}

func (s *PTZService) acquire(pos domain.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[pos] {
		return false
	}
	s.busy[pos] = true
	return true
}

func (s *PTZService) release(pos domain.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[pos] = false
}

// armWatchdog schedules a forced stop in case the client never sends one.
func (s *PTZService) armWatchdog(pos domain.Position, cam *domain.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.watchdogs[pos]; ok {
		t.Stop()
	}
	s.watchdogs[pos] = time.AfterFunc(s.cfg.PTZ.MoveTimeout, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PTZ.MoveTimeout)
		defer cancel()
		if err := s.controller.Stop(ctx, cam); err != nil {
			s.logger.Warnw("ptz watchdog stop failed", "position", pos, "error", err)
		}
		s.release(pos)
		s.logger.Warnw("ptz move stopped by watchdog", "position", pos)
	})
}

func (s *PTZService) disarmWatchdog(pos domain.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.watchdogs[pos]; ok {
		t.Stop()
		delete(s.watchdogs, pos)
	}
}
