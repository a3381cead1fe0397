package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
)

// ViewService owns the wall layout and enforces the audio invariant: in grid
// every position is muted, in focus at most the focused position plays audio,
// and only when its camera has audio enabled.
type ViewService struct {
	feeds     ports.FeedService
	cameras   ports.CameraRepository
	publisher ports.EventPublisher
	metrics   *MetricsService
	logger    *zap.SugaredLogger

	mu   sync.Mutex
	wall domain.Wall
}

func NewViewService(
	feeds ports.FeedService,
	cameras ports.CameraRepository,
	publisher ports.EventPublisher,
	metrics *MetricsService,
	logger *zap.SugaredLogger,
) *ViewService {
	return &ViewService{
		feeds:     feeds,
		cameras:   cameras,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		wall:      domain.NewWall(),
	}
}

// Wall returns the current wall state.
func (s *ViewService) Wall() domain.Wall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wall
}

// Focused reports the focused position, if any.
func (s *ViewService) Focused() (domain.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wall.Layout != domain.LayoutFocus {
		return -1, false
	}
	return s.wall.Focused, true
}

// Focus maximizes pos, or returns to grid when pos is already focused. The
// position must have a live feed behind it.
func (s *ViewService) Focus(ctx context.Context, pos domain.Position) (domain.Wall, error) {
	if !pos.Valid() {
		return s.Wall(), domain.ErrInvalidPosition
	}

	s.mu.Lock()
	if s.wall.Layout == domain.LayoutFocus && s.wall.Focused == pos {
		s.mu.Unlock()
		return s.Grid(ctx), nil
	}
	s.mu.Unlock()

	status, err := s.feeds.Status(pos)
	if err != nil {
		return s.Wall(), err
	}
	switch status.State {
	case domain.FeedPlaying, domain.FeedUnstable:
	default:
		return s.Wall(), domain.ErrFeedNotRunning
	}

	audible := domain.Position(-1)
	cam, err := s.cameras.GetByPosition(ctx, pos)
	if err == nil && cam.Audio {
		audible = pos
	}

	s.mu.Lock()
	s.wall = domain.Wall{Layout: domain.LayoutFocus, Focused: pos, Audible: audible}
	wall := s.wall
	s.mu.Unlock()

	s.applyAudio(wall)
	s.metrics.IncrementFocuses()
	s.logger.Infow("focused position", "position", pos, "audible", audible)
	s.publishWall(wall)
	return wall, nil
}

// Grid returns the wall to the 2x2 layout and mutes everything.
func (s *ViewService) Grid(ctx context.Context) domain.Wall {
	s.mu.Lock()
	s.wall = domain.NewWall()
	wall := s.wall
	s.mu.Unlock()

	s.applyAudio(wall)
	s.logger.Infow("returned to grid")
	s.publishWall(wall)
	return wall
}

// SetAudio flips the camera's audio-enabled flag and reroutes audio if the
// position is currently focused.
func (s *ViewService) SetAudio(ctx context.Context, pos domain.Position, enabled bool) (domain.Wall, error) {
	if !pos.Valid() {
		return s.Wall(), domain.ErrInvalidPosition
	}
	cam, err := s.cameras.GetByPosition(ctx, pos)
	if err != nil {
		return s.Wall(), err
	}
	cam.Audio = enabled
	if err := s.cameras.Save(ctx, cam); err != nil {
		return s.Wall(), err
	}

	s.mu.Lock()
	if s.wall.Layout == domain.LayoutFocus && s.wall.Focused == pos {
		if enabled {
			s.wall.Audible = pos
		} else {
			s.wall.Audible = -1
		}
	}
	wall := s.wall
	s.mu.Unlock()

	s.applyAudio(wall)
	s.logger.Infow("audio flag changed", "position", pos, "enabled", enabled)
	s.publishWall(wall)
	return wall, nil
}

// applyAudio pushes the mute decision for every position to the feed layer.
func (s *ViewService) applyAudio(wall domain.Wall) {
	for pos := domain.Position(0); pos < domain.MaxPositions; pos++ {
		s.feeds.SetMuted(pos, pos != wall.Audible)
	}
}

func (s *ViewService) publishWall(wall domain.Wall) {
	if s.publisher != nil {
		s.publisher.PublishWall(domain.WallEvent{Type: "wall_state", Wall: wall})
	}
}
