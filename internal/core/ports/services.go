package ports

import (
	"context"
	"time"

	"camwall/internal/core/domain"
)

// FeedService supervises the RTSP feeds behind the wall positions.
type FeedService interface {
	StartAll(ctx context.Context) error
	Start(ctx context.Context, pos domain.Position) error
	Stop(pos domain.Position) error
	Restart(ctx context.Context, pos domain.Position) error
	Status(pos domain.Position) (domain.FeedStatus, error)
	Statuses() []domain.FeedStatus
	SetMuted(pos domain.Position, muted bool)
	Shutdown()
}

// ViewService owns the wall layout and the audio routing that follows it.
type ViewService interface {
	Wall() domain.Wall
	Focus(ctx context.Context, pos domain.Position) (domain.Wall, error)
	Grid(ctx context.Context) domain.Wall
	SetAudio(ctx context.Context, pos domain.Position, enabled bool) (domain.Wall, error)
	Focused() (domain.Position, bool)
}

// PTZService drives camera pan/tilt through their ONVIF endpoints.
type PTZService interface {
	Move(ctx context.Context, pos domain.Position, dir domain.PTZDirection) error
	Stop(ctx context.Context, pos domain.Position) error
	Nudge(ctx context.Context, pos domain.Position) error
}

// AuthService issues and validates API tokens.
type AuthService interface {
	Login(username, password string) (*TokenPair, error)
	ValidateToken(token string) (*TokenClaims, error)
	RefreshToken(refreshToken string) (*TokenPair, error)
}

// TokenPair is an access/refresh token pair returned on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenClaims are the validated claims of an access token.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// EventPublisher fans state changes out to connected clients.
type EventPublisher interface {
	PublishFeed(event domain.FeedEvent)
	PublishWall(event domain.WallEvent)
}

// RunnerEvents are callbacks fired by a running RTSP session. They are
// invoked from the session's own goroutines.
type RunnerEvents struct {
	// Playing fires once the first RTP packet arrives.
	Playing func()
	// Drop fires on a detected packet drop or stream stall.
	Drop func(reason string)
}

// RunnerConfig describes one RTSP session to run.
type RunnerConfig struct {
	URL           string
	WithAudio     bool
	PlayTimeout   time.Duration
	StallInterval time.Duration
	Events        RunnerEvents
}

// FeedRunner runs a single RTSP session until it fails or the context is
// cancelled. A nil error means the context ended the session.
type FeedRunner interface {
	Run(ctx context.Context, cfg RunnerConfig) error
}

// Prober checks TCP reachability of a camera endpoint and measures the
// connect latency.
type Prober interface {
	Probe(ctx context.Context, host string, port int) (time.Duration, error)
}

// PTZController is the device-facing side of PTZ control.
type PTZController interface {
	Move(ctx context.Context, camera *domain.Camera, pan, tilt float64) error
	Stop(ctx context.Context, camera *domain.Camera) error
}

// MetricsCollector receives feed and PTZ telemetry.
type MetricsCollector interface {
	SetFeedState(pos domain.Position, state domain.FeedState)
	RecordDrop(pos domain.Position)
	RecordRestart(pos domain.Position)
	RecordQualitySwitch(pos domain.Position)
	RecordProbeLatency(pos domain.Position, latency time.Duration)
	RecordPTZCommand(pos domain.Position, command string)
}
