package domain

import "time"

// FeedState is the lifecycle state of a supervised camera feed.
type FeedState string

const (
	FeedDisabled   FeedState = "disabled"   // no camera, no URL, or duplicate URL
	FeedConnecting FeedState = "connecting" // probing / RTSP handshake in progress
	FeedPlaying    FeedState = "playing"    // packets flowing
	FeedUnstable   FeedState = "unstable"   // excessive drops, switch throttled
	FeedPaused     FeedState = "paused"     // failure ladder exhausted, backing off
	FeedFailed     FeedState = "failed"     // connect attempts exhausted
)

// FeedStatus is a snapshot of one position's supervision state.
type FeedStatus struct {
	Position     Position      `json:"position"`
	State        FeedState     `json:"state"`
	Quality      Quality       `json:"quality"`
	Muted        bool          `json:"muted"`
	Drops        int           `json:"drops_in_window"`
	Restarts     int           `json:"restarts"`
	Switches     int           `json:"quality_switches"`
	ProbeLatency time.Duration `json:"probe_latency"`
	LastError    string        `json:"last_error,omitempty"`
	StartedAt    time.Time     `json:"started_at,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// FeedEvent is published whenever a feed changes state.
type FeedEvent struct {
	Type   string     `json:"type"` // always "feed_state"
	Status FeedStatus `json:"status"`
}

// PTZDirection is a continuous-move direction.
type PTZDirection string

const (
	PTZLeft  PTZDirection = "left"
	PTZRight PTZDirection = "right"
	PTZUp    PTZDirection = "up"
	PTZDown  PTZDirection = "down"
)

// Velocity returns the pan/tilt velocity components for the direction,
// scaled by speed.
func (d PTZDirection) Velocity(speed float64) (pan, tilt float64) {
	switch d {
	case PTZLeft:
		return -speed, 0
	case PTZRight:
		return speed, 0
	case PTZUp:
		return 0, speed
	case PTZDown:
		return 0, -speed
	}
	return 0, 0
}
