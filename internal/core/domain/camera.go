package domain

import (
	"fmt"
	"net/url"
)

// Position identifies a pane on the wall, 0..3.
type Position int

// MaxPositions is the number of panes on the wall.
const MaxPositions = 4

// Valid reports whether the position is within the wall bounds.
func (p Position) Valid() bool {
	return p >= 0 && p < MaxPositions
}

// Quality selects between the camera's main (HQ) and sub (LQ) RTSP profile.
type Quality string

const (
	QualityMain Quality = "main"
	QualitySub  Quality = "sub"
)

// Path returns the RTSP path suffix for the quality. The main profile is
// published as stream1 and the sub profile as stream2.
func (q Quality) Path() string {
	if q == QualitySub {
		return "stream2"
	}
	return "stream1"
}

// Credentials are shared across all cameras on the wall.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Empty reports whether no credentials are configured.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// Camera describes one camera assigned to a wall position.
type Camera struct {
	Position  Position `json:"position"`
	Name      string   `json:"name"`
	Host      string   `json:"host"`
	RTSPPort  int      `json:"rtsp_port"`
	ONVIFPort int      `json:"onvif_port"`
	Audio     bool     `json:"audio"`
	Preferred Quality  `json:"preferred_quality"`
}

// Configured reports whether the camera can produce a stream URL at all.
func (c *Camera) Configured(creds Credentials) bool {
	return c != nil && c.Host != "" && !creds.Empty()
}

// StreamURL builds the camera's RTSP URL for the given quality. An
// unconfigured camera yields an empty URL.
func (c *Camera) StreamURL(creds Credentials, q Quality) string {
	if !c.Configured(creds) {
		return ""
	}
	u := url.URL{
		Scheme: "rtsp",
		User:   url.UserPassword(creds.Username, creds.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.RTSPPort),
		Path:   "/" + q.Path(),
	}
	return u.String()
}

// ONVIFAddr returns the host:port of the camera's ONVIF endpoint.
func (c *Camera) ONVIFAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.ONVIFPort)
}

// DedupeStreamURLs maps each camera to its stream URL, disabling later
// positions whose URL duplicates an earlier one. The returned map contains
// only positions with a usable, unique URL.
func DedupeStreamURLs(cams []*Camera, creds Credentials, quality func(*Camera) Quality) map[Position]string {
	urls := make(map[Position]string)
	seen := make(map[string]bool)
	for _, cam := range cams {
		if cam == nil || !cam.Configured(creds) {
			continue
		}
		u := cam.StreamURL(creds, quality(cam))
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls[cam.Position] = u
	}
	return urls
}
