package validation

import (
	"fmt"
	"net"
	"strings"
)

// MaxPositions is the number of panes on the wall.
const MaxPositions = 4

// ValidatePosition checks that a pane position is within the wall bounds.
func ValidatePosition(pos int) error {
	if pos < 0 || pos >= MaxPositions {
		return fmt.Errorf("position %d out of range [0, %d)", pos, MaxPositions)
	}
	return nil
}

// ValidateHost checks that a camera host is a plausible IP address or hostname.
func ValidateHost(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if strings.ContainsAny(host, " /@:") {
		return fmt.Errorf("host %q must not contain spaces, slashes, credentials or ports", host)
	}
	if ip := net.ParseIP(host); ip != nil {
		return nil
	}
	// Hostname: RFC 1123 labels
	if len(host) > 253 {
		return fmt.Errorf("host %q too long", host)
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return fmt.Errorf("host %q contains an empty label", host)
		}
		if len(label) > 63 {
			return fmt.Errorf("host %q label %q too long", host, label)
		}
		for i, r := range label {
			isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !isAlnum && r != '-' {
				return fmt.Errorf("host %q contains invalid character %q", host, r)
			}
			if r == '-' && (i == 0 || i == len(label)-1) {
				return fmt.Errorf("host %q label %q must not start or end with '-'", host, label)
			}
		}
	}
	return nil
}

// ValidatePort checks a TCP port number, with 0 meaning "use default".
func ValidatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	return nil
}

// ValidateCameraName checks a display name for a camera.
func ValidateCameraName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("name too long (max 64 characters)")
	}
	return nil
}

// ValidatePTZDirection checks a PTZ move direction.
func ValidatePTZDirection(direction string) error {
	switch direction {
	case "left", "right", "up", "down":
		return nil
	default:
		return fmt.Errorf("direction must be one of left, right, up, down; got %q", direction)
	}
}
