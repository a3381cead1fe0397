package domain

import "errors"

var (
	ErrCameraNotFound    = errors.New("camera not found")
	ErrInvalidPosition   = errors.New("position out of range")
	ErrPositionOccupied  = errors.New("position already occupied")
	ErrDuplicateStream   = errors.New("duplicate stream url")
	ErrFeedNotRunning    = errors.New("feed not running")
	ErrNotFocused        = errors.New("position is not focused")
	ErrPTZBusy           = errors.New("ptz move already in progress")
	ErrPTZUnavailable    = errors.New("ptz unavailable for camera")
	ErrMissingCredential = errors.New("camera credentials not configured")
)
