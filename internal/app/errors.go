package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidCount = errors.New("invalid monster count")
	ErrInvalidName  = errors.New("name is required")
	ErrNotInRoster  = errors.New("not part of the encounter")
)
