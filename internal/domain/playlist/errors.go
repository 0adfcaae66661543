package playlist

import "errors"

var (
	ErrInvalidURL   = errors.New("not a youtube url")
	ErrInvalidVideo = errors.New("invalid video")
	ErrNotFound     = errors.New("video not found")
)
