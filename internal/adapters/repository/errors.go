package repository

import "errors"

// Sentinel kinds for encounter store errors.
var (
	ErrNotFound         = errors.New("encounter not found")
	ErrAlreadyExists    = errors.New("encounter already exists")
	ErrCapacityExceeded = errors.New("encounter store is full")
)
