package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownDifficulty = errors.New("metrics: unknown difficulty label")
)
