package encounter

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidLevel           = errors.New("invalid character level")
	ErrInvalidChallengeRating = errors.New("invalid challenge rating")
)

func invalidLevel(level int) error {
	return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidLevel, level, MinLevel, MaxLevel)
}
