package encounter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ChallengeRating is a monster's challenge rating. Fractional ratings are
// stored as their decimal value (1/8 = 0.125).
type ChallengeRating float64

var fractionalCR = map[string]ChallengeRating{
	"1/8": 0.125,
	"1/4": 0.25,
	"1/2": 0.5,
}

// ParseChallengeRating accepts "1/8", "1/4", "1/2" or any finite,
// non-negative decimal number.
// It does not require the rating to be in the XP table; see Known.
func ParseChallengeRating(s string) (ChallengeRating, error) {
	s = strings.TrimSpace(s)
	if cr, ok := fractionalCR[s]; ok {
		return cr, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChallengeRating, s)
	}
	return ChallengeRating(v), nil
}

// Known reports whether the rating has an entry in the XP table.
func (c ChallengeRating) Known() bool {
	_, ok := xpByCR[c]
	return ok
}

// String renders fractional ratings the way stat blocks print them.
func (c ChallengeRating) String() string {
	for s, cr := range fractionalCR {
		if cr == c {
			return s
		}
	}
	return strconv.FormatFloat(float64(c), 'f', -1, 64)
}

// MarshalJSON encodes the rating as a string, e.g. "1/4".
func (c ChallengeRating) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both "1/4" and 0.25.
func (c *ChallengeRating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidChallengeRating, data)
		}
	}
	cr, err := ParseChallengeRating(raw)
	if err != nil {
		return err
	}
	*c = cr
	return nil
}
