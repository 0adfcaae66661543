// Package loadtest drives a running tavern server with random encounters and
// checks every answer against the local evaluator.
package loadtest

import (
	"errors"
	"time"

	"github.com/okian/tavern/internal/domain/encounter"
)

// Defaults used when a Config field is left zero.
const (
	DefaultEncounters   = 1000
	DefaultWorkers      = 8
	DefaultTimeout      = 10 * time.Second
	DefaultMaxPartySize = 6
	DefaultMaxGroups    = 4
	DefaultMaxGroupSize = 8
)

// ErrInvalidConfig reports an unusable load test configuration.
var ErrInvalidConfig = errors.New("invalid load test config")

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Encounters   int           // Number of encounters to generate
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	Seed         uint64        // Generator seed, 0 picks one from the clock
	MaxPartySize int
	MaxGroups    int
	MaxGroupSize int
	OutputFile   string // Optional JSON dump of the generated encounters
}

func (c Config) withDefaults() Config {
	if c.Encounters == 0 {
		c.Encounters = DefaultEncounters
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxPartySize == 0 {
		c.MaxPartySize = DefaultMaxPartySize
	}
	if c.MaxGroups == 0 {
		c.MaxGroups = DefaultMaxGroups
	}
	if c.MaxGroupSize == 0 {
		c.MaxGroupSize = DefaultMaxGroupSize
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url is required"))
	case c.Encounters < 0, c.Workers < 0, c.MaxPartySize < 0, c.MaxGroups < 0, c.MaxGroupSize < 0:
		return errors.Join(ErrInvalidConfig, errors.New("counts must not be negative"))
	}
	return nil
}

// Case is one generated encounter sent to the server.
type Case struct {
	Party    []encounter.PartyMember  `json:"party"`
	Monsters []encounter.MonsterGroup `json:"monsters"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Matched    int
	Mismatched int
	Failed     int
	ByDiff     map[encounter.Difficulty]int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Rate returns evaluations per second over the run.
func (s Stats) Rate() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Submitted) / s.Duration.Seconds()
}
