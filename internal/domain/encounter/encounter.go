// Package encounter computes encounter difficulty from a party roster and a
// monster roster using the 5e encounter-building tables.
//
// Everything here is a pure function of its arguments: the lookup tables are
// package constants and no call keeps state, so the functions are safe for
// concurrent use.
package encounter

import (
	"fmt"
	"strconv"
	"strings"
)

// Difficulty is the band an encounter falls into.
type Difficulty string

// Difficulty bands, lowest first.
const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Deadly Difficulty = "deadly"
)

// Difficulties lists every band in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard, Deadly}
}

// PartyMember is one player character.
type PartyMember struct {
	Level int `json:"level"`
}

// MonsterGroup is a number of identical monsters.
type MonsterGroup struct {
	ChallengeRating ChallengeRating `json:"cr"`
	Count           int             `json:"count"`
}

// Thresholds are the XP boundaries of each difficulty band.
type Thresholds struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Deadly int `json:"deadly"`
}

// Add returns the element-wise sum of t and o.
func (t Thresholds) Add(o Thresholds) Thresholds {
	return Thresholds{
		Easy:   t.Easy + o.Easy,
		Medium: t.Medium + o.Medium,
		Hard:   t.Hard + o.Hard,
		Deadly: t.Deadly + o.Deadly,
	}
}

// Result is the outcome of an evaluation.
type Result struct {
	TotalXP      int        `json:"total_xp"`
	AdjustedXP   float64    `json:"adjusted_xp"`
	MonsterCount int        `json:"monster_count"`
	Multiplier   float64    `json:"multiplier"`
	Difficulty   Difficulty `json:"difficulty"`
	Thresholds   Thresholds `json:"thresholds"`
}

// Evaluate scores an encounter.
//
// An empty party always yields an easy encounter with zero XP and zero
// thresholds. A level outside 1-20 fails with ErrInvalidLevel and no result.
// Unknown challenge ratings contribute no XP.
func Evaluate(party []PartyMember, monsters []MonsterGroup) (Result, error) {
	var thresholds Thresholds
	for _, m := range party {
		t, err := ThresholdsForLevel(m.Level)
		if err != nil {
			return Result{}, err
		}
		thresholds = thresholds.Add(t)
	}

	if len(party) == 0 {
		return Result{Difficulty: Easy, Multiplier: 1}, nil
	}

	var count, total int
	for _, g := range monsters {
		count += g.Count
		total += XPForCR(g.ChallengeRating) * g.Count
	}

	multiplier := Multiplier(count)
	adjusted := float64(total) * multiplier

	return Result{
		TotalXP:      total,
		AdjustedXP:   adjusted,
		MonsterCount: count,
		Multiplier:   multiplier,
		Difficulty:   Classify(adjusted, thresholds),
		Thresholds:   thresholds,
	}, nil
}

// Classify places adjusted XP into a band. Comparisons are strict, so a value
// equal to a threshold stays in the lower band.
func Classify(adjustedXP float64, t Thresholds) Difficulty {
	switch {
	case adjustedXP > float64(t.Deadly):
		return Deadly
	case adjustedXP > float64(t.Hard):
		return Hard
	case adjustedXP > float64(t.Medium):
		return Medium
	default:
		return Easy
	}
}

// Summary renders the result as a short multi-line report.
func (r Result) Summary() string {
	t := r.Thresholds
	return fmt.Sprintf(
		"Difficulty: %s\nMonsters: %d\nTotal XP: %d\nMultiplier: x%s\nAdjusted XP: %s\nParty thresholds: easy %d / medium %d / hard %d / deadly %d\n",
		strings.ToUpper(string(r.Difficulty)),
		r.MonsterCount,
		r.TotalXP,
		strconv.FormatFloat(r.Multiplier, 'f', -1, 64),
		strconv.FormatFloat(r.AdjustedXP, 'f', -1, 64),
		t.Easy, t.Medium, t.Hard, t.Deadly,
	)
}
