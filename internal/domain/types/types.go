// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/tavern/internal/domain/encounter"
	"github.com/okian/tavern/internal/domain/model"
)

// EncounterSummary is a list row for a saved encounter
type EncounterSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PartySize    int       `json:"party_size"`
	MonsterCount int       `json:"monster_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summarize builds the list row for e
func Summarize(e model.Encounter) EncounterSummary {
	return EncounterSummary{
		ID:           e.ID,
		Name:         e.Name,
		PartySize:    len(e.Party),
		MonsterCount: e.MonsterCount(),
		UpdatedAt:    e.UpdatedAt,
	}
}

// MonsterEntry is a catalog monster as shown to clients
type MonsterEntry struct {
	Name            string                    `json:"name"`
	ChallengeRating encounter.ChallengeRating `json:"cr"`
	XP              int                       `json:"xp"`
	Type            string                    `json:"type,omitempty"`
	Size            string                    `json:"size,omitempty"`
	ReferenceURL    string                    `json:"reference_url"`
}

// DifficultyReport pairs an encounter with its evaluation
type DifficultyReport struct {
	EncounterID string           `json:"encounter_id"`
	Result      encounter.Result `json:"result"`
}
