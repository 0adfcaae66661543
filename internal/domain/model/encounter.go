// Package model contains domain models passed between layers.
package model

import (
	"slices"
	"time"

	"github.com/okian/tavern/internal/domain/encounter"
)

// Player is a party member in a saved encounter.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Level int    `json:"level"`
}

// EncounterMonster is a group of identical monsters in a saved encounter.
type EncounterMonster struct {
	ID              string                    `json:"id"`
	Name            string                    `json:"name"`
	ChallengeRating encounter.ChallengeRating `json:"cr"`
	Count           int                       `json:"count"`
}

// Encounter is an encounter under construction.
type Encounter struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Party     []Player           `json:"party"`
	Monsters  []EncounterMonster `json:"monsters"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Clone returns a deep copy.
func (e Encounter) Clone() Encounter {
	e.Party = slices.Clone(e.Party)
	e.Monsters = slices.Clone(e.Monsters)
	return e
}

// Roster converts the encounter into evaluator input. The returned slices are
// fresh copies.
func (e Encounter) Roster() ([]encounter.PartyMember, []encounter.MonsterGroup) {
	party := make([]encounter.PartyMember, len(e.Party))
	for i, p := range e.Party {
		party[i] = encounter.PartyMember{Level: p.Level}
	}
	groups := make([]encounter.MonsterGroup, len(e.Monsters))
	for i, m := range e.Monsters {
		groups[i] = encounter.MonsterGroup{ChallengeRating: m.ChallengeRating, Count: m.Count}
	}
	return party, groups
}

// MonsterCount returns the total number of individual monsters.
func (e Encounter) MonsterCount() int {
	n := 0
	for _, m := range e.Monsters {
		n += m.Count
	}
	return n
}
