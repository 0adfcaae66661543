package initiative

import "errors"

var (
	ErrInvalidCombatant  = errors.New("invalid combatant")
	ErrCombatantNotFound = errors.New("combatant not found")
	ErrCannotMove        = errors.New("combatant can only move past a tied initiative")
	ErrNoHitPoints       = errors.New("combatant has no hit points")
)
