// Package initiative keeps the turn order of a combat.
package initiative

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Kind distinguishes who a combatant fights for.
type Kind string

// Combatant kinds.
const (
	Player  Kind = "player"
	Monster Kind = "monster"
	Ally    Kind = "ally"
)

// Default display colours per kind.
const (
	playerColor  = "#1f2937"
	monsterColor = "#ef4444"
	allyColor    = "#3b82f6"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case Player, Monster, Ally:
		return true
	}
	return false
}

// DefaultColor returns the colour used when a combatant has none.
func (k Kind) DefaultColor() string {
	switch k {
	case Monster:
		return monsterColor
	case Ally:
		return allyColor
	default:
		return playerColor
	}
}

// Combatant is one entry in the turn order.
type Combatant struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Initiative int      `json:"initiative"`
	Kind       Kind     `json:"kind"`
	CurrentHP  *int     `json:"current_hp,omitempty"`
	MaxHP      *int     `json:"max_hp,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
	Color      string   `json:"color"`
}

func (c Combatant) clone() Combatant {
	if c.CurrentHP != nil {
		hp := *c.CurrentHP
		c.CurrentHP = &hp
	}
	if c.MaxHP != nil {
		hp := *c.MaxHP
		c.MaxHP = &hp
	}
	c.Statuses = slices.Clone(c.Statuses)
	return c
}

// Patch holds optional updates; nil fields are left alone.
type Patch struct {
	Name       *string `json:"name,omitempty"`
	Initiative *int    `json:"initiative,omitempty"`
	Color      *string `json:"color,omitempty"`
	CurrentHP  *int    `json:"current_hp,omitempty"`
	MaxHP      *int    `json:"max_hp,omitempty"`
}

// Tracker holds the combatants of the current fight, ordered by initiative
// descending. Combatants with equal initiative keep their relative order.
// It is safe for concurrent use.
type Tracker struct {
	mu         sync.RWMutex
	combatants []Combatant
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// normalize validates c and fills in defaults.
func normalize(c Combatant) (Combatant, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Combatant{}, fmt.Errorf("%w: name is required", ErrInvalidCombatant)
	}
	if c.Kind == "" {
		c.Kind = Player
	}
	if !c.Kind.Valid() {
		return Combatant{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidCombatant, c.Kind)
	}
	if c.Kind == Player && (c.MaxHP != nil || c.CurrentHP != nil) {
		return Combatant{}, fmt.Errorf("%w: players do not track hit points", ErrInvalidCombatant)
	}
	if c.MaxHP != nil {
		if *c.MaxHP < 0 {
			return Combatant{}, fmt.Errorf("%w: negative hit points", ErrInvalidCombatant)
		}
		if c.CurrentHP == nil {
			hp := *c.MaxHP
			c.CurrentHP = &hp
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Color == "" {
		c.Color = c.Kind.DefaultColor()
	}
	return c.clone(), nil
}

func (t *Tracker) sortLocked() {
	slices.SortStableFunc(t.combatants, func(a, b Combatant) int {
		return b.Initiative - a.Initiative
	})
}

func (t *Tracker) indexLocked(id string) (int, error) {
	i := slices.IndexFunc(t.combatants, func(c Combatant) bool { return c.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrCombatantNotFound, id)
	}
	return i, nil
}

// Start replaces the turn order with combatants.
func (t *Tracker) Start(combatants []Combatant) ([]Combatant, error) {
	next := make([]Combatant, 0, len(combatants))
	for _, c := range combatants {
		n, err := normalize(c)
		if err != nil {
			return nil, err
		}
		next = append(next, n)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.combatants = next
	t.sortLocked()
	return t.listLocked(), nil
}

// Add inserts a combatant into the turn order.
func (t *Tracker) Add(c Combatant) (Combatant, error) {
	n, err := normalize(c)
	if err != nil {
		return Combatant{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.indexLocked(n.ID); err == nil {
		return Combatant{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidCombatant, n.ID)
	}
	t.combatants = append(t.combatants, n)
	t.sortLocked()
	return n.clone(), nil
}

// Remove deletes a combatant.
func (t *Tracker) Remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.indexLocked(id)
	if err != nil {
		return err
	}
	t.combatants = slices.Delete(t.combatants, i, i+1)
	return nil
}

// Clear removes everyone.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.combatants = nil
}

// List returns a copy of the turn order.
func (t *Tracker) List() []Combatant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.listLocked()
}

func (t *Tracker) listLocked() []Combatant {
	out := make([]Combatant, len(t.combatants))
	for i, c := range t.combatants {
		out[i] = c.clone()
	}
	return out
}

// Len returns the number of combatants.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.combatants)
}

// Get returns a single combatant.
func (t *Tracker) Get(id string) (Combatant, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, err := t.indexLocked(id)
	if err != nil {
		return Combatant{}, err
	}
	return t.combatants[i].clone(), nil
}

// Update applies p to a combatant. Changing initiative re-sorts the order.
func (t *Tracker) Update(id string, p Patch) (Combatant, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.indexLocked(id)
	if err != nil {
		return Combatant{}, err
	}
	c := t.combatants[i].clone()
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Initiative != nil {
		c.Initiative = *p.Initiative
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.MaxHP != nil {
		c.MaxHP = p.MaxHP
	}
	if p.CurrentHP != nil {
		c.CurrentHP = p.CurrentHP
	}
	c, err = normalize(c)
	if err != nil {
		return Combatant{}, err
	}
	t.combatants[i] = c
	if p.Initiative != nil {
		t.sortLocked()
	}
	return c.clone(), nil
}

// SetColor changes a combatant's display colour.
func (t *Tracker) SetColor(id, color string) (Combatant, error) {
	return t.Update(id, Patch{Color: &color})
}

// AdjustHP adds delta to a monster's current hit points, never going below 0.
// Only monsters with tracked hit points can be adjusted.
func (t *Tracker) AdjustHP(id string, delta int) (Combatant, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.indexLocked(id)
	if err != nil {
		return Combatant{}, err
	}
	c := &t.combatants[i]
	if c.Kind != Monster || c.CurrentHP == nil {
		return Combatant{}, fmt.Errorf("%w: %s has no tracked hit points", ErrNoHitPoints, c.Name)
	}
	hp := max(0, *c.CurrentHP+delta)
	c.CurrentHP = &hp
	return c.clone(), nil
}

// AddStatus attaches a status (condition or free text). Duplicates are ignored.
func (t *Tracker) AddStatus(id, status string) (Combatant, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return Combatant{}, fmt.Errorf("%w: empty status", ErrInvalidCombatant)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.indexLocked(id)
	if err != nil {
		return Combatant{}, err
	}
	c := &t.combatants[i]
	if !slices.Contains(c.Statuses, status) {
		c.Statuses = append(c.Statuses, status)
	}
	return c.clone(), nil
}

// RemoveStatus detaches a status.
func (t *Tracker) RemoveStatus(id, status string) (Combatant, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.indexLocked(id)
	if err != nil {
		return Combatant{}, err
	}
	c := &t.combatants[i]
	c.Statuses = slices.DeleteFunc(c.Statuses, func(s string) bool { return s == status })
	return c.clone(), nil
}

// MoveUp swaps a combatant with the one before it. Only combatants tied on
// initiative may be reordered.
func (t *Tracker) MoveUp(id string) error {
	return t.move(id, -1)
}

// MoveDown swaps a combatant with the one after it, under the same rule as MoveUp.
func (t *Tracker) MoveDown(id string) error {
	return t.move(id, 1)
}

func (t *Tracker) move(id string, dir int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.indexLocked(id)
	if err != nil {
		return err
	}
	j := i + dir
	if j < 0 || j >= len(t.combatants) || t.combatants[i].Initiative != t.combatants[j].Initiative {
		return fmt.Errorf("%w: %s", ErrCannotMove, t.combatants[i].Name)
	}
	t.combatants[i], t.combatants[j] = t.combatants[j], t.combatants[i]
	return nil
}

// Clashes reports whether a combatant shares its initiative with a neighbour.
func (t *Tracker) Clashes(id string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, err := t.indexLocked(id)
	if err != nil {
		return false, err
	}
	init := t.combatants[i].Initiative
	up := i > 0 && t.combatants[i-1].Initiative == init
	down := i < len(t.combatants)-1 && t.combatants[i+1].Initiative == init
	return up || down, nil
}
