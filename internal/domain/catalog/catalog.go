// Package catalog provides the monster list used to build encounters.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/okian/tavern/internal/domain/encounter"
	"go.yaml.in/yaml/v3"
)

const referenceBaseURL = "https://www.aidedd.org/dnd/monstres.php?vo="

//go:embed monsters.yaml
var builtinYAML []byte

// Monster is a catalog entry.
type Monster struct {
	Name            string                    `json:"name"`
	ChallengeRating encounter.ChallengeRating `json:"cr"`
	Type            string                    `json:"type,omitempty"`
	Size            string                    `json:"size,omitempty"`
}

// XP returns the base XP for one of these monsters.
func (m Monster) XP() int {
	return encounter.XPForCR(m.ChallengeRating)
}

// fileMonster is the on-disk shape; ratings stay strings until validated.
type fileMonster struct {
	Name string `yaml:"name"`
	CR   string `yaml:"cr"`
	Type string `yaml:"type"`
	Size string `yaml:"size"`
}

type fileCatalog struct {
	Monsters []fileMonster `yaml:"monsters"`
}

// Catalog is an immutable, name-ordered monster list.
type Catalog struct {
	monsters []Monster
	byName   map[string]int
}

// New builds a catalog from monsters. Names must be unique (case-insensitive)
// and every rating must exist in the XP table.
func New(monsters []Monster) (*Catalog, error) {
	c := &Catalog{
		monsters: make([]Monster, 0, len(monsters)),
		byName:   make(map[string]int, len(monsters)),
	}
	for _, m := range monsters {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return nil, fmt.Errorf("%w: empty monster name", ErrInvalidCatalog)
		}
		if !m.ChallengeRating.Known() {
			return nil, fmt.Errorf("%w: %s has unknown challenge rating %s", ErrInvalidCatalog, m.Name, m.ChallengeRating)
		}
		key := strings.ToLower(m.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("%w: duplicate monster %q", ErrInvalidCatalog, m.Name)
		}
		c.byName[key] = -1
		c.monsters = append(c.monsters, m)
	}
	sort.Slice(c.monsters, func(i, j int) bool {
		return strings.ToLower(c.monsters[i].Name) < strings.ToLower(c.monsters[j].Name)
	})
	for i, m := range c.monsters {
		c.byName[strings.ToLower(m.Name)] = i
	}
	return c, nil
}

// Load decodes a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	monsters := make([]Monster, 0, len(fc.Monsters))
	for _, fm := range fc.Monsters {
		cr, err := encounter.ParseChallengeRating(fm.CR)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCatalog, fm.Name, err)
		}
		monsters = append(monsters, Monster{
			Name:            fm.Name,
			ChallengeRating: cr,
			Type:            fm.Type,
			Size:            fm.Size,
		})
	}
	return New(monsters)
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Builtin returns the embedded SRD catalog. It is parsed once and shared.
var Builtin = sync.OnceValue(func() *Catalog {
	c, err := Load(bytes.NewReader(builtinYAML))
	if err != nil {
		panic("embedded monster catalog is invalid: " + err.Error())
	}
	return c
})

// Len returns the number of monsters.
func (c *Catalog) Len() int { return len(c.monsters) }

// All returns every monster ordered by name.
func (c *Catalog) All() []Monster {
	out := make([]Monster, len(c.monsters))
	copy(out, c.monsters)
	return out
}

// Lookup finds a monster by name, ignoring case and surrounding space.
func (c *Catalog) Lookup(name string) (Monster, error) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Monster{}, fmt.Errorf("%w: %q", ErrMonsterNotFound, name)
	}
	return c.monsters[i], nil
}

// Search returns monsters whose name contains query, ignoring case.
// An empty query matches everything. limit <= 0 means no limit.
func (c *Catalog) Search(query string, limit int) []Monster {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Monster
	for _, m := range c.monsters {
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ByChallengeRating returns every monster with the given rating.
func (c *Catalog) ByChallengeRating(cr encounter.ChallengeRating) []Monster {
	var out []Monster
	for _, m := range c.monsters {
		if m.ChallengeRating == cr {
			out = append(out, m)
		}
	}
	return out
}

type suggestion struct {
	monster Monster
	dist    int
}

// Suggest returns the monsters whose name (or any word of it) is closest to
// query by edit distance. Candidates further than a length-scaled limit are
// dropped.
func (c *Catalog) Suggest(query string, limit int) []Monster {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	maxDist := distanceLimit(len(q))

	var found []suggestion
	for _, m := range c.monsters {
		name := strings.ToLower(m.Name)
		best := levenshtein.ComputeDistance(q, name)
		for _, word := range strings.Fields(name) {
			if d := levenshtein.ComputeDistance(q, word); d < best {
				best = d
			}
		}
		if best > maxDist {
			continue
		}
		found = append(found, suggestion{monster: m, dist: best})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].dist < found[j].dist })

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	out := make([]Monster, len(found))
	for i, s := range found {
		out[i] = s.monster
	}
	return out
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// ReferenceURL links a monster name to its online stat block.
func ReferenceURL(name string) string {
	return referenceBaseURL + strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
