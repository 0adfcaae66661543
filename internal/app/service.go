// Package service provides the core business service that implements
// the dependencies required by the HTTP API, the MCP tools and the CLI.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	repository "github.com/okian/tavern/internal/adapters/repository"
	"github.com/okian/tavern/internal/domain/catalog"
	"github.com/okian/tavern/internal/domain/encounter"
	"github.com/okian/tavern/internal/domain/initiative"
	"github.com/okian/tavern/internal/domain/model"
	"github.com/okian/tavern/internal/domain/playlist"
	"github.com/okian/tavern/internal/domain/types"
	"github.com/okian/tavern/pkg/logger"
	"github.com/okian/tavern/pkg/metrics"
)

const (
	defaultMaxEncounters    = 1000
	defaultMaxSearchResults = 50
	defaultSuggestionLimit  = 5
)

// Service implements the dependencies of every transport: encounter
// evaluation, the saved-encounter builder, the initiative tracker and the
// session playlist.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog  *catalog.Catalog
	store    repository.Store
	tracker  *initiative.Tracker
	playlist *playlist.Playlist

	// Configuration
	maxEncounters    int
	maxSearchResults int
	suggestionLimit  int

	// State
	started   bool
	ownsStore bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCatalog replaces the built-in monster catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithStore injects an encounter store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMaxEncounters caps the built-in store.
func WithMaxEncounters(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEncounters = n
		}
	}
}

// WithMaxSearchResults caps monster search results.
func WithMaxSearchResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSearchResults = n
		}
	}
}

// WithSuggestionLimit caps "did you mean" suggestions.
func WithSuggestionLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.suggestionLimit = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tracker:          initiative.NewTracker(),
		playlist:         playlist.New(),
		maxEncounters:    defaultMaxEncounters,
		maxSearchResults: defaultMaxSearchResults,
		suggestionLimit:  defaultSuggestionLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.catalog == nil {
		s.catalog = catalog.Builtin()
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting encounter service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx, repository.WithCapacity(s.maxEncounters))
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory encounter store", logger.Int("capacity", s.maxEncounters))
	}

	metrics.UpdateCatalogMonsters(s.catalog.Len())

	s.started = true
	s.logger.Info(ctx, "encounter service started",
		logger.Int("monsters", s.catalog.Len()),
		logger.Int("maxSearchResults", s.maxSearchResults),
		logger.Int("suggestionLimit", s.suggestionLimit),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping encounter service...")

	if s.ownsStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "encounter service stopped")
}

func (s *Service) encounters() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// log returns the configured logger, falling back to the global one for
// services used without Start (CLI and MCP only evaluate).
func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get()
	}
	return l
}

// Evaluate classifies an ad-hoc party and monster roster.
func (s *Service) Evaluate(ctx context.Context, party []encounter.PartyMember, monsters []encounter.MonsterGroup) (encounter.Result, error) {
	start := time.Now()

	if err := checkCounts(monsters); err != nil {
		metrics.RecordEvaluationError()
		return encounter.Result{}, err
	}

	res, err := encounter.Evaluate(party, monsters)
	if err != nil {
		metrics.RecordEvaluationError()
		return encounter.Result{}, err
	}

	elapsed := time.Since(start)
	if err := metrics.RecordEvaluation(string(res.Difficulty), res.MonsterCount, float64(elapsed.Microseconds())/1000); err != nil {
		s.log().Warn(ctx, "failed to record evaluation", logger.Error(err))
	}
	s.log().Debug(ctx, "encounter evaluated",
		logger.Int("partySize", len(party)),
		logger.Int("monsters", res.MonsterCount),
		logger.Int("totalXP", res.TotalXP),
		logger.Float64("adjustedXP", res.AdjustedXP),
		logger.String("difficulty", string(res.Difficulty)),
		logger.Duration("elapsed", elapsed),
	)
	return res, nil
}

// checkCounts requires every group to hold at least one creature and the
// roster to stay within encounter.MaxMonsterCount. The running total is
// compared before adding so it cannot overflow.
func checkCounts(monsters []encounter.MonsterGroup) error {
	total := 0
	for _, g := range monsters {
		if g.Count < 1 {
			return fmt.Errorf("%w: got %d for CR %s, must be at least 1", ErrInvalidCount, g.Count, g.ChallengeRating)
		}
		if g.Count > encounter.MaxMonsterCount-total {
			return fmt.Errorf("%w: more than %d monsters", ErrInvalidCount, encounter.MaxMonsterCount)
		}
		total += g.Count
	}
	return nil
}

// CreateEncounter saves a new empty encounter.
func (s *Service) CreateEncounter(ctx context.Context, name string) (model.Encounter, error) {
	store, err := s.encounters()
	if err != nil {
		return model.Encounter{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled encounter"
	}
	e, err := store.Create(ctx, model.Encounter{Name: name})
	if err != nil {
		return model.Encounter{}, err
	}
	metrics.UpdateEncountersTotal(store.Count(ctx))
	s.log().Info(ctx, "encounter created", logger.String("id", e.ID), logger.String("name", e.Name))
	return e, nil
}

// GetEncounter returns a saved encounter.
func (s *Service) GetEncounter(ctx context.Context, id string) (model.Encounter, error) {
	store, err := s.encounters()
	if err != nil {
		return model.Encounter{}, err
	}
	return store.Get(ctx, id)
}

// ListEncounters returns summaries of every saved encounter.
func (s *Service) ListEncounters(ctx context.Context) ([]types.EncounterSummary, error) {
	store, err := s.encounters()
	if err != nil {
		return nil, err
	}
	all, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.EncounterSummary, len(all))
	for i, e := range all {
		out[i] = types.Summarize(e)
	}
	return out, nil
}

// DeleteEncounter removes a saved encounter.
func (s *Service) DeleteEncounter(ctx context.Context, id string) error {
	store, err := s.encounters()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.UpdateEncountersTotal(store.Count(ctx))
	return nil
}

// AddPlayer appends a party member of the given level.
func (s *Service) AddPlayer(ctx context.Context, encounterID, name string, level int) (model.Encounter, error) {
	if _, err := encounter.ThresholdsForLevel(level); err != nil {
		return model.Encounter{}, err
	}
	store, err := s.encounters()
	if err != nil {
		return model.Encounter{}, err
	}
	return store.Update(ctx, encounterID, func(e *model.Encounter) error {
		e.Party = append(e.Party, model.Player{ID: uuid.NewString(), Name: strings.TrimSpace(name), Level: level})
		return nil
	})
}

// RemovePlayer drops a party member.
func (s *Service) RemovePlayer(ctx context.Context, encounterID, playerID string) (model.Encounter, error) {
	store, err := s.encounters()
	if err != nil {
		return model.Encounter{}, err
	}
	return store.Update(ctx, encounterID, func(e *model.Encounter) error {
		for i, p := range e.Party {
			if p.ID == playerID {
				e.Party = append(e.Party[:i], e.Party[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("player %s: %w", playerID, ErrNotInRoster)
	})
}

// AddMonster adds count copies of a catalog monster. Adding a monster that is
// already present increases its count.
func (s *Service) AddMonster(ctx context.Context, encounterID, name string, count int) (model.Encounter, error) {
	if count < 1 || count > encounter.MaxMonsterCount {
		return model.Encounter{}, fmt.Errorf("%w: got %d, must be 1-%d", ErrInvalidCount, count, encounter.MaxMonsterCount)
	}
	m, err := s.LookupMonster(ctx, name)
	if err != nil {
		return model.Encounter{}, err
	}
	store, err := s.encounters()
	if err != nil {
		return model.Encounter{}, err
	}
	return store.Update(ctx, encounterID, func(e *model.Encounter) error {
		if count > encounter.MaxMonsterCount-e.MonsterCount() {
			return fmt.Errorf("%w: encounter would exceed %d monsters", ErrInvalidCount, encounter.MaxMonsterCount)
		}
		for i := range e.Monsters {
			if e.Monsters[i].Name == m.Name {
				e.Monsters[i].Count += count
				return nil
			}
		}
		e.Monsters = append(e.Monsters, model.EncounterMonster{
			ID:              uuid.NewString(),
			Name:            m.Name,
			ChallengeRating: m.ChallengeRating,
			Count:           count,
		})
		return nil
	})
}

// RemoveMonster drops a monster group.
func (s *Service) RemoveMonster(ctx context.Context, encounterID, monsterID string) (model.Encounter, error) {
	store, err := s.encounters()
	if err != nil {
		return model.Encounter{}, err
	}
	return store.Update(ctx, encounterID, func(e *model.Encounter) error {
		for i, m := range e.Monsters {
			if m.ID == monsterID {
				e.Monsters = append(e.Monsters[:i], e.Monsters[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("monster %s: %w", monsterID, ErrNotInRoster)
	})
}

// EvaluateEncounter classifies a saved encounter.
func (s *Service) EvaluateEncounter(ctx context.Context, id string) (types.DifficultyReport, error) {
	e, err := s.GetEncounter(ctx, id)
	if err != nil {
		return types.DifficultyReport{}, err
	}
	party, monsters := e.Roster()
	res, err := s.Evaluate(ctx, party, monsters)
	if err != nil {
		return types.DifficultyReport{}, err
	}
	return types.DifficultyReport{EncounterID: e.ID, Result: res}, nil
}

// CombatRolls holds initiative rolls keyed by player id and monster group id.
// Missing rolls count as 0.
type CombatRolls struct {
	Players  map[string]int `json:"players"`
	Monsters map[string]int `json:"monsters"`
}

// StartCombat replaces the initiative order with the encounter's party and
// monsters. Each creature in a group becomes its own combatant, numbered when
// the group has more than one.
func (s *Service) StartCombat(ctx context.Context, encounterID string, rolls CombatRolls) ([]initiative.Combatant, error) {
	e, err := s.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}

	_, monsters := e.Roster()
	if err := checkCounts(monsters); err != nil {
		return nil, err
	}

	combatants := make([]initiative.Combatant, 0, len(e.Party)+e.MonsterCount())
	for i, p := range e.Party {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		combatants = append(combatants, initiative.Combatant{
			Name:       name,
			Initiative: rolls.Players[p.ID],
			Kind:       initiative.Player,
		})
	}
	for _, m := range e.Monsters {
		for n := 1; n <= m.Count; n++ {
			name := m.Name
			if m.Count > 1 {
				name = fmt.Sprintf("%s %d", m.Name, n)
			}
			combatants = append(combatants, initiative.Combatant{
				Name:       name,
				Initiative: rolls.Monsters[m.ID],
				Kind:       initiative.Monster,
			})
		}
	}

	list, err := s.tracker.Start(combatants)
	if err != nil {
		return nil, err
	}
	metrics.UpdateCombatantsTotal(len(list))
	s.log().Info(ctx, "combat started",
		logger.String("encounter", e.ID),
		logger.Int("combatants", len(list)),
	)
	return list, nil
}

// SearchMonsters returns catalog matches for query, capped at limit (or the
// configured maximum). When nothing matches, close spellings are returned as
// suggestions.
func (s *Service) SearchMonsters(ctx context.Context, query string, limit int) (found, suggestions []catalog.Monster) {
	if limit <= 0 || limit > s.maxSearchResults {
		limit = s.maxSearchResults
	}
	metrics.RecordMonsterQuery("search")
	found = s.catalog.Search(query, limit)
	if len(found) == 0 {
		metrics.RecordMonsterQuery("suggest")
		suggestions = s.catalog.Suggest(query, s.suggestionLimit)
	}
	return found, suggestions
}

// LookupMonster finds a monster by exact name.
func (s *Service) LookupMonster(ctx context.Context, name string) (catalog.Monster, error) {
	metrics.RecordMonsterQuery("lookup")
	m, err := s.catalog.Lookup(name)
	if err != nil {
		if hints := s.catalog.Suggest(name, 1); len(hints) > 0 {
			return catalog.Monster{}, fmt.Errorf("%w (did you mean %q?)", err, hints[0].Name)
		}
		return catalog.Monster{}, err
	}
	return m, nil
}

// Tracker exposes the initiative tracker.
func (s *Service) Tracker() *initiative.Tracker { return s.tracker }

// Playlist exposes the session playlist.
func (s *Service) Playlist() *playlist.Playlist { return s.playlist }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"catalogMonsters":  s.catalog.Len(),
		"maxEncounters":    s.maxEncounters,
		"maxSearchResults": s.maxSearchResults,
		"combatants":       s.tracker.Len(),
		"playlistVideos":   s.playlist.Len(),
	}

	if s.started && s.store != nil {
		count := s.store.Count(ctx)
		stats["encounters"] = count
		metrics.UpdateEncountersTotal(count)
	}
	metrics.UpdateCombatantsTotal(s.tracker.Len())
	metrics.UpdatePlaylistVideos(s.playlist.Len())

	return stats
}
