// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	repository "github.com/okian/tavern/internal/adapters/repository"
	service "github.com/okian/tavern/internal/app"
	"github.com/okian/tavern/internal/domain/catalog"
	"github.com/okian/tavern/internal/domain/encounter"
	"github.com/okian/tavern/internal/domain/initiative"
	"github.com/okian/tavern/internal/domain/playlist"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EvaluateDependencies
	MonsterDependencies
	EncounterDependencies
	InitiativeDependencies
	PlaylistDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	evaluateHandler   *EvaluateHandler
	monsterHandler    *MonsterHandler
	encounterHandler  *EncounterHandler
	initiativeHandler *InitiativeHandler
	playlistHandler   *PlaylistHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		evaluateHandler:   NewEvaluateHandler(deps),
		monsterHandler:    NewMonsterHandler(deps),
		encounterHandler:  NewEncounterHandler(deps),
		initiativeHandler: NewInitiativeHandler(deps),
		playlistHandler:   NewPlaylistHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, pattern))
	}

	route("GET /healthz", s.healthHandler.HandleHealth)
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	route("GET /stats", s.statsHandler.HandleStats)

	route("POST /evaluate", s.evaluateHandler.HandleEvaluate)
	route("GET /tables", s.evaluateHandler.HandleTables)

	route("GET /monsters", s.monsterHandler.HandleSearch)
	route("GET /monsters/{name}", s.monsterHandler.HandleGet)

	route("POST /encounters", s.encounterHandler.HandleCreate)
	route("GET /encounters", s.encounterHandler.HandleList)
	route("GET /encounters/{id}", s.encounterHandler.HandleGet)
	route("DELETE /encounters/{id}", s.encounterHandler.HandleDelete)
	route("POST /encounters/{id}/players", s.encounterHandler.HandleAddPlayer)
	route("DELETE /encounters/{id}/players/{playerID}", s.encounterHandler.HandleRemovePlayer)
	route("POST /encounters/{id}/monsters", s.encounterHandler.HandleAddMonster)
	route("DELETE /encounters/{id}/monsters/{monsterID}", s.encounterHandler.HandleRemoveMonster)
	route("GET /encounters/{id}/difficulty", s.encounterHandler.HandleDifficulty)
	route("POST /encounters/{id}/combat", s.encounterHandler.HandleStartCombat)

	route("GET /initiative", s.initiativeHandler.HandleList)
	route("POST /initiative", s.initiativeHandler.HandleAdd)
	route("DELETE /initiative", s.initiativeHandler.HandleClear)
	route("PATCH /initiative/{id}", s.initiativeHandler.HandleUpdate)
	route("DELETE /initiative/{id}", s.initiativeHandler.HandleRemove)
	route("POST /initiative/{id}/hp", s.initiativeHandler.HandleAdjustHP)
	route("POST /initiative/{id}/statuses", s.initiativeHandler.HandleAddStatus)
	route("DELETE /initiative/{id}/statuses/{status}", s.initiativeHandler.HandleRemoveStatus)
	route("POST /initiative/{id}/move", s.initiativeHandler.HandleMove)
	route("GET /conditions", s.initiativeHandler.HandleConditions)

	route("GET /playlist", s.playlistHandler.HandleList)
	route("POST /playlist", s.playlistHandler.HandleAdd)
	route("DELETE /playlist/{id}", s.playlistHandler.HandleRemove)
	route("PUT /playlist/current", s.playlistHandler.HandleSetCurrent)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates domain errors into status codes.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, encounter.ErrInvalidLevel):
		return http.StatusUnprocessableEntity, "invalid_level"
	case errors.Is(err, encounter.ErrInvalidChallengeRating):
		return http.StatusBadRequest, "invalid_challenge_rating"
	case errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, initiative.ErrInvalidCombatant),
		errors.Is(err, playlist.ErrInvalidURL),
		errors.Is(err, playlist.ErrInvalidVideo),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, catalog.ErrMonsterNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNotInRoster),
		errors.Is(err, initiative.ErrCombatantNotFound),
		errors.Is(err, playlist.ErrNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrCapacityExceeded):
		return http.StatusConflict, "capacity_exceeded"
	case errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, initiative.ErrCannotMove),
		errors.Is(err, initiative.ErrNoHitPoints):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a bounded JSON body into v. Failures carry ErrBadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, key)
	}
	return n, nil
}
