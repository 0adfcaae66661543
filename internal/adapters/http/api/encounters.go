package api

import (
	"context"
	"net/http"

	service "github.com/okian/tavern/internal/app"
	"github.com/okian/tavern/internal/domain/initiative"
	"github.com/okian/tavern/internal/domain/model"
	"github.com/okian/tavern/internal/domain/types"
)

// EncounterDependencies is the encounter builder surface.
type EncounterDependencies interface {
	CreateEncounter(ctx context.Context, name string) (model.Encounter, error)
	GetEncounter(ctx context.Context, id string) (model.Encounter, error)
	ListEncounters(ctx context.Context) ([]types.EncounterSummary, error)
	DeleteEncounter(ctx context.Context, id string) error
	AddPlayer(ctx context.Context, encounterID, name string, level int) (model.Encounter, error)
	RemovePlayer(ctx context.Context, encounterID, playerID string) (model.Encounter, error)
	AddMonster(ctx context.Context, encounterID, name string, count int) (model.Encounter, error)
	RemoveMonster(ctx context.Context, encounterID, monsterID string) (model.Encounter, error)
	EvaluateEncounter(ctx context.Context, id string) (types.DifficultyReport, error)
	StartCombat(ctx context.Context, encounterID string, rolls service.CombatRolls) ([]initiative.Combatant, error)
}

// EncounterHandler serves saved encounters and their rosters.
type EncounterHandler struct {
	deps EncounterDependencies
}

// NewEncounterHandler creates a new encounter handler.
func NewEncounterHandler(deps EncounterDependencies) *EncounterHandler {
	return &EncounterHandler{deps: deps}
}

type createEncounterRequest struct {
	Name string `json:"name"`
}

type addPlayerRequest struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type addMonsterRequest struct {
	Name  string `json:"name"`
	Count *int   `json:"count"`
}

type encounterListResponse struct {
	Encounters []types.EncounterSummary `json:"encounters"`
}

type combatResponse struct {
	Combatants []initiative.Combatant `json:"combatants"`
}

// HandleCreate handles POST /encounters requests. An empty body is allowed.
func (h *EncounterHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "create encounter"
	var req createEncounterRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeFailure(w, op, err)
			return
		}
	}
	e, err := h.deps.CreateEncounter(r.Context(), req.Name)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleList handles GET /encounters requests.
func (h *EncounterHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.ListEncounters(r.Context())
	if err != nil {
		writeFailure(w, "list encounters", err)
		return
	}
	if list == nil {
		list = []types.EncounterSummary{}
	}
	writeJSON(w, http.StatusOK, encounterListResponse{Encounters: list})
}

// HandleGet handles GET /encounters/{id} requests.
func (h *EncounterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.GetEncounter(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "get encounter", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleDelete handles DELETE /encounters/{id} requests.
func (h *EncounterHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteEncounter(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, "delete encounter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddPlayer handles POST /encounters/{id}/players requests.
func (h *EncounterHandler) HandleAddPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "add player"
	var req addPlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	e, err := h.deps.AddPlayer(r.Context(), r.PathValue("id"), req.Name, req.Level)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleRemovePlayer handles DELETE /encounters/{id}/players/{playerID} requests.
func (h *EncounterHandler) HandleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.RemovePlayer(r.Context(), r.PathValue("id"), r.PathValue("playerID"))
	if err != nil {
		writeFailure(w, "remove player", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleAddMonster handles POST /encounters/{id}/monsters requests. The count
// defaults to one.
func (h *EncounterHandler) HandleAddMonster(w http.ResponseWriter, r *http.Request) {
	const op = "add monster"
	var req addMonsterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	count := 1
	if req.Count != nil {
		count = *req.Count
	}
	e, err := h.deps.AddMonster(r.Context(), r.PathValue("id"), req.Name, count)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleRemoveMonster handles DELETE /encounters/{id}/monsters/{monsterID} requests.
func (h *EncounterHandler) HandleRemoveMonster(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.RemoveMonster(r.Context(), r.PathValue("id"), r.PathValue("monsterID"))
	if err != nil {
		writeFailure(w, "remove monster", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleDifficulty handles GET /encounters/{id}/difficulty requests.
func (h *EncounterHandler) HandleDifficulty(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.EvaluateEncounter(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "encounter difficulty", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleStartCombat handles POST /encounters/{id}/combat requests. The body
// maps player and monster group IDs to initiative rolls; missing rolls are 0.
func (h *EncounterHandler) HandleStartCombat(w http.ResponseWriter, r *http.Request) {
	const op = "start combat"
	var rolls service.CombatRolls
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &rolls); err != nil {
			writeFailure(w, op, err)
			return
		}
	}
	list, err := h.deps.StartCombat(r.Context(), r.PathValue("id"), rolls)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, combatResponse{Combatants: list})
}
