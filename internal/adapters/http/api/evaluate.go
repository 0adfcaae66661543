// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/tavern/internal/domain/encounter"
)

// EvaluateDependencies is the stateless evaluator surface.
type EvaluateDependencies interface {
	Evaluate(ctx context.Context, party []encounter.PartyMember, monsters []encounter.MonsterGroup) (encounter.Result, error)
}

// EvaluateHandler serves one-shot evaluations and the reference tables.
type EvaluateHandler struct {
	deps EvaluateDependencies
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(deps EvaluateDependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps}
}

type evaluateRequest struct {
	Party    []encounter.PartyMember  `json:"party"`
	Monsters []encounter.MonsterGroup `json:"monsters"`
}

type tablesResponse struct {
	XPByChallengeRating []encounter.CRExperience    `json:"xp_by_cr"`
	Thresholds          []encounter.LevelThresholds `json:"thresholds"`
}

// HandleEvaluate handles POST /evaluate requests.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "evaluate"
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	res, err := h.deps.Evaluate(r.Context(), req.Party, req.Monsters)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleTables handles GET /tables requests.
func (h *EvaluateHandler) HandleTables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tablesResponse{
		XPByChallengeRating: encounter.XPTable(),
		Thresholds:          encounter.ThresholdTable(),
	})
}
