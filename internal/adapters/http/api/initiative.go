package api

import (
	"fmt"
	"net/http"

	"github.com/okian/tavern/internal/domain/initiative"
	"github.com/okian/tavern/pkg/metrics"
)

// InitiativeDependencies exposes the shared combat tracker.
type InitiativeDependencies interface {
	Tracker() *initiative.Tracker
}

// InitiativeHandler serves the combat tracker.
type InitiativeHandler struct {
	deps InitiativeDependencies
}

// NewInitiativeHandler creates a new initiative handler.
func NewInitiativeHandler(deps InitiativeDependencies) *InitiativeHandler {
	return &InitiativeHandler{deps: deps}
}

// combatantView adds the tie flag clients use to offer reordering.
type combatantView struct {
	initiative.Combatant
	Clash bool `json:"clash"`
}

type initiativeResponse struct {
	Combatants []combatantView `json:"combatants"`
}

type hpRequest struct {
	Delta int `json:"delta"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type conditionsResponse struct {
	Conditions []initiative.Condition `json:"conditions"`
}

func views(list []initiative.Combatant) []combatantView {
	out := make([]combatantView, len(list))
	for i, c := range list {
		clash := (i > 0 && list[i-1].Initiative == c.Initiative) ||
			(i < len(list)-1 && list[i+1].Initiative == c.Initiative)
		out[i] = combatantView{Combatant: c, Clash: clash}
	}
	return out
}

func (h *InitiativeHandler) writeOrder(w http.ResponseWriter, status int) {
	list := h.deps.Tracker().List()
	metrics.UpdateCombatantsTotal(len(list))
	writeJSON(w, status, initiativeResponse{Combatants: views(list)})
}

// HandleList handles GET /initiative requests.
func (h *InitiativeHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	h.writeOrder(w, http.StatusOK)
}

// HandleAdd handles POST /initiative requests.
func (h *InitiativeHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "add combatant"
	var c initiative.Combatant
	if err := decodeJSON(w, r, &c); err != nil {
		writeFailure(w, op, err)
		return
	}
	c.ID = ""
	added, err := h.deps.Tracker().Add(c)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	metrics.UpdateCombatantsTotal(h.deps.Tracker().Len())
	writeJSON(w, http.StatusCreated, added)
}

// HandleClear handles DELETE /initiative requests.
func (h *InitiativeHandler) HandleClear(w http.ResponseWriter, _ *http.Request) {
	h.deps.Tracker().Clear()
	metrics.UpdateCombatantsTotal(0)
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdate handles PATCH /initiative/{id} requests.
func (h *InitiativeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "update combatant"
	var p initiative.Patch
	if err := decodeJSON(w, r, &p); err != nil {
		writeFailure(w, op, err)
		return
	}
	c, err := h.deps.Tracker().Update(r.PathValue("id"), p)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleRemove handles DELETE /initiative/{id} requests.
func (h *InitiativeHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Tracker().Remove(r.PathValue("id")); err != nil {
		writeFailure(w, "remove combatant", err)
		return
	}
	metrics.UpdateCombatantsTotal(h.deps.Tracker().Len())
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdjustHP handles POST /initiative/{id}/hp requests. Negative deltas
// are damage.
func (h *InitiativeHandler) HandleAdjustHP(w http.ResponseWriter, r *http.Request) {
	const op = "adjust hp"
	var req hpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	c, err := h.deps.Tracker().AdjustHP(r.PathValue("id"), req.Delta)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleAddStatus handles POST /initiative/{id}/statuses requests.
func (h *InitiativeHandler) HandleAddStatus(w http.ResponseWriter, r *http.Request) {
	const op = "add status"
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	c, err := h.deps.Tracker().AddStatus(r.PathValue("id"), req.Status)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleRemoveStatus handles DELETE /initiative/{id}/statuses/{status} requests.
func (h *InitiativeHandler) HandleRemoveStatus(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Tracker().RemoveStatus(r.PathValue("id"), r.PathValue("status"))
	if err != nil {
		writeFailure(w, "remove status", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleMove handles POST /initiative/{id}/move requests with direction
// "up" or "down".
func (h *InitiativeHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	const op = "move combatant"
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	id := r.PathValue("id")
	var err error
	switch req.Direction {
	case "up":
		err = h.deps.Tracker().MoveUp(id)
	case "down":
		err = h.deps.Tracker().MoveDown(id)
	default:
		err = fmt.Errorf("%w: direction must be up or down", ErrBadRequest)
	}
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	h.writeOrder(w, http.StatusOK)
}

// HandleConditions handles GET /conditions requests.
func (h *InitiativeHandler) HandleConditions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, conditionsResponse{Conditions: initiative.Conditions()})
}
