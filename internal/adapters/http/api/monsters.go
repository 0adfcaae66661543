package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/tavern/internal/domain/catalog"
	"github.com/okian/tavern/internal/domain/types"
)

// MonsterDependencies is the catalog surface used by the HTTP layer.
type MonsterDependencies interface {
	SearchMonsters(ctx context.Context, query string, limit int) (found, suggestions []catalog.Monster)
	LookupMonster(ctx context.Context, name string) (catalog.Monster, error)
}

// MonsterHandler serves catalog lookups.
type MonsterHandler struct {
	deps MonsterDependencies
}

// NewMonsterHandler creates a new monster handler.
func NewMonsterHandler(deps MonsterDependencies) *MonsterHandler {
	return &MonsterHandler{deps: deps}
}

type searchResponse struct {
	Monsters    []types.MonsterEntry `json:"monsters"`
	Suggestions []types.MonsterEntry `json:"suggestions,omitempty"`
}

func toEntry(m catalog.Monster) types.MonsterEntry {
	return types.MonsterEntry{
		Name:            m.Name,
		ChallengeRating: m.ChallengeRating,
		XP:              m.XP(),
		Type:            m.Type,
		Size:            m.Size,
		ReferenceURL:    catalog.ReferenceURL(m.Name),
	}
}

func toEntries(ms []catalog.Monster) []types.MonsterEntry {
	out := make([]types.MonsterEntry, len(ms))
	for i, m := range ms {
		out[i] = toEntry(m)
	}
	return out
}

// HandleSearch handles GET /monsters?q=&limit= requests.
func (h *MonsterHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "search monsters"
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	found, suggestions := h.deps.SearchMonsters(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), limit)
	resp := searchResponse{Monsters: toEntries(found)}
	if len(suggestions) > 0 {
		resp.Suggestions = toEntries(suggestions)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /monsters/{name} requests.
func (h *MonsterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.LookupMonster(r.Context(), r.PathValue("name"))
	if err != nil {
		writeFailure(w, "get monster", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntry(m))
}
