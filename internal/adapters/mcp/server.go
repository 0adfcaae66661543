// Package mcp exposes the encounter evaluator and monster catalog as Model
// Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/okian/tavern/internal/domain/catalog"
	"github.com/okian/tavern/internal/domain/encounter"
	"github.com/okian/tavern/pkg/metrics"
)

// Tool names.
const (
	ToolEvaluate = "evaluate_encounter"
	ToolSearch   = "search_monsters"
	ToolTables   = "xp_tables"
)

// ErrInvalidArguments reports a tool call whose arguments cannot be used.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Dependencies is the service surface the tools call into.
type Dependencies interface {
	Evaluate(ctx context.Context, party []encounter.PartyMember, monsters []encounter.MonsterGroup) (encounter.Result, error)
	SearchMonsters(ctx context.Context, query string, limit int) (found, suggestions []catalog.Monster)
	LookupMonster(ctx context.Context, name string) (catalog.Monster, error)
}

// Server wraps an MCP server with the tavern tools registered.
type Server struct {
	deps      Dependencies
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers every tool.
func NewServer(deps Dependencies, version string) *Server {
	s := &Server{deps: deps}
	s.mcpServer = server.NewMCPServer(
		"Tavern",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tavern - D&D 5e encounter tools

AVAILABLE TOOLS:
- evaluate_encounter: rate an encounter from party levels and monster groups
- search_monsters: find catalog monsters by name and get their challenge rating
- xp_tables: XP by challenge rating and per-level difficulty thresholds

Monster groups take either a challenge rating ("1/4", "2") or a catalog monster name.`),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        ToolEvaluate,
		Description: "Rate a 5e encounter as easy, medium, hard or deadly",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"party_levels": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 20},
					"description": "Level of each player character",
				},
				"monsters": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"cr":    map[string]interface{}{"type": "string", "description": `Challenge rating, e.g. "1/4" or "3"`},
							"name":  map[string]interface{}{"type": "string", "description": "Catalog monster name, used when cr is absent"},
							"count": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": encounter.MaxMonsterCount, "description": "Number of these monsters (default 1)"},
						},
					},
					"description": "Monster groups",
				},
			},
			Required: []string{"party_levels"},
		},
	}, s.handleEvaluate)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        ToolSearch,
		Description: "Search the monster catalog by name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Case-insensitive name fragment",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum results",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleSearch)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        ToolTables,
		Description: "Show XP by challenge rating and the per-level difficulty thresholds",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleTables)
}

// toolResult records the call outcome and converts err into a tool error.
func toolResult(tool, text string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		metrics.RecordToolCall(tool, "error")
		return mcp.NewToolResultError(err.Error()), nil
	}
	metrics.RecordToolCall(tool, "ok")
	return mcp.NewToolResultText(text), nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	party, err := parseParty(args["party_levels"])
	if err != nil {
		return toolResult(ToolEvaluate, "", err)
	}
	monsters, err := s.parseMonsters(ctx, args["monsters"])
	if err != nil {
		return toolResult(ToolEvaluate, "", err)
	}
	res, err := s.deps.Evaluate(ctx, party, monsters)
	if err != nil {
		return toolResult(ToolEvaluate, "", err)
	}
	return toolResult(ToolEvaluate, res.Summary(), nil)
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	query, _ := args["query"].(string)
	limit := 0
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}
	found, suggestions := s.deps.SearchMonsters(ctx, query, limit)

	var b strings.Builder
	switch {
	case len(found) > 0:
		fmt.Fprintf(&b, "Found %d monster(s):\n", len(found))
		writeMonsters(&b, found)
	case len(suggestions) > 0:
		fmt.Fprintf(&b, "No monster matches %q. Did you mean:\n", query)
		writeMonsters(&b, suggestions)
	default:
		fmt.Fprintf(&b, "No monster matches %q.\n", query)
	}
	return toolResult(ToolSearch, b.String(), nil)
}

func (s *Server) handleTables(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString("XP by challenge rating:\n")
	for _, row := range encounter.XPTable() {
		fmt.Fprintf(&b, "  CR %-4s %7d XP\n", row.ChallengeRating, row.XP)
	}
	b.WriteString("\nThresholds per character (easy / medium / hard / deadly):\n")
	for _, row := range encounter.ThresholdTable() {
		t := row.Thresholds
		fmt.Fprintf(&b, "  Level %2d: %d / %d / %d / %d\n", row.Level, t.Easy, t.Medium, t.Hard, t.Deadly)
	}
	return toolResult(ToolTables, b.String(), nil)
}

func writeMonsters(b *strings.Builder, ms []catalog.Monster) {
	for _, m := range ms {
		fmt.Fprintf(b, "- %s (CR %s, %d XP) %s\n", m.Name, m.ChallengeRating, m.XP(), catalog.ReferenceURL(m.Name))
	}
}

func parseParty(raw interface{}) ([]encounter.PartyMember, error) {
	levels, ok := raw.([]interface{})
	if raw != nil && !ok {
		return nil, fmt.Errorf("%w: party_levels must be an array", ErrInvalidArguments)
	}
	party := make([]encounter.PartyMember, 0, len(levels))
	for _, v := range levels {
		level, ok := v.(float64)
		if !ok || level != float64(int(level)) {
			return nil, fmt.Errorf("%w: party level %v is not an integer", ErrInvalidArguments, v)
		}
		party = append(party, encounter.PartyMember{Level: int(level)})
	}
	return party, nil
}

func (s *Server) parseMonsters(ctx context.Context, raw interface{}) ([]encounter.MonsterGroup, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: monsters must be an array", ErrInvalidArguments)
	}
	groups := make([]encounter.MonsterGroup, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: monster group must be an object", ErrInvalidArguments)
		}
		g := encounter.MonsterGroup{Count: 1}
		if v, ok := obj["count"].(float64); ok {
			if v < 1 || v > encounter.MaxMonsterCount || v != float64(int(v)) {
				return nil, fmt.Errorf("%w: count must be a whole number from 1 to %d", ErrInvalidArguments, encounter.MaxMonsterCount)
			}
			g.Count = int(v)
		}
		switch cr := obj["cr"].(type) {
		case string:
			parsed, err := encounter.ParseChallengeRating(cr)
			if err != nil {
				return nil, err
			}
			g.ChallengeRating = parsed
		case float64:
			if cr < 0 {
				return nil, fmt.Errorf("%w: %v", encounter.ErrInvalidChallengeRating, cr)
			}
			g.ChallengeRating = encounter.ChallengeRating(cr)
		case nil:
			name, _ := obj["name"].(string)
			if name == "" {
				return nil, fmt.Errorf("%w: monster group needs cr or name", ErrInvalidArguments)
			}
			m, err := s.deps.LookupMonster(ctx, name)
			if err != nil {
				return nil, err
			}
			g.ChallengeRating = m.ChallengeRating
		default:
			return nil, fmt.Errorf("%w: cr must be a string or number", ErrInvalidArguments)
		}
		groups = append(groups, g)
	}
	return groups, nil
}
