package nierwiki

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/automata/kit"
)

// RegisterMCP registers the read-only query tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	ep := s.endpoints()
	likeProp := func(what string) map[string]any {
		return map[string]any{"type": "string", "description": "Substring of the " + what + " (case-insensitive)"}
	}
	category := map[string]any{"type": "string", "enum": []any{"main", "side"}}

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "nierwiki_characters",
		Description: "List NieR:Automata characters, optionally only those giving main or side quests.",
		InputSchema: inputSchema(map[string]any{
			"name_like":      likeProp("character name"),
			"quest_category": category,
		}, nil),
	}, ep.characters, kit.DecodeJSON[CharacterFilter]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "nierwiki_locations",
		Description: "List locations, or the locations of one quest or catchable (exact name).",
		InputSchema: inputSchema(map[string]any{
			"name_like": likeProp("location name"),
			"quest":     map[string]any{"type": "string", "description": "Exact quest name"},
			"catchable": map[string]any{"type": "string", "description": "Exact catchable name"},
		}, nil),
	}, ep.locations, kit.DecodeJSON[LocationFilter]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "nierwiki_quests",
		Description: "List main and side quests filtered by name, giver, location, reward or category.",
		InputSchema: inputSchema(map[string]any{
			"name_like":     likeProp("quest name"),
			"giver_like":    likeProp("giver name"),
			"no_giver":      map[string]any{"type": "boolean", "description": "Only quests without a giver"},
			"location_like": likeProp("location"),
			"reward_like":   likeProp("reward"),
			"no_reward":     map[string]any{"type": "boolean", "description": "Only quests without a reward"},
			"category":      category,
		}, nil),
	}, ep.quests, kit.DecodeJSON[QuestFilter]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "nierwiki_catchables",
		Description: "List fish and other catchables with their price and linked locations.",
		InputSchema: inputSchema(map[string]any{
			"name_like":     likeProp("catchable name"),
			"location_like": likeProp("location description"),
			"min_price":     map[string]any{"type": "integer", "description": "Minimum sell price"},
		}, nil),
	}, ep.catchables, kit.DecodeJSON[CatchableFilter]())

	stats := make([]any, 0, len(StatKinds))
	for _, k := range StatKinds {
		stats = append(stats, string(k))
	}
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "nierwiki_stats",
		Description: "Aggregate counts and averages over the harvested data, highest first.",
		InputSchema: inputSchema(map[string]any{
			"stat": map[string]any{"type": "string", "enum": stats},
		}, []string{"stat"}),
	}, ep.stats, kit.DecodeJSON[statRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "nierwiki_counts",
		Description: "Row counts per table and the last ingest run.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, ep.counts, kit.DecodeJSON[countsRequest]())
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
