package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/playsevenate9/backend/internal/ai"
	"github.com/playsevenate9/backend/internal/game"
)

// RegisterTools adds all game tools to the MCP server
func RegisterTools(s *server.MCPServer, t *Table) {
	s.AddTool(newMatchTool(), t.handleNewMatch)
	s.AddTool(getStateTool(), t.handleGetState)
	s.AddTool(playCardTool(), t.handlePlayCard)
	s.AddTool(drawCardTool(), t.handleDrawCard)
	s.AddTool(suggestMoveTool(), t.handleSuggestMove)
}

// --- Tool definitions ---

func newMatchTool() mcp.Tool {
	return mcp.NewTool("new_match",
		mcp.WithDescription("Deal a new 7-ate-9 match. You hold seat 0; every other seat is a bot. "+
			"Any match in progress is abandoned. Returns your view of the dealt match."),
		mcp.WithNumber("players", mcp.Description("Number of seats, 3 to 5 (default 4)")),
		mcp.WithString("difficulty", mcp.Description("Bot tier"), mcp.Enum("easy", "medium", "hard", "expert")),
		mcp.WithNumber("seed", mcp.Description("Shuffle seed for a reproducible deal")),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get your view of the match: your hand, the required number, the discard top, "+
			"hand counts of every seat and which of your cards are playable. Read-only."),
	)
}

func playCardTool() mcp.Tool {
	return mcp.NewTool("play_card",
		mcp.WithDescription("Play a card from your hand on your turn. A number card must equal the required number; "+
			"wild cards are always playable. After an Addy you must follow with any number card. "+
			"The bots then take their turns and their moves are returned."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("ID of the card to play, e.g. 'number-7-2' or 'wild-addy-1'")),
	)
}

func drawCardTool() mcp.Tool {
	return mcp.NewTool("draw_card",
		mcp.WithDescription("Draw the top card of the draw pile and pass the turn. Not allowed while you owe an Addy "+
			"follow-up and hold a number card."),
	)
}

func suggestMoveTool() mcp.Tool {
	return mcp.NewTool("suggest_move",
		mcp.WithDescription("Ask the built-in strategy what it would do in your position. Read-only."),
		mcp.WithString("difficulty", mcp.Description("Strategy tier to consult (default expert)"), mcp.Enum("easy", "medium", "hard", "expert")),
	)
}

// --- Tool handlers ---

func (t *Table) handleNewMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	players := request.GetInt("players", 4)
	if players < game.MinPlayers || players > game.MaxPlayers {
		return mcp.NewToolResultErrorf("players must be %d-%d", game.MinPlayers, game.MaxPlayers), nil
	}
	diff, err := ai.ParseDifficulty(request.GetString("difficulty", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, seeded := request.GetArguments()["seed"]
	seed := int64(request.GetInt("seed", 0))

	resp, err := t.NewMatch(ctx, players, diff, seed, seeded)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to deal: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (t *Table) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := t.State()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (t *Table) handlePlayCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID := request.GetString("card_id", "")
	if cardID == "" {
		return mcp.NewToolResultError("card_id is required"), nil
	}
	return t.act(ctx, game.Action{Type: game.ActionPlay, CardID: cardID})
}

func (t *Table) handleDrawCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.act(ctx, game.Action{Type: game.ActionDraw})
}

func (t *Table) act(ctx context.Context, action game.Action) (*mcp.CallToolResult, error) {
	resp, err := t.Act(ctx, action)
	if err != nil {
		if reason := game.ReasonOf(err); reason != "" {
			return mcp.NewToolResultErrorf("Rejected: %s. Call get_state to see your playable cards.", reason), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (t *Table) handleSuggestMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diff, err := ai.ParseDifficulty(request.GetString("difficulty", string(ai.Expert)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dec, err := t.Suggest(ctx, diff)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.Marshal(dec)
	if err != nil {
		return mcp.NewToolResultErrorf("marshal error: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
