// internal/mcptools/tools.go
//
// Model Context Protocol tools for the Simon Says game.
// Tools: game_state, reset_game, submit_sequence.
// They act on the same *game.Game as the HTTP API, so an agent and a browser
// see and change one shared record.

package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/robalobadob/simonsays/internal/game"
)

const (
	serverName    = "Simon Says"
	serverVersion = "1.0.0"
)

// Tools binds MCP handlers to a game.
type Tools struct {
	game      *game.Game
	mcpServer *server.MCPServer
}

// New builds the MCP server and registers every tool.
func New(g *game.Game) *Tools {
	t := &Tools{game: g}
	t.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Simon Says - MCP Interface

Repeat the target sequence of colors (red, yellow, green, blue). Each correct
answer clears the level and the next sequence is one color longer. A wrong
answer restarts the game at level 1. The high score survives resets.

AVAILABLE TOOLS:
- game_state: current level, target sequence and high score
- submit_sequence: submit exactly <level> colors
- reset_game: restart at level 1`),
	)
	t.register()
	return t
}

// Server returns the underlying MCP server for stdio or HTTP transports.
func (t *Tools) Server() *server.MCPServer { return t.mcpServer }

// ServeStdio blocks serving the tools over stdin/stdout.
func (t *Tools) ServeStdio() error { return server.ServeStdio(t.mcpServer) }

// HandleMessage processes one JSON-RPC message and returns the encoded reply.
// Notifications have no reply; both results are nil.
func (t *Tools) HandleMessage(ctx context.Context, body []byte) ([]byte, error) {
	resp := t.mcpServer.HandleMessage(ctx, body)
	if resp == nil {
		return nil, nil
	}
	return json.Marshal(resp)
}

func (t *Tools) register() {
	empty := mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}}

	t.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current level, target sequence and high score",
		InputSchema: empty,
	}, t.handleState)

	t.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Restart at level 1 with a new one-color sequence; the high score is kept",
		InputSchema: empty,
	}, t.handleReset)

	t.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_sequence",
		Description: "Submit a guess; it must contain exactly <level> colors",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sequence": map[string]interface{}{
					"type":        "array",
					"description": "Colors in order",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"red", "yellow", "green", "blue"},
					},
				},
			},
			Required: []string{"sequence"},
		},
	}, t.handleSubmit)
}

type reply struct {
	Message   string      `json:"message,omitempty"`
	GameState *game.State `json:"gameState,omitempty"`
}

func (t *Tools) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := t.game.State()
	return textResult(reply{GameState: &s})
}

func (t *Tools) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := t.game.Reset()
	return textResult(reply{Message: "Game reset successfully", GameState: &s})
}

func (t *Tools) handleSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	guess, ok := parseSequence(args["sequence"])
	if !ok {
		return mcp.NewToolResultError(game.ErrSequenceRequired.Error()), nil
	}

	s, err := t.game.Submit(guess)
	switch {
	case err == nil:
		return textResult(reply{GameState: &s})
	case errors.Is(err, game.ErrIncorrectSequence):
		return errorResult(reply{Message: err.Error(), GameState: &s})
	case game.IsValidation(err):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return nil, fmt.Errorf("submit sequence: %w", err)
	}
}

// parseSequence accepts a non-empty JSON array. Non-string items become
// colors that can never match.
func parseSequence(v interface{}) ([]game.Color, bool) {
	items, ok := v.([]interface{})
	if !ok || len(items) == 0 {
		return nil, false
	}
	out := make([]game.Color, len(items))
	for i, it := range items {
		s, _ := it.(string)
		out[i] = game.Color(s)
	}
	return out, true
}

func textResult(r reply) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

func errorResult(r reply) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultError(string(b)), nil
}
