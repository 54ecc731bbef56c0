package mcptools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/simonsays/internal/game"
)

// redSource always draws red, so every target is all-red.
type redSource struct{}

func (redSource) IntN(int) int { return 0 }

func newTools(t *testing.T) (*Tools, *game.Game) {
	t.Helper()
	g, err := game.New(game.WithSource(redSource{}))
	require.NoError(t, err)
	return New(g), g
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func decodeReply(t *testing.T, res *mcp.CallToolResult) reply {
	t.Helper()
	var r reply
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &r))
	return r
}

func TestNew(t *testing.T) {
	tools, _ := newTools(t)
	assert.NotNil(t, tools.Server())
}

func TestHandleState(t *testing.T) {
	tools, _ := newTools(t)

	res, err := tools.handleState(context.Background(), callRequest("game_state", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	r := decodeReply(t, res)
	require.NotNil(t, r.GameState)
	assert.Equal(t, game.State{Level: 1, Sequence: []game.Color{game.Red}}, *r.GameState)
}

func TestHandleSubmit(t *testing.T) {
	tools, g := newTools(t)
	ctx := context.Background()

	res, err := tools.handleSubmit(ctx, callRequest("submit_sequence", map[string]interface{}{
		"sequence": []interface{}{"red"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	r := decodeReply(t, res)
	assert.Equal(t, 2, r.GameState.Level)
	assert.Equal(t, 1, r.GameState.HighScore)
	assert.Equal(t, 2, g.State().Level)
}

func TestHandleSubmit_Validation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing", map[string]interface{}{}, "A non-empty sequence array is required."},
		{"nil arguments", nil, "A non-empty sequence array is required."},
		{"not an array", map[string]interface{}{"sequence": "red"}, "A non-empty sequence array is required."},
		{"empty", map[string]interface{}{"sequence": []interface{}{}}, "A non-empty sequence array is required."},
		{"wrong length", map[string]interface{}{"sequence": []interface{}{"red", "red"}}, "Sequence must be exactly 1 items long."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools, g := newTools(t)
			before := g.State()

			res, err := tools.handleSubmit(context.Background(), callRequest("submit_sequence", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Equal(t, tt.want, resultText(t, res))
			assert.Equal(t, before, g.State())
		})
	}
}

func TestHandleSubmit_Mismatch(t *testing.T) {
	tools, g := newTools(t)
	ctx := context.Background()
	_, err := g.Submit([]game.Color{game.Red})
	require.NoError(t, err)

	res, err := tools.handleSubmit(ctx, callRequest("submit_sequence", map[string]interface{}{
		"sequence": []interface{}{"red", 7},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	r := decodeReply(t, res)
	assert.Equal(t, "Incorrect sequence. Restarting at level 1.", r.Message)
	assert.Equal(t, 1, r.GameState.Level)
	assert.Equal(t, 1, r.GameState.HighScore)
}

func TestHandleReset(t *testing.T) {
	tools, g := newTools(t)
	_, err := g.Submit([]game.Color{game.Red})
	require.NoError(t, err)

	res, err := tools.handleReset(context.Background(), callRequest("reset_game", nil))
	require.NoError(t, err)

	r := decodeReply(t, res)
	assert.Equal(t, "Game reset successfully", r.Message)
	assert.Equal(t, 1, r.GameState.Level)
	assert.Equal(t, 1, r.GameState.HighScore)
}

func TestHandleMessage_NotificationHasNoReply(t *testing.T) {
	tools, _ := newTools(t)

	out, err := tools.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestHandleMessage_ToolsList(t *testing.T) {
	tools, _ := newTools(t)

	out, err := tools.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	var names []string
	for _, tl := range resp.Result.Tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{"game_state", "reset_game", "submit_sequence"}, names)
}
