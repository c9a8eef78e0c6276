package mcp

import (
	"context"
	"log/slog"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/ctxstore/internal/store"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// newTestServer returns a server over a fresh in-memory store. Both share a
// fixed clock at testNow.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	clock := func() time.Time { return testNow }
	st, err := store.NewMemory(store.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(st, WithClock(clock), WithLogger(slog.New(slog.DiscardHandler)))
	require.NotNil(t, srv)
	return srv
}

// toolReq builds a CallToolRequest with the given argument map.
func toolReq(args map[string]any) mcplib.CallToolRequest {
	req := mcplib.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// ─── New / options ────────────────────────────────────────────────────────────

func TestNew_defaults(t *testing.T) {
	st, err := store.NewMemory()
	require.NoError(t, err)
	defer st.Close()

	srv := New(st)
	require.NotNil(t, srv)
	assert.NotNil(t, srv.mcp)
	assert.NotNil(t, srv.logger)
	assert.NotNil(t, srv.now)
}

func TestNew_nilOptions(t *testing.T) {
	st, err := store.NewMemory()
	require.NoError(t, err)
	defer st.Close()

	assert.NotPanics(t, func() {
		srv := New(st, WithLogger(nil), WithClock(nil))
		assert.NotNil(t, srv.logger)
		assert.NotNil(t, srv.now)
	})
}

func TestTools_uniqueNames(t *testing.T) {
	srv := newTestServer(t)
	seen := map[string]bool{}
	for _, tool := range srv.tools() {
		name := tool.Tool.Name
		assert.False(t, seen[name], "duplicate tool %q", name)
		seen[name] = true
		assert.NotEmpty(t, tool.Tool.Description, "tool %q has no description", name)
		assert.NotNil(t, tool.Handler, "tool %q has no handler", name)
	}
	for _, want := range []string{
		"create_todo", "list_todos", "update_todo", "snooze_todo", "delete_todos",
		"create_meeting", "log_communication", "save_briefing",
		"create_summary", "get_summary_progress", "set_preference",
	} {
		assert.True(t, seen[want], "missing tool %q", want)
	}
}

func TestInstructions(t *testing.T) {
	assert.Contains(t, instructions, "find_todo")
	assert.Contains(t, instructions, "RFC 3339")
}

func TestServe_unknownTransport(t *testing.T) {
	srv := newTestServer(t)
	err := srv.Serve(context.Background(), Transport("carrier-pigeon"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestServeHTTP_shutdownOnCancel(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeHTTP(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeHTTP did not return after cancel")
	}
}

// ─── argument helpers ─────────────────────────────────────────────────────────

func TestStringsArg(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"array", map[string]any{"v": []any{"a", "", "b"}}, []string{"a", "b"}},
		{"comma string", map[string]any{"v": " a, b ,,c"}, []string{"a", "b", "c"}},
		{"absent", map[string]any{}, nil},
		{"wrong type", map[string]any{"v": 3.0}, nil},
		{"nil args", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringsArg(toolReq(tt.args), "v"))
		})
	}
}

func TestIntArg(t *testing.T) {
	assert.Equal(t, 7, intArg(toolReq(map[string]any{"n": float64(7)}), "n", 1))
	assert.Equal(t, 7, intArg(toolReq(map[string]any{"n": 7}), "n", 1))
	assert.Equal(t, 1, intArg(toolReq(map[string]any{"n": "7"}), "n", 1))
	assert.Equal(t, 1, intArg(toolReq(nil), "n", 1))
}

func TestBoolArgs(t *testing.T) {
	req := toolReq(map[string]any{"yes": true, "no": false, "str": "true"})
	assert.True(t, boolArg(req, "yes", false))
	assert.False(t, boolArg(req, "no", true))
	assert.True(t, boolArg(req, "str", true))
	assert.Nil(t, optBoolArg(req, "missing"))
	require.NotNil(t, optBoolArg(req, "no"))
	assert.False(t, *optBoolArg(req, "no"))
}

func TestOptStringArg(t *testing.T) {
	req := toolReq(map[string]any{"a": "x", "empty": ""})
	require.NotNil(t, optStringArg(req, "a"))
	assert.Equal(t, "x", *optStringArg(req, "a"))
	assert.Nil(t, optStringArg(req, "empty"))
	assert.Nil(t, optStringArg(req, "missing"))
}

func TestLimitArg(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want int
	}{
		{"default", nil, defLimit},
		{"explicit", map[string]any{"limit": float64(10)}, 10},
		{"clamped high", map[string]any{"limit": float64(10_000)}, maxLimit},
		{"clamped low", map[string]any{"limit": float64(-3)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, limitArg(toolReq(tt.args)))
		})
	}
}

func TestBindArgs(t *testing.T) {
	var td store.Todo
	err := bindArgs(toolReq(map[string]any{
		"title":    "ship it",
		"priority": float64(2),
		"tags":     []any{"a", "b"},
	}), &td)
	require.NoError(t, err)
	assert.Equal(t, "ship it", td.Title)
	assert.Equal(t, 2, td.Priority)
	assert.Equal(t, []string{"a", "b"}, td.Tags)

	err = bindArgs(toolReq(map[string]any{"priority": "high"}), &td)
	assert.Error(t, err)
}

func TestOrEmpty(t *testing.T) {
	assert.Equal(t, []int{}, orEmpty[int](nil))
	assert.Equal(t, []int{1}, orEmpty([]int{1}))
}
