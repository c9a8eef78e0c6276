package mcp

// In this file: MCP server construction, transports and argument helpers.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/sadopc/ctxstore/internal/store"
)

const (
	serverName    = "ctxstore"
	serverVersion = "1.0.0"
)

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// Server wraps an MCP server around a context store.
type Server struct {
	mcp    *mcpsrv.MCPServer
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Server)

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithClock sets the reference time for relative expressions such as
// "tomorrow" in snooze_todo.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a server with every tool registered. It does not listen until
// one of the Serve methods is called.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:  st,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithToolCapabilities(false),
		mcpsrv.WithInstructions(instructions),
	)
	for _, t := range s.tools() {
		s.mcp.AddTool(t.Tool, t.Handler)
	}
	return s
}

const instructions = `You are connected to the ctxstore MCP server, a local store of work context.

Available tools allow you to:
- Create, list, update, complete, snooze, archive and delete todos
- Record meetings with talking points and look them up by calendar event
- Log communications (email, Slack, GitHub, Linear) that need attention
- Save and read daily briefings
- Store period summaries and link todos to them
- Read and write user preferences

Before creating a todo from an external item, call find_todo with its
fingerprint or source and sourceId to avoid duplicates. Timestamps are
RFC 3339 in UTC; dates are YYYY-MM-DD. Priorities and urgency run from
1 (highest) to 5.`

// Serve runs the server on the given transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport Transport, addr string) error {
	switch transport {
	case TransportStdio, "":
		return s.ServeStdio(ctx)
	case TransportHTTP:
		return s.ServeHTTP(ctx, addr)
	}
	return fmt.Errorf("unknown mcp transport %q", transport)
}

func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.InfoContext(ctx, "mcp: serving", "transport", TransportStdio)
	err := mcpsrv.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("mcp: stdio: %w", err)
}

// ServeHTTP blocks until ctx is done or the listener fails.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	hs := mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(&http.Server{Addr: addr}),
	)
	s.logger.InfoContext(ctx, "mcp: serving", "transport", TransportHTTP, "addr", addr)

	done := make(chan error, 1)
	go func() { done <- hs.Start(addr) }()

	select {
	case err := <-done:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mcp: http: %w", err)
	case <-ctx.Done():
	}
	s.logger.InfoContext(ctx, "mcp: shutting down")
	if err := hs.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("mcp: http shutdown: %w", err)
	}
	return nil
}

// tools returns all MCP tools that this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolCreateTodo(),
		s.toolGetTodo(),
		s.toolFindTodo(),
		s.toolListTodos(),
		s.toolUpdateTodo(),
		s.toolCompleteTodo(),
		s.toolSnoozeTodo(),
		s.toolUnsnoozeTodo(),
		s.toolArchiveTodo(),
		s.toolDeleteTodos(),

		s.toolCreateMeeting(),
		s.toolGetMeeting(),
		s.toolListMeetings(),
		s.toolLogCommunication(),
		s.toolListCommunications(),

		s.toolSaveBriefing(),
		s.toolGetBriefing(),
		s.toolCreateSummary(),
		s.toolGetSummary(),
		s.toolListSummaries(),
		s.toolLinkTodoToSummary(),
		s.toolGetSummaryTodos(),
		s.toolGetSummaryProgress(),

		s.toolGetPreference(),
		s.toolSetPreference(),
		s.toolListPreferences(),
		s.toolDeletePreference(),
	}
}

// resultText wraps text in a successful CallToolResult.
func resultText(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

// resultErr wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultJSON serialises v to JSON and returns a CallToolResult.
func resultJSON(v any) (*mcplib.CallToolResult, error) {
	return mcplib.NewToolResultJSON(v)
}

// respond serialises v, turning a serialisation failure into an error result.
func respond(tool string, v any) (*mcplib.CallToolResult, error) {
	result, err := resultJSON(v)
	if err != nil {
		return resultErr(fmt.Errorf("%s: serialise: %w", tool, err)), nil
	}
	return result, nil
}

// orEmpty keeps empty lists as [] rather than null in results.
func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// bindArgs decodes the tool arguments into dst through their JSON form, so
// dst's json tags define the argument names.
func bindArgs(req mcplib.CallToolRequest, dst any) error {
	return decodeArgs(req, dst, false)
}

// bindArgsStrict is bindArgs for tools whose arguments are stored as JSON
// columns: a key dst has no field for is an error instead of being dropped.
func bindArgsStrict(req mcplib.CallToolRequest, dst any) error {
	return decodeArgs(req, dst, true)
}

func decodeArgs(req mcplib.CallToolRequest, dst any, strict bool) error {
	args := req.GetArguments()
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(dst)
}

// stringArg extracts a named string argument from a tool call request.
// Returns ("", false) if the argument is absent or not a string.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// optStringArg returns nil when the argument is absent or empty.
func optStringArg(req mcplib.CallToolRequest, name string) *string {
	s, ok := stringArg(req, name)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// stringsArg accepts either a JSON array of strings or a comma-separated
// string.
func stringsArg(req mcplib.CallToolRequest, name string) []string {
	args := req.GetArguments()
	if args == nil {
		return nil
	}
	switch v := args[name].(type) {
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// intArg extracts a named int argument from a tool call request. The MCP
// protocol serialises numbers as float64, so we convert accordingly.
func intArg(req mcplib.CallToolRequest, name string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return defaultVal
}

// boolArg extracts a named bool argument from a tool call request.
func boolArg(req mcplib.CallToolRequest, name string, defaultVal bool) bool {
	if b := optBoolArg(req, name); b != nil {
		return *b
	}
	return defaultVal
}

// optBoolArg returns nil when the argument is absent or not a bool.
func optBoolArg(req mcplib.CallToolRequest, name string) *bool {
	args := req.GetArguments()
	if args == nil {
		return nil
	}
	b, ok := args[name].(bool)
	if !ok {
		return nil
	}
	return &b
}

const (
	defLimit = 50
	maxLimit = 500
)

// limitArg reads "limit", clamped to [1, maxLimit].
func limitArg(req mcplib.CallToolRequest) int {
	return max(min(intArg(req, "limit", defLimit), maxLimit), 1)
}
