package mcp

// In this file: preference tools.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

// ─── get_preference ───────────────────────────────────────────────────────────

func (s *Server) toolGetPreference() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_preference",
		mcplib.WithDescription("Read a user preference by key."),
		mcplib.WithString("key", mcplib.Required()),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetPreference}
}

func (s *Server) handleGetPreference(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	key, err := prefKey(req)
	if err != nil {
		return resultErr(fmt.Errorf("get_preference: %w", err)), nil
	}
	value, ok, err := s.store.GetPreference(key)
	if err != nil {
		return resultErr(fmt.Errorf("get_preference: %w", err)), nil
	}
	if !ok {
		return resultText(fmt.Sprintf("Preference %q is not set.", key)), nil
	}
	return resultText(value), nil
}

// ─── set_preference ───────────────────────────────────────────────────────────

func (s *Server) toolSetPreference() mcpsrv.ServerTool {
	tool := mcplib.NewTool("set_preference",
		mcplib.WithDescription("Create or replace a user preference."),
		mcplib.WithString("key", mcplib.Required()),
		mcplib.WithString("value", mcplib.Required()),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleSetPreference}
}

func (s *Server) handleSetPreference(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	key, err := prefKey(req)
	if err != nil {
		return resultErr(fmt.Errorf("set_preference: %w", err)), nil
	}
	value, ok := stringArg(req, "value")
	if !ok {
		return resultErr(errors.New("set_preference: value is required")), nil
	}
	if err := s.store.SetPreference(key, value); err != nil {
		return resultErr(fmt.Errorf("set_preference: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: set_preference", "key", key)
	return resultText(fmt.Sprintf("Preference %q saved.", key)), nil
}

// ─── list_preferences ─────────────────────────────────────────────────────────

func (s *Server) toolListPreferences() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_preferences",
		mcplib.WithDescription("List every stored preference ordered by key."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListPreferences}
}

func (s *Server) handleListPreferences(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	prefs, err := s.store.ListPreferences()
	if err != nil {
		return resultErr(fmt.Errorf("list_preferences: %w", err)), nil
	}
	return respond("list_preferences", orEmpty(prefs))
}

// ─── delete_preference ────────────────────────────────────────────────────────

func (s *Server) toolDeletePreference() mcpsrv.ServerTool {
	tool := mcplib.NewTool("delete_preference",
		mcplib.WithDescription("Remove a preference."),
		mcplib.WithString("key", mcplib.Required()),
		mcplib.WithDestructiveHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleDeletePreference}
}

func (s *Server) handleDeletePreference(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	key, err := prefKey(req)
	if err != nil {
		return resultErr(fmt.Errorf("delete_preference: %w", err)), nil
	}
	ok, err := s.store.DeletePreference(key)
	if err != nil {
		return resultErr(fmt.Errorf("delete_preference: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: delete_preference", "key", key, "deleted", ok)
	return respond("delete_preference", map[string]bool{"deleted": ok})
}

func prefKey(req mcplib.CallToolRequest) (string, error) {
	key, _ := stringArg(req, "key")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is required")
	}
	return key, nil
}
