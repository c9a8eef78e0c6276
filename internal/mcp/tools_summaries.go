package mcp

// In this file: briefing and period summary tools.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/sadopc/ctxstore/internal/store"
	"github.com/sadopc/ctxstore/internal/timeparse"
)

// ─── save_briefing ────────────────────────────────────────────────────────────

func (s *Server) toolSaveBriefing() mcpsrv.ServerTool {
	tool := mcplib.NewTool("save_briefing",
		mcplib.WithDescription(`Save the daily briefing for a date.

A second call for the same date replaces filePath and data but keeps the
original id and createdAt.`),
		mcplib.WithString("date", mcplib.Description("YYYY-MM-DD; defaults to today.")),
		mcplib.WithString("filePath", mcplib.Description("Path of the rendered briefing."), mcplib.Required()),
		mcplib.WithObject("data", mcplib.Description("Structured payload: calendar, communications, todos, incidents, teamUpdates.")),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleSaveBriefing}
}

func (s *Server) handleSaveBriefing(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var in store.Briefing
	if err := bindArgsStrict(req, &in); err != nil {
		return resultErr(fmt.Errorf("save_briefing: invalid arguments: %w", err)), nil
	}
	date, err := s.dateArg(in.Date)
	if err != nil {
		return resultErr(fmt.Errorf("save_briefing: date: %w", err)), nil
	}
	in.Date = date
	if strings.TrimSpace(in.FilePath) == "" {
		return resultErr(errors.New("save_briefing: filePath is required")), nil
	}

	b, err := s.store.SaveBriefing(in)
	if err != nil {
		return resultErr(fmt.Errorf("save_briefing: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: save_briefing", "date", b.Date)
	return respond("save_briefing", b)
}

// ─── get_briefing ─────────────────────────────────────────────────────────────

func (s *Server) toolGetBriefing() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_briefing",
		mcplib.WithDescription("Get the briefing for a date, or list recent briefings when recent is set."),
		mcplib.WithString("date", mcplib.Description(`YYYY-MM-DD or a relative day such as "yesterday"; defaults to today.`)),
		mcplib.WithNumber("recent", mcplib.Description("Return the N most recent briefings instead of one date.")),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetBriefing}
}

func (s *Server) handleGetBriefing(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if n := intArg(req, "recent", 0); n > 0 {
		list, err := s.store.ListBriefings(min(n, maxLimit))
		if err != nil {
			return resultErr(fmt.Errorf("get_briefing: %w", err)), nil
		}
		return respond("get_briefing", orEmpty(list))
	}

	raw, _ := stringArg(req, "date")
	date, err := s.dateArg(raw)
	if err != nil {
		return resultErr(fmt.Errorf("get_briefing: date: %w", err)), nil
	}
	b, err := s.store.GetBriefing(date)
	if err != nil {
		return resultErr(fmt.Errorf("get_briefing: %w", err)), nil
	}
	if b == nil {
		return resultText(fmt.Sprintf("No briefing for %s.", date)), nil
	}
	return respond("get_briefing", b)
}

// dateArg resolves raw to YYYY-MM-DD, defaulting to the server's today.
func (s *Server) dateArg(raw string) (string, error) {
	now := s.now()
	if strings.TrimSpace(raw) == "" {
		return now.Format(timeparse.DateLayout), nil
	}
	return timeparse.ParseDate(raw, now)
}

// ─── create_summary ───────────────────────────────────────────────────────────

func (s *Server) toolCreateSummary() mcpsrv.ServerTool {
	tool := mcplib.NewTool("create_summary",
		mcplib.WithDescription(`Store a period summary.

Only one summary may exist per fidelity and period; use get_summary first when
regenerating.`),
		mcplib.WithString("fidelity", mcplib.Enum(fidelityNames()...), mcplib.Required()),
		mcplib.WithString("period", mcplib.Description(`Period key, e.g. "2025-03-10", "2025-W11", "2025-03", "2025-Q1", "2025-H1".`), mcplib.Required()),
		mcplib.WithString("startDate", mcplib.Description("YYYY-MM-DD"), mcplib.Required()),
		mcplib.WithString("endDate", mcplib.Description("YYYY-MM-DD"), mcplib.Required()),
		mcplib.WithString("filePath", mcplib.Required()),
		mcplib.WithArray("sourceSummaries", mcplib.Description("Ids of the summaries this one rolls up."), mcplib.WithStringItems()),
		mcplib.WithObject("stats"),
		mcplib.WithString("generatedAt", mcplib.Description("RFC 3339; defaults to now.")),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateSummary}
}

func (s *Server) handleCreateSummary(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var in store.Summary
	if err := bindArgsStrict(req, &in); err != nil {
		return resultErr(fmt.Errorf("create_summary: invalid arguments: %w", err)), nil
	}
	if err := validateSummary(in); err != nil {
		return resultErr(fmt.Errorf("create_summary: %w", err)), nil
	}
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = s.now()
	}

	sm, err := s.store.CreateSummary(in)
	if err != nil {
		return resultErr(fmt.Errorf("create_summary: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: create_summary", "id", sm.ID, "fidelity", sm.Fidelity, "period", sm.Period)
	return respond("create_summary", sm)
}

func validateSummary(sm store.Summary) error {
	switch {
	case !sm.Fidelity.Valid():
		return fmt.Errorf("unknown fidelity %q", sm.Fidelity)
	case strings.TrimSpace(sm.Period) == "":
		return errors.New("period is required")
	case strings.TrimSpace(sm.FilePath) == "":
		return errors.New("filePath is required")
	}
	for name, v := range map[string]string{"startDate": sm.StartDate, "endDate": sm.EndDate} {
		if _, err := time.Parse(timeparse.DateLayout, v); err != nil {
			return fmt.Errorf("%s must be YYYY-MM-DD, got %q", name, v)
		}
	}
	if sm.EndDate < sm.StartDate {
		return errors.New("endDate is before startDate")
	}
	return nil
}

func fidelityNames() []string {
	out := make([]string, len(store.Fidelities))
	for i, f := range store.Fidelities {
		out[i] = string(f)
	}
	return out
}

// ─── get_summary ──────────────────────────────────────────────────────────────

func (s *Server) toolGetSummary() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_summary",
		mcplib.WithDescription("Get a summary by id, or by fidelity and period."),
		mcplib.WithString("id"),
		mcplib.WithString("fidelity", mcplib.Enum(fidelityNames()...)),
		mcplib.WithString("period"),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetSummary}
}

func (s *Server) handleGetSummary(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var (
		sm  *store.Summary
		err error
		key string
	)
	fidelity, _ := stringArg(req, "fidelity")
	period, _ := stringArg(req, "period")
	if id, ok := stringArg(req, "id"); ok && id != "" {
		key = id
		sm, err = s.store.GetSummary(id)
	} else if fidelity != "" && period != "" {
		key = fidelity + " " + period
		sm, err = s.store.GetSummaryByPeriod(store.Fidelity(fidelity), period)
	} else {
		return resultErr(errors.New("get_summary: id, or fidelity and period, are required")), nil
	}
	if err != nil {
		return resultErr(fmt.Errorf("get_summary: %w", err)), nil
	}
	if sm == nil {
		return resultText(fmt.Sprintf("No summary found for %s.", key)), nil
	}
	return respond("get_summary", sm)
}

// ─── list_summaries ───────────────────────────────────────────────────────────

func (s *Server) toolListSummaries() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_summaries",
		mcplib.WithDescription("List summaries, newest start date first. Date bounds are inclusive."),
		mcplib.WithString("fidelity", mcplib.Enum(fidelityNames()...)),
		mcplib.WithString("startDateAfter", mcplib.Description("YYYY-MM-DD or relative date.")),
		mcplib.WithString("startDateBefore", mcplib.Description("YYYY-MM-DD or relative date.")),
		mcplib.WithNumber("limit", mcplib.Description("Maximum number of summaries (1-500, default 50).")),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListSummaries}
}

func (s *Server) handleListSummaries(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	f := store.SummaryFilter{Limit: limitArg(req)}
	if v := optStringArg(req, "fidelity"); v != nil {
		fd := store.Fidelity(*v)
		if !fd.Valid() {
			return resultErr(fmt.Errorf("list_summaries: unknown fidelity %q", *v)), nil
		}
		f.Fidelity = &fd
	}
	now := s.now()
	for name, dst := range map[string]**string{"startDateAfter": &f.StartDateAfter, "startDateBefore": &f.StartDateBefore} {
		raw := optStringArg(req, name)
		if raw == nil {
			continue
		}
		d, err := timeparse.ParseDate(*raw, now)
		if err != nil {
			return resultErr(fmt.Errorf("list_summaries: %s: %w", name, err)), nil
		}
		*dst = &d
	}

	list, err := s.store.ListSummaries(f)
	if err != nil {
		return resultErr(fmt.Errorf("list_summaries: %w", err)), nil
	}
	return respond("list_summaries", orEmpty(list))
}

// ─── link_todo_to_summary ─────────────────────────────────────────────────────

func (s *Server) toolLinkTodoToSummary() mcpsrv.ServerTool {
	tool := mcplib.NewTool("link_todo_to_summary",
		mcplib.WithDescription("Link a todo to a summary, or remove the link when unlink is true. Linking twice only updates createdBySummary."),
		mcplib.WithString("summaryId", mcplib.Required()),
		mcplib.WithString("todoId", mcplib.Required()),
		mcplib.WithBoolean("createdBySummary", mcplib.Description("The todo was generated while writing the summary.")),
		mcplib.WithBoolean("unlink"),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleLinkTodoToSummary}
}

func (s *Server) handleLinkTodoToSummary(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	summaryID, _ := stringArg(req, "summaryId")
	todoID, _ := stringArg(req, "todoId")
	if summaryID == "" || todoID == "" {
		return resultErr(errors.New("link_todo_to_summary: summaryId and todoId are required")), nil
	}

	if boolArg(req, "unlink", false) {
		ok, err := s.store.UnlinkTodoFromSummary(summaryID, todoID)
		if err != nil {
			return resultErr(fmt.Errorf("link_todo_to_summary: %w", err)), nil
		}
		return respond("link_todo_to_summary", map[string]bool{"unlinked": ok})
	}

	// Check both ends so a typo reads as "not found" instead of a foreign key error.
	sm, err := s.store.GetSummary(summaryID)
	if err != nil {
		return resultErr(fmt.Errorf("link_todo_to_summary: %w", err)), nil
	}
	if sm == nil {
		return resultErr(fmt.Errorf("link_todo_to_summary: summary %s not found", summaryID)), nil
	}
	td, err := s.store.GetTodo(todoID)
	if err != nil {
		return resultErr(fmt.Errorf("link_todo_to_summary: %w", err)), nil
	}
	if td == nil {
		return resultErr(fmt.Errorf("link_todo_to_summary: todo %s not found", todoID)), nil
	}

	if err := s.store.LinkTodoToSummary(summaryID, todoID, boolArg(req, "createdBySummary", false)); err != nil {
		return resultErr(fmt.Errorf("link_todo_to_summary: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: link_todo_to_summary", "summary", summaryID, "todo", todoID)
	return respond("link_todo_to_summary", map[string]bool{"linked": true})
}

// ─── get_summary_todos ────────────────────────────────────────────────────────

func (s *Server) toolGetSummaryTodos() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_summary_todos",
		mcplib.WithDescription("List the todos linked to a summary, most important first."),
		mcplib.WithString("summaryId", mcplib.Required()),
		mcplib.WithBoolean("linksOnly", mcplib.Description("Return the link records instead of the todos.")),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetSummaryTodos}
}

func (s *Server) handleGetSummaryTodos(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	summaryID, _ := stringArg(req, "summaryId")
	if summaryID == "" {
		return resultErr(errors.New("get_summary_todos: summaryId is required")), nil
	}
	if boolArg(req, "linksOnly", false) {
		links, err := s.store.GetSummaryTodoLinks(summaryID)
		if err != nil {
			return resultErr(fmt.Errorf("get_summary_todos: %w", err)), nil
		}
		return respond("get_summary_todos", orEmpty(links))
	}
	todos, err := s.store.GetTodosForSummary(summaryID)
	if err != nil {
		return resultErr(fmt.Errorf("get_summary_todos: %w", err)), nil
	}
	return respond("get_summary_todos", orEmpty(todos))
}

// ─── get_summary_progress ─────────────────────────────────────────────────────

func (s *Server) toolGetSummaryProgress() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_summary_progress",
		mcplib.WithDescription("Count the todos tagged with a summary period by status."),
		mcplib.WithString("period", mcplib.Required()),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetSummaryProgress}
}

func (s *Server) handleGetSummaryProgress(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	period, _ := stringArg(req, "period")
	if period == "" {
		return resultErr(errors.New("get_summary_progress: period is required")), nil
	}
	p, err := s.store.GetTodoSummaryProgress(period)
	if err != nil {
		return resultErr(fmt.Errorf("get_summary_progress: %w", err)), nil
	}
	return respond("get_summary_progress", p)
}
