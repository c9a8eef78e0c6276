package mcp

// In this file: todo tools.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/sadopc/ctxstore/internal/store"
	"github.com/sadopc/ctxstore/internal/timeparse"
)

// todoResult renders a single-todo lookup or mutation.
func todoResult(tool, id string, td *store.Todo, err error) (*mcplib.CallToolResult, error) {
	if err != nil {
		return resultErr(fmt.Errorf("%s: %w", tool, err)), nil
	}
	if td == nil {
		return resultText(fmt.Sprintf("No todo with id %q.", id)), nil
	}
	return respond(tool, td)
}

// validateTodo checks enums and 1-5 scores before they reach the CHECK
// constraints, so the agent sees which argument was wrong.
func validateTodo(t store.Todo) error {
	if !store.ValidScore(t.Priority) {
		return fmt.Errorf("priority must be 1-5, got %d", t.Priority)
	}
	if t.BasePriority != 0 && !store.ValidScore(t.BasePriority) {
		return fmt.Errorf("basePriority must be 1-5, got %d", t.BasePriority)
	}
	if t.Urgency != 0 && !store.ValidScore(t.Urgency) {
		return fmt.Errorf("urgency must be 1-5, got %d", t.Urgency)
	}
	if t.Status != "" && !t.Status.Valid() {
		return fmt.Errorf("unknown status %q", t.Status)
	}
	if t.Source != nil && !t.Source.Valid() {
		return fmt.Errorf("unknown source %q", *t.Source)
	}
	if t.Category != nil && !t.Category.Valid() {
		return fmt.Errorf("unknown category %q", *t.Category)
	}
	return nil
}

// ─── create_todo ──────────────────────────────────────────────────────────────

func (s *Server) toolCreateTodo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("create_todo",
		mcplib.WithDescription(`Create a todo.

If fingerprint is given and an open (pending or in_progress) todo already has
it, that todo is returned instead and "created" is false.`),
		mcplib.WithString("title", mcplib.Description("Short imperative title."), mcplib.Required()),
		mcplib.WithString("description", mcplib.Description("Longer free-form details.")),
		mcplib.WithNumber("priority", mcplib.Description("1 (highest) to 5, default 3.")),
		mcplib.WithNumber("basePriority", mcplib.Description("Priority before urgency adjustments, defaults to priority.")),
		mcplib.WithNumber("urgency", mcplib.Description("1 to 5, default 3.")),
		mcplib.WithString("requestDate", mcplib.Description("Date the work was requested, YYYY-MM-DD.")),
		mcplib.WithString("dueDate", mcplib.Description("Soft due date, YYYY-MM-DD.")),
		mcplib.WithString("deadline", mcplib.Description("Hard deadline, YYYY-MM-DD.")),
		mcplib.WithString("source", mcplib.Enum("linear", "github", "email", "slack", "manual", "notion")),
		mcplib.WithString("sourceId", mcplib.Description("Identifier of the item in the source system.")),
		mcplib.WithString("sourceUrl", mcplib.Description("Link to the source item.")),
		mcplib.WithArray("sourceUrls", mcplib.Description("Additional links."), mcplib.WithStringItems()),
		mcplib.WithString("fingerprint", mcplib.Description("Dedup key for imported items.")),
		mcplib.WithArray("tags", mcplib.WithStringItems()),
		mcplib.WithString("summaryId"),
		mcplib.WithString("summaryPeriod", mcplib.Description("Period label of the summary that produced this todo, e.g. 2025-W11.")),
		mcplib.WithString("summaryItemId"),
		mcplib.WithString("category", mcplib.Enum("engineering", "management", "communication", "admin")),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateTodo}
}

type createTodoResult struct {
	Todo    *store.Todo `json:"todo"`
	Created bool        `json:"created"`
}

func (s *Server) handleCreateTodo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var in store.Todo
	if err := bindArgs(req, &in); err != nil {
		return resultErr(fmt.Errorf("create_todo: invalid arguments: %w", err)), nil
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return resultErr(errors.New("create_todo: title is required")), nil
	}
	if in.Priority == 0 {
		in.Priority = store.DefaultPriority
	}
	if err := validateTodo(in); err != nil {
		return resultErr(fmt.Errorf("create_todo: %w", err)), nil
	}

	if in.Fingerprint != nil && *in.Fingerprint != "" {
		existing, err := s.store.GetTodoByFingerprint(*in.Fingerprint)
		if err != nil {
			return resultErr(fmt.Errorf("create_todo: %w", err)), nil
		}
		if existing != nil {
			s.logger.DebugContext(ctx, "mcp: create_todo: duplicate fingerprint", "id", existing.ID)
			return respond("create_todo", createTodoResult{Todo: existing})
		}
	}

	td, err := s.store.CreateTodo(in)
	if err != nil {
		return resultErr(fmt.Errorf("create_todo: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: create_todo", "id", td.ID)
	return respond("create_todo", createTodoResult{Todo: td, Created: true})
}

// ─── get_todo ─────────────────────────────────────────────────────────────────

func (s *Server) toolGetTodo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_todo",
		mcplib.WithDescription("Get a todo by id."),
		mcplib.WithString("id", mcplib.Required()),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetTodo}
}

func (s *Server) handleGetTodo(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, ok := stringArg(req, "id")
	if !ok || id == "" {
		return resultErr(errors.New("get_todo: id is required")), nil
	}
	td, err := s.store.GetTodo(id)
	return todoResult("get_todo", id, td, err)
}

// ─── find_todo ────────────────────────────────────────────────────────────────

func (s *Server) toolFindTodo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("find_todo",
		mcplib.WithDescription(`Find an existing todo by fingerprint, or by source and sourceId.

Fingerprint lookups only match open (pending or in_progress) todos.`),
		mcplib.WithString("fingerprint"),
		mcplib.WithString("source", mcplib.Enum("linear", "github", "email", "slack", "manual", "notion")),
		mcplib.WithString("sourceId"),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleFindTodo}
}

func (s *Server) handleFindTodo(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if fp, ok := stringArg(req, "fingerprint"); ok && fp != "" {
		td, err := s.store.GetTodoByFingerprint(fp)
		if err != nil {
			return resultErr(fmt.Errorf("find_todo: %w", err)), nil
		}
		if td == nil {
			return resultText(fmt.Sprintf("No open todo with fingerprint %q.", fp)), nil
		}
		return respond("find_todo", td)
	}

	src, _ := stringArg(req, "source")
	sourceID, _ := stringArg(req, "sourceId")
	if src == "" || sourceID == "" {
		return resultErr(errors.New("find_todo: fingerprint, or source and sourceId, are required")), nil
	}
	if !store.TodoSource(src).Valid() {
		return resultErr(fmt.Errorf("find_todo: unknown source %q", src)), nil
	}
	td, err := s.store.GetTodoBySource(store.TodoSource(src), sourceID)
	if err != nil {
		return resultErr(fmt.Errorf("find_todo: %w", err)), nil
	}
	if td == nil {
		return resultText(fmt.Sprintf("No todo from %s with id %q.", src, sourceID)), nil
	}
	return respond("find_todo", td)
}

// ─── list_todos ───────────────────────────────────────────────────────────────

func (s *Server) toolListTodos() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_todos",
		mcplib.WithDescription(`List todos, most important first unless orderBy says otherwise.

By default only open (pending, in_progress) todos that are not snoozed are
returned. Pass status "all" for every status.`),
		mcplib.WithArray("status", mcplib.Description(`Statuses to include: pending, in_progress, completed, archived, or "all".`), mcplib.WithStringItems()),
		mcplib.WithArray("source", mcplib.WithStringItems()),
		mcplib.WithString("summaryPeriod"),
		mcplib.WithString("category", mcplib.Enum("engineering", "management", "communication", "admin")),
		mcplib.WithString("completedAfter", mcplib.Description(`Only todos completed at or after this time. Accepts RFC 3339, YYYY-MM-DD, "-7d" or "last monday".`)),
		mcplib.WithBoolean("includeSnoozed", mcplib.Description("Include todos snoozed into the future.")),
		mcplib.WithBoolean("onlySnoozed", mcplib.Description("Return only currently snoozed todos.")),
		mcplib.WithString("orderBy", mcplib.Enum("priority", "basePriority", "urgency", "dueDate", "deadline", "createdAt", "updatedAt", "completedAt")),
		mcplib.WithString("orderDirection", mcplib.Enum("asc", "desc")),
		mcplib.WithNumber("limit", mcplib.Description("Maximum number of todos (1-500, default 50).")),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListTodos}
}

func (s *Server) handleListTodos(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	f := store.TodoFilter{
		SummaryPeriod:  optStringArg(req, "summaryPeriod"),
		OnlySnoozed:    boolArg(req, "onlySnoozed", false),
		OrderDirection: store.OrderDirection(strings.ToLower(argOr(req, "orderDirection", "asc"))),
		Limit:          limitArg(req),
	}
	f.OrderBy, _ = stringArg(req, "orderBy")
	f.ExcludeSnoozed = !f.OnlySnoozed && !boolArg(req, "includeSnoozed", false)

	statuses := stringsArg(req, "status")
	switch {
	case len(statuses) == 0:
		f.Status = []store.TodoStatus{store.StatusPending, store.StatusInProgress}
	case len(statuses) == 1 && statuses[0] == "all":
	default:
		for _, st := range statuses {
			status := store.TodoStatus(st)
			if !status.Valid() {
				return resultErr(fmt.Errorf("list_todos: unknown status %q", st)), nil
			}
			f.Status = append(f.Status, status)
		}
	}
	for _, src := range stringsArg(req, "source") {
		source := store.TodoSource(src)
		if !source.Valid() {
			return resultErr(fmt.Errorf("list_todos: unknown source %q", src)), nil
		}
		f.Source = append(f.Source, source)
	}
	if c := optStringArg(req, "category"); c != nil {
		cat := store.TodoCategory(*c)
		f.Category = &cat
	}
	if after := optStringArg(req, "completedAfter"); after != nil {
		t, err := timeparse.Parse(*after, s.now())
		if err != nil {
			return resultErr(fmt.Errorf("list_todos: completedAfter: %w", err)), nil
		}
		f.CompletedAfter = &t
	}

	todos, err := s.store.ListTodos(f)
	if err != nil {
		return resultErr(fmt.Errorf("list_todos: %w", err)), nil
	}
	return respond("list_todos", orEmpty(todos))
}

// argOr returns the named string argument, or def when it is absent or empty.
func argOr(req mcplib.CallToolRequest, name, def string) string {
	if v, ok := stringArg(req, name); ok && v != "" {
		return v
	}
	return def
}

// ─── update_todo ──────────────────────────────────────────────────────────────

func (s *Server) toolUpdateTodo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("update_todo",
		mcplib.WithDescription(`Update fields of a todo. Omitted fields are left unchanged.

To remove an optional value, list its field name in "clear", e.g.
["dueDate", "tags"]. title, priority and status cannot be cleared, and a
field cannot be both set and cleared in one call.`),
		mcplib.WithString("id", mcplib.Required()),
		mcplib.WithString("title"),
		mcplib.WithString("description"),
		mcplib.WithNumber("priority"),
		mcplib.WithNumber("basePriority"),
		mcplib.WithNumber("urgency"),
		mcplib.WithString("requestDate"),
		mcplib.WithString("dueDate"),
		mcplib.WithString("deadline"),
		mcplib.WithString("source", mcplib.Enum("linear", "github", "email", "slack", "manual", "notion")),
		mcplib.WithString("sourceId"),
		mcplib.WithString("sourceUrl"),
		mcplib.WithArray("sourceUrls", mcplib.WithStringItems()),
		mcplib.WithString("status", mcplib.Enum("pending", "in_progress", "completed", "archived"),
			mcplib.Description("completedAt and archivedAt follow the status: they are stamped on entry and cleared on leaving it.")),
		mcplib.WithString("fingerprint"),
		mcplib.WithArray("tags", mcplib.WithStringItems()),
		mcplib.WithString("summaryId"),
		mcplib.WithString("summaryPeriod"),
		mcplib.WithString("summaryItemId"),
		mcplib.WithString("category", mcplib.Enum("engineering", "management", "communication", "admin")),
		mcplib.WithArray("clear", mcplib.Description("Optional field names to reset to empty."), mcplib.WithStringItems()),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleUpdateTodo}
}

func (s *Server) handleUpdateTodo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, ok := stringArg(req, "id")
	if !ok || id == "" {
		return resultErr(errors.New("update_todo: id is required")), nil
	}
	var p store.TodoPatch
	if err := bindArgs(req, &p); err != nil {
		return resultErr(fmt.Errorf("update_todo: invalid arguments: %w", err)), nil
	}
	if err := validatePatch(p); err != nil {
		return resultErr(fmt.Errorf("update_todo: %w", err)), nil
	}

	td, err := s.store.UpdateTodo(id, p)
	if err == nil && td != nil {
		s.logger.InfoContext(ctx, "mcp: update_todo", "id", id)
	}
	return todoResult("update_todo", id, td, err)
}

func validatePatch(p store.TodoPatch) error {
	for name, v := range map[string]*int{"priority": p.Priority, "basePriority": p.BasePriority, "urgency": p.Urgency} {
		if v != nil && !store.ValidScore(*v) {
			return fmt.Errorf("%s must be 1-5, got %d", name, *v)
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("unknown status %q", *p.Status)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return errors.New("title must not be empty")
	}
	return nil
}

// ─── complete_todo / archive_todo / unsnooze_todo ─────────────────────────────

func (s *Server) toolCompleteTodo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("complete_todo",
		mcplib.WithDescription("Mark a todo completed and stamp completedAt."),
		mcplib.WithString("id", mcplib.Required()),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.idHandler("complete_todo", s.store.CompleteTodo)}
}

func (s *Server) toolArchiveTodo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("archive_todo",
		mcplib.WithDescription("Archive a todo that no longer needs doing, stamping archivedAt."),
		mcplib.WithString("id", mcplib.Required()),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.idHandler("archive_todo", s.store.ArchiveTodo)}
}

func (s *Server) toolUnsnoozeTodo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("unsnooze_todo",
		mcplib.WithDescription("Clear a todo's snooze so it shows up in lists again."),
		mcplib.WithString("id", mcplib.Required()),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.idHandler("unsnooze_todo", s.store.UnsnoozeTodo)}
}

// idHandler adapts a store operation that takes only a todo id.
func (s *Server) idHandler(tool string, op func(string) (*store.Todo, error)) mcpsrv.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		id, ok := stringArg(req, "id")
		if !ok || id == "" {
			return resultErr(fmt.Errorf("%s: id is required", tool)), nil
		}
		td, err := op(id)
		if err == nil && td != nil {
			s.logger.InfoContext(ctx, "mcp: "+tool, "id", id)
		}
		return todoResult(tool, id, td, err)
	}
}

// ─── snooze_todo ──────────────────────────────────────────────────────────────

func (s *Server) toolSnoozeTodo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("snooze_todo",
		mcplib.WithDescription(`Hide a todo from default lists until a later time.

"until" accepts RFC 3339 timestamps, YYYY-MM-DD dates, compact durations
("+4h", "2d", "1w") and natural language ("tomorrow 9am", "next monday").`),
		mcplib.WithString("id", mcplib.Required()),
		mcplib.WithString("until", mcplib.Required()),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleSnoozeTodo}
}

func (s *Server) handleSnoozeTodo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, ok := stringArg(req, "id")
	if !ok || id == "" {
		return resultErr(errors.New("snooze_todo: id is required")), nil
	}
	raw, ok := stringArg(req, "until")
	if !ok || raw == "" {
		return resultErr(errors.New("snooze_todo: until is required")), nil
	}
	now := s.now()
	until, err := timeparse.Parse(raw, now)
	if err != nil {
		return resultErr(fmt.Errorf("snooze_todo: %w", err)), nil
	}
	if !until.After(now) {
		return resultErr(fmt.Errorf("snooze_todo: %s is not in the future", until.Format("2006-01-02 15:04"))), nil
	}

	td, err := s.store.SnoozeTodo(id, until)
	if err == nil && td != nil {
		s.logger.InfoContext(ctx, "mcp: snooze_todo", "id", id, "until", until)
	}
	return todoResult("snooze_todo", id, td, err)
}

// ─── delete_todos ─────────────────────────────────────────────────────────────

func (s *Server) toolDeleteTodos() mcpsrv.ServerTool {
	tool := mcplib.NewTool("delete_todos",
		mcplib.WithDescription("Permanently delete todos by id. Unknown ids are skipped; returns how many were deleted."),
		mcplib.WithArray("ids", mcplib.WithStringItems(), mcplib.Required()),
		mcplib.WithDestructiveHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleDeleteTodos}
}

func (s *Server) handleDeleteTodos(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ids := stringsArg(req, "ids")
	if len(ids) == 0 {
		return resultErr(errors.New("delete_todos: ids is required")), nil
	}
	n, err := s.store.BulkDeleteTodos(ids)
	if err != nil {
		return resultErr(fmt.Errorf("delete_todos: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: delete_todos", "requested", len(ids), "deleted", n)
	return respond("delete_todos", map[string]int64{"deleted": n})
}
