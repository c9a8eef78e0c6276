package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/ctxstore/internal/store"
)

// isErrorResult reports whether r is an error result.
func isErrorResult(r *mcplib.CallToolResult) bool {
	return r != nil && r.IsError
}

// firstText returns the text of the first TextContent in the result.
func firstText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, r.Content, "result has no content")
	txt, ok := r.Content[0].(mcplib.TextContent)
	require.True(t, ok, "first content item is not TextContent")
	return txt.Text
}

// call invokes a handler and requires a successful result.
func call(t *testing.T, h func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error), args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	res, err := h(context.Background(), toolReq(args))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.False(t, isErrorResult(res), "unexpected error result: %s", firstText(t, res))
	return res
}

// decode unmarshals the JSON text of a result into v.
func decode(t *testing.T, r *mcplib.CallToolResult, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(firstText(t, r)), v))
}

func mustCreateTodo(t *testing.T, srv *Server, args map[string]any) store.Todo {
	t.Helper()
	var out createTodoResult
	decode(t, call(t, srv.handleCreateTodo, args), &out)
	require.NotNil(t, out.Todo)
	return *out.Todo
}

// ─── todos ────────────────────────────────────────────────────────────────────

func TestHandleCreateTodo(t *testing.T) {
	srv := newTestServer(t)

	var out createTodoResult
	decode(t, call(t, srv.handleCreateTodo, map[string]any{
		"title":       "  review RFC  ",
		"source":      "github",
		"sourceId":    "org/repo#12",
		"fingerprint": "fp-1",
		"tags":        []any{"rfc"},
	}), &out)

	require.NotNil(t, out.Todo)
	assert.True(t, out.Created)
	assert.Equal(t, "review RFC", out.Todo.Title)
	assert.Equal(t, store.DefaultPriority, out.Todo.Priority)
	assert.Equal(t, store.DefaultPriority, out.Todo.BasePriority)
	assert.Equal(t, store.DefaultUrgency, out.Todo.Urgency)
	assert.Equal(t, store.StatusPending, out.Todo.Status)
	assert.Equal(t, []string{"rfc"}, out.Todo.Tags)
	assert.True(t, out.Todo.CreatedAt.Equal(testNow))
}

func TestHandleCreateTodo_dedupByFingerprint(t *testing.T) {
	srv := newTestServer(t)
	first := mustCreateTodo(t, srv, map[string]any{"title": "a", "fingerprint": "same"})

	var out createTodoResult
	decode(t, call(t, srv.handleCreateTodo, map[string]any{"title": "b", "fingerprint": "same"}), &out)
	assert.False(t, out.Created)
	assert.Equal(t, first.ID, out.Todo.ID)
	assert.Equal(t, "a", out.Todo.Title)
}

func TestHandleCreateTodo_invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantMsg string
	}{
		{"missing title", map[string]any{"priority": float64(2)}, "title is required"},
		{"blank title", map[string]any{"title": "   "}, "title is required"},
		{"priority out of range", map[string]any{"title": "x", "priority": float64(9)}, "priority must be 1-5"},
		{"urgency out of range", map[string]any{"title": "x", "urgency": float64(0.5)}, "invalid arguments"},
		{"bad source", map[string]any{"title": "x", "source": "fax"}, "unknown source"},
		{"bad category", map[string]any{"title": "x", "category": "fun"}, "unknown category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			res, err := srv.handleCreateTodo(context.Background(), toolReq(tt.args))
			require.NoError(t, err)
			assert.True(t, isErrorResult(res))
			assert.Contains(t, firstText(t, res), tt.wantMsg)
		})
	}
}

func TestHandleGetTodo(t *testing.T) {
	srv := newTestServer(t)
	td := mustCreateTodo(t, srv, map[string]any{"title": "x"})

	var got store.Todo
	decode(t, call(t, srv.handleGetTodo, map[string]any{"id": td.ID}), &got)
	assert.Equal(t, td.ID, got.ID)

	res := call(t, srv.handleGetTodo, map[string]any{"id": "nope"})
	assert.Contains(t, firstText(t, res), "No todo")

	res, err := srv.handleGetTodo(context.Background(), toolReq(nil))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))
}

func TestHandleFindTodo(t *testing.T) {
	srv := newTestServer(t)
	td := mustCreateTodo(t, srv, map[string]any{
		"title": "x", "source": "linear", "sourceId": "ENG-1", "fingerprint": "fp",
	})

	var got store.Todo
	decode(t, call(t, srv.handleFindTodo, map[string]any{"fingerprint": "fp"}), &got)
	assert.Equal(t, td.ID, got.ID)

	decode(t, call(t, srv.handleFindTodo, map[string]any{"source": "linear", "sourceId": "ENG-1"}), &got)
	assert.Equal(t, td.ID, got.ID)

	res := call(t, srv.handleFindTodo, map[string]any{"source": "linear", "sourceId": "ENG-2"})
	assert.Contains(t, firstText(t, res), "No todo")

	res, err := srv.handleFindTodo(context.Background(), toolReq(map[string]any{"source": "linear"}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))

	res, err = srv.handleFindTodo(context.Background(), toolReq(map[string]any{"source": "jira", "sourceId": "ENG-1"}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))
	assert.Contains(t, firstText(t, res), "unknown source")
}

func TestHandleListTodos(t *testing.T) {
	srv := newTestServer(t)
	low := mustCreateTodo(t, srv, map[string]any{"title": "low", "priority": float64(4), "category": "admin"})
	high := mustCreateTodo(t, srv, map[string]any{"title": "high", "priority": float64(1)})
	done := mustCreateTodo(t, srv, map[string]any{"title": "done", "priority": float64(2)})
	call(t, srv.handleCompleteTodo(), map[string]any{"id": done.ID})
	snoozed := mustCreateTodo(t, srv, map[string]any{"title": "later", "priority": float64(2)})
	call(t, srv.handleSnoozeTodo, map[string]any{"id": snoozed.ID, "until": "+2d"})

	ids := func(args map[string]any) []string {
		var todos []store.Todo
		decode(t, call(t, srv.handleListTodos, args), &todos)
		out := make([]string, len(todos))
		for i, td := range todos {
			out[i] = td.ID
		}
		return out
	}

	assert.Equal(t, []string{high.ID, low.ID}, ids(nil), "default: open, not snoozed, by priority")
	assert.Equal(t, []string{high.ID, snoozed.ID, low.ID}, ids(map[string]any{"includeSnoozed": true}))
	assert.Equal(t, []string{snoozed.ID}, ids(map[string]any{"onlySnoozed": true}))
	assert.Equal(t, []string{done.ID}, ids(map[string]any{"status": []any{"completed"}}))
	assert.Len(t, ids(map[string]any{"status": "all", "includeSnoozed": true}), 4)
	assert.Equal(t, []string{low.ID}, ids(map[string]any{"category": "admin"}))
	assert.Equal(t, []string{low.ID, high.ID}, ids(map[string]any{"orderDirection": "desc"}))
	assert.Equal(t, []string{high.ID}, ids(map[string]any{"limit": float64(1)}))
	assert.Equal(t, []string{done.ID}, ids(map[string]any{"status": "all", "completedAfter": "2025-03-10"}))
}

func TestHandleListTodos_empty(t *testing.T) {
	srv := newTestServer(t)
	res := call(t, srv.handleListTodos, nil)
	assert.Equal(t, "[]", firstText(t, res))
}

func TestHandleListTodos_invalid(t *testing.T) {
	srv := newTestServer(t)
	for name, args := range map[string]map[string]any{
		"status":         {"status": []any{"blocked"}},
		"source":         {"source": []any{"jira"}},
		"completedAfter": {"completedAfter": "when pigs fly"},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := srv.handleListTodos(context.Background(), toolReq(args))
			require.NoError(t, err)
			assert.True(t, isErrorResult(res))
		})
	}
}

func TestHandleUpdateTodo(t *testing.T) {
	srv := newTestServer(t)
	td := mustCreateTodo(t, srv, map[string]any{"title": "x", "dueDate": "2025-03-12", "tags": []any{"a"}})

	var got store.Todo
	decode(t, call(t, srv.handleUpdateTodo, map[string]any{
		"id":       td.ID,
		"priority": float64(1),
		"status":   "in_progress",
		"clear":    []any{"dueDate", "tags"},
	}), &got)
	assert.Equal(t, 1, got.Priority)
	assert.Equal(t, store.StatusInProgress, got.Status)
	assert.Nil(t, got.DueDate)
	assert.Nil(t, got.Tags)
	assert.Equal(t, "x", got.Title)
}

func TestHandleUpdateTodo_errors(t *testing.T) {
	srv := newTestServer(t)
	td := mustCreateTodo(t, srv, map[string]any{"title": "x"})

	tests := []struct {
		name    string
		args    map[string]any
		wantMsg string
	}{
		{"no id", map[string]any{"title": "y"}, "id is required"},
		{"bad priority", map[string]any{"id": td.ID, "priority": float64(6)}, "priority must be 1-5"},
		{"bad status", map[string]any{"id": td.ID, "status": "done"}, "unknown status"},
		{"empty title", map[string]any{"id": td.ID, "title": " "}, "title must not be empty"},
		{"clear required", map[string]any{"id": td.ID, "clear": []any{"title"}}, "cannot be cleared"},
		{"set and clear", map[string]any{"id": td.ID, "dueDate": "2025-03-12", "clear": []any{"dueDate"}}, "both set and cleared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleUpdateTodo(context.Background(), toolReq(tt.args))
			require.NoError(t, err)
			assert.True(t, isErrorResult(res))
			assert.Contains(t, firstText(t, res), tt.wantMsg)
		})
	}

	res := call(t, srv.handleUpdateTodo, map[string]any{"id": "missing", "title": "y"})
	assert.Contains(t, firstText(t, res), "No todo")
}

func TestHandleCompleteArchive(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateTodo(t, srv, map[string]any{"title": "a"})
	b := mustCreateTodo(t, srv, map[string]any{"title": "b"})

	var got store.Todo
	decode(t, call(t, srv.handleCompleteTodo(), map[string]any{"id": a.ID}), &got)
	assert.Equal(t, store.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	decode(t, call(t, srv.handleArchiveTodo(), map[string]any{"id": b.ID}), &got)
	assert.Equal(t, store.StatusArchived, got.Status)
	require.NotNil(t, got.ArchivedAt)
}

func TestHandleUpdateTodo_statusStamps(t *testing.T) {
	srv := newTestServer(t)
	td := mustCreateTodo(t, srv, map[string]any{"title": "a"})

	var got store.Todo
	decode(t, call(t, srv.handleUpdateTodo, map[string]any{"id": td.ID, "status": "completed"}), &got)
	assert.Equal(t, store.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(testNow))

	decode(t, call(t, srv.handleUpdateTodo, map[string]any{"id": td.ID, "status": "pending"}), &got)
	assert.Equal(t, store.StatusPending, got.Status)
	assert.Nil(t, got.CompletedAt)

	decode(t, call(t, srv.handleUpdateTodo, map[string]any{"id": td.ID, "status": "archived"}), &got)
	require.NotNil(t, got.ArchivedAt)
	decode(t, call(t, srv.handleUpdateTodo, map[string]any{"id": td.ID, "status": "in_progress"}), &got)
	assert.Nil(t, got.ArchivedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestHandleSnoozeTodo(t *testing.T) {
	srv := newTestServer(t)
	td := mustCreateTodo(t, srv, map[string]any{"title": "x"})

	var got store.Todo
	decode(t, call(t, srv.handleSnoozeTodo, map[string]any{"id": td.ID, "until": "+4h"}), &got)
	require.NotNil(t, got.SnoozedUntil)
	assert.True(t, got.SnoozedUntil.Equal(testNow.Add(4*time.Hour)))

	decode(t, call(t, srv.handleUnsnoozeTodo(), map[string]any{"id": td.ID}), &got)
	assert.Nil(t, got.SnoozedUntil)
}

func TestHandleSnoozeTodo_errors(t *testing.T) {
	srv := newTestServer(t)
	td := mustCreateTodo(t, srv, map[string]any{"title": "x"})

	tests := []struct {
		name    string
		args    map[string]any
		wantMsg string
	}{
		{"no until", map[string]any{"id": td.ID}, "until is required"},
		{"past", map[string]any{"id": td.ID, "until": "-1d"}, "not in the future"},
		{"garbage", map[string]any{"id": td.ID, "until": "qwerty"}, "unrecognized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleSnoozeTodo(context.Background(), toolReq(tt.args))
			require.NoError(t, err)
			assert.True(t, isErrorResult(res))
			assert.Contains(t, firstText(t, res), tt.wantMsg)
		})
	}
}

// handleCompleteTodo and friends expose the idHandler closures for tests.
func (s *Server) handleCompleteTodo() func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return s.toolCompleteTodo().Handler
}

func (s *Server) handleArchiveTodo() func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return s.toolArchiveTodo().Handler
}

func (s *Server) handleUnsnoozeTodo() func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return s.toolUnsnoozeTodo().Handler
}

func TestHandleDeleteTodos(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateTodo(t, srv, map[string]any{"title": "a"})
	b := mustCreateTodo(t, srv, map[string]any{"title": "b"})

	var out map[string]int64
	decode(t, call(t, srv.handleDeleteTodos, map[string]any{"ids": []any{a.ID, b.ID, "ghost"}}), &out)
	assert.Equal(t, int64(2), out["deleted"])

	res, err := srv.handleDeleteTodos(context.Background(), toolReq(nil))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))
}

// ─── meetings / communications ────────────────────────────────────────────────

func TestHandleMeetings(t *testing.T) {
	srv := newTestServer(t)

	var m store.Meeting
	decode(t, call(t, srv.handleCreateMeeting, map[string]any{
		"title":           "planning",
		"startTime":       "2025-03-11T10:00:00Z",
		"endTime":         "2025-03-11T11:00:00Z",
		"calendarEventId": "evt-1",
		"attendees":       []any{"ana", "bo"},
	}), &m)
	assert.Equal(t, "planning", m.Title)
	assert.Equal(t, []string{"ana", "bo"}, m.Attendees)

	// Same calendar event updates in place.
	var again store.Meeting
	decode(t, call(t, srv.handleCreateMeeting, map[string]any{
		"title":           "planning v2",
		"startTime":       "2025-03-11T10:30:00Z",
		"endTime":         "2025-03-11T11:00:00Z",
		"calendarEventId": "evt-1",
		"talkingPoints":   []any{"budget"},
	}), &again)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, "planning v2", again.Title)
	assert.Equal(t, []string{"ana", "bo"}, again.Attendees)
	assert.Equal(t, []string{"budget"}, again.TalkingPoints)

	decode(t, call(t, srv.handleCreateMeeting, map[string]any{
		"title":     "1:1",
		"startTime": "2025-03-12T15:00:00Z",
		"endTime":   "2025-03-12T15:30:00Z",
	}), &m)

	var got store.Meeting
	decode(t, call(t, srv.handleGetMeeting, map[string]any{"calendarEventId": "evt-1"}), &got)
	assert.Equal(t, again.ID, got.ID)
	decode(t, call(t, srv.handleGetMeeting, map[string]any{"id": m.ID}), &got)
	assert.Equal(t, "1:1", got.Title)
	assert.Contains(t, firstText(t, call(t, srv.handleGetMeeting, map[string]any{"id": "x"})), "No meeting")

	var list []store.Meeting
	decode(t, call(t, srv.handleListMeetings, nil), &list)
	require.Len(t, list, 2)
	assert.Equal(t, "planning v2", list[0].Title)

	decode(t, call(t, srv.handleListMeetings, map[string]any{"startAfter": "2025-03-12"}), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "1:1", list[0].Title)

	decode(t, call(t, srv.handleListMeetings, map[string]any{"startBefore": "+2d"}), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "planning v2", list[0].Title)
}

func TestHandleCreateMeeting_invalid(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name    string
		args    map[string]any
		wantMsg string
	}{
		{"no title", map[string]any{"startTime": "2025-03-11T10:00:00Z", "endTime": "2025-03-11T11:00:00Z"}, "title is required"},
		{"no times", map[string]any{"title": "x"}, "startTime and endTime are required"},
		{"reversed", map[string]any{"title": "x", "startTime": "2025-03-11T10:00:00Z", "endTime": "2025-03-11T09:00:00Z"}, "before startTime"},
		{"bad time", map[string]any{"title": "x", "startTime": "tomorrow", "endTime": "2025-03-11T09:00:00Z"}, "invalid arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleCreateMeeting(context.Background(), toolReq(tt.args))
			require.NoError(t, err)
			assert.True(t, isErrorResult(res))
			assert.Contains(t, firstText(t, res), tt.wantMsg)
		})
	}
}

func TestHandleCommunications(t *testing.T) {
	srv := newTestServer(t)

	var l store.CommunicationLog
	decode(t, call(t, srv.handleLogCommunication, map[string]any{
		"channel": "slack", "summary": "deploy question", "importance": float64(4), "actionRequired": true,
	}), &l)
	assert.Equal(t, store.ChannelSlack, l.Channel)
	assert.Equal(t, 4, l.Importance)
	assert.True(t, l.ActionRequired)
	assert.True(t, l.LoggedAt.Equal(testNow))

	call(t, srv.handleLogCommunication, map[string]any{"channel": "email", "summary": "newsletter"})

	var list []store.CommunicationLog
	decode(t, call(t, srv.handleListCommunications, nil), &list)
	assert.Len(t, list, 2)

	decode(t, call(t, srv.handleListCommunications, map[string]any{"actionRequired": true}), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "deploy question", list[0].Summary)

	decode(t, call(t, srv.handleListCommunications, map[string]any{"channel": "email"}), &list)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Importance)
}

func TestHandleLogCommunication_invalid(t *testing.T) {
	srv := newTestServer(t)
	for name, args := range map[string]map[string]any{
		"channel":    {"channel": "fax", "summary": "x"},
		"summary":    {"channel": "email", "summary": " "},
		"importance": {"channel": "email", "summary": "x", "importance": float64(6)},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := srv.handleLogCommunication(context.Background(), toolReq(args))
			require.NoError(t, err)
			assert.True(t, isErrorResult(res))
			assert.Contains(t, firstText(t, res), name)
		})
	}
}

// ─── briefings / summaries ────────────────────────────────────────────────────

func TestHandleBriefings(t *testing.T) {
	srv := newTestServer(t)

	var b store.Briefing
	decode(t, call(t, srv.handleSaveBriefing, map[string]any{
		"filePath": "/briefings/today.md",
		"data": map[string]any{
			"calendar":    map[string]any{"meetingCount": float64(2)},
			"teamUpdates": []any{"release cut"},
		},
	}), &b)
	assert.Equal(t, "2025-03-10", b.Date, "date defaults to today")
	assert.Equal(t, 2, b.Data.Calendar.MeetingCount)

	var again store.Briefing
	decode(t, call(t, srv.handleSaveBriefing, map[string]any{"date": "2025-03-10", "filePath": "/b2.md"}), &again)
	assert.Equal(t, b.ID, again.ID)
	assert.Equal(t, "/b2.md", again.FilePath)

	call(t, srv.handleSaveBriefing, map[string]any{"date": "2025-03-09", "filePath": "/b0.md"})

	var got store.Briefing
	decode(t, call(t, srv.handleGetBriefing, nil), &got)
	assert.Equal(t, "/b2.md", got.FilePath)
	decode(t, call(t, srv.handleGetBriefing, map[string]any{"date": "-1d"}), &got)
	assert.Equal(t, "2025-03-09", got.Date)
	assert.Contains(t, firstText(t, call(t, srv.handleGetBriefing, map[string]any{"date": "2025-01-01"})), "No briefing")

	var recent []store.Briefing
	decode(t, call(t, srv.handleGetBriefing, map[string]any{"recent": float64(5)}), &recent)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-03-10", recent[0].Date)

	res, err := srv.handleSaveBriefing(context.Background(), toolReq(map[string]any{"date": "2025-03-10"}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))
}

func TestHandleSummaries(t *testing.T) {
	srv := newTestServer(t)

	var week store.Summary
	decode(t, call(t, srv.handleCreateSummary, map[string]any{
		"fidelity":  "weekly",
		"period":    "2025-W11",
		"startDate": "2025-03-10",
		"endDate":   "2025-03-16",
		"filePath":  "/s/w11.md",
		"stats":     map[string]any{"todosCreated": float64(3)},
	}), &week)
	assert.Equal(t, store.FidelityWeekly, week.Fidelity)
	assert.True(t, week.GeneratedAt.Equal(testNow))
	require.NotNil(t, week.Stats)
	assert.Equal(t, 3, week.Stats.TodosCreated)

	call(t, srv.handleCreateSummary, map[string]any{
		"fidelity": "monthly", "period": "2025-02", "startDate": "2025-02-01", "endDate": "2025-02-28", "filePath": "/s/feb.md",
	})

	res, err := srv.handleCreateSummary(context.Background(), toolReq(map[string]any{
		"fidelity": "weekly", "period": "2025-W11", "startDate": "2025-03-10", "endDate": "2025-03-16", "filePath": "/dup.md",
	}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res), "duplicate fidelity+period must fail")

	var got store.Summary
	decode(t, call(t, srv.handleGetSummary, map[string]any{"fidelity": "weekly", "period": "2025-W11"}), &got)
	assert.Equal(t, week.ID, got.ID)
	decode(t, call(t, srv.handleGetSummary, map[string]any{"id": week.ID}), &got)
	assert.Equal(t, "2025-W11", got.Period)
	assert.Contains(t, firstText(t, call(t, srv.handleGetSummary, map[string]any{"id": "x"})), "No summary")

	var list []store.Summary
	decode(t, call(t, srv.handleListSummaries, nil), &list)
	require.Len(t, list, 2)
	assert.Equal(t, week.ID, list[0].ID)

	decode(t, call(t, srv.handleListSummaries, map[string]any{"fidelity": "monthly"}), &list)
	require.Len(t, list, 1)
	decode(t, call(t, srv.handleListSummaries, map[string]any{"startDateAfter": "2025-03-01"}), &list)
	require.Len(t, list, 1)
	assert.Equal(t, week.ID, list[0].ID)
}

func TestHandlePayloadUnknownKeys(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.handleCreateSummary(context.Background(), toolReq(map[string]any{
		"fidelity": "weekly", "period": "2025-W11", "startDate": "2025-03-10", "endDate": "2025-03-16", "filePath": "/w.md",
		"stats": map[string]any{"todosCreated": float64(2), "rfcsReviewed": float64(5)},
	}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))
	assert.Contains(t, firstText(t, res), "rfcsReviewed")

	res, err = srv.handleSaveBriefing(context.Background(), toolReq(map[string]any{
		"date": "2025-03-10", "filePath": "/b.md",
		"data": map[string]any{"blockers": []any{"vpn down"}},
	}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))
	assert.Contains(t, firstText(t, res), "blockers")

	assert.Contains(t, firstText(t, call(t, srv.handleGetBriefing, map[string]any{"date": "2025-03-10"})), "No briefing")
	assert.Contains(t, firstText(t, call(t, srv.handleGetSummary, map[string]any{"fidelity": "weekly", "period": "2025-W11"})), "No summary")
}

func TestHandleCreateSummary_invalid(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"fidelity": "daily", "period": "2025-03-10", "startDate": "2025-03-10", "endDate": "2025-03-10", "filePath": "/d.md",
		}
	}
	tests := []struct {
		name    string
		key     string
		value   any
		wantMsg string
	}{
		{"fidelity", "fidelity", "hourly", "unknown fidelity"},
		{"period", "period", "", "period is required"},
		{"filePath", "filePath", "", "filePath is required"},
		{"date format", "startDate", "03/10/2025", "must be YYYY-MM-DD"},
		{"reversed", "startDate", "2025-03-11", "endDate is before startDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			args := base()
			args[tt.key] = tt.value
			res, err := srv.handleCreateSummary(context.Background(), toolReq(args))
			require.NoError(t, err)
			assert.True(t, isErrorResult(res))
			assert.Contains(t, firstText(t, res), tt.wantMsg)
		})
	}
}

func TestHandleSummaryTodos(t *testing.T) {
	srv := newTestServer(t)
	var sm store.Summary
	decode(t, call(t, srv.handleCreateSummary, map[string]any{
		"fidelity": "weekly", "period": "2025-W11", "startDate": "2025-03-10", "endDate": "2025-03-16", "filePath": "/w.md",
	}), &sm)

	low := mustCreateTodo(t, srv, map[string]any{"title": "low", "priority": float64(5), "summaryPeriod": "2025-W11"})
	high := mustCreateTodo(t, srv, map[string]any{"title": "high", "priority": float64(1), "summaryPeriod": "2025-W11"})
	mid := mustCreateTodo(t, srv, map[string]any{"title": "mid", "priority": float64(3), "summaryPeriod": "2025-W11"})
	call(t, srv.handleUpdateTodo, map[string]any{"id": mid.ID, "status": "in_progress"})
	call(t, srv.handleCompleteTodo(), map[string]any{"id": high.ID})

	for _, id := range []string{low.ID, high.ID} {
		call(t, srv.handleLinkTodoToSummary, map[string]any{"summaryId": sm.ID, "todoId": id, "createdBySummary": true})
	}

	var todos []store.Todo
	decode(t, call(t, srv.handleGetSummaryTodos, map[string]any{"summaryId": sm.ID}), &todos)
	require.Len(t, todos, 2)
	assert.Equal(t, high.ID, todos[0].ID)
	assert.Equal(t, low.ID, todos[1].ID)

	var links []store.SummaryTodoLink
	decode(t, call(t, srv.handleGetSummaryTodos, map[string]any{"summaryId": sm.ID, "linksOnly": true}), &links)
	require.Len(t, links, 2)
	assert.True(t, links[0].CreatedBySummary)

	var out map[string]bool
	decode(t, call(t, srv.handleLinkTodoToSummary, map[string]any{"summaryId": sm.ID, "todoId": low.ID, "unlink": true}), &out)
	assert.True(t, out["unlinked"])
	decode(t, call(t, srv.handleGetSummaryTodos, map[string]any{"summaryId": sm.ID}), &todos)
	assert.Len(t, todos, 1)

	var p store.SummaryProgress
	decode(t, call(t, srv.handleGetSummaryProgress, map[string]any{"period": "2025-W11"}), &p)
	assert.Equal(t, store.SummaryProgress{Created: 3, Pending: 1, InProgress: 1, Completed: 1}, p)
}

func TestHandleLinkTodoToSummary_notFound(t *testing.T) {
	srv := newTestServer(t)
	td := mustCreateTodo(t, srv, map[string]any{"title": "x"})

	res, err := srv.handleLinkTodoToSummary(context.Background(), toolReq(map[string]any{"summaryId": "nope", "todoId": td.ID}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))
	assert.Contains(t, firstText(t, res), "summary nope not found")
}

// ─── preferences ──────────────────────────────────────────────────────────────

func TestHandlePreferences(t *testing.T) {
	srv := newTestServer(t)

	assert.Contains(t, firstText(t, call(t, srv.handleGetPreference, map[string]any{"key": "tz"})), "not set")

	call(t, srv.handleSetPreference, map[string]any{"key": "tz", "value": "Europe/Berlin"})
	call(t, srv.handleSetPreference, map[string]any{"key": "briefing.time", "value": "08:30"})
	assert.Equal(t, "Europe/Berlin", firstText(t, call(t, srv.handleGetPreference, map[string]any{"key": "tz"})))

	var prefs []store.Preference
	decode(t, call(t, srv.handleListPreferences, nil), &prefs)
	require.Len(t, prefs, 2)
	assert.Equal(t, "briefing.time", prefs[0].Key)

	var out map[string]bool
	decode(t, call(t, srv.handleDeletePreference, map[string]any{"key": "tz"}), &out)
	assert.True(t, out["deleted"])
	decode(t, call(t, srv.handleDeletePreference, map[string]any{"key": "tz"}), &out)
	assert.False(t, out["deleted"])

	res, err := srv.handleSetPreference(context.Background(), toolReq(map[string]any{"key": " "}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(res))
}
