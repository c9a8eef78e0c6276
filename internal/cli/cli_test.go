package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/ctxstore/internal/store"
)

type harness struct {
	t      *testing.T
	dbPath string
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	for _, k := range []string{"CTXSTORE_DB_PATH", "CTXSTORE_LOG_LEVEL", "CTXSTORE_LOG_FORMAT", "CTXSTORE_EXPORT_DIR", "CTXSTORE_MCP_TRANSPORT", "CTXSTORE_MCP_ADDR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return &harness{t: t, dbPath: filepath.Join(dir, "ctx.db"), dir: dir}
}

// run executes ctxstore with args against the harness database.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	e := &env{stdout: &out, stderr: io.Discard, now: time.Now}
	cmd := newRootCmd(e)
	cmd.SetArgs(append([]string{"--db-path", h.dbPath, "--export-dir", h.dir, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "ctxstore %s", strings.Join(args, " "))
	return out
}

// store opens the harness database directly for setup and assertions.
func (h *harness) store() *store.Store {
	h.t.Helper()
	st, err := store.New(h.dbPath)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { st.Close() })
	return st
}

func (h *harness) todos() []store.Todo {
	h.t.Helper()
	st, err := store.New(h.dbPath)
	require.NoError(h.t, err)
	defer st.Close()
	todos, err := st.ListTodos(store.TodoFilter{})
	require.NoError(h.t, err)
	return todos
}

func TestTodoAddAndList(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("todo", "add", "Review", "caching", "RFC", "-p", "2", "--due", "2030-01-15", "-t", "rfc", "--category", "engineering")
	assert.Contains(t, out, "Created todo")
	assert.Contains(t, out, "Review caching RFC")
	assert.Contains(t, out, "Due: 2030-01-15")

	h.mustRun("todo", "add", "Reply to vendor", "--source", "email", "--source-id", "msg-1")

	out = h.mustRun("todo", "list")
	assert.Contains(t, out, "Review caching RFC [rfc]")
	assert.Contains(t, out, "Reply to vendor")
	assert.Less(t, strings.Index(out, "Review caching RFC"), strings.Index(out, "Reply to vendor"), "P2 should list before P3")

	out = h.mustRun("todo", "list", "--source", "email", "--json")
	var todos []store.Todo
	require.NoError(t, json.Unmarshal([]byte(out), &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, "Reply to vendor", todos[0].Title)
	require.NotNil(t, todos[0].SourceID)
	assert.Equal(t, "msg-1", *todos[0].SourceID)
}

func TestTodoAddValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"priority too high", []string{"todo", "add", "x", "-p", "9"}, "priority must be between"},
		{"unknown source", []string{"todo", "add", "x", "--source", "fax"}, "invalid source"},
		{"unknown category", []string{"todo", "add", "x", "--category", "fun"}, "invalid category"},
		{"bad due date", []string{"todo", "add", "x", "--due", "blorp"}, "unrecognized time expression"},
		{"blank title", []string{"todo", "add", "  "}, "title must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Empty(t, h.todos())
}

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestTodoListAlignsColoredColumns(t *testing.T) {
	h := newHarness(t)
	h.mustRun("todo", "add", "overdue thing", "-p", "1", "--due", "2000-01-01")
	h.mustRun("todo", "add", "undated thing")

	color.NoColor = false
	t.Cleanup(func() { color.NoColor = true })
	out := h.mustRun("todo", "list")
	require.True(t, ansiSeq.MatchString(out), "expected colored output")

	col := map[string]int{}
	for _, line := range strings.Split(ansiSeq.ReplaceAllString(out, ""), "\n") {
		for _, word := range []string{"TITLE", "overdue thing", "undated thing"} {
			if i := strings.Index(line, word); i >= 0 {
				col[word] = i
			}
		}
	}
	require.Len(t, col, 3)
	assert.Equal(t, col["TITLE"], col["overdue thing"])
	assert.Equal(t, col["TITLE"], col["undated thing"])
}

func TestTodoListEmpty(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun("todo", "list"), "No todos found")
	assert.Equal(t, "[]\n", h.mustRun("todo", "list", "--json"))
}

func TestTodoDoneByPrefix(t *testing.T) {
	h := newHarness(t)
	h.mustRun("todo", "add", "ship release")
	id := h.todos()[0].ID

	out := h.mustRun("todo", "done", id[:8])
	assert.Contains(t, out, "Completed ship release")
	assert.Equal(t, store.StatusCompleted, h.todos()[0].Status)

	assert.Contains(t, h.mustRun("todo", "list"), "No todos found")
	assert.Contains(t, h.mustRun("todo", "list", "--all"), "ship release")
}

func TestTodoActionsReportMissing(t *testing.T) {
	h := newHarness(t)
	h.mustRun("todo", "add", "keep me")
	id := h.todos()[0].ID

	out, err := h.run("todo", "archive", id, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `todo "nope" not found`)
	assert.Contains(t, out, "Archived keep me", "valid ids are still processed")
	assert.Equal(t, store.StatusArchived, h.todos()[0].Status)
}

func TestTodoSnoozeAndUnsnooze(t *testing.T) {
	h := newHarness(t)
	h.mustRun("todo", "add", "later")
	id := h.todos()[0].ID

	out := h.mustRun("todo", "snooze", id, "+2d")
	assert.Contains(t, out, "Snoozed later until")
	assert.Contains(t, h.mustRun("todo", "list"), "No todos found")
	assert.Contains(t, h.mustRun("todo", "list", "--snoozed"), "snoozed until")

	h.mustRun("todo", "unsnooze", id)
	assert.Nil(t, h.todos()[0].SnoozedUntil)
	assert.Contains(t, h.mustRun("todo", "list"), "later")
}

func TestTodoSnoozeRejectsPast(t *testing.T) {
	h := newHarness(t)
	h.mustRun("todo", "add", "later")
	id := h.todos()[0].ID

	_, err := h.run("todo", "snooze", id, "2001-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the future")
}

func TestTodoRm(t *testing.T) {
	h := newHarness(t)
	h.mustRun("todo", "add", "a")
	h.mustRun("todo", "add", "b")
	todos := h.todos()

	out := h.mustRun("todo", "rm", todos[0].ID, todos[1].ID)
	assert.Contains(t, out, "Deleted 2 todo(s)")
	assert.Empty(t, h.todos())
}

func TestTodoStale(t *testing.T) {
	h := newHarness(t)
	st := h.store()
	old, err := store.New(h.dbPath, store.WithClock(func() time.Time { return time.Now().AddDate(0, 0, -10) }))
	require.NoError(t, err)
	_, err = old.CreateTodo(store.Todo{Title: "forgotten", Priority: 3})
	require.NoError(t, err)
	old.Close()
	_, err = st.CreateTodo(store.Todo{Title: "fresh", Priority: 3})
	require.NoError(t, err)

	out := h.mustRun("todo", "stale", "--mark")
	assert.Contains(t, out, "forgotten")
	assert.NotContains(t, out, "fresh")
	assert.Contains(t, out, "Marked 1 todo(s) as notified")

	assert.Contains(t, h.mustRun("todo", "stale"), "No todos found", "notified todos are reported once")
}

func TestResolveTodoID(t *testing.T) {
	ids := []string{"abcd1111", "abcd2222", "ef001234"}
	n := 0
	st, err := store.NewMemory(store.WithIDGenerator(func() string {
		id := ids[n]
		n++
		return id
	}))
	require.NoError(t, err)
	defer st.Close()
	for i := range ids {
		_, err := st.CreateTodo(store.Todo{Title: fmt.Sprintf("t%d", i), Priority: 3})
		require.NoError(t, err)
	}

	id, err := resolveTodoID(st, "abcd2222")
	require.NoError(t, err)
	assert.Equal(t, "abcd2222", id)

	id, err = resolveTodoID(st, "ef00")
	require.NoError(t, err)
	assert.Equal(t, "ef001234", id)

	_, err = resolveTodoID(st, "abcd")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveTodoID(st, "ef")
	assert.ErrorContains(t, err, "not found", "short prefixes are not matched")

	_, err = resolveTodoID(st, "zzzz")
	assert.ErrorContains(t, err, "not found")
}

func TestMeetingList(t *testing.T) {
	h := newHarness(t)
	start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
	_, err := h.store().CreateMeeting(store.Meeting{
		Title:     "design review",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Attendees: []string{"ana", "li"},
	})
	require.NoError(t, err)

	out := h.mustRun("meeting", "list")
	assert.Contains(t, out, "design review")
	assert.Contains(t, out, "ana, li")

	assert.Contains(t, h.mustRun("meeting", "list", "--from", "+8d", "--to", "+14d"), "No meetings found")

	_, err = h.run("meeting", "list", "--from", "+3d", "--to", "+1d")
	assert.ErrorContains(t, err, "before")
}

func TestSummaryListAndProgress(t *testing.T) {
	h := newHarness(t)
	st := h.store()
	_, err := st.CreateSummary(store.Summary{
		Fidelity:  store.FidelityWeekly,
		Period:    "2025-W11",
		StartDate: "2025-03-10",
		EndDate:   "2025-03-16",
		FilePath:  "summaries/2025-W11.md",
	})
	require.NoError(t, err)

	h.mustRun("todo", "add", "a", "--period", "2025-W11")
	h.mustRun("todo", "add", "b", "--period", "2025-W11")
	h.mustRun("todo", "done", h.todos()[0].ID)

	out := h.mustRun("summary", "list")
	assert.Contains(t, out, "2025-W11")
	assert.Contains(t, out, "2025-03-10..2025-03-16")
	assert.Contains(t, h.mustRun("summary", "list", "--fidelity", "daily"), "No summaries found")

	_, err = h.run("summary", "list", "--fidelity", "hourly")
	assert.ErrorContains(t, err, "invalid fidelity")

	out = h.mustRun("summary", "progress", "2025-W11")
	assert.Contains(t, out, "Created:     2")
	assert.Contains(t, out, "Pending:     1")
	assert.Contains(t, out, "Completed:   1")
}

func TestBriefingShow(t *testing.T) {
	h := newHarness(t)
	_, err := h.store().SaveBriefing(store.Briefing{
		Date:     "2025-03-10",
		FilePath: "briefings/2025-03-10.md",
		Data: store.BriefingData{
			Calendar: store.BriefingCalendar{MeetingCount: 1, FocusMinutes: 90},
			Todos:    []store.BriefingTodo{{ID: "t1", Title: "ship release", Priority: 1}},
		},
	})
	require.NoError(t, err)

	out := h.mustRun("briefing", "show", "2025-03-10")
	assert.Contains(t, out, "# Briefing for 2025-03-10")
	assert.Contains(t, out, "[P1] ship release")

	assert.Contains(t, h.mustRun("briefing", "show", "2025-03-11"), "No briefing for 2025-03-11")

	path := filepath.Join(h.dir, "b.md")
	h.mustRun("briefing", "show", "2025-03-10", "-o", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Focus time: 1h30m")

	assert.Contains(t, h.mustRun("briefing", "list"), "briefings/2025-03-10.md")
}

func TestPrefCommands(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.mustRun("pref", "get", "timezone"), "is not set")
	assert.Contains(t, h.mustRun("pref", "set", "timezone", "Europe/Berlin"), "Saved timezone")
	assert.Equal(t, "Europe/Berlin\n", h.mustRun("pref", "get", "timezone"))

	h.mustRun("pref", "set", "standup", "daily", "at", "9:30")
	out := h.mustRun("pref", "list")
	assert.Contains(t, out, "standup")
	assert.Contains(t, out, "daily at 9:30")

	var all map[string]string
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("pref", "list", "--json")), &all))
	assert.Equal(t, map[string]string{"timezone": "Europe/Berlin", "standup": "daily at 9:30"}, all)

	assert.Contains(t, h.mustRun("pref", "unset", "timezone"), "Removed timezone")
	assert.Contains(t, h.mustRun("pref", "unset", "timezone"), "was not set")
}

func TestExportCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("todo", "add", "ship release")

	out := h.mustRun("export", "json")
	assert.Contains(t, out, "Exported 1 todo(s)")
	path := filepath.Join(h.dir, "ctxstore-todos-"+time.Now().Format("2006-01-02")+".json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ship release")

	csvPath := filepath.Join(h.dir, "out.csv")
	h.mustRun("export", "csv", csvPath, "--status", "completed")
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ship release", "status filter applies")

	_, err = h.run("export", "csv", "--status", "someday")
	assert.ErrorContains(t, err, "invalid status")
}

func TestConfigErrorsSurface(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("--log-format", "xml", "todo", "list")
	assert.ErrorContains(t, err, "log_format")

	_, err = h.run("--config", filepath.Join(h.dir, "missing.yaml"), "todo", "list")
	assert.ErrorContains(t, err, "read config")
}

func TestConfigFileDBPath(t *testing.T) {
	h := newHarness(t)
	dbPath := filepath.Join(h.dir, "from-config.db")
	cfgPath := filepath.Join(h.dir, "ctxstore.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("db_path: "+dbPath+"\n"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd(&env{stdout: &out, stderr: io.Discard, now: time.Now})
	cmd.SetArgs([]string{"--config", cfgPath, "todo", "add", "from config"})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "db_path from the config file should be used")
}

func TestRootHasAllCommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"todo", "meeting", "summary", "briefing", "pref", "export", "mcp"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}
