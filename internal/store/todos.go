package store

import (
	"fmt"
	"time"
)

var (
	selectTodosSQL = "SELECT " + selectList("", todoColumns) + " FROM todos"
	insertTodoSQL  = insertStmt("todos", todoColumns)
	updateTodoSQL  = updateStmt("todos", "id", todoColumns)
)

// todoOrderColumns allow-lists TodoFilter.OrderBy values.
var todoOrderColumns = map[string]string{
	"priority":     "priority",
	"basePriority": "base_priority",
	"urgency":      "urgency",
	"dueDate":      "due_date",
	"deadline":     "deadline",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"completedAt":  "completed_at",
}

// CreateTodo stores a new todo. The id and timestamps are assigned here;
// status defaults to pending, base priority to priority and urgency to 3.
func (s *Store) CreateTodo(in Todo) (*Todo, error) {
	now := s.clock()
	t := in
	t.ID = s.newID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.BasePriority == 0 {
		t.BasePriority = t.Priority
	}
	if t.Urgency == 0 {
		t.Urgency = DefaultUrgency
	}
	stampStatus(&t, now)

	if _, err := s.db.NamedExec(insertTodoSQL, TodoToRow(t, now)); err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	return s.GetTodo(t.ID)
}

// GetTodo returns nil when no todo has the id.
func (s *Store) GetTodo(id string) (*Todo, error) {
	t, err := s.getTodo(selectTodosSQL+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get todo %s: %w", id, err)
	}
	return t, nil
}

// GetTodoByFingerprint finds a live (pending or in progress) todo with the
// dedup fingerprint. Completed and archived todos never match.
func (s *Store) GetTodoByFingerprint(fingerprint string) (*Todo, error) {
	t, err := s.getTodo(
		selectTodosSQL+` WHERE fingerprint = ? AND status NOT IN ('completed', 'archived')
		 ORDER BY created_at DESC LIMIT 1`, fingerprint,
	)
	if err != nil {
		return nil, fmt.Errorf("get todo by fingerprint: %w", err)
	}
	return t, nil
}

func (s *Store) GetTodoBySource(source TodoSource, sourceID string) (*Todo, error) {
	t, err := s.getTodo(
		selectTodosSQL+` WHERE source = ? AND source_id = ? ORDER BY created_at DESC LIMIT 1`,
		string(source), sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("get todo by source %s/%s: %w", source, sourceID, err)
	}
	return t, nil
}

// ListTodos returns todos matching every set filter, by priority unless
// f.OrderBy names another allow-listed field.
func (s *Store) ListTodos(f TodoFilter) ([]Todo, error) {
	query := selectTodosSQL + ` WHERE 1=1`
	var args []any

	if len(f.Status) > 0 {
		query += ` AND status IN (` + placeholders(len(f.Status)) + `)`
		for _, st := range f.Status {
			args = append(args, string(st))
		}
	}
	if len(f.Source) > 0 {
		query += ` AND source IN (` + placeholders(len(f.Source)) + `)`
		for _, src := range f.Source {
			args = append(args, string(src))
		}
	}
	if f.SummaryPeriod != nil {
		query += ` AND summary_period = ?`
		args = append(args, *f.SummaryPeriod)
	}
	if f.Category != nil {
		query += ` AND category = ?`
		args = append(args, string(*f.Category))
	}
	if f.CompletedAfter != nil {
		query += ` AND completed_at >= ?`
		args = append(args, formatTime(*f.CompletedAfter))
	}
	now := formatTime(s.clock())
	if f.ExcludeSnoozed {
		query += ` AND (snoozed_until IS NULL OR snoozed_until <= ?)`
		args = append(args, now)
	}
	if f.OnlySnoozed {
		query += ` AND snoozed_until > ?`
		args = append(args, now)
	}

	col, ok := todoOrderColumns[f.OrderBy]
	if !ok {
		col = "priority"
	}
	query += ` ORDER BY ` + col + ` ` + f.OrderDirection.sql() + `, created_at ASC, id ASC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	todos, err := s.selectTodos(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// UpdateTodo applies p to the todo and refreshes UpdatedAt. It returns nil
// when the id is unknown.
func (s *Store) UpdateTodo(id string, p TodoPatch) (*Todo, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("update todo %s: %w", id, err)
	}
	cur, err := s.GetTodo(id)
	if err != nil || cur == nil {
		return nil, err
	}

	t := *cur
	p.apply(&t)
	t.UpdatedAt = s.clock()
	stampStatus(&t, t.UpdatedAt)

	if _, err := s.db.NamedExec(updateTodoSQL, TodoToRow(t, t.UpdatedAt)); err != nil {
		return nil, fmt.Errorf("update todo %s: %w", id, err)
	}
	return s.GetTodo(id)
}

// stampStatus keeps CompletedAt set only while completed and ArchivedAt only
// while archived. A missing stamp for the current status is set to now.
func stampStatus(t *Todo, now time.Time) {
	if t.Status != StatusCompleted {
		t.CompletedAt = nil
	} else if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if t.Status != StatusArchived {
		t.ArchivedAt = nil
	} else if t.ArchivedAt == nil {
		t.ArchivedAt = &now
	}
}

func (s *Store) CompleteTodo(id string) (*Todo, error) {
	now := s.clock()
	status := StatusCompleted
	return s.UpdateTodo(id, TodoPatch{Status: &status, CompletedAt: &now})
}

func (s *Store) ArchiveTodo(id string) (*Todo, error) {
	now := s.clock()
	status := StatusArchived
	return s.UpdateTodo(id, TodoPatch{Status: &status, ArchivedAt: &now})
}

func (s *Store) SnoozeTodo(id string, until time.Time) (*Todo, error) {
	u := until.UTC().Truncate(time.Millisecond)
	return s.UpdateTodo(id, TodoPatch{SnoozedUntil: &u})
}

func (s *Store) UnsnoozeTodo(id string) (*Todo, error) {
	return s.UpdateTodo(id, TodoPatch{Clear: []TodoField{TodoSnoozedUntil}})
}

// DeleteTodo reports whether a row was removed.
func (s *Store) DeleteTodo(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete todo %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// BulkDeleteTodos returns how many of ids were actually deleted; unknown ids
// are skipped.
func (s *Store) BulkDeleteTodos(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.Exec(`DELETE FROM todos WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete todos: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListStaleTodos returns open todos last updated before the cutoff that have
// not been flagged as stale since that update, oldest first.
func (s *Store) ListStaleTodos(before time.Time) ([]Todo, error) {
	todos, err := s.selectTodos(
		selectTodosSQL+` WHERE status IN ('pending', 'in_progress')
		   AND updated_at < ?
		   AND (stale_notified_at IS NULL OR stale_notified_at < updated_at)
		 ORDER BY updated_at ASC, id ASC`,
		formatTime(before),
	)
	if err != nil {
		return nil, fmt.Errorf("list stale todos: %w", err)
	}
	return todos, nil
}

// MarkTodosStaleNotified stamps stale_notified_at without touching
// updated_at, so a todo is reported once per stale period.
func (s *Store) MarkTodosStaleNotified(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{formatTime(s.clock())}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.db.Exec(
		`UPDATE todos SET stale_notified_at = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...,
	)
	if err != nil {
		return 0, fmt.Errorf("mark todos stale: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) getTodo(query string, args ...any) (*Todo, error) {
	return queryOne(s.db, RowToTodo, query, args...)
}

func (s *Store) selectTodos(query string, args ...any) ([]Todo, error) {
	return queryAll(s.db, RowToTodo, query, args...)
}
