package store

import "fmt"

var (
	selectSummariesSQL = "SELECT " + selectList("", summaryColumns) + " FROM summaries"
	insertSummarySQL   = insertStmt("summaries", summaryColumns)
)

// CreateSummary stores a summary. GeneratedAt defaults to now. A second
// summary for the same fidelity and period is a constraint error.
func (s *Store) CreateSummary(in Summary) (*Summary, error) {
	now := s.clock()
	sm := in
	sm.ID = s.newID()
	if _, err := s.db.NamedExec(insertSummarySQL, SummaryToRow(sm, now)); err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}
	return s.GetSummary(sm.ID)
}

func (s *Store) GetSummary(id string) (*Summary, error) {
	sm, err := queryOne(s.db, RowToSummary, selectSummariesSQL+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get summary %s: %w", id, err)
	}
	return sm, nil
}

func (s *Store) GetSummaryByPeriod(fidelity Fidelity, period string) (*Summary, error) {
	sm, err := queryOne(s.db, RowToSummary,
		selectSummariesSQL+` WHERE fidelity = ? AND period = ?`, string(fidelity), period)
	if err != nil {
		return nil, fmt.Errorf("get %s summary %s: %w", fidelity, period, err)
	}
	return sm, nil
}

// ListSummaries returns summaries with the newest start date first. Date
// bounds are inclusive.
func (s *Store) ListSummaries(f SummaryFilter) ([]Summary, error) {
	query := selectSummariesSQL + ` WHERE 1=1`
	var args []any

	if f.Fidelity != nil {
		query += ` AND fidelity = ?`
		args = append(args, string(*f.Fidelity))
	}
	if f.StartDateAfter != nil {
		query += ` AND start_date >= ?`
		args = append(args, *f.StartDateAfter)
	}
	if f.StartDateBefore != nil {
		query += ` AND start_date <= ?`
		args = append(args, *f.StartDateBefore)
	}
	query += ` ORDER BY start_date DESC, fidelity ASC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	summaries, err := queryAll(s.db, RowToSummary, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return summaries, nil
}

// DeleteSummary removes the summary and, by cascade, its todo links.
func (s *Store) DeleteSummary(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM summaries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete summary %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ============================================================
// Summary ↔ todo links
// ============================================================

// LinkTodoToSummary is idempotent; linking again only updates the
// createdBySummary flag.
func (s *Store) LinkTodoToSummary(summaryID, todoID string, createdBySummary bool) error {
	row := SummaryTodoLinkToRow(SummaryTodoLink{
		SummaryID:        summaryID,
		TodoID:           todoID,
		CreatedBySummary: createdBySummary,
	}, s.clock())
	_, err := s.db.NamedExec(
		`INSERT INTO summary_todos (summary_id, todo_id, created_by_summary, created_at)
		 VALUES (:summary_id, :todo_id, :created_by_summary, :created_at)
		 ON CONFLICT(summary_id, todo_id) DO UPDATE SET created_by_summary = excluded.created_by_summary`,
		row,
	)
	if err != nil {
		return fmt.Errorf("link todo %s to summary %s: %w", todoID, summaryID, err)
	}
	return nil
}

func (s *Store) UnlinkTodoFromSummary(summaryID, todoID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM summary_todos WHERE summary_id = ? AND todo_id = ?`, summaryID, todoID)
	if err != nil {
		return false, fmt.Errorf("unlink todo %s from summary %s: %w", todoID, summaryID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) GetSummaryTodoLinks(summaryID string) ([]SummaryTodoLink, error) {
	links, err := queryAll(s.db, RowToSummaryTodoLink,
		`SELECT summary_id, todo_id, created_by_summary, created_at
		 FROM summary_todos WHERE summary_id = ? ORDER BY created_at ASC, todo_id ASC`,
		summaryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list links for summary %s: %w", summaryID, err)
	}
	return links, nil
}

// GetTodosForSummary returns the linked todos, most important first.
func (s *Store) GetTodosForSummary(summaryID string) ([]Todo, error) {
	todos, err := s.selectTodos(
		`SELECT `+selectList("t", todoColumns)+`
		 FROM todos t
		 JOIN summary_todos st ON st.todo_id = t.id
		 WHERE st.summary_id = ?
		 ORDER BY t.priority ASC, t.created_at ASC, t.id ASC`,
		summaryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos for summary %s: %w", summaryID, err)
	}
	return todos, nil
}

// GetTodoSummaryProgress counts todos whose summary period is period, by
// status. Archived todos count toward Created only.
func (s *Store) GetTodoSummaryProgress(period string) (SummaryProgress, error) {
	var p SummaryProgress
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM todos WHERE summary_period = ?`, period,
	).Scan(&p.Created, &p.Pending, &p.InProgress, &p.Completed)
	if err != nil {
		return SummaryProgress{}, fmt.Errorf("summary progress %s: %w", period, err)
	}
	return p, nil
}
