package store

import "fmt"

var selectBriefingsSQL = "SELECT " + selectList("", briefingColumns) + " FROM briefings"

// SaveBriefing stores the briefing for b.Date, replacing the file path and
// data of an existing one. The first row's id and created_at are kept.
func (s *Store) SaveBriefing(in Briefing) (*Briefing, error) {
	now := s.clock()
	b := in
	b.ID = s.newID()
	b.CreatedAt = now

	_, err := s.db.NamedExec(
		insertStmt("briefings", briefingColumns)+
			` ON CONFLICT(date) DO UPDATE SET file_path = excluded.file_path, data = excluded.data`,
		BriefingToRow(b, now),
	)
	if err != nil {
		return nil, fmt.Errorf("save briefing %s: %w", b.Date, err)
	}
	return s.GetBriefing(b.Date)
}

// GetBriefing returns the briefing for a YYYY-MM-DD date, or nil.
func (s *Store) GetBriefing(date string) (*Briefing, error) {
	b, err := queryOne(s.db, RowToBriefing, selectBriefingsSQL+` WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("get briefing %s: %w", date, err)
	}
	return b, nil
}

// ListBriefings returns the most recent briefings first.
func (s *Store) ListBriefings(limit int) ([]Briefing, error) {
	query := selectBriefingsSQL + ` ORDER BY date DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	briefings, err := queryAll(s.db, RowToBriefing, query)
	if err != nil {
		return nil, fmt.Errorf("list briefings: %w", err)
	}
	return briefings, nil
}

func (s *Store) DeleteBriefing(date string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM briefings WHERE date = ?`, date)
	if err != nil {
		return false, fmt.Errorf("delete briefing %s: %w", date, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
