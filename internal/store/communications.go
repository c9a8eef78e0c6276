package store

import "fmt"

var (
	selectCommunicationLogsSQL = "SELECT " + selectList("", communicationLogColumns) + " FROM communication_logs"
	insertCommunicationLogSQL  = insertStmt("communication_logs", communicationLogColumns)
)

// CreateCommunicationLog appends an entry. LoggedAt defaults to now.
func (s *Store) CreateCommunicationLog(in CommunicationLog) (*CommunicationLog, error) {
	now := s.clock()
	l := in
	l.ID = s.newID()
	if _, err := s.db.NamedExec(insertCommunicationLogSQL, CommunicationLogToRow(l, now)); err != nil {
		return nil, fmt.Errorf("insert communication log: %w", err)
	}
	return s.GetCommunicationLog(l.ID)
}

func (s *Store) GetCommunicationLog(id string) (*CommunicationLog, error) {
	l, err := queryOne(s.db, RowToCommunicationLog, selectCommunicationLogsSQL+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get communication log %s: %w", id, err)
	}
	return l, nil
}

// ListCommunicationLogs returns entries newest first.
func (s *Store) ListCommunicationLogs(f CommunicationFilter) ([]CommunicationLog, error) {
	query := selectCommunicationLogsSQL + ` WHERE 1=1`
	var args []any

	if f.Channel != nil {
		query += ` AND channel = ?`
		args = append(args, string(*f.Channel))
	}
	if f.ActionRequired != nil {
		query += ` AND action_required = ?`
		args = append(args, boolToInt(*f.ActionRequired))
	}
	query += ` ORDER BY logged_at DESC, id ASC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	logs, err := queryAll(s.db, RowToCommunicationLog, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list communication logs: %w", err)
	}
	return logs, nil
}
