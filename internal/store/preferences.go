package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetPreference reports false when the key has never been set.
func (s *Store) GetPreference(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetPreference(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(s.clock()),
	)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetAllPreferences() (map[string]string, error) {
	prefs, err := s.ListPreferences()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(prefs))
	for _, p := range prefs {
		m[p.Key] = p.Value
	}
	return m, nil
}

// ListPreferences returns every preference ordered by key.
func (s *Store) ListPreferences() ([]Preference, error) {
	prefs, err := queryAll(s.db, rowToPreference, `SELECT key, value, updated_at FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

func (s *Store) DeletePreference(key string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete preference %q: %w", key, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
