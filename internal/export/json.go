package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/natefinch/atomic"

	"github.com/sadopc/ctxstore/internal/store"
)

type jsonExport struct {
	ExportedAt string       `json:"exported_at"`
	Count      int          `json:"count"`
	Todos      []store.Todo `json:"todos"`
}

// ToJSON writes todos to path as an indented document, replacing any existing
// file atomically. Todo fields keep their camelCase names.
func ToJSON(todos []store.Todo, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(todos),
		Todos:      todos,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
