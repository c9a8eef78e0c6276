package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/sadopc/ctxstore/internal/store"
)

var csvHeader = []string{
	"ID", "Title", "Status", "Priority", "Urgency", "Due", "Deadline",
	"Source", "Source ID", "Category", "Tags", "Snoozed Until", "Completed At", "Created At",
}

// ToCSV writes todos to path, replacing any existing file atomically.
func ToCSV(todos []store.Todo, path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range todos {
		var source, category string
		if t.Source != nil {
			source = string(*t.Source)
		}
		if t.Category != nil {
			category = string(*t.Category)
		}
		row := []string{
			t.ID,
			t.Title,
			string(t.Status),
			strconv.Itoa(t.Priority),
			strconv.Itoa(t.Urgency),
			deref(t.DueDate),
			deref(t.Deadline),
			source,
			deref(t.SourceID),
			category,
			strings.Join(t.Tags, ";"),
			formatStamp(t.SnoozedUntil),
			formatStamp(t.CompletedAt),
			t.CreatedAt.Local().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write csv file: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
