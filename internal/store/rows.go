package store

import "strings"

// Row types mirror the tables column for column. Nullable columns are
// pointers, JSON columns are text and booleans are 0/1 integers.

type TodoRow struct {
	ID              string  `db:"id"`
	Title           string  `db:"title"`
	Description     *string `db:"description"`
	Priority        int64   `db:"priority"`
	BasePriority    *int64  `db:"base_priority"`
	Urgency         *int64  `db:"urgency"`
	RequestDate     *string `db:"request_date"`
	DueDate         *string `db:"due_date"`
	Deadline        *string `db:"deadline"`
	Source          *string `db:"source"`
	SourceID        *string `db:"source_id"`
	SourceURL       *string `db:"source_url"`
	SourceURLs      *string `db:"source_urls"`
	Status          string  `db:"status"`
	SnoozedUntil    *string `db:"snoozed_until"`
	StaleNotifiedAt *string `db:"stale_notified_at"`
	Fingerprint     *string `db:"fingerprint"`
	Tags            *string `db:"tags"`
	CreatedAt       string  `db:"created_at"`
	UpdatedAt       string  `db:"updated_at"`
	CompletedAt     *string `db:"completed_at"`
	ArchivedAt      *string `db:"archived_at"`
	SummaryID       *string `db:"summary_id"`
	SummaryPeriod   *string `db:"summary_period"`
	SummaryItemID   *string `db:"summary_item_id"`
	Category        *string `db:"category"`
}

var todoColumns = []string{
	"id", "title", "description", "priority", "base_priority", "urgency",
	"request_date", "due_date", "deadline", "source", "source_id", "source_url",
	"source_urls", "status", "snoozed_until", "stale_notified_at", "fingerprint",
	"tags", "created_at", "updated_at", "completed_at", "archived_at",
	"summary_id", "summary_period", "summary_item_id", "category",
}

type MeetingRow struct {
	ID              string  `db:"id"`
	CalendarEventID *string `db:"calendar_event_id"`
	Title           string  `db:"title"`
	StartTime       string  `db:"start_time"`
	EndTime         string  `db:"end_time"`
	Attendees       *string `db:"attendees"`
	TalkingPoints   *string `db:"talking_points"`
	ContextNotes    *string `db:"context_notes"`
	TranscriptPath  *string `db:"transcript_path"`
	CreatedAt       string  `db:"created_at"`
}

var meetingColumns = []string{
	"id", "calendar_event_id", "title", "start_time", "end_time", "attendees",
	"talking_points", "context_notes", "transcript_path", "created_at",
}

type CommunicationLogRow struct {
	ID             string `db:"id"`
	Channel        string `db:"channel"`
	Summary        string `db:"summary"`
	Importance     int64  `db:"importance"`
	ActionRequired int64  `db:"action_required"`
	LoggedAt       string `db:"logged_at"`
}

var communicationLogColumns = []string{
	"id", "channel", "summary", "importance", "action_required", "logged_at",
}

type BriefingRow struct {
	ID        string `db:"id"`
	Date      string `db:"date"`
	FilePath  string `db:"file_path"`
	Data      string `db:"data"`
	CreatedAt string `db:"created_at"`
}

var briefingColumns = []string{"id", "date", "file_path", "data", "created_at"}

type SummaryRow struct {
	ID              string  `db:"id"`
	Fidelity        string  `db:"fidelity"`
	Period          string  `db:"period"`
	StartDate       string  `db:"start_date"`
	EndDate         string  `db:"end_date"`
	FilePath        string  `db:"file_path"`
	SourceSummaries *string `db:"source_summaries"`
	Stats           *string `db:"stats"`
	GeneratedAt     string  `db:"generated_at"`
}

var summaryColumns = []string{
	"id", "fidelity", "period", "start_date", "end_date", "file_path",
	"source_summaries", "stats", "generated_at",
}

type SummaryTodoLinkRow struct {
	SummaryID        string `db:"summary_id"`
	TodoID           string `db:"todo_id"`
	CreatedBySummary int64  `db:"created_by_summary"`
	CreatedAt        string `db:"created_at"`
}

type PreferenceRow struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt string `db:"updated_at"`
}

// selectList renders cols for a SELECT, optionally qualified by a table alias.
func selectList(alias string, cols []string) string {
	if alias == "" {
		return strings.Join(cols, ", ")
	}
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = alias + "." + c
	}
	return strings.Join(q, ", ")
}

// insertStmt builds a named INSERT for sqlx.NamedExec.
func insertStmt(table string, cols []string) string {
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(named, ", ") + ")"
}

// updateStmt builds a named UPDATE of every column except key, matched on key.
func updateStmt(table, key string, cols []string) string {
	var sets []string
	for _, c := range cols {
		if c == key {
			continue
		}
		sets = append(sets, c+" = :"+c)
	}
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE " + key + " = :" + key
}

// placeholders returns "?, ?, ?" for n bind parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
