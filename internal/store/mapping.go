package store

import (
	"encoding/json"
	"time"
)

// timeLayout is a fixed-width UTC layout, so text comparison in SQL orders
// the same way as time comparison.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func stamp(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}

var (
	marshal   = json.Marshal
	unmarshal = json.Unmarshal
)

// encodeJSON serializes v unless isNil, in which case the column stays NULL.
func encodeJSON[T any](v T, isNil bool) *string {
	if isNil {
		return nil
	}
	// Stored values are string slices and structs of scalars; encoding them
	// cannot fail.
	data, _ := marshal(v)
	s := string(data)
	return &s
}

func encodeStrings(v []string) *string {
	return encodeJSON(v, v == nil)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// optionalInt maps 0, never a valid 1-5 score, to NULL.
func optionalInt(v int) *int64 {
	if v == 0 {
		return nil
	}
	n := int64(v)
	return &n
}

func stringPtrOf[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func enumPtr[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}

// decoder collects the first decode failure for a single row.
type decoder struct {
	table string
	id    string
	err   error
}

func (d *decoder) fail(column string, err error) {
	if d.err == nil {
		d.err = &CorruptDataError{Table: d.table, Column: column, ID: d.id, Err: err}
	}
}

func (d *decoder) time(column, s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		d.fail(column, err)
		return time.Time{}
	}
	return t.UTC()
}

func (d *decoder) timePtr(column string, s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := d.time(column, *s)
	return &t
}

func (d *decoder) strings(column string, s *string) []string {
	if s == nil {
		return nil
	}
	var v []string
	if err := unmarshal([]byte(*s), &v); err != nil {
		d.fail(column, err)
		return nil
	}
	if v == nil {
		// "null" stored as text
		return nil
	}
	return v
}

func decodeInto[T any](d *decoder, column string, s string) T {
	var v T
	if err := unmarshal([]byte(s), &v); err != nil {
		d.fail(column, err)
	}
	return v
}

// ============================================================
// Todo
// ============================================================

// TodoToRow converts t to its storage row. Zero CreatedAt and UpdatedAt are
// stamped with now.
func TodoToRow(t Todo, now time.Time) TodoRow {
	return TodoRow{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        int64(t.Priority),
		BasePriority:    optionalInt(t.BasePriority),
		Urgency:         optionalInt(t.Urgency),
		RequestDate:     t.RequestDate,
		DueDate:         t.DueDate,
		Deadline:        t.Deadline,
		Source:          stringPtrOf(t.Source),
		SourceID:        t.SourceID,
		SourceURL:       t.SourceURL,
		SourceURLs:      encodeStrings(t.SourceURLs),
		Status:          string(t.Status),
		SnoozedUntil:    formatTimePtr(t.SnoozedUntil),
		StaleNotifiedAt: formatTimePtr(t.StaleNotifiedAt),
		Fingerprint:     t.Fingerprint,
		Tags:            encodeStrings(t.Tags),
		CreatedAt:       formatTime(stamp(t.CreatedAt, now)),
		UpdatedAt:       formatTime(stamp(t.UpdatedAt, now)),
		CompletedAt:     formatTimePtr(t.CompletedAt),
		ArchivedAt:      formatTimePtr(t.ArchivedAt),
		SummaryID:       t.SummaryID,
		SummaryPeriod:   t.SummaryPeriod,
		SummaryItemID:   t.SummaryItemID,
		Category:        stringPtrOf(t.Category),
	}
}

// RowToTodo converts a storage row to a Todo. A NULL base_priority defaults to
// priority and a NULL urgency defaults to DefaultUrgency.
func RowToTodo(r TodoRow) (Todo, error) {
	d := &decoder{table: "todos", id: r.ID}
	t := Todo{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Priority:        int(r.Priority),
		BasePriority:    int(r.Priority),
		Urgency:         DefaultUrgency,
		RequestDate:     r.RequestDate,
		DueDate:         r.DueDate,
		Deadline:        r.Deadline,
		Source:          enumPtr[TodoSource](r.Source),
		SourceID:        r.SourceID,
		SourceURL:       r.SourceURL,
		SourceURLs:      d.strings("source_urls", r.SourceURLs),
		Status:          TodoStatus(r.Status),
		SnoozedUntil:    d.timePtr("snoozed_until", r.SnoozedUntil),
		StaleNotifiedAt: d.timePtr("stale_notified_at", r.StaleNotifiedAt),
		Fingerprint:     r.Fingerprint,
		Tags:            d.strings("tags", r.Tags),
		CreatedAt:       d.time("created_at", r.CreatedAt),
		UpdatedAt:       d.time("updated_at", r.UpdatedAt),
		CompletedAt:     d.timePtr("completed_at", r.CompletedAt),
		ArchivedAt:      d.timePtr("archived_at", r.ArchivedAt),
		SummaryID:       r.SummaryID,
		SummaryPeriod:   r.SummaryPeriod,
		SummaryItemID:   r.SummaryItemID,
		Category:        enumPtr[TodoCategory](r.Category),
	}
	if r.BasePriority != nil {
		t.BasePriority = int(*r.BasePriority)
	}
	if r.Urgency != nil {
		t.Urgency = int(*r.Urgency)
	}
	if d.err != nil {
		return Todo{}, d.err
	}
	return t, nil
}

// ============================================================
// Meeting
// ============================================================

func MeetingToRow(m Meeting, now time.Time) MeetingRow {
	return MeetingRow{
		ID:              m.ID,
		CalendarEventID: m.CalendarEventID,
		Title:           m.Title,
		StartTime:       formatTime(m.StartTime),
		EndTime:         formatTime(m.EndTime),
		Attendees:       encodeStrings(m.Attendees),
		TalkingPoints:   encodeStrings(m.TalkingPoints),
		ContextNotes:    m.ContextNotes,
		TranscriptPath:  m.TranscriptPath,
		CreatedAt:       formatTime(stamp(m.CreatedAt, now)),
	}
}

func RowToMeeting(r MeetingRow) (Meeting, error) {
	d := &decoder{table: "meetings", id: r.ID}
	m := Meeting{
		ID:              r.ID,
		CalendarEventID: r.CalendarEventID,
		Title:           r.Title,
		StartTime:       d.time("start_time", r.StartTime),
		EndTime:         d.time("end_time", r.EndTime),
		Attendees:       d.strings("attendees", r.Attendees),
		TalkingPoints:   d.strings("talking_points", r.TalkingPoints),
		ContextNotes:    r.ContextNotes,
		TranscriptPath:  r.TranscriptPath,
		CreatedAt:       d.time("created_at", r.CreatedAt),
	}
	if d.err != nil {
		return Meeting{}, d.err
	}
	return m, nil
}

// ============================================================
// CommunicationLog
// ============================================================

func CommunicationLogToRow(l CommunicationLog, now time.Time) CommunicationLogRow {
	return CommunicationLogRow{
		ID:             l.ID,
		Channel:        string(l.Channel),
		Summary:        l.Summary,
		Importance:     int64(l.Importance),
		ActionRequired: boolToInt(l.ActionRequired),
		LoggedAt:       formatTime(stamp(l.LoggedAt, now)),
	}
}

func RowToCommunicationLog(r CommunicationLogRow) (CommunicationLog, error) {
	d := &decoder{table: "communication_logs", id: r.ID}
	l := CommunicationLog{
		ID:             r.ID,
		Channel:        Channel(r.Channel),
		Summary:        r.Summary,
		Importance:     int(r.Importance),
		ActionRequired: r.ActionRequired != 0,
		LoggedAt:       d.time("logged_at", r.LoggedAt),
	}
	if d.err != nil {
		return CommunicationLog{}, d.err
	}
	return l, nil
}

// ============================================================
// Briefing
// ============================================================

func BriefingToRow(b Briefing, now time.Time) BriefingRow {
	return BriefingRow{
		ID:        b.ID,
		Date:      b.Date,
		FilePath:  b.FilePath,
		Data:      *encodeJSON(b.Data, false),
		CreatedAt: formatTime(stamp(b.CreatedAt, now)),
	}
}

func RowToBriefing(r BriefingRow) (Briefing, error) {
	d := &decoder{table: "briefings", id: r.ID}
	b := Briefing{
		ID:        r.ID,
		Date:      r.Date,
		FilePath:  r.FilePath,
		Data:      decodeInto[BriefingData](d, "data", r.Data),
		CreatedAt: d.time("created_at", r.CreatedAt),
	}
	if d.err != nil {
		return Briefing{}, d.err
	}
	return b, nil
}

// ============================================================
// Summary
// ============================================================

func SummaryToRow(s Summary, now time.Time) SummaryRow {
	return SummaryRow{
		ID:              s.ID,
		Fidelity:        string(s.Fidelity),
		Period:          s.Period,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		FilePath:        s.FilePath,
		SourceSummaries: encodeStrings(s.SourceSummaries),
		Stats:           encodeJSON(s.Stats, s.Stats == nil),
		GeneratedAt:     formatTime(stamp(s.GeneratedAt, now)),
	}
}

func RowToSummary(r SummaryRow) (Summary, error) {
	d := &decoder{table: "summaries", id: r.ID}
	s := Summary{
		ID:              r.ID,
		Fidelity:        Fidelity(r.Fidelity),
		Period:          r.Period,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		FilePath:        r.FilePath,
		SourceSummaries: d.strings("source_summaries", r.SourceSummaries),
		GeneratedAt:     d.time("generated_at", r.GeneratedAt),
	}
	if r.Stats != nil {
		stats := decodeInto[SummaryStats](d, "stats", *r.Stats)
		s.Stats = &stats
	}
	if d.err != nil {
		return Summary{}, d.err
	}
	return s, nil
}

// ============================================================
// SummaryTodoLink
// ============================================================

func SummaryTodoLinkToRow(l SummaryTodoLink, now time.Time) SummaryTodoLinkRow {
	return SummaryTodoLinkRow{
		SummaryID:        l.SummaryID,
		TodoID:           l.TodoID,
		CreatedBySummary: boolToInt(l.CreatedBySummary),
		CreatedAt:        formatTime(stamp(l.CreatedAt, now)),
	}
}

func RowToSummaryTodoLink(r SummaryTodoLinkRow) (SummaryTodoLink, error) {
	d := &decoder{table: "summary_todos", id: r.SummaryID + "/" + r.TodoID}
	l := SummaryTodoLink{
		SummaryID:        r.SummaryID,
		TodoID:           r.TodoID,
		CreatedBySummary: r.CreatedBySummary != 0,
		CreatedAt:        d.time("created_at", r.CreatedAt),
	}
	if d.err != nil {
		return SummaryTodoLink{}, d.err
	}
	return l, nil
}

// ============================================================
// Preference
// ============================================================

func rowToPreference(r PreferenceRow) (Preference, error) {
	d := &decoder{table: "preferences", id: r.Key}
	p := Preference{Key: r.Key, Value: r.Value, UpdatedAt: d.time("updated_at", r.UpdatedAt)}
	if d.err != nil {
		return Preference{}, d.err
	}
	return p, nil
}
