package store

import (
	"fmt"
	"time"
)

var (
	selectMeetingsSQL = "SELECT " + selectList("", meetingColumns) + " FROM meetings"
	insertMeetingSQL  = insertStmt("meetings", meetingColumns)
	updateMeetingSQL  = updateStmt("meetings", "id", meetingColumns)
)

// MeetingField names an optional meeting attribute that a patch may clear.
type MeetingField string

const (
	MeetingCalendarEventID MeetingField = "calendarEventId"
	MeetingAttendees       MeetingField = "attendees"
	MeetingTalkingPoints   MeetingField = "talkingPoints"
	MeetingContextNotes    MeetingField = "contextNotes"
	MeetingTranscriptPath  MeetingField = "transcriptPath"
)

// MeetingPatch follows the TodoPatch contract: nil leaves a field alone and
// Clear nulls it.
type MeetingPatch struct {
	Title           *string    `json:"title,omitempty"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	CalendarEventID *string    `json:"calendarEventId,omitempty"`
	Attendees       *[]string  `json:"attendees,omitempty"`
	TalkingPoints   *[]string  `json:"talkingPoints,omitempty"`
	ContextNotes    *string    `json:"contextNotes,omitempty"`
	TranscriptPath  *string    `json:"transcriptPath,omitempty"`

	Clear []MeetingField `json:"clear,omitempty"`
}

func (p MeetingPatch) validate() error {
	for _, f := range p.Clear {
		var set bool
		switch f {
		case MeetingCalendarEventID:
			set = p.CalendarEventID != nil
		case MeetingAttendees:
			set = p.Attendees != nil
		case MeetingTalkingPoints:
			set = p.TalkingPoints != nil
		case MeetingContextNotes:
			set = p.ContextNotes != nil
		case MeetingTranscriptPath:
			set = p.TranscriptPath != nil
		default:
			return fmt.Errorf("%w: %s", ErrFieldNotClearable, f)
		}
		if set {
			return fmt.Errorf("%w: %s", ErrPatchConflict, f)
		}
	}
	return nil
}

func (p MeetingPatch) apply(m *Meeting) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.StartTime != nil {
		m.StartTime = p.StartTime.UTC().Truncate(time.Millisecond)
	}
	if p.EndTime != nil {
		m.EndTime = p.EndTime.UTC().Truncate(time.Millisecond)
	}
	if p.CalendarEventID != nil {
		m.CalendarEventID = p.CalendarEventID
	}
	if p.Attendees != nil {
		m.Attendees = *p.Attendees
	}
	if p.TalkingPoints != nil {
		m.TalkingPoints = *p.TalkingPoints
	}
	if p.ContextNotes != nil {
		m.ContextNotes = p.ContextNotes
	}
	if p.TranscriptPath != nil {
		m.TranscriptPath = p.TranscriptPath
	}
	for _, f := range p.Clear {
		switch f {
		case MeetingCalendarEventID:
			m.CalendarEventID = nil
		case MeetingAttendees:
			m.Attendees = nil
		case MeetingTalkingPoints:
			m.TalkingPoints = nil
		case MeetingContextNotes:
			m.ContextNotes = nil
		case MeetingTranscriptPath:
			m.TranscriptPath = nil
		}
	}
}

func (s *Store) CreateMeeting(in Meeting) (*Meeting, error) {
	now := s.clock()
	m := in
	m.ID = s.newID()
	m.CreatedAt = now

	if _, err := s.db.NamedExec(insertMeetingSQL, MeetingToRow(m, now)); err != nil {
		return nil, fmt.Errorf("insert meeting: %w", err)
	}
	return s.GetMeeting(m.ID)
}

func (s *Store) GetMeeting(id string) (*Meeting, error) {
	m, err := queryOne(s.db, RowToMeeting, selectMeetingsSQL+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get meeting %s: %w", id, err)
	}
	return m, nil
}

func (s *Store) GetMeetingByCalendarEventID(eventID string) (*Meeting, error) {
	m, err := queryOne(s.db, RowToMeeting,
		selectMeetingsSQL+` WHERE calendar_event_id = ? ORDER BY created_at DESC LIMIT 1`, eventID)
	if err != nil {
		return nil, fmt.Errorf("get meeting by event %s: %w", eventID, err)
	}
	return m, nil
}

// ListMeetings returns meetings by start time, earliest first. StartAfter is
// inclusive and StartBefore exclusive.
func (s *Store) ListMeetings(f MeetingFilter) ([]Meeting, error) {
	query := selectMeetingsSQL + ` WHERE 1=1`
	var args []any

	if f.StartAfter != nil {
		query += ` AND start_time >= ?`
		args = append(args, formatTime(*f.StartAfter))
	}
	if f.StartBefore != nil {
		query += ` AND start_time < ?`
		args = append(args, formatTime(*f.StartBefore))
	}
	query += ` ORDER BY start_time ASC, id ASC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	meetings, err := queryAll(s.db, RowToMeeting, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

func (s *Store) UpdateMeeting(id string, p MeetingPatch) (*Meeting, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("update meeting %s: %w", id, err)
	}
	cur, err := s.GetMeeting(id)
	if err != nil || cur == nil {
		return nil, err
	}

	m := *cur
	p.apply(&m)
	if _, err := s.db.NamedExec(updateMeetingSQL, MeetingToRow(m, s.clock())); err != nil {
		return nil, fmt.Errorf("update meeting %s: %w", id, err)
	}
	return s.GetMeeting(id)
}

func (s *Store) DeleteMeeting(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete meeting %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
