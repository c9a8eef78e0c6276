package mcp

// In this file: meeting and communication log tools.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/sadopc/ctxstore/internal/store"
	"github.com/sadopc/ctxstore/internal/timeparse"
)

// ─── create_meeting ───────────────────────────────────────────────────────────

func (s *Server) toolCreateMeeting() mcpsrv.ServerTool {
	tool := mcplib.NewTool("create_meeting",
		mcplib.WithDescription(`Record a meeting with preparation notes.

If calendarEventId matches a stored meeting, that meeting is updated with the
given fields instead of creating a second one.`),
		mcplib.WithString("title", mcplib.Required()),
		mcplib.WithString("startTime", mcplib.Description("RFC 3339 timestamp."), mcplib.Required()),
		mcplib.WithString("endTime", mcplib.Description("RFC 3339 timestamp."), mcplib.Required()),
		mcplib.WithString("calendarEventId"),
		mcplib.WithArray("attendees", mcplib.WithStringItems()),
		mcplib.WithArray("talkingPoints", mcplib.WithStringItems()),
		mcplib.WithString("contextNotes"),
		mcplib.WithString("transcriptPath"),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateMeeting}
}

func (s *Server) handleCreateMeeting(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var in store.Meeting
	if err := bindArgs(req, &in); err != nil {
		return resultErr(fmt.Errorf("create_meeting: invalid arguments: %w", err)), nil
	}
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return resultErr(errors.New("create_meeting: title is required")), nil
	case in.StartTime.IsZero() || in.EndTime.IsZero():
		return resultErr(errors.New("create_meeting: startTime and endTime are required")), nil
	case in.EndTime.Before(in.StartTime):
		return resultErr(errors.New("create_meeting: endTime is before startTime")), nil
	}

	if in.CalendarEventID != nil && *in.CalendarEventID != "" {
		existing, err := s.store.GetMeetingByCalendarEventID(*in.CalendarEventID)
		if err != nil {
			return resultErr(fmt.Errorf("create_meeting: %w", err)), nil
		}
		if existing != nil {
			m, err := s.store.UpdateMeeting(existing.ID, meetingPatch(in))
			if err != nil {
				return resultErr(fmt.Errorf("create_meeting: %w", err)), nil
			}
			s.logger.InfoContext(ctx, "mcp: create_meeting: updated existing", "id", existing.ID)
			return respond("create_meeting", m)
		}
	}

	m, err := s.store.CreateMeeting(in)
	if err != nil {
		return resultErr(fmt.Errorf("create_meeting: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: create_meeting", "id", m.ID)
	return respond("create_meeting", m)
}

// meetingPatch sets every field of m that carries a value.
func meetingPatch(m store.Meeting) store.MeetingPatch {
	p := store.MeetingPatch{
		Title:          &m.Title,
		StartTime:      &m.StartTime,
		EndTime:        &m.EndTime,
		ContextNotes:   m.ContextNotes,
		TranscriptPath: m.TranscriptPath,
	}
	if m.Attendees != nil {
		p.Attendees = &m.Attendees
	}
	if m.TalkingPoints != nil {
		p.TalkingPoints = &m.TalkingPoints
	}
	return p
}

// ─── get_meeting ──────────────────────────────────────────────────────────────

func (s *Server) toolGetMeeting() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_meeting",
		mcplib.WithDescription("Get a meeting by id or by calendarEventId."),
		mcplib.WithString("id"),
		mcplib.WithString("calendarEventId"),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetMeeting}
}

func (s *Server) handleGetMeeting(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var (
		m   *store.Meeting
		err error
		key string
	)
	if id, ok := stringArg(req, "id"); ok && id != "" {
		key = id
		m, err = s.store.GetMeeting(id)
	} else if ev, ok := stringArg(req, "calendarEventId"); ok && ev != "" {
		key = ev
		m, err = s.store.GetMeetingByCalendarEventID(ev)
	} else {
		return resultErr(errors.New("get_meeting: id or calendarEventId is required")), nil
	}
	if err != nil {
		return resultErr(fmt.Errorf("get_meeting: %w", err)), nil
	}
	if m == nil {
		return resultText(fmt.Sprintf("No meeting found for %q.", key)), nil
	}
	return respond("get_meeting", m)
}

// ─── list_meetings ────────────────────────────────────────────────────────────

func (s *Server) toolListMeetings() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_meetings",
		mcplib.WithDescription(`List meetings by start time, earliest first.

startAfter (inclusive) and startBefore (exclusive) accept RFC 3339, YYYY-MM-DD,
compact durations ("+7d") or natural language ("next friday").`),
		mcplib.WithString("startAfter"),
		mcplib.WithString("startBefore"),
		mcplib.WithNumber("limit", mcplib.Description("Maximum number of meetings (1-500, default 50).")),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListMeetings}
}

func (s *Server) handleListMeetings(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	f := store.MeetingFilter{Limit: limitArg(req)}
	now := s.now()
	for name, dst := range map[string]**time.Time{"startAfter": &f.StartAfter, "startBefore": &f.StartBefore} {
		raw := optStringArg(req, name)
		if raw == nil {
			continue
		}
		t, err := timeparse.Parse(*raw, now)
		if err != nil {
			return resultErr(fmt.Errorf("list_meetings: %s: %w", name, err)), nil
		}
		*dst = &t
	}

	meetings, err := s.store.ListMeetings(f)
	if err != nil {
		return resultErr(fmt.Errorf("list_meetings: %w", err)), nil
	}
	return respond("list_meetings", orEmpty(meetings))
}

// ─── log_communication ────────────────────────────────────────────────────────

func (s *Server) toolLogCommunication() mcpsrv.ServerTool {
	tool := mcplib.NewTool("log_communication",
		mcplib.WithDescription("Append a communication log entry summarising an email, Slack thread, GitHub notification or Linear update."),
		mcplib.WithString("channel", mcplib.Enum("email", "slack", "github", "linear"), mcplib.Required()),
		mcplib.WithString("summary", mcplib.Required()),
		mcplib.WithNumber("importance", mcplib.Description("1 to 5, default 3.")),
		mcplib.WithBoolean("actionRequired"),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleLogCommunication}
}

func (s *Server) handleLogCommunication(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ch, _ := stringArg(req, "channel")
	summary, _ := stringArg(req, "summary")
	in := store.CommunicationLog{
		Channel:        store.Channel(ch),
		Summary:        strings.TrimSpace(summary),
		Importance:     intArg(req, "importance", 3),
		ActionRequired: boolArg(req, "actionRequired", false),
	}
	switch {
	case !in.Channel.Valid():
		return resultErr(fmt.Errorf("log_communication: unknown channel %q", ch)), nil
	case in.Summary == "":
		return resultErr(errors.New("log_communication: summary is required")), nil
	case !store.ValidScore(in.Importance):
		return resultErr(fmt.Errorf("log_communication: importance must be 1-5, got %d", in.Importance)), nil
	}

	l, err := s.store.CreateCommunicationLog(in)
	if err != nil {
		return resultErr(fmt.Errorf("log_communication: %w", err)), nil
	}
	s.logger.InfoContext(ctx, "mcp: log_communication", "id", l.ID, "channel", l.Channel)
	return respond("log_communication", l)
}

// ─── list_communications ──────────────────────────────────────────────────────

func (s *Server) toolListCommunications() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_communications",
		mcplib.WithDescription("List communication log entries, newest first."),
		mcplib.WithString("channel", mcplib.Enum("email", "slack", "github", "linear")),
		mcplib.WithBoolean("actionRequired", mcplib.Description("Filter on the action-required flag.")),
		mcplib.WithNumber("limit", mcplib.Description("Maximum number of entries (1-500, default 50).")),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListCommunications}
}

func (s *Server) handleListCommunications(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	f := store.CommunicationFilter{
		ActionRequired: optBoolArg(req, "actionRequired"),
		Limit:          limitArg(req),
	}
	if ch := optStringArg(req, "channel"); ch != nil {
		c := store.Channel(*ch)
		f.Channel = &c
	}
	logs, err := s.store.ListCommunicationLogs(f)
	if err != nil {
		return resultErr(fmt.Errorf("list_communications: %w", err)), nil
	}
	return respond("list_communications", orEmpty(logs))
}
