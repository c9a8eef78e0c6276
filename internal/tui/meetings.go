package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/ctxstore/internal/store"
)

type meetingsModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	meetings []store.Meeting
	cursor   int
	offset   int // weeks from the current one
}

func newMeetingsModel(s *store.Store) meetingsModel {
	return meetingsModel{store: s, now: time.Now}
}

func (m *meetingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type meetingsDataMsg struct {
	meetings []store.Meeting
	err      error
}

// window returns the seven days starting today, shifted by offset weeks.
func (m meetingsModel) window() (time.Time, time.Time) {
	now := m.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 7*m.offset)
	return start, start.AddDate(0, 0, 7)
}

func (m meetingsModel) refresh() tea.Cmd {
	from, to := m.window()
	return func() tea.Msg {
		meetings, err := m.store.ListMeetings(store.MeetingFilter{StartAfter: &from, StartBefore: &to})
		return meetingsDataMsg{meetings: meetings, err: err}
	}
}

func (m meetingsModel) update(msg tea.Msg) (meetingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case meetingsDataMsg:
		if msg.err != nil {
			return m, statusCmd(fmt.Sprintf("Load meetings: %v", msg.err), true)
		}
		m.meetings = msg.meetings
		if m.cursor >= len(m.meetings) {
			m.cursor = max(0, len(m.meetings)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.meetings)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Left):
			m.offset--
			m.cursor = 0
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			m.offset++
			m.cursor = 0
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m meetingsModel) view() string {
	w := m.width - 4
	from, to := m.window()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Mon Jan 02"), to.AddDate(0, 0, -1).Format("Mon Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Meetings"), "  ", dateLabel)
	nav := mutedStyle.Render("  ←/→: previous/next week")

	if len(m.meetings) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("No meetings in this window."), "", nav,
		))
	}

	var rows []string
	rows = append(rows, header, "")

	var lastDay string
	for i, mt := range m.meetings {
		start := mt.StartTime.Local()
		if day := start.Format("Monday, Jan 2"); day != lastDay {
			if lastDay != "" {
				rows = append(rows, "")
			}
			rows = append(rows, highlightStyle.Render("  "+day))
			lastDay = day
		}
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		span := fmt.Sprintf("%s-%s", start.Format("15:04"), mt.EndTime.Local().Format("15:04"))
		rows = append(rows, style.Render(fmt.Sprintf("%s%-11s %s", cursor, span, truncate(mt.Title, max(20, w-20)))))
	}

	if m.cursor < len(m.meetings) {
		if detail := renderMeetingDetail(m.meetings[m.cursor]); detail != "" {
			rows = append(rows, "", detail)
		}
	}

	rows = append(rows, "", nav)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func renderMeetingDetail(mt store.Meeting) string {
	var rows []string
	if len(mt.Attendees) > 0 {
		rows = append(rows, mutedStyle.Render("  With: ")+strings.Join(mt.Attendees, ", "))
	}
	if len(mt.TalkingPoints) > 0 {
		rows = append(rows, mutedStyle.Render("  Talking points:"))
		for _, tp := range mt.TalkingPoints {
			rows = append(rows, "    • "+tp)
		}
	}
	if mt.ContextNotes != nil && *mt.ContextNotes != "" {
		rows = append(rows, subtitleStyle.Render("  "+*mt.ContextNotes))
	}
	return strings.Join(rows, "\n")
}
