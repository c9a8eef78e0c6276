package tui

import (
	"time"

	"github.com/dustin/go-humanize"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTodos viewState = iota
	viewMeetings
	viewSummaries
	viewPreferences
)

var viewNames = []string{"Todos", "Meetings", "Summaries", "Preferences"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

const dateLayout = "2006-01-02"

// formatDue renders a YYYY-MM-DD date relative to now's day. Unparseable
// dates are returned as-is.
func formatDue(date string, now time.Time) (text string, overdue bool) {
	due, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return date, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case due.Equal(today):
		return "today", false
	case due.Before(today):
		return humanize.RelTime(due, today, "overdue", "from now"), true
	}
	return humanize.RelTime(due, today, "ago", "from now"), false
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
