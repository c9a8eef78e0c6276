package export

import (
	"fmt"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/sadopc/ctxstore/internal/store"
)

// BriefingMarkdown renders a daily briefing as Markdown.
func BriefingMarkdown(date string, d store.BriefingData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Briefing for %s\n", date)

	b.WriteString("\n## Calendar\n\n")
	fmt.Fprintf(&b, "- Meetings: %d\n", d.Calendar.MeetingCount)
	fmt.Fprintf(&b, "- Focus time: %s\n", focusTime(d.Calendar.FocusMinutes))
	if d.Calendar.FirstMeeting != "" {
		fmt.Fprintf(&b, "- First meeting: %s\n", d.Calendar.FirstMeeting)
	}
	if len(d.Calendar.Meetings) > 0 {
		b.WriteString("\n")
		for _, m := range d.Calendar.Meetings {
			fmt.Fprintf(&b, "- %s-%s %s\n", m.StartTime, m.EndTime, m.Title)
		}
	}

	c := d.Communications
	b.WriteString("\n## Communications\n\n")
	fmt.Fprintf(&b, "- Email: %d\n- Slack: %d\n- GitHub: %d\n- Linear: %d\n", c.Email, c.Slack, c.GitHub, c.Linear)
	fmt.Fprintf(&b, "- Action required: %d\n", c.ActionRequired)

	b.WriteString("\n## Todos\n\n")
	if len(d.Todos) == 0 {
		b.WriteString("_Nothing due._\n")
	}
	for i, t := range d.Todos {
		fmt.Fprintf(&b, "%d. [P%d] %s", i+1, t.Priority, t.Title)
		if t.DueDate != "" {
			fmt.Fprintf(&b, " (due %s)", t.DueDate)
		}
		b.WriteString("\n")
	}

	in := d.Incidents
	b.WriteString("\n## Incidents\n\n")
	fmt.Fprintf(&b, "- Open: %d (critical: %d)\n- Resolved: %d\n", in.Open, in.Critical, in.Resolved)

	if len(d.TeamUpdates) > 0 {
		b.WriteString("\n## Team updates\n\n")
		for _, u := range d.TeamUpdates {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	return b.String()
}

// WriteBriefing renders the briefing and writes it to path atomically.
func WriteBriefing(path, date string, d store.BriefingData) error {
	if err := atomic.WriteFile(path, strings.NewReader(BriefingMarkdown(date, d))); err != nil {
		return fmt.Errorf("write briefing %s: %w", date, err)
	}
	return nil
}

func focusTime(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
