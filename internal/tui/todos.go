package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/ctxstore/internal/store"
	"github.com/sadopc/ctxstore/internal/timeparse"
)

const todoListLimit = 200

type todosModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	todos       []store.Todo
	cursor      int
	showSnoozed bool

	formActive bool
	form       *huh.Form
	formType   string // "todo", "snooze"
	snoozeID   string

	// Form field pointers (survive value copies)
	formTitle    *string
	formDesc     *string
	formPriority *int
	formDue      *string
	formTags     *string
	formUntil    *string
}

func newTodosModel(s *store.Store) todosModel {
	title, desc, due, tags, until := "", "", "", "", ""
	prio := store.DefaultPriority
	return todosModel{
		store:        s,
		now:          time.Now,
		formTitle:    &title,
		formDesc:     &desc,
		formPriority: &prio,
		formDue:      &due,
		formTags:     &tags,
		formUntil:    &until,
	}
}

func (m *todosModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type todosDataMsg struct {
	todos []store.Todo
	err   error
}

// todoChangedMsg reports a successful mutation; the list reloads on receipt.
type todoChangedMsg struct {
	text string
}

func (m todosModel) refresh() tea.Cmd {
	f := store.TodoFilter{
		Status:         []store.TodoStatus{store.StatusPending, store.StatusInProgress},
		ExcludeSnoozed: !m.showSnoozed,
		Limit:          todoListLimit,
	}
	return func() tea.Msg {
		todos, err := m.store.ListTodos(f)
		return todosDataMsg{todos: todos, err: err}
	}
}

func (m todosModel) selected() (store.Todo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.todos) {
		return store.Todo{}, false
	}
	return m.todos[m.cursor], true
}

func (m todosModel) update(msg tea.Msg) (todosModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case todosDataMsg:
		if msg.err != nil {
			return m, statusCmd(fmt.Sprintf("Load todos: %v", msg.err), true)
		}
		m.todos = msg.todos
		if m.cursor >= len(m.todos) {
			m.cursor = max(0, len(m.todos)-1)
		}
		return m, nil

	case todoChangedMsg:
		return m, tea.Batch(m.refresh(), statusCmd(msg.text, false))

	case tea.KeyMsg:
		return m.updateList(msg)
	}
	return m, nil
}

func (m todosModel) updateList(msg tea.KeyMsg) (todosModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.todos)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.showNewTodoForm()
	case key.Matches(msg, keys.Filter):
		m.showSnoozed = !m.showSnoozed
		m.cursor = 0
		return m, m.refresh()
	case key.Matches(msg, keys.Complete):
		return m, m.act("Completed", m.store.CompleteTodo)
	case key.Matches(msg, keys.Archive):
		return m, m.act("Archived", m.store.ArchiveTodo)
	case key.Matches(msg, keys.Snooze):
		if td, ok := m.selected(); ok {
			if td.Snoozed(m.now()) {
				return m, m.act("Unsnoozed", m.store.UnsnoozeTodo)
			}
			return m.showSnoozeForm(td)
		}
	case key.Matches(msg, keys.Delete):
		if td, ok := m.selected(); ok {
			return m, func() tea.Msg {
				if _, err := m.store.DeleteTodo(td.ID); err != nil {
					return statusMsg{text: fmt.Sprintf("Delete failed: %v", err), isError: true}
				}
				return todoChangedMsg{text: fmt.Sprintf("Deleted %q", td.Title)}
			}
		}
	}
	return m, nil
}

// act runs op on the selected todo.
func (m todosModel) act(verb string, op func(string) (*store.Todo, error)) tea.Cmd {
	td, ok := m.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		if _, err := op(td.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("%s failed: %v", verb, err), isError: true}
		}
		return todoChangedMsg{text: fmt.Sprintf("%s %q", verb, td.Title)}
	}
}

func (m todosModel) showNewTodoForm() (todosModel, tea.Cmd) {
	*m.formTitle = ""
	*m.formDesc = ""
	*m.formPriority = store.DefaultPriority
	*m.formDue = ""
	*m.formTags = ""
	m.formType = "todo"

	prioOptions := make([]huh.Option[int], 0, store.MaxPriority)
	for p := store.MinPriority; p <= store.MaxPriority; p++ {
		label := fmt.Sprintf("P%d", p)
		switch p {
		case store.MinPriority:
			label += " (highest)"
		case store.MaxPriority:
			label += " (lowest)"
		}
		prioOptions = append(prioOptions, huh.NewOption(label, p))
	}

	now := m.now()
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}),
			huh.NewText().Title("Description").Value(m.formDesc),
			huh.NewSelect[int]().Title("Priority").Options(prioOptions...).Value(m.formPriority),
			huh.NewInput().Title("Due (e.g. 2025-03-14, friday, +3d)").Value(m.formDue).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				_, err := timeparse.ParseDate(s, now)
				return err
			}),
			huh.NewInput().Title("Tags (comma-separated)").Value(m.formTags),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m todosModel) showSnoozeForm(td store.Todo) (todosModel, tea.Cmd) {
	*m.formUntil = ""
	m.formType = "snooze"
	m.snoozeID = td.ID

	now := m.now()
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Snooze until").
				Description("tomorrow 9am, next monday, +4h, 2025-03-14").
				Value(m.formUntil).
				Validate(func(s string) error {
					t, err := timeparse.Parse(s, now)
					if err != nil {
						return err
					}
					if !t.After(now) {
						return errors.New("must be in the future")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m todosModel) updateForm(msg tea.Msg) (todosModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		switch m.formType {
		case "todo":
			return m, m.createFromForm()
		case "snooze":
			return m, m.snoozeFromForm()
		}
	}

	return m, cmd
}

func (m todosModel) createFromForm() tea.Cmd {
	now := m.now()
	src := store.SourceManual
	in := store.Todo{
		Title:    strings.TrimSpace(*m.formTitle),
		Priority: *m.formPriority,
		Source:   &src,
		Tags:     splitTags(*m.formTags),
	}
	if d := strings.TrimSpace(*m.formDesc); d != "" {
		in.Description = &d
	}
	if raw := strings.TrimSpace(*m.formDue); raw != "" {
		if due, err := timeparse.ParseDate(raw, now); err == nil {
			in.DueDate = &due
		}
	}
	return func() tea.Msg {
		td, err := m.store.CreateTodo(in)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Create failed: %v", err), isError: true}
		}
		return todoChangedMsg{text: fmt.Sprintf("Created %q", td.Title)}
	}
}

func (m todosModel) snoozeFromForm() tea.Cmd {
	id, raw := m.snoozeID, *m.formUntil
	now := m.now()
	return func() tea.Msg {
		until, err := timeparse.Parse(raw, now)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Snooze: %v", err), isError: true}
		}
		td, err := m.store.SnoozeTodo(id, until)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Snooze failed: %v", err), isError: true}
		}
		if td == nil {
			return statusMsg{text: "Snooze: todo no longer exists", isError: true}
		}
		return todoChangedMsg{text: fmt.Sprintf("Snoozed %q until %s", td.Title, until.Local().Format("Mon Jan 2 15:04"))}
	}
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (m todosModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Todo")
		if m.formType == "snooze" {
			title = titleStyle.Render("Snooze Todo")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}
	return m.renderList()
}

func (m todosModel) renderList() string {
	w := m.width - 4
	label := "Todos"
	if m.showSnoozed {
		label = "Todos (including snoozed)"
	}
	title := titleStyle.Render(label)

	if len(m.todos) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("Nothing to do. Press n to add a todo."),
		)
		return panelStyle.Width(w).Render(content)
	}

	now := m.now()
	titleWidth := max(20, w-40)

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-*s %-16s %s", "", titleWidth, "Title", "Due", "Tags")))

	for i, td := range m.todos {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		prio := priorityStyle(td.Priority).Render(fmt.Sprintf("P%d", td.Priority))

		due := ""
		if td.DueDate != nil {
			text, overdue := formatDue(*td.DueDate, now)
			if overdue {
				due = overdueStyle.Render(fmt.Sprintf("%-16s", text))
			} else {
				due = fmt.Sprintf("%-16s", text)
			}
		} else {
			due = fmt.Sprintf("%-16s", "")
		}

		name := truncate(td.Title, titleWidth)
		if td.Status == store.StatusInProgress {
			name = truncate("▶ "+td.Title, titleWidth)
		}
		row := style.Render(cursor) + prio + " " +
			style.Render(fmt.Sprintf("%-*s", titleWidth, name)) + " " + due
		if len(td.Tags) > 0 {
			row += mutedStyle.Render(" [" + strings.Join(td.Tags, ", ") + "]")
		}
		if td.Snoozed(now) {
			row += snoozedStyle.Render(" snoozed until " + td.SnoozedUntil.Local().Format("Jan 2 15:04"))
		}
		rows = append(rows, row)
	}

	if td, ok := m.selected(); ok {
		rows = append(rows, "", m.renderDetail(td))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  c: complete  z: snooze  a: archive  d: delete  f: toggle snoozed"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m todosModel) renderDetail(td store.Todo) string {
	var parts []string
	if td.Description != nil && *td.Description != "" {
		parts = append(parts, *td.Description)
	}
	var meta []string
	if td.Source != nil {
		src := string(*td.Source)
		if td.SourceID != nil {
			src += " " + *td.SourceID
		}
		meta = append(meta, src)
	}
	if td.Category != nil {
		meta = append(meta, string(*td.Category))
	}
	if td.Deadline != nil {
		meta = append(meta, "deadline "+*td.Deadline)
	}
	if td.SourceURL != nil {
		meta = append(meta, *td.SourceURL)
	}
	if len(meta) > 0 {
		parts = append(parts, strings.Join(meta, " · "))
	}
	if len(parts) == 0 {
		return ""
	}
	return subtitleStyle.Render("  " + strings.Join(parts, "\n  "))
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}
