package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/ctxstore/internal/export"
	"github.com/sadopc/ctxstore/internal/store"
)

var exportFormats = []string{"CSV", "JSON"}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	todos       todosModel
	meetings    meetingsModel
	summaries   summariesModel
	preferences preferencesModel

	help        help.Model
	status      string
	statusError bool
}

// NewApp builds the TUI over s. Todo exports are written to exportDir,
// falling back to the home directory when it is empty.
func NewApp(s *store.Store, exportDir string) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:       s,
		exportDir:   exportDir,
		activeView:  viewTodos,
		todos:       newTodosModel(s),
		meetings:    newMeetingsModel(s),
		summaries:   newSummariesModel(s),
		preferences: newPreferencesModel(s),
		help:        h,
	}
}

func (a App) Init() tea.Cmd {
	return a.todos.refresh()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.todos.setSize(a.width, contentHeight)
		a.meetings.setSize(a.width, contentHeight)
		a.summaries.setSize(a.width, contentHeight)
		a.preferences.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewTodos)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewMeetings)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewSummaries)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewPreferences)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	// Data messages go to their owning view regardless of the active tab.
	case todosDataMsg, todoChangedMsg:
		var cmd tea.Cmd
		a.todos, cmd = a.todos.update(msg)
		return a, cmd
	case meetingsDataMsg:
		var cmd tea.Cmd
		a.meetings, cmd = a.meetings.update(msg)
		return a, cmd
	case summariesDataMsg, summaryProgressMsg:
		var cmd tea.Cmd
		a.summaries, cmd = a.summaries.update(msg)
		return a, cmd
	case preferencesDataMsg, preferenceChangedMsg:
		var cmd tea.Cmd
		a.preferences, cmd = a.preferences.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTodos:
		a.todos, cmd = a.todos.update(msg)
	case viewMeetings:
		a.meetings, cmd = a.meetings.update(msg)
	case viewSummaries:
		a.summaries, cmd = a.summaries.update(msg)
	case viewPreferences:
		a.preferences, cmd = a.preferences.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTodos:
		return a.todos.formActive
	case viewPreferences:
		return a.preferences.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTodos:
		return a.todos.refresh()
	case viewMeetings:
		return a.meetings.refresh()
	case viewSummaries:
		return a.summaries.refresh()
	case viewPreferences:
		return a.preferences.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTodos:
		content = a.todos.view()
	case viewMeetings:
		content = a.meetings.view()
	case viewSummaries:
		content = a.summaries.view()
	case viewPreferences:
		content = a.preferences.view()
	}

	contentHeight := max(1, a.height-lipgloss.Height(header)-lipgloss.Height(footer))

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("ctxstore")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	left := footerStyle.Render(a.help.View(keys))

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(status)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export Todos"), "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// exportPath names the export file for format on the given day.
func exportPath(dir string, format int, day time.Time) string {
	ext := "csv"
	if format == 1 {
		ext = "json"
	}
	return filepath.Join(dir, fmt.Sprintf("ctxstore-todos-%s.%s", day.Format(dateLayout), ext))
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		todos, err := a.store.ListTodos(store.TodoFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		dir := a.exportDir
		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		path := exportPath(dir, format, time.Now())

		if format == 0 {
			err = export.ToCSV(todos, path)
		} else {
			err = export.ToJSON(todos, path)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("%s export error: %v", exportFormats[format], err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
