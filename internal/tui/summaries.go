package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/ctxstore/internal/store"
)

const summaryListLimit = 50

type summariesModel struct {
	store  *store.Store
	width  int
	height int

	summaries []store.Summary
	cursor    int
	fidelity  int // index into fidelityFilters
	progress  store.SummaryProgress

	chart barchart.Model
}

// fidelityFilters is cycled with f; the empty entry shows every fidelity.
var fidelityFilters = append([]store.Fidelity{""}, store.Fidelities...)

func newSummariesModel(s *store.Store) summariesModel {
	return summariesModel{
		store: s,
		chart: barchart.New(40, 10),
	}
}

func (m *summariesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type summariesDataMsg struct {
	summaries []store.Summary
	err       error
}

type summaryProgressMsg struct {
	period   string
	progress store.SummaryProgress
	err      error
}

func (m summariesModel) refresh() tea.Cmd {
	f := store.SummaryFilter{Limit: summaryListLimit}
	if fd := fidelityFilters[m.fidelity]; fd != "" {
		f.Fidelity = &fd
	}
	return func() tea.Msg {
		list, err := m.store.ListSummaries(f)
		return summariesDataMsg{summaries: list, err: err}
	}
}

func (m summariesModel) loadProgress() tea.Cmd {
	if m.cursor >= len(m.summaries) {
		return nil
	}
	period := m.summaries[m.cursor].Period
	return func() tea.Msg {
		p, err := m.store.GetTodoSummaryProgress(period)
		return summaryProgressMsg{period: period, progress: p, err: err}
	}
}

func (m summariesModel) update(msg tea.Msg) (summariesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case summariesDataMsg:
		if msg.err != nil {
			return m, statusCmd(fmt.Sprintf("Load summaries: %v", msg.err), true)
		}
		m.summaries = msg.summaries
		if m.cursor >= len(m.summaries) {
			m.cursor = max(0, len(m.summaries)-1)
		}
		m.progress = store.SummaryProgress{}
		m.buildChart()
		return m, m.loadProgress()

	case summaryProgressMsg:
		if msg.err != nil {
			return m, statusCmd(fmt.Sprintf("Load progress: %v", msg.err), true)
		}
		// Drop stale results from a previous selection.
		if m.cursor < len(m.summaries) && m.summaries[m.cursor].Period == msg.period {
			m.progress = msg.progress
			m.buildChart()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				return m, m.loadProgress()
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.summaries)-1 {
				m.cursor++
				return m, m.loadProgress()
			}
		case key.Matches(msg, keys.Filter):
			m.fidelity = (m.fidelity + 1) % len(fidelityFilters)
			m.cursor = 0
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m *summariesModel) buildChart() {
	chartWidth := max(20, min(m.width-8, 60))
	chartHeight := 10
	if m.height > 30 {
		chartHeight = 14
	}
	m.chart = barchart.New(chartWidth, chartHeight)

	bar := func(label string, v int, c lipgloss.TerminalColor) barchart.BarData {
		return barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  label,
				Value: float64(v),
				Style: lipgloss.NewStyle().Foreground(c),
			}},
		}
	}
	p := m.progress
	m.chart.PushAll([]barchart.BarData{
		bar("Created", p.Created, colorPrimary),
		bar("Pending", p.Pending, colorWarning),
		bar("Active", p.InProgress, colorSecondary),
		bar("Done", p.Completed, colorSuccess),
	})
	m.chart.Draw()
}

func (m summariesModel) view() string {
	w := m.width - 4
	label := "all"
	if fd := fidelityFilters[m.fidelity]; fd != "" {
		label = string(fd)
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Summaries"), "  ", mutedStyle.Render("fidelity: "+label),
	)
	nav := mutedStyle.Render("  ↑/↓: select  f: cycle fidelity")

	if len(m.summaries) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("No summaries yet."), "", nav,
		))
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %-12s %-23s", "Fidelity", "Period", "Range")))
	for i, sm := range m.summaries {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-10s %-12s %s to %s",
			cursor, sm.Fidelity, sm.Period, sm.StartDate, sm.EndDate)))
	}
	list := strings.Join(rows, "\n")

	sel := m.summaries[m.cursor]
	p := m.progress
	stats := mutedStyle.Render(fmt.Sprintf("  %s: %d created, %d pending, %d in progress, %d completed",
		sel.Period, p.Created, p.Pending, p.InProgress, p.Completed))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "", list, "", m.chart.View(), stats, "", mutedStyle.Render("  "+sel.FilePath), "", nav,
	))
}
