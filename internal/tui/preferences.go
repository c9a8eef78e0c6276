package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/ctxstore/internal/store"
)

type preferencesModel struct {
	store  *store.Store
	width  int
	height int

	prefs  []store.Preference
	cursor int

	formActive bool
	form       *huh.Form
	editing    bool

	// Form values as pointers (survive value copies)
	formKey   *string
	formValue *string
}

func newPreferencesModel(s *store.Store) preferencesModel {
	k, v := "", ""
	return preferencesModel{
		store:     s,
		formKey:   &k,
		formValue: &v,
	}
}

func (p *preferencesModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type preferencesDataMsg struct {
	prefs []store.Preference
	err   error
}

type preferenceChangedMsg struct {
	text string
}

func (p preferencesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		prefs, err := p.store.ListPreferences()
		return preferencesDataMsg{prefs: prefs, err: err}
	}
}

func (p preferencesModel) update(msg tea.Msg) (preferencesModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case preferencesDataMsg:
		if msg.err != nil {
			return p, statusCmd(fmt.Sprintf("Load preferences: %v", msg.err), true)
		}
		p.prefs = msg.prefs
		if p.cursor >= len(p.prefs) {
			p.cursor = max(0, len(p.prefs)-1)
		}
		return p, nil

	case preferenceChangedMsg:
		return p, tea.Batch(p.refresh(), statusCmd(msg.text, false))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.prefs)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.New):
			return p.showForm(nil)
		case key.Matches(msg, keys.Enter):
			if p.cursor < len(p.prefs) {
				pref := p.prefs[p.cursor]
				return p.showForm(&pref)
			}
			return p.showForm(nil)
		case key.Matches(msg, keys.Delete):
			if p.cursor < len(p.prefs) {
				k := p.prefs[p.cursor].Key
				return p, func() tea.Msg {
					if _, err := p.store.DeletePreference(k); err != nil {
						return statusMsg{text: fmt.Sprintf("Delete failed: %v", err), isError: true}
					}
					return preferenceChangedMsg{text: fmt.Sprintf("Removed %q", k)}
				}
			}
		}
	}
	return p, nil
}

// showForm opens the key/value form, prefilled when editing an existing preference.
func (p preferencesModel) showForm(existing *store.Preference) (preferencesModel, tea.Cmd) {
	*p.formKey, *p.formValue = "", ""
	p.editing = existing != nil
	if existing != nil {
		*p.formKey, *p.formValue = existing.Key, existing.Value
	}

	keyInput := huh.NewInput().Title("Key").Value(p.formKey).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("key is required")
			}
			return nil
		})
	fields := []huh.Field{keyInput}
	if p.editing {
		fields = []huh.Field{huh.NewNote().Title("Key").Description(existing.Key)}
	}
	fields = append(fields, huh.NewText().Title("Value").Value(p.formValue))

	p.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p preferencesModel) updateForm(msg tea.Msg) (preferencesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		return p, p.save()
	}
	return p, cmd
}

func (p preferencesModel) save() tea.Cmd {
	k := strings.TrimSpace(*p.formKey)
	v := *p.formValue
	return func() tea.Msg {
		if err := p.store.SetPreference(k, v); err != nil {
			return statusMsg{text: fmt.Sprintf("Save failed: %v", err), isError: true}
		}
		return preferenceChangedMsg{text: fmt.Sprintf("Saved %q", k)}
	}
}

func (p preferencesModel) view() string {
	w := p.width - 4
	title := titleStyle.Render("Preferences")

	if p.formActive && p.form != nil {
		heading := "New preference"
		if p.editing {
			heading = "Edit preference"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, subtitleStyle.Render(heading), "", p.form.View()),
		)
	}

	hint := mutedStyle.Render("n: new  enter: edit  d: delete")

	var rows []string
	rows = append(rows, title, "")

	if len(p.prefs) == 0 {
		rows = append(rows, mutedStyle.Render("No preferences set."))
	}
	for i, pref := range p.prefs {
		cursor := "  "
		keyStyle := lipgloss.NewStyle().Width(24)
		if i == p.cursor {
			cursor = "> "
			keyStyle = keyStyle.Inherit(selectedItemStyle)
		}
		value := highlightStyle.Render(truncate(strings.ReplaceAll(pref.Value, "\n", " "), max(10, w-34)))
		rows = append(rows, cursor+keyStyle.Render(pref.Key)+" "+value)
	}

	rows = append(rows, "", hint)
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
