package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/nova/internal/nova"
)

const pickerVisible = 15

// Option is one choice in a picker.
type Option struct {
	ID     nova.ID
	Label  string
	Detail string
}

type pickerModel struct {
	title    string
	options  []Option
	filtered []int // indices into options
	cursor   int
	filter   textinput.Model
	chosen   int
	done     bool
	canceled bool
}

func newPicker(title string, options []Option) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Focus()

	filtered := make([]int, len(options))
	for i := range options {
		filtered[i] = i
	}

	return pickerModel{
		title:    title,
		options:  options,
		filtered: filtered,
		filter:   ti,
		chosen:   -1,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (pickerModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.canceled = true
			return m, nil
		case "enter":
			if len(m.filtered) > 0 {
				m.chosen = m.filtered[m.cursor]
				m.done = true
			}
			return m, nil
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	prevFilter := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)

	if m.filter.Value() != prevFilter {
		m.applyFilter()
	}

	return m, cmd
}

func (m *pickerModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	m.filtered = m.filtered[:0]
	for i, o := range m.options {
		if query == "" ||
			strings.Contains(strings.ToLower(o.Label), query) ||
			strings.Contains(strings.ToLower(o.Detail), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// Selected returns the chosen option once the user pressed enter.
func (m pickerModel) Selected() (Option, bool) {
	if !m.done || m.chosen < 0 {
		return Option{}, false
	}
	return m.options[m.chosen], true
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  Nothing matches the filter"))
		b.WriteString("\n")
	} else {
		start := 0
		if m.cursor >= pickerVisible {
			start = m.cursor - pickerVisible + 1
		}
		end := min(start+pickerVisible, len(m.filtered))

		for vi := start; vi < end; vi++ {
			o := m.options[m.filtered[vi]]

			detail := ""
			if o.Detail != "" {
				detail = dimStyle.Render(" · " + truncate(o.Detail, 50))
			}

			if vi == m.cursor {
				b.WriteString(highlightStyle.Render("> "+o.Label) + detail)
			} else {
				b.WriteString("  " + o.Label + detail)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"%d of %d · ↑/↓: move · Enter: choose · Esc: cancel", len(m.filtered), len(m.options))))

	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
