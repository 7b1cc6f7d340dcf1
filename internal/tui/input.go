package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

const commentsLimit = 500

// inputModel collects the free-text comments of an activity.
type inputModel struct {
	textarea textarea.Model
	info     string
}

func newInputModel(info, prefill string) inputModel {
	ta := textarea.New()
	ta.Placeholder = "What did you work on?"
	ta.CharLimit = commentsLimit
	ta.ShowLineNumbers = false
	ta.SetWidth(64)
	ta.SetHeight(4)
	ta.SetValue(prefill)
	ta.Focus()

	return inputModel{textarea: ta, info: info}
}

func (m inputModel) Update(msg tea.Msg) (inputModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Comments"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(m.info))
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d", m.textarea.Length(), commentsLimit)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Enter: review · Esc: back · Ctrl+C: quit"))
	return b.String()
}

// Value returns the comments with surrounding whitespace removed.
func (m inputModel) Value() string {
	return strings.TrimSpace(m.textarea.Value())
}
