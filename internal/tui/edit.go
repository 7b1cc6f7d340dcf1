package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/nova/internal/nova"
)

// Draft is an activity assembled in the form, not yet sent.
type Draft struct {
	ProjectID   nova.ID
	ProjectName string
	TypeID      nova.ID
	TypeName    string
	Date        time.Time
	Hours       float64
	Comments    string
	Ticket      string
}

type editField int

const (
	editHours editField = iota
	editTicket
	editComments
	editFieldCount
)

var editFieldNames = []string{"Hours", "Ticket", "Comments"}

type editModel struct {
	draft     Draft
	field     editField
	textInput textinput.Model
	editing   bool
	errMsg    string
}

func newEditModel(d Draft) editModel {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 50

	return editModel{
		draft:     d,
		textInput: ti,
	}
}

func (m editModel) Update(msg tea.Msg) (editModel, tea.Cmd) {
	if m.editing {
		return m.updateEditing(msg)
	}
	return m.updateNavigating(msg)
}

func (m editModel) updateNavigating(msg tea.Msg) (editModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "up", "k":
			if m.field > 0 {
				m.field--
			}
		case "down", "j":
			if m.field < editFieldCount-1 {
				m.field++
			}
		case "tab":
			m.field = (m.field + 1) % editFieldCount
		case "enter":
			m.editing = true
			m.errMsg = ""
			switch m.field {
			case editHours:
				m.textInput.SetValue(strconv.FormatFloat(m.draft.Hours, 'f', -1, 64))
				m.textInput.Placeholder = "Hours"
			case editTicket:
				m.textInput.SetValue(m.draft.Ticket)
				m.textInput.Placeholder = "Ticket"
			case editComments:
				m.textInput.SetValue(m.draft.Comments)
				m.textInput.Placeholder = "Comments"
			}
			cmd := m.textInput.Focus()
			return m, cmd
		}
	}
	return m, nil
}

func (m editModel) updateEditing(msg tea.Msg) (editModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if err := m.applyEdit(); err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.editing = false
			m.textInput.Blur()
			return m, nil
		case "esc":
			m.editing = false
			m.errMsg = ""
			m.textInput.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *editModel) applyEdit() error {
	v := strings.TrimSpace(m.textInput.Value())
	switch m.field {
	case editHours:
		h, err := parseHours(v)
		if err != nil {
			return err
		}
		m.draft.Hours = h
	case editTicket:
		m.draft.Ticket = v
	case editComments:
		m.draft.Comments = v
	}
	return nil
}

// parseHours accepts decimal hours ("1.5") or h:mm ("1:30").
func parseHours(s string) (float64, error) {
	if h, mm, ok := strings.Cut(s, ":"); ok {
		hours, err := strconv.Atoi(h)
		if err != nil {
			return 0, fmt.Errorf("invalid hours %q", s)
		}
		minutes, err := strconv.Atoi(mm)
		if err != nil || minutes < 0 || minutes >= 60 {
			return 0, fmt.Errorf("invalid minutes in %q", s)
		}
		s = strconv.FormatFloat(float64(hours)+float64(minutes)/60, 'f', -1, 64)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > 24 {
		return 0, fmt.Errorf("hours must be a number between 0 and 24, got %q", s)
	}
	return v, nil
}

func (m editModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Review Activity"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %-9s %s\n", "Project", m.draft.ProjectName))
	sb.WriteString(fmt.Sprintf("  %-9s %s\n", "Type", m.draft.TypeName))
	sb.WriteString(fmt.Sprintf("  %-9s %s\n", "Date", m.draft.Date.Format("Mon 2006-01-02")))

	values := []string{
		strconv.FormatFloat(m.draft.Hours, 'f', -1, 64),
		m.draft.Ticket,
		m.draft.Comments,
	}
	for i, name := range editFieldNames {
		line := fmt.Sprintf("  %-9s %s", name, values[i])
		if editField(i) == m.field {
			line = highlightStyle.Render(fmt.Sprintf("> %-9s %s", name, values[i]))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if m.editing {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s: %s\n", selectedStyle.Render(editFieldNames[m.field]), m.textInput.View()))
	}
	if m.errMsg != "" {
		sb.WriteString(errorStyle.Render(m.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.editing {
		sb.WriteString(helpStyle.Render("Enter: apply • Esc: discard"))
	} else {
		sb.WriteString(helpStyle.Render("Enter: edit field • j/k: nav • y: submit • Esc: back"))
	}

	return boxStyle.Render(sb.String())
}
