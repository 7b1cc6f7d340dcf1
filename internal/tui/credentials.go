package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Credentials is what the sign-in prompt collected.
type Credentials struct {
	Username string
	Password string
	Canceled bool
}

// CredentialsApp asks for a username and a masked password.
type CredentialsApp struct {
	inputs  []textinput.Model
	focused int
	errMsg  string
	result  *Credentials
}

func NewCredentialsApp(username string) *CredentialsApp {
	user := textinput.New()
	user.Placeholder = "jane.doe@example.com"
	user.Prompt = "Username: "
	user.CharLimit = 200
	user.SetValue(username)

	pass := textinput.New()
	pass.Prompt = "Password: "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 200

	a := &CredentialsApp{inputs: []textinput.Model{user, pass}}
	if username != "" {
		a.focused = 1
	}
	a.inputs[a.focused].Focus()
	return a
}

func (a *CredentialsApp) Init() tea.Cmd {
	return textinput.Blink
}

func (a *CredentialsApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c", "esc":
			a.result = &Credentials{Canceled: true}
			return a, tea.Quit
		case "tab", "shift+tab", "up", "down":
			return a, a.focus((a.focused + 1) % len(a.inputs))
		case "enter":
			if a.focused == 0 {
				return a, a.focus(1)
			}
			user := strings.TrimSpace(a.inputs[0].Value())
			pass := a.inputs[1].Value()
			if user == "" || pass == "" {
				a.errMsg = "username and password are required"
				return a, nil
			}
			a.result = &Credentials{Username: user, Password: pass}
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	a.inputs[a.focused], cmd = a.inputs[a.focused].Update(msg)
	return a, cmd
}

func (a *CredentialsApp) focus(i int) tea.Cmd {
	a.inputs[a.focused].Blur()
	a.focused = i
	return a.inputs[i].Focus()
}

func (a *CredentialsApp) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in to Nova"))
	b.WriteString("\n")
	for _, in := range a.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if a.errMsg != "" {
		b.WriteString(errorStyle.Render(a.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("Tab: switch field • Enter: sign in • Esc: cancel"))
	return b.String()
}

func (a *CredentialsApp) GetResult() *Credentials {
	return a.result
}
