package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/nova/internal/nova"
)

type viewState int

const (
	projectView viewState = iota
	typeView
	commentsView
	reviewView
	submittingView
	confirmationView
)

// SubmitFunc sends a finished draft to Nova.
type SubmitFunc func(ctx context.Context, d Draft) (*nova.Activity, error)

type Result struct {
	Canceled bool
	Draft    Draft
	Activity *nova.Activity
	Err      error
}

type submitMsg struct {
	activity *nova.Activity
	err      error
}

// App is the Bubbletea model behind `nova log`: pick a project, pick an
// activity type, describe the work, review, submit.
type App struct {
	state    viewState
	projects pickerModel
	types    pickerModel
	input    inputModel
	edit     editModel
	spinner  spinner.Model
	result   *Result
	errMsg   string

	ctx     context.Context
	draft   Draft
	submit  SubmitFunc
	timeout time.Duration
}

// NewApp builds the flow. Submissions run under ctx, so cancelling it aborts
// a create that is still in flight.
func NewApp(ctx context.Context, projects, types []Option, date time.Time, hours float64, submit SubmitFunc) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot

	if hours <= 0 {
		hours = 1
	}

	return &App{
		state:    projectView,
		projects: newPicker("Select Project", projects),
		types:    newPicker("Select Activity Type", types),
		spinner:  s,
		ctx:      ctx,
		draft:    Draft{Date: date, Hours: hours},
		submit:   submit,
		timeout:  60 * time.Second,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.projects.Init(), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.result = &Result{Canceled: true, Draft: a.draft}
			return a, tea.Quit
		}
	case submitMsg:
		return a.handleSubmit(msg)
	}

	switch a.state {
	case projectView:
		return a.updateProjects(msg)
	case typeView:
		return a.updateTypes(msg)
	case commentsView:
		return a.updateComments(msg)
	case reviewView:
		return a.updateReview(msg)
	case submittingView:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case confirmationView:
		if _, ok := msg.(tea.KeyMsg); ok {
			return a, tea.Quit
		}
	}

	return a, nil
}

func (a *App) View() string {
	switch a.state {
	case projectView:
		return a.projects.View()
	case typeView:
		return subtitleStyle.Render(a.draft.ProjectName) + "\n" + a.types.View()
	case commentsView:
		return a.input.View()
	case reviewView:
		return a.edit.View()
	case submittingView:
		return a.spinner.View() + " Creating activity..."
	case confirmationView:
		if a.errMsg != "" {
			return errorStyle.Render("Error: ") + a.errMsg + "\n\n" + helpStyle.Render("Press any key to exit")
		}
		msg := "Activity logged"
		if a.result != nil && a.result.Activity != nil {
			msg = fmt.Sprintf("Activity %s logged: %s on %s",
				a.result.Activity.ID, formatHours(a.draft.Hours), a.draft.ProjectName)
		}
		return successStyle.Render(msg) + "\n\n" + helpStyle.Render("Press any key to exit")
	}
	return ""
}

func (a *App) GetResult() *Result {
	return a.result
}

func (a *App) updateProjects(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.projects, cmd = a.projects.Update(msg)

	if a.projects.canceled {
		a.result = &Result{Canceled: true}
		return a, tea.Quit
	}
	if o, ok := a.projects.Selected(); ok {
		a.draft.ProjectID = o.ID
		a.draft.ProjectName = o.Label
		a.state = typeView
		return a, a.types.Init()
	}
	return a, cmd
}

func (a *App) updateTypes(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.types, cmd = a.types.Update(msg)

	if a.types.canceled {
		a.types = newPicker(a.types.title, a.types.options)
		a.projects.done = false
		a.state = projectView
		return a, nil
	}
	if o, ok := a.types.Selected(); ok {
		a.draft.TypeID = o.ID
		a.draft.TypeName = o.Label
		a.state = commentsView
		info := fmt.Sprintf("%s · %s · %s", a.draft.ProjectName, a.draft.TypeName, a.draft.Date.Format("Mon 2006-01-02"))
		a.input = newInputModel(info, a.draft.Comments)
		return a, a.input.textarea.Focus()
	}
	return a, cmd
}

func (a *App) updateComments(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			a.draft.Comments = a.input.Value()
			a.edit = newEditModel(a.draft)
			a.state = reviewView
			return a, nil
		case "esc":
			a.draft.Comments = a.input.Value()
			a.types = newPicker(a.types.title, a.types.options)
			a.state = typeView
			return a, a.types.Init()
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) updateReview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && !a.edit.editing {
		switch keyMsg.String() {
		case "y":
			a.draft = a.edit.draft
			a.state = submittingView
			return a, tea.Batch(a.spinner.Tick, a.submitDraft(a.draft))
		case "esc":
			a.draft = a.edit.draft
			a.input = newInputModel(a.input.info, a.draft.Comments)
			a.state = commentsView
			return a, a.input.textarea.Focus()
		}
	}

	var cmd tea.Cmd
	a.edit, cmd = a.edit.Update(msg)
	return a, cmd
}

func (a *App) handleSubmit(msg submitMsg) (tea.Model, tea.Cmd) {
	a.state = confirmationView
	a.result = &Result{Draft: a.draft, Activity: msg.activity, Err: msg.err}
	if msg.err != nil {
		a.errMsg = msg.err.Error()
	}
	return a, nil
}

func (a *App) submitDraft(d Draft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
		defer cancel()

		activity, err := a.submit(ctx, d)
		return submitMsg{activity: activity, err: err}
	}
}

func formatHours(h float64) string {
	if h == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%g hours", h)
}
