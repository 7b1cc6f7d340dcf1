package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/nova/internal/config"
	"github.com/christopherklint97/nova/internal/nova"
	"github.com/christopherklint97/nova/internal/store"
	"github.com/christopherklint97/nova/internal/tui"
)

func runLogin(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	ctx := cmd.Context()

	if save {
		prompt := tui.NewCredentialsApp(e.cfg.Nova.Username)
		if _, err := tea.NewProgram(prompt, tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		creds := prompt.GetResult()
		if creds == nil || creds.Canceled {
			fmt.Println("Nothing saved.")
			return nil
		}
		e.cfg.Nova.Username = creds.Username
		e.cfg.Nova.Password = creds.Password
	}

	client, err := e.login(ctx)
	if err != nil {
		return err
	}

	if save {
		if err := config.SaveCredentials(e.configPath, e.cfg.Nova.Username, e.cfg.Nova.Password); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
		fmt.Printf("Credentials saved to %s\n", e.configPath)
	}

	var profile nova.Profile
	if err := client.Decode(nova.ResourceProfile, &profile); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s %s <%s> (employee %s)\n", profile.FirstName, profile.LastName, profile.Email, profile.ID)

	if err := e.openStore(); err == nil && e.db != nil {
		if err := e.db.SetState(store.StateProfileID, profile.ID.String()); err != nil {
			e.logger.Warn("saving profile id", "error", err)
		}
		if err := e.db.SetState(store.StateLastLogin, time.Now().Format(time.RFC3339)); err != nil {
			e.logger.Warn("saving login time", "error", err)
		}
	}

	return client.Logout(ctx)
}

func runInfo(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	client, err := e.login(cmd.Context())
	if err != nil {
		return err
	}
	if err := client.BuildInfo(cmd.Context()); err != nil {
		return err
	}

	for _, r := range nova.ListResources() {
		snap, ok := client.Snapshot(r)
		if !ok {
			continue
		}
		n := 0
		if list, ok := snap.Value().([]any); ok {
			n = len(list)
		}
		fmt.Printf("  %-20s %5d\n", r, n)
	}
	return nil
}

func runResources(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, r := range nova.ListResources() {
			fmt.Println(r)
		}
		return nil
	}

	r, err := nova.ParseResource(args[0])
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	client, err := e.login(cmd.Context())
	if err != nil {
		return err
	}
	if err := client.Fetch(cmd.Context(), r, nil); err != nil {
		return err
	}
	v, err := client.Materialize(r)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runActivities(cmd *cobra.Command, args []string) error {
	employee, _ := cmd.Flags().GetInt64("employee")

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	client, err := e.login(cmd.Context())
	if err != nil {
		return err
	}
	if err := client.FetchActivities(cmd.Context(), nova.ID(employee)); err != nil {
		return err
	}
	activities, err := client.Activities()
	if err != nil {
		return err
	}

	if len(activities) == 0 {
		fmt.Println("No activities found.")
		return nil
	}

	total := 0.0
	for _, a := range activities {
		fmt.Printf("  %-8s %s  %5.2fh  project %-6s %s\n",
			a.ID, activityDay(a.ActivityDate), a.Value, a.ProjectID, a.Comments)
		total += a.Value
	}
	fmt.Printf("\nTotal: %.2fh (%d activities)\n", total, len(activities))
	return nil
}

func runProjects(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	client, err := e.login(cmd.Context())
	if err != nil {
		return err
	}
	assignments, err := fetchAssignments(cmd.Context(), client)
	if err != nil {
		return err
	}

	if len(assignments) == 0 {
		fmt.Println("No project assignments found.")
		return nil
	}

	fmt.Printf("Found %d projects:\n\n", len(assignments))
	for _, a := range assignments {
		name, account := projectNames(a)
		fmt.Printf("  %-6s %-30s %s\n", a.ProjectID, name, account)
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	same, _ := cmd.Flags().GetBool("same")
	project, _ := cmd.Flags().GetInt64("project")
	typeID, _ := cmd.Flags().GetInt64("type")
	hours, _ := cmd.Flags().GetFloat64("hours")
	dateStr, _ := cmd.Flags().GetString("date")
	comments, _ := cmd.Flags().GetString("comments")
	ticket, _ := cmd.Flags().GetString("ticket")

	date, err := parseDate(dateStr, time.Now())
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.openStore(); err != nil {
		return err
	}

	draft := tui.Draft{
		ProjectID: nova.ID(project),
		TypeID:    nova.ID(typeID),
		Date:      date,
		Hours:     hours,
		Comments:  comments,
		Ticket:    ticket,
	}
	if same {
		if e.db == nil {
			return fmt.Errorf("--same needs the activity log; enable it in the [log] table")
		}
		last, err := e.db.GetLastEntry()
		if err != nil {
			return fmt.Errorf("getting last entry: %w", err)
		}
		if last == nil {
			return fmt.Errorf("no previous activities found")
		}
		draft.ProjectID = nova.ID(last.ProjectID)
		draft.ProjectName = last.ProjectName
		draft.TypeID = nova.ID(last.TypeID)
		if draft.Comments == "" {
			draft.Comments = last.Comments
		}
	}
	if draft.ProjectID == 0 || draft.TypeID == 0 {
		return fmt.Errorf("--project and --type are required (see 'nova projects' and 'nova resources activity_types')")
	}

	client, err := e.login(cmd.Context())
	if err != nil {
		return err
	}
	created, err := e.createActivity(cmd.Context(), client, draft)
	if err != nil {
		return err
	}

	fmt.Printf("Logged: activity %s, %.2fh on project %s (%s)\n",
		created.ID, created.Value, created.ProjectID, date.Format("2006-01-02"))
	return nil
}

// createActivity sends d to Nova and records the outcome in the activity log.
func (e *env) createActivity(ctx context.Context, client *nova.Client, d tui.Draft) (*nova.Activity, error) {
	created, err := client.CreateActivity(ctx, nova.NewActivity{
		ProjectID: d.ProjectID,
		TypeID:    d.TypeID,
		Date:      d.Date,
		Hours:     d.Hours,
		Comments:  d.Comments,
		Ticket:    d.Ticket,
	})

	entry := &store.Entry{
		Action:       store.ActionCreate,
		ProjectID:    int64(d.ProjectID),
		ProjectName:  d.ProjectName,
		TypeID:       int64(d.TypeID),
		ActivityDate: d.Date,
		Hours:        d.Hours,
		Comments:     d.Comments,
		Ticket:       d.Ticket,
		Status:       store.StatusLogged,
	}
	if err != nil {
		entry.Status = store.StatusFailed
		entry.Error = err.Error()
	} else {
		entry.NovaID = int64(created.ID)
	}
	e.record(entry)

	return created, err
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	value, _ := cmd.Flags().GetFloat64("value")
	comments, _ := cmd.Flags().GetString("comments")
	ticket, _ := cmd.Flags().GetString("ticket")
	patch := nova.ActivityPatch{Value: value, Comments: comments, Ticket: ticket}
	if value == 0 && comments == "" && ticket == "" {
		return fmt.Errorf("nothing to change: pass --value, --comments or --ticket")
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.openStore(); err != nil {
		return err
	}

	client, err := e.login(cmd.Context())
	if err != nil {
		return err
	}
	updated, err := client.UpdateActivity(cmd.Context(), id, patch)

	entry := &store.Entry{
		NovaID:   int64(id),
		Action:   store.ActionUpdate,
		Hours:    value,
		Comments: comments,
		Ticket:   ticket,
		Status:   store.StatusLogged,
	}
	if err != nil {
		entry.Status = store.StatusFailed
		entry.Error = err.Error()
	} else {
		entry.ProjectID = int64(updated.ProjectID)
	}
	e.record(entry)
	if err != nil {
		return err
	}

	fmt.Printf("Updated activity %s: %.2fh, %q\n", updated.ID, updated.Value, updated.Comments)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.openStore(); err != nil {
		return err
	}

	client, err := e.login(cmd.Context())
	if err != nil {
		return err
	}
	res, err := client.DeleteActivity(cmd.Context(), id)

	entry := &store.Entry{NovaID: int64(id), Action: store.ActionDelete, Status: store.StatusLogged}
	if err != nil {
		entry.Status = store.StatusFailed
		entry.Error = err.Error()
	}
	e.record(entry)
	if err != nil {
		return err
	}

	if res.Count == 0 {
		fmt.Printf("Activity %s did not exist.\n", id)
		return nil
	}
	fmt.Printf("Deleted activity %s.\n", id)
	return nil
}

func runLog(cmd *cobra.Command, args []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	hours, _ := cmd.Flags().GetFloat64("hours")
	date, err := parseDate(dateStr, time.Now())
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.openStore(); err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := e.login(ctx)
	if err != nil {
		return err
	}

	assignments, err := fetchAssignments(ctx, client)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return fmt.Errorf("you are not assigned to any project")
	}
	if err := client.Fetch(ctx, nova.ResourceActivityTypes, nil); err != nil {
		return err
	}
	types, err := client.ActivityTypes()
	if err != nil {
		return err
	}

	projectOpts := make([]tui.Option, 0, len(assignments))
	for _, a := range assignments {
		name, account := projectNames(a)
		projectOpts = append(projectOpts, tui.Option{ID: a.ProjectID, Label: name, Detail: account})
	}
	typeOpts := make([]tui.Option, 0, len(types))
	for _, t := range types {
		typeOpts = append(typeOpts, tui.Option{ID: t.ID, Label: t.Name})
	}

	app := tui.NewApp(ctx, projectOpts, typeOpts, date, hours, func(ctx context.Context, d tui.Draft) (*nova.Activity, error) {
		return e.createActivity(ctx, client, d)
	})
	p := tea.NewProgram(app, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	result := app.GetResult()
	if result != nil && result.Canceled {
		fmt.Println("Nothing logged.")
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.openStore(); err != nil {
		return err
	}
	if e.db == nil {
		return fmt.Errorf("the activity log is disabled in the [log] table")
	}

	profileID, err := e.db.GetState(store.StateProfileID)
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	lastLogin, err := e.db.GetState(store.StateLastLogin)
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	if lastLogin != "" {
		if t, err := time.Parse(time.RFC3339, lastLogin); err == nil {
			lastLogin = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("Employee %s, last login %s\n\n", profileID, lastLogin)
	}

	entries, err := e.db.GetTodayEntries()
	if err != nil {
		return fmt.Errorf("fetching today's entries: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("Nothing logged today.")
		return nil
	}

	total := 0.0
	fmt.Println("Today's changes:")
	fmt.Println()
	for _, en := range entries {
		fmt.Printf("  %s  %-6s  activity %-8d  %5.2fh  %-20s  %s  [%s]\n",
			en.CreatedAt.Local().Format("15:04"),
			en.Action,
			en.NovaID,
			en.Hours,
			en.ProjectName,
			en.Comments,
			en.Status,
		)
		if en.Action == store.ActionCreate && en.Status == store.StatusLogged {
			total += en.Hours
		}
	}
	fmt.Printf("\nCreated today: %.2fh (%d changes)\n", total, len(entries))

	return nil
}

func runRetry(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.openStore(); err != nil {
		return err
	}
	if e.db == nil {
		return fmt.Errorf("the activity log is disabled in the [log] table")
	}

	entries, err := e.db.GetFailedEntries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No failed activities.")
		return nil
	}

	ctx := cmd.Context()
	client, err := e.login(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Retrying %d failed activities...\n", len(entries))
	for _, en := range entries {
		created, err := client.CreateActivity(ctx, nova.NewActivity{
			ProjectID: nova.ID(en.ProjectID),
			TypeID:    nova.ID(en.TypeID),
			Date:      en.ActivityDate.Local(),
			Hours:     en.Hours,
			Comments:  en.Comments,
			Ticket:    en.Ticket,
		})
		if err != nil {
			fmt.Printf("  Retry failed for entry %d: %v\n", en.ID, err)
			if uerr := e.db.UpdateEntryStatus(en.ID, store.StatusFailed, 0, err.Error()); uerr != nil {
				e.logger.Warn("updating entry", "id", en.ID, "error", uerr)
			}
			continue
		}
		if err := e.db.UpdateEntryStatus(en.ID, store.StatusLogged, int64(created.ID), ""); err != nil {
			return err
		}
		fmt.Printf("  Logged entry %d as activity %s\n", en.ID, created.ID)
	}
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	configPath := e.configPath

	if _, err := config.WriteDefault(configPath); err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	c := exec.CommandContext(cmd.Context(), editor, configPath)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Start(); err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	return c.Wait()
}

func fetchAssignments(ctx context.Context, client *nova.Client) ([]nova.ProjectAssignment, error) {
	if err := client.FetchProjectAssignments(ctx, 0); err != nil {
		return nil, err
	}
	return client.ProjectAssignments()
}

func projectNames(a nova.ProjectAssignment) (project, account string) {
	project = "project " + a.ProjectID.String()
	if a.Project == nil {
		return project, ""
	}
	if a.Project.Name != "" {
		project = a.Project.Name
	}
	if a.Project.Account != nil {
		account = a.Project.Account.Name
	}
	return project, account
}

func parseID(s string) (nova.ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid activity id %q", s)
	}
	return nova.ID(n), nil
}
