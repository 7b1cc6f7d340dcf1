package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/nova/internal/config"
	"github.com/christopherklint97/nova/internal/nova"
	"github.com/christopherklint97/nova/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "nova",
	Short:         "Log and review Nova activities from the terminal",
	Long:          "nova signs in to Nova the way the web app does, then lists, creates, edits and deletes your activities.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check your credentials and show your profile",
	RunE:  runLogin,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Fetch every reference list and show how many records each has",
	RunE:  runInfo,
}

var resourcesCmd = &cobra.Command{
	Use:   "resources [name]",
	Short: "Print a Nova resource as JSON, or list resource names",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResources,
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List activities",
	RunE:  runActivities,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List your project assignments",
	RunE:  runProjects,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an activity",
	RunE:  runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change the hours, comments or ticket of an activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log an activity interactively",
	RunE:  runLog,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's locally logged changes",
	RunE:  runStatus,
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Resend activities whose creation failed",
	RunE:  runRetry,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.config/nova/config.toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log HTTP traffic to stderr")

	loginCmd.Flags().Bool("save", false, "prompt for credentials and store them in the config file once they work")

	activitiesCmd.Flags().Int64("employee", 0, "employee id (default: you)")

	addCmd.Flags().Int64("project", 0, "project id")
	addCmd.Flags().Int64("type", 0, "activity type id")
	addCmd.Flags().Float64("hours", 1, "hours worked")
	addCmd.Flags().String("date", "", `day of the activity, e.g. "2024-03-05" or "yesterday" (default today)`)
	addCmd.Flags().String("comments", "", "what you worked on")
	addCmd.Flags().String("ticket", "", "ticket or task reference")
	addCmd.Flags().Bool("same", false, "reuse project, type and comments of the last logged activity")

	editCmd.Flags().Float64("value", 0, "new hours (also sets billable hours)")
	editCmd.Flags().String("comments", "", "new comments")
	editCmd.Flags().String("ticket", "", "new ticket")

	logCmd.Flags().String("date", "", "day of the activity (default today)")
	logCmd.Flags().Float64("hours", 1, "initial hours")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(activitiesCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// env carries what every command needs: settings, a logger and, when the
// activity log is enabled, the local database.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	db         *store.DB
}

func newEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &env{cfg: cfg, configPath: path, logger: logger}, nil
}

func (e *env) openStore() error {
	if !e.cfg.Log.Enabled || e.db != nil {
		return nil
	}
	db, err := store.OpenPath(e.cfg.Log.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	e.db = db
	return nil
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
	}
}

// login builds a client from the config and runs the whole login sequence.
func (e *env) login(ctx context.Context) (*nova.Client, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w; run 'nova config' to set it up", err)
	}

	opts := e.cfg.ClientOptions()
	opts.Logger = e.logger
	client, err := nova.NewClient(e.cfg.Nova.Username, e.cfg.Nova.Password, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// record writes an entry to the activity log, if enabled. A failure to
// record never fails the command.
func (e *env) record(entry *store.Entry) {
	if e.db == nil {
		return
	}
	if _, err := e.db.InsertEntry(entry); err != nil {
		e.logger.Warn("recording activity log entry", "action", entry.Action, "error", err)
	}
}
