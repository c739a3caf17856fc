// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

// Package commands implements the alert-sync command tree.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/similigh/jira-alert-sync/internal/core/config"
	"github.com/similigh/jira-alert-sync/internal/integrations/jira"
	"github.com/similigh/jira-alert-sync/internal/logging"
	"github.com/similigh/jira-alert-sync/internal/metrics"
	"github.com/similigh/jira-alert-sync/internal/tickets"
)

// Version is stamped at build time with -ldflags "-X .../commands.Version=...".
var Version = "dev"

var (
	cfgFile      string
	jiraUser     string
	jiraPassword string
	jiraToken    string
	epicFlag     string
	dryRun       bool
	verbose      bool
	metricsFile  string
)

// app holds what PersistentPreRunE builds for the running command.
var app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	flush   func(time.Duration)
	start   time.Time
}

var rootCmd = &cobra.Command{
	Use:   "alert-sync",
	Short: "Keep Jira alert tickets in step with monitoring alerts",
	Long: `alert-sync keeps the auto-generated alert tickets under a Jira epic in
step with the monitoring alerts that are currently firing.

Without a subcommand it scans the epic and prints its alert tickets.

Environment variables:
  JIRA_USER, JIRA_PASSWORD   Basic auth credentials (flags take precedence)
  JIRA_TOKEN                 Bearer token, used when no user/password is given
  CI                         When "true", progress is printed without the TUI`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&jiraUser, "user", "u", "", "Jira user name (or JIRA_USER)")
	flags.StringVarP(&jiraPassword, "password", "p", "", "Jira password (or JIRA_PASSWORD)")
	flags.StringVar(&jiraToken, "token", "", "Jira bearer token instead of user/password (or JIRA_TOKEN)")
	flags.StringVar(&epicFlag, "epic", "", "Epic key to sync (overrides jira.epic)")
	flags.BoolVar(&dryRun, "dry-run", false, "Log intended writes without sending them")
	flags.StringVar(&cfgFile, "config", "", "Path to config file (default: .alert-sync.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write run metrics to this Prometheus textfile")
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	finish(err)
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), describeError(err))
		return 1
	}
	return 0
}

func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}
	app.start = time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if epicFlag != "" {
		cfg.Jira.Epic = epicFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}
	logger, flush, err := logging.Setup(logging.Config{
		Level:     level,
		SentryDSN: cfg.Logging.SentryDSN,
		Env:       cfg.Logging.Environment,
		Version:   Version,
	})
	if err != nil {
		return err
	}

	app.cfg = cfg
	app.logger = logger.With("epic", cfg.Jira.Epic)
	app.flush = flush
	app.metrics = nil
	if metricsFile != "" {
		app.metrics = metrics.New()
	}
	if dryRun {
		app.logger.Info("DRY RUN: no changes will be sent to Jira")
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	path := config.FindConfigPath(cfgFile)
	if path == "" {
		if cfgFile != "" {
			return nil, fmt.Errorf("config file %s not found", cfgFile)
		}
		return config.Default(), nil
	}
	cfg, err := config.LoadWithInheritance(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cfg, nil
}

func finish(err error) {
	if app.metrics != nil {
		app.metrics.Finish(app.start, err)
		if werr := app.metrics.WriteTextfile(metricsFile); werr != nil && app.logger != nil {
			app.logger.Error("failed to write metrics", "path", metricsFile, "error", werr)
		}
	}
	if err != nil && app.logger != nil {
		app.logger.Error("run failed", "error", err)
	}
	if app.flush != nil {
		app.flush(2 * time.Second)
	}
}

// describeError renders err for the operator. An unknown transition is shown
// alone so the lookup hint is the first thing on the line.
func describeError(err error) string {
	var ute *tickets.UnknownTransitionError
	if errors.As(err, &ute) {
		return ute.Error()
	}
	return "Error: " + err.Error()
}

// resolveAuth picks credentials from flags, then the environment, then the
// config file. A complete user/password pair wins over a token.
func resolveAuth(cfg *config.Config) (jira.AuthProvider, error) {
	user := firstNonEmpty(jiraUser, os.Getenv("JIRA_USER"), cfg.Jira.User)
	password := firstNonEmpty(jiraPassword, os.Getenv("JIRA_PASSWORD"), cfg.Jira.Password)
	token := firstNonEmpty(jiraToken, os.Getenv("JIRA_TOKEN"), cfg.Jira.Token)

	switch {
	case user != "" && password != "":
		return jira.BasicAuth{User: user, Password: password}, nil
	case token != "":
		return jira.NewTokenAuth(token), nil
	default:
		return nil, fmt.Errorf("--user and --password are required (or --token)")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// newSynchronizer builds the Jira client and synchronizer for the run.
func newSynchronizer() (*tickets.Synchronizer, error) {
	auth, err := resolveAuth(app.cfg)
	if err != nil {
		return nil, err
	}
	client, err := jira.NewClient(app.cfg.Jira.URL, auth,
		jira.WithLogger(app.logger),
		jira.WithUserAgent("jira-alert-sync/"+Version),
	)
	if err != nil {
		return nil, err
	}
	s := tickets.NewSynchronizer(client, app.cfg, dryRun, app.logger)
	s.UseMetrics(app.metrics)
	return s, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
