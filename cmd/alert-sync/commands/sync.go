// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/similigh/jira-alert-sync/internal/alerts"
	"github.com/similigh/jira-alert-sync/internal/core/pipeline"
	"github.com/similigh/jira-alert-sync/internal/tui"
)

var (
	alertsFile   string
	syncWorkflow string
	syncSteps    []string
	noTUI        bool
	syncJSON     bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the epic's alert tickets with the firing alerts",
	Long: `Reconcile the epic with a file of currently firing alerts (YAML or JSON).

New alerts get a ticket, alerts that fired again reopen their completed ticket,
changed host lists are written to the description, and open tickets whose alert
is no longer firing are closed with a note to the assignee.

Usage:
  alert-sync sync --alerts firing.yaml [--dry-run] [--no-tui]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&alertsFile, "alerts", "", "Path to the firing alerts file (required)")
	syncCmd.Flags().StringVar(&syncWorkflow, "workflow", "reconcile", "Workflow preset to run")
	syncCmd.Flags().StringSliceVar(&syncSteps, "steps", nil, "Explicit step list (overrides --workflow)")
	syncCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print plain progress instead of the interactive view")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the full result as JSON")
	_ = syncCmd.MarkFlagRequired("alerts")
}

func runSync(ctx context.Context, w io.Writer) error {
	if err := app.cfg.ValidateReconcile(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	firing, err := alerts.Load(alertsFile)
	if err != nil {
		return err
	}
	app.metrics.SetFiringAlerts(len(firing))
	app.logger.Info("loaded alerts", "path", alertsFile, "firing", len(firing))

	sync, err := newSynchronizer()
	if err != nil {
		return err
	}
	deps := &pipeline.Dependencies{
		Synchronizer: sync,
		Logger:       app.logger,
		DryRun:       dryRun,
	}
	stepNames := pipeline.ResolveSteps(syncSteps, syncWorkflow)
	pCtx := pipeline.NewContext(ctx, app.cfg.Jira.Epic, firing, app.cfg)

	if useTUI() {
		err = runSyncTUI(deps, stepNames, pCtx)
	} else {
		var p *pipeline.Pipeline
		p, err = buildPipeline(deps, stepNames, nil)
		if err == nil {
			err = runPipeline(p, pCtx, nil)
		}
	}
	app.metrics.SetEpicCounts(pCtx.Result.Fetched, pCtx.Result.AlertTickets)
	if err != nil {
		return err
	}

	if syncJSON {
		if err := printJSON(w, pCtx.Result); err != nil {
			return err
		}
	} else {
		printSummary(w, pCtx.Result)
	}
	if n := len(pCtx.Result.Errors); n > 0 {
		return fmt.Errorf("%d ticket action(s) failed", n)
	}
	return nil
}

func useTUI() bool {
	if noTUI {
		return false
	}
	return os.Getenv("CI") != "true" && os.Getenv("GITHUB_ACTIONS") != "true"
}

func runSyncTUI(deps *pipeline.Dependencies, stepNames []string, pCtx *pipeline.Context) error {
	// Two messages per step, so sends never block once the view has quit.
	statusChan := make(chan tui.PipelineStatusMsg, 2*len(stepNames))
	p, err := buildPipeline(deps, stepNames, statusChan)
	if err != nil {
		return err
	}

	model := tui.NewModel(pCtx.Epic, deps.DryRun, stepNames, statusChan)
	program := tea.NewProgram(model, tea.WithContext(pCtx.Ctx))

	return runBesideView(pCtx.Ctx,
		func(ctx context.Context) error {
			pCtx.Ctx = ctx
			return runPipeline(p, pCtx, statusChan)
		},
		func() (tui.Model, error) {
			final, err := program.Run()
			m, _ := final.(tui.Model)
			return m, err
		})
}

// runBesideView runs work while view blocks the terminal. The work is
// cancelled when the view ends without a successful result: the user quit,
// the view timed out or the view itself failed.
func runBesideView(ctx context.Context, work func(context.Context) error, view func() (tui.Model, error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- work(ctx)
	}()

	final, viewErr := view()
	res := final.Result()
	if viewErr != nil || res == nil || !res.Success {
		cancel()
	}
	workErr := <-errCh

	switch {
	case viewErr != nil:
		return fmt.Errorf("error running TUI: %w", viewErr)
	case workErr != nil && res != nil && res.Output != "":
		return fmt.Errorf("%s: %w", res.Output, workErr)
	default:
		return workErr
	}
}

func printSummary(w io.Writer, r *pipeline.Result) {
	prefix := ""
	if r.DryRun {
		prefix = "DRY RUN: "
	}
	if r.Skipped {
		fmt.Fprintf(w, "%sEpic %s: skipped (%s)\n", prefix, r.Epic, r.SkipReason)
		return
	}
	fmt.Fprintf(w, "%sEpic %s: %d tickets, %d alert tickets, %d firing alerts\n",
		prefix, r.Epic, r.Fetched, r.AlertTickets, r.Firing)
	fmt.Fprintf(w, "  created %d, updated %d, reopened %d, closed %d, unchanged %d\n",
		r.Created, r.Updated, r.Reopened, r.Closed, r.Unchanged)
	for _, d := range r.Details {
		if d.Action == pipeline.ActionUnchanged {
			continue
		}
		key := d.Key
		if key == "" {
			key = "-"
		}
		line := []string{fmt.Sprintf("  %-9s %-10s %s", d.Action, key, d.Alert)}
		if d.Reason != "" {
			line = append(line, "("+d.Reason+")")
		}
		fmt.Fprintln(w, strings.Join(line, " "))
	}
}
