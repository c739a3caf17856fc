// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/similigh/jira-alert-sync/internal/core/pipeline"
	"github.com/similigh/jira-alert-sync/internal/integrations/jira"
	"github.com/similigh/jira-alert-sync/internal/steps"
)

var scanJSON bool

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the epic's auto-generated alert tickets",
	Long: `Query the epic, keep the tickets whose summary follows the alert
convention and print them with their key index. Nothing is written to Jira.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	rootCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the tickets and index as JSON")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the tickets and index as JSON")
}

type scanOutput struct {
	Epic    string                `json:"epic"`
	Fetched int                   `json:"fetched"`
	Total   int                   `json:"total"`
	Tickets []jira.Issue          `json:"tickets"`
	Index   map[string]jira.Issue `json:"index"`
}

func runScan(ctx context.Context, w io.Writer) error {
	sync, err := newSynchronizer()
	if err != nil {
		return err
	}

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)
	p, err := registry.BuildFromNames(pipeline.Presets["scan"], &pipeline.Dependencies{
		Synchronizer: sync,
		Logger:       app.logger,
		DryRun:       dryRun,
	})
	if err != nil {
		return err
	}

	pCtx := pipeline.NewContext(ctx, app.cfg.Jira.Epic, nil, app.cfg)
	if err := p.Run(pCtx); err != nil {
		return err
	}
	app.metrics.SetEpicCounts(len(pCtx.Tickets), len(pCtx.AlertTickets))

	if scanJSON {
		return printJSON(w, scanOutput{
			Epic:    pCtx.Epic,
			Fetched: len(pCtx.Tickets),
			Total:   pCtx.Result.Total,
			Tickets: pCtx.AlertTickets,
			Index:   pCtx.Index,
		})
	}
	return printTicketTable(w, pCtx.Epic, len(pCtx.Tickets), pCtx.AlertTickets)
}

func printTicketTable(w io.Writer, epic string, fetched int, issues []jira.Issue) error {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "STATUS", "ASSIGNEE", "SUMMARY").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, issue := range issues {
		assignee := "-"
		if issue.Fields.Assignee != nil && issue.Fields.Assignee.Key != "" {
			assignee = issue.Fields.Assignee.Key
		}
		t.Row(issue.Key, issue.StatusName(), assignee, issue.Fields.Summary)
	}

	if _, err := fmt.Fprintf(w, "Epic %s: %d tickets, %d alert tickets\n", epic, fetched, len(issues)); err != nil {
		return err
	}
	if len(issues) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
