// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/similigh/jira-alert-sync/internal/tickets"
)

var (
	createSummary     string
	createDescription string
	createAlert       string
	createSeverity    string
	createHosts       []string
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an alert ticket under the epic",
	Long: `Create one alert ticket under the configured epic.

Either pass --alert and --severity (plus --host for each instance) to build the
summary and host list, or pass a ready --summary and --description. The summary
must follow the "Puppet alert:... (auto-generated)" convention.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, description, err := createInput()
		if err != nil {
			return err
		}
		sync, err := newSynchronizer()
		if err != nil {
			return err
		}
		key, err := sync.CreateTicket(cmd.Context(), summary, description)
		if err != nil {
			return err
		}
		if key == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "DRY RUN: ticket not created")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createSummary, "summary", "", "Ticket summary")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Ticket description")
	createCmd.Flags().StringVar(&createAlert, "alert", "", "Alert name")
	createCmd.Flags().StringVar(&createSeverity, "severity", "", "Alert severity")
	createCmd.Flags().StringArrayVar(&createHosts, "host", nil, "Affected host (repeatable)")
	createCmd.MarkFlagsMutuallyExclusive("summary", "alert")
	createCmd.MarkFlagsRequiredTogether("alert", "severity")
}

func createInput() (summary, description string, err error) {
	if createAlert != "" {
		return tickets.FormatSummary(createAlert, createSeverity), tickets.FormatHostList(createHosts), nil
	}
	if createSummary == "" {
		return "", "", fmt.Errorf("either --summary or --alert/--severity is required")
	}
	return createSummary, createDescription, nil
}
