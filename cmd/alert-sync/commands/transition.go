// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package commands

import (
	"github.com/spf13/cobra"
)

// transitionCmd represents the transition command
var transitionCmd = &cobra.Command{
	Use:   "transition KEY STATUS",
	Short: "Move a ticket to a status",
	Long: `Move a ticket to STATUS using the transition id mapped in the config
(transitions:). Unmapped statuses fail without contacting Jira.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sync, err := newSynchronizer()
		if err != nil {
			return err
		}
		return sync.SetStatus(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(transitionCmd)
}
