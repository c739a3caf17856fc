// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// commentCmd represents the comment command
var commentCmd = &cobra.Command{
	Use:   "comment KEY TEXT...",
	Short: "Add a comment to a ticket",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sync, err := newSynchronizer()
		if err != nil {
			return err
		}
		return sync.AddComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
	},
}

func init() {
	rootCmd.AddCommand(commentCmd)
}
