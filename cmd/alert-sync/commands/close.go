// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

var closeMention string

// closeCmd represents the close command
var closeCmd = &cobra.Command{
	Use:   "close KEY",
	Short: "Comment on a ticket and move it to the close status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sync, err := newSynchronizer()
		if err != nil {
			return err
		}
		return sync.CloseTicket(cmd.Context(), args[0], mention(closeMention))
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)

	closeCmd.Flags().StringVar(&closeMention, "mention", "", "User key to address in the closing comment")
}

// mention renders a user key the way ticket comments address assignees.
func mention(user string) string {
	user = strings.TrimPrefix(strings.TrimSpace(user), "@")
	if user == "" {
		return ""
	}
	return "@" + user + " "
}
