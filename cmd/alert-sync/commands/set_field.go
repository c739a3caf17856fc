// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setFieldJSON   bool
	setFieldNotify bool
)

// setFieldCmd represents the set-field command
var setFieldCmd = &cobra.Command{
	Use:   "set-field KEY FIELD VALUE",
	Short: "Set one field on a ticket",
	Long: `Set one field on a ticket. VALUE is sent as a string unless --json is given,
in which case it is decoded first, e.g. '{"value":"Devops"}' for a select field.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseFieldValue(args[2], setFieldJSON)
		if err != nil {
			return err
		}
		sync, err := newSynchronizer()
		if err != nil {
			return err
		}
		return sync.SetField(cmd.Context(), args[0], args[1], value, setFieldNotify)
	},
}

func init() {
	rootCmd.AddCommand(setFieldCmd)

	setFieldCmd.Flags().BoolVar(&setFieldJSON, "json", false, "Decode VALUE as JSON")
	setFieldCmd.Flags().BoolVar(&setFieldNotify, "notify", false, "Email watchers about the change")
}

func parseFieldValue(raw string, asJSON bool) (any, error) {
	if !asJSON {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON value: %w", err)
	}
	return v, nil
}
