// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-10-18

// Package main is the entry point for the alert-sync CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/similigh/jira-alert-sync/cmd/alert-sync/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx)
	stop()
	os.Exit(code)
}
