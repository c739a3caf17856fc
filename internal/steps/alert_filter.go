// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package steps

import (
	"log/slog"

	"github.com/similigh/jira-alert-sync/internal/core/pipeline"
	"github.com/similigh/jira-alert-sync/internal/tickets"
)

// AlertFilter keeps the auto-generated alert tickets and indexes them by key.
type AlertFilter struct {
	logger *slog.Logger
}

// NewAlertFilter creates a new filter step.
func NewAlertFilter(deps *pipeline.Dependencies) *AlertFilter {
	return &AlertFilter{logger: loggerOf(deps)}
}

// Name returns the step name.
func (s *AlertFilter) Name() string {
	return "alert_filter"
}

// Run filters ctx.Tickets into ctx.AlertTickets and ctx.Index.
func (s *AlertFilter) Run(ctx *pipeline.Context) error {
	ctx.AlertTickets = tickets.FilterAlertTickets(ctx.Tickets)
	ctx.Index = tickets.IndexByKey(ctx.AlertTickets)
	ctx.Result.AlertTickets = len(ctx.AlertTickets)

	for _, issue := range ctx.AlertTickets {
		if !tickets.MatchesAlertPattern(issue.Fields.Summary) {
			s.logger.Warn("alert ticket summary has no severity component",
				"ticket", issue.Key, "summary", issue.Fields.Summary)
		}
	}

	s.logger.Info("filtered alert tickets",
		"epic", ctx.Epic, "fetched", len(ctx.Tickets), "alert_tickets", len(ctx.AlertTickets))
	return nil
}

func loggerOf(deps *pipeline.Dependencies) *slog.Logger {
	if deps != nil && deps.Logger != nil {
		return deps.Logger
	}
	return slog.Default()
}
