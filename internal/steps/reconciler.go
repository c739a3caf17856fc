// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package steps

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/similigh/jira-alert-sync/internal/alerts"
	"github.com/similigh/jira-alert-sync/internal/core/pipeline"
	"github.com/similigh/jira-alert-sync/internal/integrations/jira"
	"github.com/similigh/jira-alert-sync/internal/tickets"
)

// Reconciler brings the epic's alert tickets in line with the firing alerts:
// new alerts get a ticket, re-fired alerts reopen theirs, host lists are
// refreshed and tickets of resolved alerts are closed.
type Reconciler struct {
	sync   *tickets.Synchronizer
	logger *slog.Logger
}

// NewReconciler creates a new reconciler step.
func NewReconciler(deps *pipeline.Dependencies) *Reconciler {
	return &Reconciler{
		sync:   deps.Synchronizer,
		logger: loggerOf(deps),
	}
}

// Name returns the step name.
func (s *Reconciler) Name() string {
	return "reconciler"
}

// Run reconciles ctx.Alerts against ctx.AlertTickets. Per-ticket failures
// are recorded in the result; an unknown transition or a cancelled context
// aborts the run.
func (s *Reconciler) Run(ctx *pipeline.Context) error {
	if s.sync == nil {
		return fmt.Errorf("synchronizer is required for reconcile")
	}
	ctx.Result.DryRun = s.sync.DryRun()

	if ctx.Result.Truncated {
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = fmt.Sprintf(
			"epic holds %d tickets but only %d were fetched; raise jira.page_size before syncing",
			ctx.Result.Total, ctx.Result.Fetched)
		s.logger.Warn("[reconciler] " + ctx.Result.SkipReason)
		return pipeline.ErrSkipPipeline
	}

	if len(ctx.Alerts) == 0 && !ctx.Config.Reconcile.AllowEmpty {
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = "no firing alerts; refusing to close every alert ticket (set reconcile.allow_empty)"
		s.logger.Warn("[reconciler] " + ctx.Result.SkipReason)
		return pipeline.ErrSkipPipeline
	}

	byAlert := s.ticketsByAlert(ctx)

	firing := make(map[alerts.Key]struct{}, len(ctx.Alerts))
	for _, a := range ctx.Alerts {
		firing[a.Key()] = struct{}{}
		if err := s.reconcileAlert(ctx, a, byAlert); err != nil {
			return err
		}
	}

	for _, issue := range ctx.AlertTickets {
		name, severity, ok := tickets.ParseSummary(issue.Fields.Summary)
		if !ok {
			continue
		}
		k := alerts.Key{Name: name, Severity: severity}
		if owner := byAlert[k]; owner.Key != issue.Key {
			continue
		}
		if _, stillFiring := firing[k]; stillFiring {
			continue
		}
		if ctx.Config.IsClosedStatus(issue.StatusName()) {
			continue
		}

		label := alertLabel(k)
		if err := s.sync.CloseTicket(ctx.Ctx, issue.Key, tickets.GetAssignee(issue)); err != nil {
			if ferr := s.fail(ctx, issue.Key, label, "close", err); ferr != nil {
				return ferr
			}
			continue
		}
		ctx.Result.Closed++
		ctx.Result.AddDetail(pipeline.TicketDetail{
			Key:    issue.Key,
			Alert:  label,
			Action: pipeline.ActionClosed,
			Reason: s.reason("alert no longer firing"),
		})
	}

	s.logger.Info("[reconciler] done",
		"created", ctx.Result.Created,
		"updated", ctx.Result.Updated,
		"reopened", ctx.Result.Reopened,
		"closed", ctx.Result.Closed,
		"unchanged", ctx.Result.Unchanged,
		"errors", len(ctx.Result.Errors))
	return nil
}

// ticketsByAlert maps each alert identity to the ticket tracking it. When an
// alert has several tickets the first open one wins and the rest are skipped.
func (s *Reconciler) ticketsByAlert(ctx *pipeline.Context) map[alerts.Key]jira.Issue {
	byAlert := make(map[alerts.Key]jira.Issue, len(ctx.AlertTickets))
	for _, issue := range ctx.AlertTickets {
		name, severity, ok := tickets.ParseSummary(issue.Fields.Summary)
		if !ok {
			ctx.Result.AddDetail(pipeline.TicketDetail{
				Key:    issue.Key,
				Action: pipeline.ActionSkipped,
				Reason: "summary has no severity component",
			})
			continue
		}
		k := alerts.Key{Name: name, Severity: severity}
		prev, dup := byAlert[k]
		if !dup {
			byAlert[k] = issue
			continue
		}

		kept, dropped := prev, issue
		if ctx.Config.IsClosedStatus(prev.StatusName()) && !ctx.Config.IsClosedStatus(issue.StatusName()) {
			kept, dropped = issue, prev
		}
		byAlert[k] = kept
		s.logger.Warn("[reconciler] duplicate alert ticket", "ticket", dropped.Key, "kept", kept.Key)
		ctx.Result.AddDetail(pipeline.TicketDetail{
			Key:    dropped.Key,
			Alert:  alertLabel(k),
			Action: pipeline.ActionSkipped,
			Reason: "duplicate of " + kept.Key,
		})
	}
	return byAlert
}

func (s *Reconciler) reconcileAlert(ctx *pipeline.Context, a alerts.Alert, byAlert map[alerts.Key]jira.Issue) error {
	cfg := ctx.Config
	label := alertLabel(a.Key())
	summary := tickets.FormatSummary(a.Name, a.Severity)
	description := tickets.FormatHostList(a.Hosts)

	if !tickets.MatchesAlertPattern(summary) {
		ctx.Result.AddDetail(pipeline.TicketDetail{
			Alert:  label,
			Action: pipeline.ActionError,
			Reason: "generated summary does not match the alert pattern",
		})
		return nil
	}

	issue, ok := byAlert[a.Key()]
	if !ok {
		key, err := s.sync.CreateTicket(ctx.Ctx, summary, description)
		if err != nil {
			return s.fail(ctx, "", label, "create", err)
		}
		ctx.Result.Created++
		ctx.Result.AddDetail(pipeline.TicketDetail{
			Key:    key,
			Alert:  label,
			Action: pipeline.ActionCreated,
			Reason: s.reason("new alert"),
		})
		return nil
	}

	reopened := false
	if cfg.IsClosedStatus(issue.StatusName()) {
		if err := s.sync.ReopenTicket(ctx.Ctx, issue.Key, tickets.GetAssignee(issue), label); err != nil {
			return s.fail(ctx, issue.Key, label, "reopen", err)
		}
		reopened = true
		ctx.Result.Reopened++
		ctx.Result.AddDetail(pipeline.TicketDetail{
			Key:    issue.Key,
			Alert:  label,
			Action: pipeline.ActionReopened,
			Reason: s.reason("alert fired again"),
		})
	}

	if normalizeText(issue.Fields.Description) != normalizeText(description) {
		if err := s.sync.SetField(ctx.Ctx, issue.Key, "description", description, cfg.Reconcile.NotifyUsers()); err != nil {
			return s.fail(ctx, issue.Key, label, "update description", err)
		}
		ctx.Result.Updated++
		ctx.Result.AddDetail(pipeline.TicketDetail{
			Key:    issue.Key,
			Alert:  label,
			Action: pipeline.ActionUpdated,
			Reason: s.reason("host list changed"),
		})
		return nil
	}

	if !reopened {
		ctx.Result.Unchanged++
		ctx.Result.AddDetail(pipeline.TicketDetail{
			Key:    issue.Key,
			Alert:  label,
			Action: pipeline.ActionUnchanged,
		})
	}
	return nil
}

// fail records a per-ticket failure. It returns the error itself when the
// run must stop.
func (s *Reconciler) fail(ctx *pipeline.Context, key, label, op string, err error) error {
	if errors.Is(err, tickets.ErrUnknownTransition) {
		return err
	}
	if ctxErr := ctx.Ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	s.logger.Error("[reconciler] ticket action failed", "ticket", key, "alert", label, "op", op, "error", err)
	ctx.Result.AddDetail(pipeline.TicketDetail{
		Key:    key,
		Alert:  label,
		Action: pipeline.ActionError,
		Reason: fmt.Sprintf("%s: %v", op, err),
	})
	return nil
}

func (s *Reconciler) reason(text string) string {
	if s.sync.DryRun() {
		return "DRY RUN: " + text
	}
	return text
}

func alertLabel(k alerts.Key) string {
	return k.Name + "/" + k.Severity
}

func normalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
