// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

// Package tickets keeps auto-generated alert tickets under an epic in sync
// with monitoring alerts. Every mutating operation honours dry-run: the
// intent is logged and no request is sent.
package tickets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/similigh/jira-alert-sync/internal/core/config"
	"github.com/similigh/jira-alert-sync/internal/integrations/jira"
	"github.com/similigh/jira-alert-sync/internal/metrics"
)

// Tracker is the subset of the Jira client the synchronizer needs.
type Tracker interface {
	Search(ctx context.Context, opts jira.SearchOptions) (*jira.SearchResult, error)
	CreateIssue(ctx context.Context, fields map[string]any) (*jira.CreatedIssue, error)
	UpdateIssue(ctx context.Context, key string, fields map[string]any, notify bool) error
	AddComment(ctx context.Context, key, body string) error
	TransitionIssue(ctx context.Context, key, transitionID string) error
}

// Synchronizer performs ticket operations against one epic.
type Synchronizer struct {
	tracker Tracker
	cfg     *config.Config
	dryRun  bool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSynchronizer creates a new Synchronizer. A nil logger uses slog.Default().
func NewSynchronizer(tracker Tracker, cfg *config.Config, dryRun bool, logger *slog.Logger) *Synchronizer {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		tracker: tracker,
		cfg:     cfg,
		dryRun:  dryRun,
		logger:  logger,
	}
}

// UseMetrics attaches a metrics recorder.
func (s *Synchronizer) UseMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// DryRun reports whether mutations are suppressed.
func (s *Synchronizer) DryRun() bool {
	return s.dryRun
}

// EpicJQL returns the JQL selecting every ticket linked to epic.
func EpicJQL(epic string) string {
	return `"Epic Link"=` + epic
}

// epicFields are the issue fields the reconciler reads.
var epicFields = []string{"summary", "description", "status", "assignee"}

// FetchEpicTickets reads the first page of tickets linked to epic and returns
// it with the total the tracker reported. A total above len(issues) means the
// page was truncated. It is a read and runs in dry-run mode too.
func (s *Synchronizer) FetchEpicTickets(ctx context.Context, epic string) ([]jira.Issue, int, error) {
	if strings.TrimSpace(epic) == "" {
		return nil, 0, fmt.Errorf("epic is required")
	}
	opts := jira.SearchOptions{
		JQL:        EpicJQL(epic),
		StartAt:    0,
		MaxResults: s.cfg.Jira.PageSize,
		Fields:     epicFields,
	}
	s.logger.Info("fetching epic", "epic", epic, "jql", opts.JQL, "max_results", opts.MaxResults)

	res, err := s.tracker.Search(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch epic %s: %w", epic, err)
	}

	s.logger.Info("fetched epic", "epic", epic, "issues", len(res.Issues), "total", res.Total)
	if res.Total > len(res.Issues) {
		s.logger.Warn("epic query returned a partial page",
			"epic", epic, "total", res.Total, "returned", len(res.Issues))
	}
	return res.Issues, res.Total, nil
}

// CreateTicket files a new alert ticket under the configured epic and returns
// its key. In dry-run mode the key is empty.
func (s *Synchronizer) CreateTicket(ctx context.Context, summary, description string) (string, error) {
	if !IsAutoGeneratedAlert(jira.Issue{Fields: jira.IssueFields{Summary: summary}}) {
		return "", fmt.Errorf("%w: %q", ErrNotAlertSummary, summary)
	}

	fields := s.createFields(summary, description)
	payload, _ := json.Marshal(map[string]any{"fields": fields})
	s.logger.Info("creating ticket", "summary", summary, "payload", string(payload))

	if s.dryRun {
		s.logger.Info("DRY RUN: would create ticket", "summary", summary)
		s.metrics.ObserveAction("create", "dry_run")
		return "", nil
	}

	created, err := s.tracker.CreateIssue(ctx, fields)
	s.observe("create", err)
	if err != nil {
		return "", fmt.Errorf("failed to create ticket: %w", err)
	}
	s.logger.Info("successfully created ticket", "ticket", created.Key)
	return created.Key, nil
}

func (s *Synchronizer) createFields(summary, description string) map[string]any {
	fields := make(map[string]any, len(s.cfg.Ticket.ExtraFields)+6)
	for k, v := range s.cfg.Ticket.ExtraFields {
		fields[k] = v
	}
	fields["project"] = map[string]string{"id": s.cfg.Ticket.ProjectID}
	fields["issuetype"] = map[string]string{"id": s.cfg.Ticket.IssueTypeID}
	fields["summary"] = summary
	fields["description"] = description
	if s.cfg.Ticket.Reporter != "" {
		fields["reporter"] = map[string]string{"name": s.cfg.Ticket.Reporter}
	}
	if s.cfg.Ticket.EpicLinkField != "" {
		fields[s.cfg.Ticket.EpicLinkField] = s.cfg.Jira.Epic
	}
	return fields
}

// SetField sets one field on a ticket.
func (s *Synchronizer) SetField(ctx context.Context, key, field string, value any, notify bool) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("field name is required")
	}
	s.logger.Info("updating ticket", "ticket", key, "field", field, "value", fmt.Sprint(value), "notify", notify)

	if s.dryRun {
		s.logger.Info("DRY RUN: would update ticket", "ticket", key, "field", field)
		s.metrics.ObserveAction("set_field", "dry_run")
		return nil
	}

	err := s.tracker.UpdateIssue(ctx, key, map[string]any{field: value}, notify)
	s.observe("set_field", err)
	if err != nil {
		return fmt.Errorf("failed to update %s on %s: %w", field, key, err)
	}
	s.logger.Info("successfully updated ticket", "ticket", key)
	return nil
}

// AddComment posts a comment on a ticket.
func (s *Synchronizer) AddComment(ctx context.Context, key, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text cannot be empty")
	}
	s.logger.Info("commenting on ticket", "ticket", key, "text", text)

	if s.dryRun {
		s.logger.Info("DRY RUN: would comment on ticket", "ticket", key)
		s.metrics.ObserveAction("comment", "dry_run")
		return nil
	}

	err := s.tracker.AddComment(ctx, key, text)
	s.observe("comment", err)
	if err != nil {
		return fmt.Errorf("failed to comment on %s: %w", key, err)
	}
	s.logger.Info("successfully commented", "ticket", key)
	return nil
}

// SetStatus moves a ticket to status through the configured transition. An
// unknown status returns *UnknownTransitionError before any request is made.
func (s *Synchronizer) SetStatus(ctx context.Context, key, status string) error {
	id, err := s.transitionID(status)
	if err != nil {
		return err
	}
	s.logger.Info("updating status", "ticket", key, "status", status, "transition", id)

	if s.dryRun {
		s.logger.Info("DRY RUN: would transition ticket", "ticket", key, "status", status)
		s.metrics.ObserveAction("transition", "dry_run")
		return nil
	}

	err = s.tracker.TransitionIssue(ctx, key, id)
	s.observe("transition", err)
	if err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", key, status, err)
	}
	s.logger.Info("successfully updated status", "ticket", key, "status", status)
	return nil
}

func (s *Synchronizer) transitionID(status string) (string, error) {
	id, ok := s.cfg.Transitions[status]
	if !ok || id == "" {
		return "", &UnknownTransitionError{Status: status, Known: s.cfg.KnownStatuses()}
	}
	return id, nil
}

// CloseTicket leaves a closing note addressed to assigneeMention, then moves
// the ticket to the close status.
func (s *Synchronizer) CloseTicket(ctx context.Context, key, assigneeMention string) error {
	status := s.cfg.Reconcile.CloseStatus
	if _, err := s.transitionID(status); err != nil {
		return err
	}
	s.logger.Info("closing ticket", "ticket", key)

	comment := assigneeMention + fmt.Sprintf("closing issue %s", key)
	if err := s.AddComment(ctx, key, comment); err != nil {
		return err
	}
	return s.SetStatus(ctx, key, status)
}

// ReopenTicket notes that alert fired again, then moves the ticket back to
// the reopen status. An unmapped reopen status fails before the comment.
func (s *Synchronizer) ReopenTicket(ctx context.Context, key, assigneeMention, alert string) error {
	status := s.cfg.Reconcile.ReopenStatus
	if _, err := s.transitionID(status); err != nil {
		return err
	}
	s.logger.Info("reopening ticket", "ticket", key, "alert", alert)

	comment := assigneeMention + fmt.Sprintf("alert %s fired again, reopening issue %s", alert, key)
	if err := s.AddComment(ctx, key, comment); err != nil {
		return err
	}
	return s.SetStatus(ctx, key, status)
}

func (s *Synchronizer) observe(action string, err error) {
	if err != nil {
		s.metrics.ObserveAction(action, "error")
		return
	}
	s.metrics.ObserveAction(action, "ok")
}
