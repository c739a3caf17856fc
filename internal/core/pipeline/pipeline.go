// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-10-18

// Package pipeline provides the step engine that drives a sync run.
// It defines the Step interface and the Context shared by all steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/similigh/jira-alert-sync/internal/alerts"
	"github.com/similigh/jira-alert-sync/internal/core/config"
	"github.com/similigh/jira-alert-sync/internal/integrations/jira"
)

// ErrSkipPipeline indicates that the pipeline should stop gracefully.
// This is not an error condition, just an early exit (e.g., empty epic).
var ErrSkipPipeline = errors.New("skip remaining pipeline steps")

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Name returns the unique identifier for this step.
	Name() string

	// Run executes the step's logic.
	// It should return ErrSkipPipeline to stop the pipeline gracefully,
	// or any other error to indicate failure.
	Run(ctx *Context) error
}

// Ticket actions recorded in TicketDetail.Action.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionReopened  = "reopened"
	ActionClosed    = "closed"
	ActionUnchanged = "unchanged"
	ActionSkipped   = "skipped"
	ActionError     = "error"
)

// Result holds the accumulated results from pipeline execution.
type Result struct {
	Epic         string         `json:"epic"`
	DryRun       bool           `json:"dry_run"`
	Fetched      int            `json:"fetched"`
	Total        int            `json:"total"`
	Truncated    bool           `json:"truncated,omitempty"`
	AlertTickets int            `json:"alert_tickets"`
	Firing       int            `json:"firing_alerts"`
	Created      int            `json:"created"`
	Updated      int            `json:"updated"`
	Reopened     int            `json:"reopened"`
	Closed       int            `json:"closed"`
	Unchanged    int            `json:"unchanged"`
	Skipped      bool           `json:"skipped,omitempty"`
	SkipReason   string         `json:"skip_reason,omitempty"`
	Details      []TicketDetail `json:"details,omitempty"`
	Errors       []string       `json:"errors,omitempty"`
}

// TicketDetail records the outcome for a single ticket or alert.
type TicketDetail struct {
	Key    string `json:"key,omitempty"`
	Alert  string `json:"alert,omitempty"`
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// AddDetail appends a detail and, for errors, an entry in Errors.
func (r *Result) AddDetail(d TicketDetail) {
	r.Details = append(r.Details, d)
	if d.Action == ActionError {
		label := d.Key
		if label == "" {
			label = d.Alert
		}
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", label, d.Reason))
	}
}

// Context carries data through the pipeline steps.
type Context struct {
	// Ctx is the Go context for cancellation and timeouts.
	Ctx context.Context

	// Epic is the epic key whose tickets are synced.
	Epic string

	// Config is the loaded configuration.
	Config *config.Config

	// Alerts are the currently firing alerts.
	Alerts []alerts.Alert

	// Tickets holds every ticket returned by the epic query.
	Tickets []jira.Issue

	// AlertTickets holds the auto-generated alert tickets, in query order.
	AlertTickets []jira.Issue

	// Index maps ticket key to alert ticket.
	Index map[string]jira.Issue

	// Result accumulates the processing results.
	Result *Result
}

// NewContext creates a new pipeline context for an epic.
func NewContext(ctx context.Context, epic string, firing []alerts.Alert, cfg *config.Config) *Context {
	return &Context{
		Ctx:    ctx,
		Epic:   epic,
		Config: cfg,
		Alerts: firing,
		Index:  make(map[string]jira.Issue),
		Result: &Result{Epic: epic, Firing: len(firing)},
	}
}

// Pipeline executes a sequence of steps.
type Pipeline struct {
	steps []Step
}

// New creates a new pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Run executes all steps in order.
// Stops on the first error (unless it's ErrSkipPipeline, which is graceful).
func (p *Pipeline) Run(ctx *Context) error {
	for _, step := range p.steps {
		if err := step.Run(ctx); err != nil {
			if errors.Is(err, ErrSkipPipeline) {
				return nil
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name(), err)
		}
	}
	return nil
}

// Steps returns the list of steps (for introspection).
func (p *Pipeline) Steps() []Step {
	return p.steps
}
