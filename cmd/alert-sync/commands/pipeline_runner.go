// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/kavirubc
// Created: 2026-02-02
// Last Modified: 2026-10-18

package commands

import (
	"errors"
	"fmt"

	"github.com/similigh/jira-alert-sync/internal/core/pipeline"
	"github.com/similigh/jira-alert-sync/internal/steps"
	"github.com/similigh/jira-alert-sync/internal/tui"
)

// Wrapper step to send status updates
type statusReportingStep struct {
	inner      pipeline.Step
	statusChan chan<- tui.PipelineStatusMsg
}

func (s *statusReportingStep) Name() string {
	return s.inner.Name()
}

func (s *statusReportingStep) Run(ctx *pipeline.Context) error {
	s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: tui.StatusStarted, Message: "Starting..."}

	err := s.inner.Run(ctx)

	if err != nil {
		if errors.Is(err, pipeline.ErrSkipPipeline) {
			s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: tui.StatusSkipped, Message: ctx.Result.SkipReason}
			return err
		}
		s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: tui.StatusError, Message: err.Error()}
		return err
	}

	s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: tui.StatusSuccess, Message: stepSummary(s.Name(), ctx.Result)}
	return nil
}

func stepSummary(step string, r *pipeline.Result) string {
	switch step {
	case "fetch_epic":
		return fmt.Sprintf("%d tickets", r.Fetched)
	case "alert_filter":
		return fmt.Sprintf("%d alert tickets", r.AlertTickets)
	case "reconciler":
		return fmt.Sprintf("created %d, updated %d, reopened %d, closed %d", r.Created, r.Updated, r.Reopened, r.Closed)
	}
	return "Completed"
}

// buildPipeline resolves step names and, when statusChan is set, wraps each
// step to report progress on it.
func buildPipeline(deps *pipeline.Dependencies, stepNames []string, statusChan chan<- tui.PipelineStatusMsg) (*pipeline.Pipeline, error) {
	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	built, err := registry.BuildFromNames(stepNames, deps)
	if err != nil {
		return nil, err
	}
	if statusChan == nil {
		return built, nil
	}

	var wrapped []pipeline.Step
	for _, step := range built.Steps() {
		wrapped = append(wrapped, &statusReportingStep{inner: step, statusChan: statusChan})
	}
	return pipeline.New(wrapped...), nil
}

// runPipeline runs p and closes statusChan when done so the TUI can exit.
func runPipeline(p *pipeline.Pipeline, pCtx *pipeline.Context, statusChan chan tui.PipelineStatusMsg) error {
	if statusChan != nil {
		defer close(statusChan)
	}
	return p.Run(pCtx)
}
