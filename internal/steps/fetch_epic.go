// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

// Package steps contains the pipeline steps of a sync run.
// Each step implements the pipeline.Step interface.
package steps

import (
	"fmt"

	"github.com/similigh/jira-alert-sync/internal/core/pipeline"
	"github.com/similigh/jira-alert-sync/internal/tickets"
)

// FetchEpic loads every ticket linked to the run's epic.
type FetchEpic struct {
	sync *tickets.Synchronizer
}

// NewFetchEpic creates a new fetch step.
func NewFetchEpic(deps *pipeline.Dependencies) *FetchEpic {
	return &FetchEpic{sync: deps.Synchronizer}
}

// Name returns the step name.
func (s *FetchEpic) Name() string {
	return "fetch_epic"
}

// Run queries the epic and records whether the page held every ticket.
func (s *FetchEpic) Run(ctx *pipeline.Context) error {
	if s.sync == nil {
		return fmt.Errorf("synchronizer is required")
	}
	issues, total, err := s.sync.FetchEpicTickets(ctx.Ctx, ctx.Epic)
	if err != nil {
		return err
	}
	ctx.Tickets = issues
	ctx.Result.Fetched = len(issues)
	ctx.Result.Total = total
	ctx.Result.Truncated = total > len(issues)
	return nil
}
