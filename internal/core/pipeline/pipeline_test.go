// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/similigh/jira-alert-sync/internal/core/config"
)

type funcStep struct {
	name string
	run  func(ctx *Context) error
}

func (s *funcStep) Name() string           { return s.name }
func (s *funcStep) Run(ctx *Context) error { return s.run(ctx) }

func TestPipelineStopsOnSkip(t *testing.T) {
	var ran []string
	p := New(
		&funcStep{"a", func(*Context) error { ran = append(ran, "a"); return ErrSkipPipeline }},
		&funcStep{"b", func(*Context) error { ran = append(ran, "b"); return nil }},
	)

	if err := p.Run(NewContext(context.Background(), "DO-1", nil, config.Default())); err != nil {
		t.Fatalf("Run() = %v, want nil on skip", err)
	}
	if !reflect.DeepEqual(ran, []string{"a"}) {
		t.Errorf("ran = %v, want [a]", ran)
	}
}

func TestPipelineWrapsStepError(t *testing.T) {
	boom := errors.New("boom")
	p := New(&funcStep{"fetch_epic", func(*Context) error { return boom }})

	err := p.Run(NewContext(context.Background(), "DO-1", nil, config.Default()))
	if !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want wrapped boom", err)
	}
	if err.Error() != "step 'fetch_epic' failed: boom" {
		t.Errorf("Run() error = %q", err.Error())
	}
}

func TestResolveSteps(t *testing.T) {
	tests := []struct {
		name     string
		explicit []string
		workflow string
		want     []string
	}{
		{"explicit wins", []string{"fetch_epic"}, "reconcile", []string{"fetch_epic"}},
		{"scan preset", nil, "scan", []string{"fetch_epic", "alert_filter"}},
		{"unknown preset falls back", nil, "nope", Presets["reconcile"]},
		{"empty falls back", nil, "", Presets["reconcile"]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSteps(tt.explicit, tt.workflow); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveSteps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistryBuildUnknownStep(t *testing.T) {
	r := NewRegistry()
	r.Register("a", func(*Dependencies) (Step, error) {
		return &funcStep{"a", func(*Context) error { return nil }}, nil
	})

	if _, err := r.BuildFromNames([]string{"a", "missing"}, &Dependencies{}); err == nil {
		t.Error("expected error for unknown step")
	}
	p, err := r.BuildFromNames([]string{"a"}, &Dependencies{})
	if err != nil || len(p.Steps()) != 1 {
		t.Errorf("BuildFromNames() = %v, %v", p, err)
	}
}

func TestResultAddDetailRecordsErrors(t *testing.T) {
	r := &Result{}
	r.AddDetail(TicketDetail{Key: "DO-1", Action: ActionClosed})
	r.AddDetail(TicketDetail{Alert: "disk-full/critical", Action: ActionError, Reason: "HTTP 500"})

	if len(r.Details) != 2 {
		t.Errorf("details = %d, want 2", len(r.Details))
	}
	if !reflect.DeepEqual(r.Errors, []string{"disk-full/critical: HTTP 500"}) {
		t.Errorf("errors = %v", r.Errors)
	}
}
