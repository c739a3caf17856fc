// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-10-18

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestConfigDefaults verifies that default values are applied correctly.
func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Jira.URL != DefaultAPIRoot {
		t.Errorf("Expected Jira.URL to be %s, got %s", DefaultAPIRoot, cfg.Jira.URL)
	}
	if cfg.Jira.Epic != "DO-8612" {
		t.Errorf("Expected Jira.Epic to be DO-8612, got %s", cfg.Jira.Epic)
	}
	if cfg.Jira.PageSize != 200 {
		t.Errorf("Expected Jira.PageSize to be 200, got %d", cfg.Jira.PageSize)
	}
	if cfg.Transitions["Complete"] != "831" {
		t.Errorf("Expected Complete transition 831, got %q", cfg.Transitions["Complete"])
	}
	if cfg.Transitions["In Progress"] != "911" || cfg.Transitions["In Backlog"] != "751" {
		t.Errorf("Unexpected default transitions: %v", cfg.Transitions)
	}
	if _, ok := cfg.Ticket.ExtraFields["customfield_14120"]; !ok {
		t.Errorf("Expected passthrough customfield_14120, got %v", cfg.Ticket.ExtraFields)
	}
	if cfg.Reconcile.CloseStatus != "Complete" || cfg.Reconcile.ReopenStatus != "In Backlog" {
		t.Errorf("Unexpected reconcile statuses: %+v", cfg.Reconcile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("ALERT_SYNC_TEST_EPIC", "OPS-42")
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `
jira:
  url: "https://jira.example.com/rest/api/2/"
  epic: "${ALERT_SYNC_TEST_EPIC}"
transitions:
  Complete: "5"
  In Backlog: "6"
ticket:
  extra_fields:
    customfield_1:
      value: Ops
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithInheritance(path)
	if err != nil {
		t.Fatalf("LoadWithInheritance: %v", err)
	}
	if cfg.Jira.Epic != "OPS-42" {
		t.Errorf("Expected epic OPS-42, got %s", cfg.Jira.Epic)
	}
	if cfg.Transitions["Complete"] != "5" {
		t.Errorf("Expected Complete=5, got %v", cfg.Transitions)
	}
	if _, ok := cfg.Transitions["In Progress"]; ok {
		t.Errorf("Explicit transitions should replace defaults, got %v", cfg.Transitions)
	}
	field, ok := cfg.Ticket.ExtraFields["customfield_1"].(map[string]any)
	if !ok || field["value"] != "Ops" {
		t.Errorf("Expected passthrough field value Ops, got %#v", cfg.Ticket.ExtraFields)
	}
}

func TestLoadWithInheritance(t *testing.T) {
	dir := t.TempDir()
	base := `
jira:
  url: "https://jira.example.com/rest/api/2/"
  epic: "BASE-1"
transitions:
  Reopen: "11"
reconcile:
  notify: true
`
	child := `
extends: base.yaml
jira:
  epic: "CHILD-2"
transitions:
  Complete: "999"
`
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(base), 0o600); err != nil {
		t.Fatal(err)
	}
	childPath := filepath.Join(dir, "child.yaml")
	if err := os.WriteFile(childPath, []byte(child), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithInheritance(childPath)
	if err != nil {
		t.Fatalf("LoadWithInheritance: %v", err)
	}
	if cfg.Jira.Epic != "CHILD-2" {
		t.Errorf("Expected child epic, got %s", cfg.Jira.Epic)
	}
	if cfg.Jira.URL != "https://jira.example.com/rest/api/2/" {
		t.Errorf("Expected inherited URL, got %s", cfg.Jira.URL)
	}
	if cfg.Transitions["Reopen"] != "11" || cfg.Transitions["Complete"] != "999" {
		t.Errorf("Expected overlaid transitions, got %v", cfg.Transitions)
	}
	if !cfg.Reconcile.NotifyUsers() {
		t.Errorf("Expected notify=true to be inherited from parent")
	}
	if cfg.Extends != "" {
		t.Errorf("Expected Extends to be cleared after merge, got %q", cfg.Extends)
	}
}

func TestLoadWithInheritanceDerivesDefaultsAfterMerge(t *testing.T) {
	dir := t.TempDir()
	base := `
jira:
  url: "https://jira.example.com/rest/api/2/"
reconcile:
  notify: true
`
	child := `
extends: base.yaml
transitions:
  Resolved: "41"
  In Backlog: "751"
reconcile:
  close_status: Resolved
  notify: false
`
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(base), 0o600); err != nil {
		t.Fatal(err)
	}
	childPath := filepath.Join(dir, "child.yaml")
	if err := os.WriteFile(childPath, []byte(child), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithInheritance(childPath)
	if err != nil {
		t.Fatalf("LoadWithInheritance: %v", err)
	}
	if cfg.Reconcile.CloseStatus != "Resolved" {
		t.Errorf("Expected close status Resolved, got %q", cfg.Reconcile.CloseStatus)
	}
	if !cfg.IsClosedStatus("Resolved") {
		t.Errorf("Expected Resolved to count as closed, got %v", cfg.Reconcile.ClosedStatuses)
	}
	if cfg.IsClosedStatus("Complete") {
		t.Errorf("Expected the default close status to be dropped, got %v", cfg.Reconcile.ClosedStatuses)
	}
	if cfg.Reconcile.NotifyUsers() {
		t.Errorf("Expected child notify=false to override parent")
	}
	if err := cfg.ValidateReconcile(); err != nil {
		t.Errorf("Expected reconcile statuses to resolve, got %v", err)
	}
}

func TestLoadWithInheritanceCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(a, []byte("extends: b.yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("extends: a.yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadWithInheritance(a)
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("Expected cycle error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad url", func(c *Config) { c.Jira.URL = "not a url" }, "jira.url"},
		{"empty epic", func(c *Config) { c.Jira.Epic = " " }, "jira.epic"},
		{"page size too large", func(c *Config) { c.Jira.PageSize = 5000 }, "page_size"},
		{"empty transition id", func(c *Config) { c.Transitions["In Progress"] = "" }, "empty id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateReconcile(t *testing.T) {
	cfg := Default()
	delete(cfg.Transitions, "In Backlog")
	cfg.Reconcile.CloseStatus = "Resolved"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Unmapped reconcile statuses should not fail Validate, got %v", err)
	}
	err := cfg.ValidateReconcile()
	if err == nil {
		t.Fatal("Expected ValidateReconcile to fail")
	}
	for _, status := range []string{"Resolved", "In Backlog"} {
		if !strings.Contains(err.Error(), status) {
			t.Errorf("Expected error to name %q, got %v", status, err)
		}
	}
	if err := Default().ValidateReconcile(); err != nil {
		t.Errorf("Default config should validate for reconcile, got %v", err)
	}
}

func TestIsClosedStatus(t *testing.T) {
	cfg := Default()
	for _, s := range []string{"Complete", "complete", "Done", "Closed"} {
		if !cfg.IsClosedStatus(s) {
			t.Errorf("Expected %q to be closed", s)
		}
	}
	for _, s := range []string{"In Progress", "In Backlog", ""} {
		if cfg.IsClosedStatus(s) {
			t.Errorf("Expected %q to be open", s)
		}
	}
}

func TestFindConfigPathExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.yaml")
	if got := FindConfigPath(path); got != "" {
		t.Errorf("Expected empty path for missing file, got %q", got)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigPath(path); got != path {
		t.Errorf("Expected %q, got %q", path, got)
	}
}
