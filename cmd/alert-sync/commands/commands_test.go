// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/similigh/jira-alert-sync/internal/core/config"
	"github.com/similigh/jira-alert-sync/internal/core/pipeline"
	"github.com/similigh/jira-alert-sync/internal/integrations/jira"
	"github.com/similigh/jira-alert-sync/internal/tickets"
	"github.com/similigh/jira-alert-sync/internal/tui"
)

const searchFixture = `{"startAt":0,"maxResults":200,"total":3,"issues":[
  {"key":"DO-1","fields":{"summary":"Puppet alert:disk severity:critical (auto-generated)","description":"Instances:\n# web-1","status":{"name":"In Progress"},"assignee":{"key":"jdoe"}}},
  {"key":"DO-2","fields":{"summary":"Puppet alert:cpu severity:warning (auto-generated)","description":"Instances:\n# db-1","status":{"name":"In Progress"}}},
  {"key":"DO-3","fields":{"summary":"Rotate certificates","status":{"name":"In Progress"}}}
]}`

func resetFlags() {
	cfgFile, jiraUser, jiraPassword, jiraToken, epicFlag, metricsFile = "", "", "", "", "", ""
	dryRun, verbose, scanJSON = false, false, false
	alertsFile, syncWorkflow, syncSteps, noTUI, syncJSON = "", "reconcile", nil, false, false
	setFieldJSON, setFieldNotify, closeMention = false, false, ""
	createSummary, createDescription, createAlert, createSeverity, createHosts = "", "", "", "", nil
}

// newJiraServer serves searchFixture and counts every request.
func newJiraServer(t *testing.T) (*atomic.Int32, string) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch {
		case r.URL.Path == "/rest/api/2/search":
			_, _ = io.WriteString(w, searchFixture)
		case r.Method == http.MethodPost && r.URL.Path == "/rest/api/2/issue":
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"9","key":"DO-9"}`)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)
	return &hits, srv.URL + "/rest/api/2/"
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeConfig(t *testing.T, url string) string {
	t.Helper()
	return writeFile(t, "alert-sync.yaml", fmt.Sprintf("jira:\n  url: %q\n  epic: DO-8612\nlogging:\n  level: error\n", url))
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	resetFlags()
	t.Setenv("JIRA_USER", "")
	t.Setenv("JIRA_PASSWORD", "")
	t.Setenv("JIRA_TOKEN", "")
	t.Setenv("CI", "true")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	code = Execute(context.Background())
	return out.String(), errOut.String(), code
}

func TestScanJSON(t *testing.T) {
	hits, url := newJiraServer(t)
	cfg := writeConfig(t, url)

	stdout, stderr, code := runCLI(t, "scan", "--json", "--config", cfg, "-u", "jdoe", "-p", "secret")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	var got scanOutput
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if got.Epic != "DO-8612" || got.Fetched != 3 || got.Total != 3 || len(got.Tickets) != 2 {
		t.Errorf("output = %+v", got)
	}
	if _, ok := got.Index["DO-1"]; !ok {
		t.Errorf("index = %v, want DO-1", got.Index)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestRootRunsScanTable(t *testing.T) {
	_, url := newJiraServer(t)
	cfg := writeConfig(t, url)

	stdout, stderr, code := runCLI(t, "--config", cfg, "-u", "jdoe", "-p", "secret")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	for _, want := range []string{"Epic DO-8612: 3 tickets, 2 alert tickets", "DO-2", "jdoe"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Rotate certificates") {
		t.Errorf("non-alert ticket printed:\n%s", stdout)
	}
}

func TestMissingCredentialsFails(t *testing.T) {
	hits, url := newJiraServer(t)
	cfg := writeConfig(t, url)

	_, stderr, code := runCLI(t, "scan", "--config", cfg)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "--user and --password are required") {
		t.Errorf("stderr = %q", stderr)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestSyncDryRunJSON(t *testing.T) {
	hits, url := newJiraServer(t)
	cfg := writeConfig(t, url)
	alertsPath := writeFile(t, "firing.yaml", `
alerts:
  - name: disk
    severity: critical
    hosts: [web-1, web-2]
  - name: swap
    severity: critical
    hosts: [web-3]
`)

	stdout, stderr, code := runCLI(t, "sync", "--alerts", alertsPath, "--dry-run", "--json", "--config", cfg, "-u", "jdoe", "-p", "secret")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	var r pipeline.Result
	if err := json.Unmarshal([]byte(stdout), &r); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if !r.DryRun || r.Created != 1 || r.Updated != 1 || r.Closed != 1 {
		t.Errorf("result = %+v", r)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("requests = %d, want only the epic query", n)
	}
}

func TestSyncWritesMetricsFile(t *testing.T) {
	_, url := newJiraServer(t)
	cfg := writeConfig(t, url)
	alertsPath := writeFile(t, "firing.json", `{"alerts":[{"name":"disk","severity":"critical","hosts":["web-1"]}]}`)
	metricsPath := filepath.Join(t.TempDir(), "alert_sync.prom")

	_, stderr, code := runCLI(t, "sync", "--alerts", alertsPath, "--dry-run", "--metrics-file", metricsPath, "--config", cfg, "--token", "abc")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{"alert_sync_firing_alerts 1", "alert_sync_last_run_success 1"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestReconcileTransitionsOnlyRequiredBySync(t *testing.T) {
	hits, url := newJiraServer(t)
	cfg := writeFile(t, "alert-sync.yaml", fmt.Sprintf(
		"jira:\n  url: %q\n  epic: DO-8612\ntransitions:\n  In Progress: \"911\"\nlogging:\n  level: error\n", url))
	alertsPath := writeFile(t, "firing.yaml", "alerts:\n  - name: disk\n    severity: critical\n    hosts: [web-1]\n")

	_, stderr, code := runCLI(t, "scan", "--config", cfg, "-u", "jdoe", "-p", "secret")
	if code != 0 {
		t.Fatalf("scan exit code = %d, stderr = %s", code, stderr)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("scan requests = %d, want 1", n)
	}

	_, stderr, code = runCLI(t, "sync", "--alerts", alertsPath, "--config", cfg, "-u", "jdoe", "-p", "secret")
	if code != 1 {
		t.Fatalf("sync exit code = %d, want 1", code)
	}
	for _, want := range []string{"invalid config", "Complete", "In Backlog"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q: %q", want, stderr)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("sync sent %d extra requests, want 0", n-1)
	}
}

func TestTransitionUnknownStatusExitsWithHint(t *testing.T) {
	hits, url := newJiraServer(t)
	cfg := writeConfig(t, url)

	_, stderr, code := runCLI(t, "transition", "DO-1", "Bogus", "--config", cfg, "-u", "jdoe", "-p", "secret")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr, "transition: Bogus not known (look up on JIRA and add to the config)") {
		t.Errorf("stderr = %q", stderr)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestCreateFromAlertFlags(t *testing.T) {
	hits, url := newJiraServer(t)
	cfg := writeConfig(t, url)

	stdout, stderr, code := runCLI(t, "create", "--alert", "disk", "--severity", "critical", "--host", "web-1", "--config", cfg, "-u", "jdoe", "-p", "secret")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "DO-9" {
		t.Errorf("stdout = %q, want DO-9", stdout)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestVersionNeedsNoConfig(t *testing.T) {
	stdout, _, code := runCLI(t, "version", "--config", "/does/not/exist.yaml")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout, "alert-sync ") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestResolveAuth(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name     string
		user     string
		password string
		token    string
		env      map[string]string
		want     string
	}{
		{"flags", "jdoe", "secret", "", nil, "basic"},
		{"env fallback", "", "", "", map[string]string{"JIRA_USER": "env", "JIRA_PASSWORD": "pw"}, "basic"},
		{"token only", "", "", "abc", nil, "token"},
		{"token env", "", "", "", map[string]string{"JIRA_TOKEN": "abc"}, "token"},
		{"user without password", "jdoe", "", "", nil, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			for _, k := range []string{"JIRA_USER", "JIRA_PASSWORD", "JIRA_TOKEN"} {
				t.Setenv(k, tt.env[k])
			}
			jiraUser, jiraPassword, jiraToken = tt.user, tt.password, tt.token

			auth, err := resolveAuth(cfg)
			got := "error"
			switch auth.(type) {
			case jira.BasicAuth:
				got = "basic"
			case *jira.TokenAuth:
				got = "token"
			}
			if got != tt.want {
				t.Errorf("resolveAuth() = %T, %v; want %s", auth, err, tt.want)
			}
		})
	}
}

func TestDescribeError(t *testing.T) {
	ute := &tickets.UnknownTransitionError{Status: "Bogus"}
	wrapped := fmt.Errorf("step 'reconciler' failed: %w", ute)
	if got := describeError(wrapped); got != ute.Error() {
		t.Errorf("describeError() = %q, want %q", got, ute.Error())
	}
	if got := describeError(errors.New("boom")); got != "Error: boom" {
		t.Errorf("describeError() = %q", got)
	}
}

func TestParseFieldValue(t *testing.T) {
	v, err := parseFieldValue(`{"value":"Devops"}`, true)
	if err != nil {
		t.Fatalf("parseFieldValue: %v", err)
	}
	if m, ok := v.(map[string]any); !ok || m["value"] != "Devops" {
		t.Errorf("value = %#v", v)
	}
	if v, _ := parseFieldValue(`{"value":"Devops"}`, false); v != `{"value":"Devops"}` {
		t.Errorf("raw value = %#v", v)
	}
	if _, err := parseFieldValue(`{nope`, true); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMention(t *testing.T) {
	for in, want := range map[string]string{"": "", "jdoe": "@jdoe ", "@jdoe": "@jdoe ", "  ": ""} {
		if got := mention(in); got != want {
			t.Errorf("mention(%q) = %q, want %q", in, got, want)
		}
	}
}

func viewEndingWith(msg tea.Msg) func() (tui.Model, error) {
	return func() (tui.Model, error) {
		m := tui.NewModel("DO-8612", false, []string{"fetch_epic"}, make(chan tui.PipelineStatusMsg))
		next, _ := m.Update(msg)
		return next.(tui.Model), nil
	}
}

// blockUntilCancelled stands in for a pipeline that never finishes by itself.
func blockUntilCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return errors.New("work was not cancelled")
	}
}

func TestRunBesideViewCancelsWorkWhenUserQuits(t *testing.T) {
	err := runBesideView(context.Background(), blockUntilCancelled, viewEndingWith(tea.KeyMsg{Type: tea.KeyCtrlC}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunBesideViewCancelsWorkOnIdleTimeout(t *testing.T) {
	view := viewEndingWith(tui.ResultMsg{Success: false, Output: "pipeline timed out waiting for activity"})

	err := runBesideView(context.Background(), blockUntilCancelled, view)
	if !errors.Is(err, context.Canceled) || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v, want timed out wrapping context.Canceled", err)
	}
}

func TestRunBesideViewWaitsForFinishedWork(t *testing.T) {
	var cancelled atomic.Bool
	work := func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		cancelled.Store(ctx.Err() != nil)
		return nil
	}

	if err := runBesideView(context.Background(), work, viewEndingWith(tui.ResultMsg{Success: true})); err != nil {
		t.Fatalf("err = %v", err)
	}
	if cancelled.Load() {
		t.Error("work was cancelled after a successful view")
	}
}
