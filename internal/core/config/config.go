// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-10-18

// Package config handles loading and merging alert-sync configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in values matching the Jira instance the tool was written for.
const (
	DefaultAPIRoot       = "https://jira.desk.technology/rest/api/2/"
	DefaultEpic          = "DO-8612"
	DefaultPageSize      = 200
	DefaultProjectID     = "12635"
	DefaultIssueTypeID   = "10109"
	DefaultReporter      = "cmcavoy"
	DefaultEpicLinkField = "customfield_12120"
	DefaultCloseStatus   = "Complete"
	DefaultReopenStatus  = "In Backlog"
)

// Config is the root configuration structure.
type Config struct {
	// Extends inherits from another local config file, relative to this one.
	Extends string `yaml:"extends,omitempty"`

	// Jira configures the tracker connection.
	Jira JiraConfig `yaml:"jira"`

	// Ticket holds the fields stamped onto every created ticket.
	Ticket TicketConfig `yaml:"ticket"`

	// Transitions maps a status name to the workflow transition id that reaches it.
	Transitions map[string]string `yaml:"transitions,omitempty"`

	// Reconcile tunes the sync command.
	Reconcile ReconcileConfig `yaml:"reconcile"`

	// Logging configures log level and error reporting.
	Logging LoggingConfig `yaml:"logging"`
}

// JiraConfig holds Jira connection settings.
type JiraConfig struct {
	URL      string `yaml:"url"`
	Epic     string `yaml:"epic"`
	PageSize int    `yaml:"page_size"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
}

// TicketConfig holds the creation payload constants.
type TicketConfig struct {
	ProjectID     string `yaml:"project_id"`
	IssueTypeID   string `yaml:"issue_type_id"`
	Reporter      string `yaml:"reporter"`
	EpicLinkField string `yaml:"epic_link_field"`

	// ExtraFields are passed through verbatim into the create payload.
	ExtraFields map[string]any `yaml:"extra_fields,omitempty"`
}

// ReconcileConfig holds sync behavior settings.
type ReconcileConfig struct {
	CloseStatus    string   `yaml:"close_status"`
	ReopenStatus   string   `yaml:"reopen_status"`
	ClosedStatuses []string `yaml:"closed_statuses,omitempty"`

	// Notify is a pointer so an extending file can switch it off explicitly.
	Notify *bool `yaml:"notify,omitempty"`

	// AllowEmpty lets an empty alerts file close every open alert ticket.
	AllowEmpty bool `yaml:"allow_empty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	SentryDSN   string `yaml:"sentry_dsn,omitempty"`
	Environment string `yaml:"environment,omitempty"`
}

// DefaultTransitions returns the transition table of the default workflow.
func DefaultTransitions() map[string]string {
	return map[string]string{
		"In Progress": "911",
		"Complete":    "831",
		"In Backlog":  "751",
	}
}

// DefaultExtraFields returns the passthrough fields of the default project.
func DefaultExtraFields() map[string]any {
	return map[string]any{
		"customfield_14120": map[string]any{"value": "Devops"},
	}
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadWithInheritance loads a config, expands environment variables and
// resolves the 'extends' chain. Relative extends paths resolve against the
// directory of the extending file. Defaults are applied once, after the whole
// chain is merged, so derived values follow the final settings.
func LoadWithInheritance(path string) (*Config, error) {
	cfg, err := loadChain(path, map[string]bool{})
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func loadChain(path string, seen map[string]bool) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if seen[abs] {
		return nil, fmt.Errorf("config inheritance cycle at %s", abs)
	}
	seen[abs] = true

	cfg, err := readRaw(abs)
	if err != nil {
		return nil, err
	}
	if cfg.Extends == "" {
		return cfg, nil
	}

	parentPath := cfg.Extends
	if !filepath.IsAbs(parentPath) {
		parentPath = filepath.Join(filepath.Dir(abs), parentPath)
	}
	parent, err := loadChain(parentPath, seen)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent config '%s': %w", cfg.Extends, err)
	}

	// Merge: child overrides parent
	return mergeConfigs(parent, cfg), nil
}

func readRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseRaw(data)
}

func parseRaw(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// FindConfigPath searches for a config file in standard locations.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{
		".alert-sync.yaml",
		".alert-sync.yml",
		".github/alert-sync.yaml",
		".github/alert-sync.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}

	return ""
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Jira.URL == "" {
		c.Jira.URL = DefaultAPIRoot
	}
	if c.Jira.Epic == "" {
		c.Jira.Epic = DefaultEpic
	}
	if c.Jira.PageSize <= 0 {
		c.Jira.PageSize = DefaultPageSize
	}
	if c.Ticket.ProjectID == "" {
		c.Ticket.ProjectID = DefaultProjectID
	}
	if c.Ticket.IssueTypeID == "" {
		c.Ticket.IssueTypeID = DefaultIssueTypeID
	}
	if c.Ticket.Reporter == "" {
		c.Ticket.Reporter = DefaultReporter
	}
	if c.Ticket.EpicLinkField == "" {
		c.Ticket.EpicLinkField = DefaultEpicLinkField
	}
	if c.Ticket.ExtraFields == nil {
		c.Ticket.ExtraFields = DefaultExtraFields()
	}
	if len(c.Transitions) == 0 {
		c.Transitions = DefaultTransitions()
	}
	if c.Reconcile.CloseStatus == "" {
		c.Reconcile.CloseStatus = DefaultCloseStatus
	}
	if c.Reconcile.ReopenStatus == "" {
		c.Reconcile.ReopenStatus = DefaultReopenStatus
	}
	if len(c.Reconcile.ClosedStatuses) == 0 {
		c.Reconcile.ClosedStatuses = []string{c.Reconcile.CloseStatus, "Done", "Closed"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Jira.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid jira.url %q (must be an http(s) URL)", c.Jira.URL))
	}
	if strings.TrimSpace(c.Jira.Epic) == "" {
		errs = append(errs, errors.New("jira.epic is required"))
	}
	if c.Jira.PageSize <= 0 || c.Jira.PageSize > 1000 {
		errs = append(errs, fmt.Errorf("invalid jira.page_size %d (must be 1..1000)", c.Jira.PageSize))
	}
	if c.Ticket.ProjectID == "" || c.Ticket.IssueTypeID == "" {
		errs = append(errs, errors.New("ticket.project_id and ticket.issue_type_id are required"))
	}
	for _, name := range sortedKeys(c.Transitions) {
		if strings.TrimSpace(c.Transitions[name]) == "" {
			errs = append(errs, fmt.Errorf("transition %q has an empty id", name))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateReconcile checks what only the sync command needs: both reconcile
// statuses must map to a transition.
func (c *Config) ValidateReconcile() error {
	var errs []error
	for _, status := range []string{c.Reconcile.CloseStatus, c.Reconcile.ReopenStatus} {
		if _, ok := c.Transitions[status]; !ok {
			errs = append(errs, fmt.Errorf("reconcile status %q has no entry in transitions", status))
		}
	}
	return errors.Join(errs...)
}

// NotifyUsers reports whether description updates should notify watchers.
func (r ReconcileConfig) NotifyUsers() bool {
	return r.Notify != nil && *r.Notify
}

// IsClosedStatus reports whether status counts as a closed ticket.
func (c *Config) IsClosedStatus(status string) bool {
	for _, s := range c.Reconcile.ClosedStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

// mergeConfigs merges a child config onto a parent config.
// Non-zero values in child override parent; map entries overlay.
func mergeConfigs(parent, child *Config) *Config {
	result := *parent
	result.Extends = ""

	// Jira: override if any field is set
	if child.Jira.URL != "" {
		result.Jira.URL = child.Jira.URL
	}
	if child.Jira.Epic != "" {
		result.Jira.Epic = child.Jira.Epic
	}
	if child.Jira.PageSize != 0 {
		result.Jira.PageSize = child.Jira.PageSize
	}
	if child.Jira.User != "" {
		result.Jira.User = child.Jira.User
	}
	if child.Jira.Password != "" {
		result.Jira.Password = child.Jira.Password
	}
	if child.Jira.Token != "" {
		result.Jira.Token = child.Jira.Token
	}

	// Ticket
	if child.Ticket.ProjectID != "" {
		result.Ticket.ProjectID = child.Ticket.ProjectID
	}
	if child.Ticket.IssueTypeID != "" {
		result.Ticket.IssueTypeID = child.Ticket.IssueTypeID
	}
	if child.Ticket.Reporter != "" {
		result.Ticket.Reporter = child.Ticket.Reporter
	}
	if child.Ticket.EpicLinkField != "" {
		result.Ticket.EpicLinkField = child.Ticket.EpicLinkField
	}
	if len(child.Ticket.ExtraFields) > 0 {
		extra := make(map[string]any, len(parent.Ticket.ExtraFields)+len(child.Ticket.ExtraFields))
		for k, v := range parent.Ticket.ExtraFields {
			extra[k] = v
		}
		for k, v := range child.Ticket.ExtraFields {
			extra[k] = v
		}
		result.Ticket.ExtraFields = extra
	}

	if len(child.Transitions) > 0 {
		transitions := make(map[string]string, len(parent.Transitions)+len(child.Transitions))
		for k, v := range parent.Transitions {
			transitions[k] = v
		}
		for k, v := range child.Transitions {
			transitions[k] = v
		}
		result.Transitions = transitions
	}

	// Reconcile
	if child.Reconcile.CloseStatus != "" {
		result.Reconcile.CloseStatus = child.Reconcile.CloseStatus
	}
	if child.Reconcile.ReopenStatus != "" {
		result.Reconcile.ReopenStatus = child.Reconcile.ReopenStatus
	}
	if len(child.Reconcile.ClosedStatuses) > 0 {
		result.Reconcile.ClosedStatuses = child.Reconcile.ClosedStatuses
	}
	if child.Reconcile.Notify != nil {
		notify := *child.Reconcile.Notify
		result.Reconcile.Notify = &notify
	}
	if child.Reconcile.AllowEmpty {
		result.Reconcile.AllowEmpty = true
	}

	// Logging
	if child.Logging.Level != "" {
		result.Logging.Level = child.Logging.Level
	}
	if child.Logging.SentryDSN != "" {
		result.Logging.SentryDSN = child.Logging.SentryDSN
	}
	if child.Logging.Environment != "" {
		result.Logging.Environment = child.Logging.Environment
	}

	return &result
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KnownStatuses returns the configured status names in sorted order.
func (c *Config) KnownStatuses() []string {
	return sortedKeys(c.Transitions)
}
