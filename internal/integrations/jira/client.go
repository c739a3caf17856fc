// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

// Package jira is a thin client for the Jira REST API v2.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "jira-alert-sync/0.1.0"
	maxResponseBytes = 10 << 20
)

// Client talks to a single Jira REST API root, e.g.
// https://jira.example.com/rest/api/2/.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       AuthProvider
	logger     *slog.Logger
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for the API root at baseURL.
func NewClient(baseURL string, auth AuthProvider, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return nil, errors.New("jira base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid jira base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid jira base URL %q: scheme must be http or https", base)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: defaultTimeout},
		auth:       auth,
		logger:     slog.Default(),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search runs one JQL search request. It never follows further pages.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	if strings.TrimSpace(opts.JQL) == "" {
		return nil, errors.New("jql is required")
	}
	q := url.Values{}
	q.Set("jql", opts.JQL)
	q.Set("startAt", strconv.Itoa(opts.StartAt))
	if opts.MaxResults > 0 {
		q.Set("maxResults", strconv.Itoa(opts.MaxResults))
	}
	if len(opts.Fields) > 0 {
		q.Set("fields", strings.Join(opts.Fields, ","))
	}

	var out SearchResult
	if err := c.do(ctx, http.MethodGet, "search", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateIssue posts a new issue built from fields.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (*CreatedIssue, error) {
	if len(fields) == 0 {
		return nil, errors.New("issue fields cannot be empty")
	}
	var out CreatedIssue
	if err := c.do(ctx, http.MethodPost, "issue", nil, fieldsPayload{Fields: fields}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateIssue sets fields on an existing issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any, notify bool) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(fields) == 0 {
		return errors.New("issue fields cannot be empty")
	}
	q := url.Values{}
	q.Set("notifyUsers", strconv.FormatBool(notify))
	return c.do(ctx, http.MethodPut, "issue/"+url.PathEscape(key), q, fieldsPayload{Fields: fields}, nil)
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, key, body string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("comment body cannot be empty")
	}
	return c.do(ctx, http.MethodPost, "issue/"+url.PathEscape(key)+"/comment", nil, commentPayload{Body: body}, nil)
}

// TransitionIssue applies the workflow transition with the given id.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if strings.TrimSpace(transitionID) == "" {
		return errors.New("transition id cannot be empty")
	}
	payload := transitionPayload{Transition: transitionRef{ID: transitionID}}
	return c.do(ctx, http.MethodPost, "issue/"+url.PathEscape(key)+"/transitions", nil, payload, nil)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("issue key is required")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jira: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("jira: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.auth != nil {
		if err := c.auth.Apply(req); err != nil {
			return fmt.Errorf("jira: apply auth: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.logger.Debug("jira rest request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)),
		slog.Any("headers", SanitizeHeaders(req.Header)),
	)
	if err != nil {
		return fmt.Errorf("jira: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("jira: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{
			Method:      method,
			Path:        path,
			StatusCode:  resp.StatusCode,
			BodySnippet: snippet(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &JSONError{Err: err}
	}
	return nil
}
