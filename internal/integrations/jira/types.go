// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package jira

// Issue is the subset of a Jira issue the synchronizer reads.
type Issue struct {
	ID     string      `json:"id,omitempty"`
	Key    string      `json:"key"`
	Self   string      `json:"self,omitempty"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the consumed issue fields. Assignee is nil when unassigned.
type IssueFields struct {
	Summary     string  `json:"summary"`
	Description string  `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	Assignee    *User   `json:"assignee,omitempty"`
}

// Status is a workflow status.
type Status struct {
	Name string `json:"name"`
}

// User is a Jira Server user reference.
type User struct {
	Key         string `json:"key,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// StatusName returns the status name or "" when the status is missing.
func (i Issue) StatusName() string {
	if i.Fields.Status == nil {
		return ""
	}
	return i.Fields.Status.Name
}

// SearchOptions configures a single JQL search request.
type SearchOptions struct {
	JQL        string
	StartAt    int
	MaxResults int
	Fields     []string
}

// SearchResult is one page of a JQL search.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// CreatedIssue is the response body of an issue creation.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type fieldsPayload struct {
	Fields map[string]any `json:"fields"`
}

type commentPayload struct {
	Body string `json:"body"`
}

type transitionPayload struct {
	Transition transitionRef `json:"transition"`
}

type transitionRef struct {
	ID string `json:"id"`
}
