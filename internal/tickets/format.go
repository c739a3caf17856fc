// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package tickets

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/similigh/jira-alert-sync/internal/integrations/jira"
)

// Summary convention of auto-generated alert tickets.
const (
	SummaryPrefix = "Puppet alert:"
	SummarySuffix = "(auto-generated)"
)

var (
	summaryPattern = regexp.MustCompile(`^Puppet alert:.* severity:.* \(auto-generated\)$`)
	summaryParts   = regexp.MustCompile(`^Puppet alert:(.*) severity:(.*) \(auto-generated\)$`)
)

// FormatSummary builds the ticket summary for an alert.
func FormatSummary(alertName, severity string) string {
	return fmt.Sprintf("Puppet alert:%s severity:%s (auto-generated)", alertName, severity)
}

// FormatHostList renders hosts as a Jira numbered list under an "Instances:" header.
func FormatHostList(hosts []string) string {
	lines := make([]string, 0, len(hosts)+1)
	lines = append(lines, "Instances:")
	for _, h := range hosts {
		lines = append(lines, "# "+h)
	}
	return strings.Join(lines, "\n")
}

// IsAutoGeneratedAlert reports whether the ticket's summary carries the
// alert prefix and the auto-generated suffix.
func IsAutoGeneratedAlert(issue jira.Issue) bool {
	summary := issue.Fields.Summary
	return strings.HasPrefix(summary, SummaryPrefix) && strings.HasSuffix(summary, SummarySuffix)
}

// MatchesAlertPattern is the strict form of IsAutoGeneratedAlert: the summary
// must also carry a severity component.
func MatchesAlertPattern(summary string) bool {
	return summaryPattern.MatchString(summary)
}

// ParseSummary extracts the alert name and severity from a strict summary.
// Both parts are trimmed so hand-edited spacing still matches the alert.
func ParseSummary(summary string) (name, severity string, ok bool) {
	m := summaryParts.FindStringSubmatch(summary)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// GetAssignee returns "@<key> " for an assigned ticket and "" otherwise.
func GetAssignee(issue jira.Issue) string {
	if issue.Fields.Assignee == nil || issue.Fields.Assignee.Key == "" {
		return ""
	}
	return "@" + issue.Fields.Assignee.Key + " "
}

// FilterAlertTickets keeps the auto-generated alert tickets, preserving order.
func FilterAlertTickets(issues []jira.Issue) []jira.Issue {
	var out []jira.Issue
	for _, issue := range issues {
		if IsAutoGeneratedAlert(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// IndexByKey indexes tickets by key. Later duplicates win.
func IndexByKey(issues []jira.Issue) map[string]jira.Issue {
	index := make(map[string]jira.Issue, len(issues))
	for _, issue := range issues {
		index[issue.Key] = issue
	}
	return index
}
