// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package jira

import (
	"fmt"
	"net/http"
	"strings"
)

const maxBodySnippet = 512

// TransportError is returned for any non-2xx response.
type TransportError struct {
	Method      string
	Path        string
	StatusCode  int
	BodySnippet string
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("jira: %s %s returned HTTP %d", e.Method, e.Path, e.StatusCode)
	if e.BodySnippet != "" {
		msg += ": " + e.BodySnippet
	}
	return msg
}

// JSONError wraps a response body that could not be decoded.
type JSONError struct {
	Err error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("jira: decode response: %v", e.Err)
}

func (e *JSONError) Unwrap() error {
	return e.Err
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		s = s[:maxBodySnippet] + "..."
	}
	return s
}

// SanitizeHeaders returns a copy of h that is safe to log.
func SanitizeHeaders(h http.Header) http.Header {
	clean := http.Header{}
	for k, vals := range h {
		switch strings.ToLower(k) {
		case "authorization", "cookie":
			clean[k] = []string{"<redacted>"}
		default:
			clean[k] = append([]string{}, vals...)
		}
	}
	return clean
}
