// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package tickets

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTransition matches any *UnknownTransitionError via errors.Is.
var ErrUnknownTransition = errors.New("unknown transition")

// UnknownTransitionError reports a status name missing from the transition table.
// It is an operator configuration error: the table must be extended.
type UnknownTransitionError struct {
	Status string
	Known  []string
}

func (e *UnknownTransitionError) Error() string {
	msg := fmt.Sprintf("transition: %s not known (look up on JIRA and add to the config)", e.Status)
	if len(e.Known) > 0 {
		msg += "; known: " + strings.Join(e.Known, ", ")
	}
	return msg
}

// Is lets errors.Is(err, ErrUnknownTransition) match.
func (e *UnknownTransitionError) Is(target error) bool {
	return target == ErrUnknownTransition
}

// ErrNotAlertSummary is returned when creating a ticket whose summary would
// not be found again by the epic filter.
var ErrNotAlertSummary = errors.New("summary does not follow the auto-generated alert convention")
