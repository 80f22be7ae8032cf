package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInfeasible matches any *InfeasibleError via errors.Is.
	ErrInfeasible = errors.New("infeasible constraint")
	// ErrPreconditionViolated is returned when an operation's inputs or the
	// current tournament state rule it out, e.g. redrawing a released round.
	ErrPreconditionViolated = errors.New("precondition violated")
)

// InfeasibleError names the teams and judges that could not be placed and the
// hard rules that blocked them.
type InfeasibleError struct {
	Scope  string     `json:"scope"`
	Teams  []int      `json:"teams,omitempty"`
	Judges []int      `json:"judges,omitempty"`
	Rules  []Conflict `json:"-"`
	Reason string     `json:"reason,omitempty"`
}

func (e *InfeasibleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "infeasible %s", e.Scope)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.Teams) > 0 {
		fmt.Fprintf(&b, " (teams %v)", e.Teams)
	}
	if len(e.Judges) > 0 {
		fmt.Fprintf(&b, " (judges %v)", e.Judges)
	}
	for _, r := range e.Rules {
		if s, ok := r.(fmt.Stringer); ok {
			fmt.Fprintf(&b, "; %s", s)
		}
	}
	return b.String()
}

func (e *InfeasibleError) Is(target error) bool {
	return target == ErrInfeasible
}

type WarningCode string

const (
	WarnPullUp            WarningCode = "pull_up"
	WarnByeReassigned     WarningCode = "bye_reassigned"
	WarnBracketEscalated  WarningCode = "bracket_escalated"
	WarnSideConflict      WarningCode = "side_conflict"
	WarnPartialAssignment WarningCode = "partial_assignment"
	WarnSoftConflict      WarningCode = "soft_conflict"
	WarnBreakTruncated    WarningCode = "break_truncated"
)

// Warning is a recoverable condition attached to a successful result.
type Warning struct {
	Code        WarningCode `json:"code"`
	Message     string      `json:"message"`
	TeamIDs     []int       `json:"team_ids,omitempty"`
	JudgeIDs    []int       `json:"judge_ids,omitempty"`
	PairingUIDs []string    `json:"pairing_uids,omitempty"`
}
