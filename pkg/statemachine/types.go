// Package statemachine implements C5: the 7-step governance transition
// graph (spec.md §4.5). It enforces that no step is skipped and that
// every rejection, forced or not, is witnessed and audited.
package statemachine

import (
	"time"

	"github.com/google/uuid"
)

// State is one of the ten governance states a motion can occupy.
type State string

const (
	Introduced   State = "introduced"
	Deliberating State = "deliberating"
	Ratified     State = "ratified"
	Rejected     State = "rejected"
	Tabled       State = "tabled"
	Planning     State = "planning"
	Executing    State = "executing"
	Judging      State = "judging"
	Witnessing   State = "witnessing"
	Acknowledged State = "acknowledged"
)

// terminal holds the two terminal states: Rejected and Acknowledged.
var terminal = map[State]bool{
	Rejected:     true,
	Acknowledged: true,
}

// IsTerminal reports whether s is a terminal state.
func IsTerminal(s State) bool {
	return terminal[s]
}

// allowedEdges is the labelled transition graph from spec.md §4.5. Any
// (from, to) pair not present here is invalid.
var allowedEdges = map[State]map[State]bool{
	Introduced:   {Deliberating: true},
	Deliberating: {Ratified: true, Rejected: true, Tabled: true},
	Tabled:       {Deliberating: true},
	Ratified:     {Planning: true},
	Planning:     {Executing: true},
	Executing:    {Judging: true},
	Judging:      {Witnessing: true},
	Witnessing:   {Acknowledged: true},
}

// IsValidEdge reports whether (from, to) is a member of the allowed
// transition relation.
func IsValidEdge(from, to State) bool {
	return allowedEdges[from][to]
}

// NextStates returns the states reachable from s in a single valid edge.
func NextStates(s State) []State {
	edges := allowedEdges[s]
	out := make([]State, 0, len(edges))
	for to := range edges {
		out = append(out, to)
	}
	return out
}

// canonicalOrder is the forward order used to compute skipped states on
// an invalid forward transition (spec.md §4.5). Tabled and Rejected are
// side paths and never appear in it.
var canonicalOrder = []State{
	Introduced, Deliberating, Ratified, Planning, Executing, Judging,
	Witnessing, Acknowledged,
}

func canonicalIndex(s State) int {
	for i, c := range canonicalOrder {
		if c == s {
			return i
		}
	}
	return -1
}

// SkippedStates returns the canonical states strictly between from and to
// when to is canonically forward of from. If to is not forward of from
// (e.g. a side path or a backward jump), it returns nil — per spec.md
// §4.5, skipped-state computation only applies to forward transitions.
func SkippedStates(from, to State) []State {
	fi, ti := canonicalIndex(from), canonicalIndex(to)
	if fi == -1 || ti == -1 || ti <= fi+1 {
		return nil
	}
	return append([]State(nil), canonicalOrder[fi+1:ti]...)
}

// SkipAttemptKind classifies a rejected transition by how many canonical
// states it crossed, or how it was attempted.
type SkipAttemptKind string

const (
	SkipSimple SkipAttemptKind = "simple"
	SkipBulk   SkipAttemptKind = "bulk"
	SkipForce  SkipAttemptKind = "force"
)

// ClassifySkip returns Bulk for more than one skipped state and Simple
// otherwise, including an empty list (spec.md §4.5). Callers of ForceTransition always
// override this with SkipForce.
func ClassifySkip(skipped []State) SkipAttemptKind {
	if len(skipped) > 1 {
		return SkipBulk
	}
	return SkipSimple
}

// StateTransition is an immutable record of a single transition (spec.md
// §3). Stored in insertion order per motion.
type StateTransition struct {
	MotionID    uuid.UUID `json:"motion_id"`
	From        State     `json:"from"`
	To          State     `json:"to"`
	TriggeredBy string    `json:"triggered_by"`
	Timestamp   time.Time `json:"timestamp"`
	WitnessRef  *uuid.UUID `json:"witness_ref,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// MotionStateRecord is the mutable per-motion tracking record (spec.md
// §3): current state, when it was entered, and the full history.
type MotionStateRecord struct {
	MotionID       uuid.UUID         `json:"motion_id"`
	Current        State             `json:"current"`
	EnteredAt      time.Time         `json:"entered_at"`
	History        []StateTransition `json:"history"`
	IsTerminal     bool              `json:"is_terminal"`
}

// SkipAttemptViolation records a rejected attempt, forced or not, to
// move a non-terminal motion along an invalid edge; SkippedStates is
// empty when no canonical step lies between the two states (spec.md §3).
type SkipAttemptViolation struct {
	ID             uuid.UUID       `json:"id"`
	MotionID       uuid.UUID       `json:"motion_id"`
	CurrentState   State           `json:"current_state"`
	AttemptedState State           `json:"attempted_state"`
	SkippedStates  []State         `json:"skipped_states"`
	AttemptKind    SkipAttemptKind `json:"attempt_kind"`
	ActorID        string          `json:"actor_id"`
	Source         string          `json:"source"`
	Severity       string          `json:"severity"` // always "critical" per spec.md §3
	Rejected       bool            `json:"rejected"`  // always true
	Escalated      bool            `json:"escalated"`
	Timestamp      time.Time       `json:"timestamp"`
}

// TransitionRejection is the structured failure payload for a rejected
// transition (spec.md §7 "User-visible behaviour").
type TransitionRejection struct {
	MotionID       uuid.UUID `json:"motion_id"`
	CurrentState   State     `json:"current_state"`
	AttemptedState State     `json:"attempted_state"`
	RequiredNext   []State   `json:"required_next"`
	SkippedStates  []State   `json:"skipped_states,omitempty"`
	Reason         string    `json:"reason"`
	Severity       string    `json:"severity"`
	PolicyRef      string    `json:"policy_ref"`
	ErrorCode      string    `json:"error_code"`
}

// TransitionResult is returned by Transition; callers check Success
// rather than relying on an error (spec.md §4.5: "Invalid transitions are
// rejected, not raised").
type TransitionResult struct {
	Success    bool
	Transition *StateTransition
	Rejection  *TransitionRejection
	Violation  *SkipAttemptViolation
	Err        error
}
