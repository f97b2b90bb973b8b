// Package orchestrator implements C10: the Flow Orchestrator (spec.md
// §4.10). It owns per-motion pipeline state, routes motions to branch
// services, applies the escalation policy, and aggregates rolling
// statistics.
package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
)

// ErrorKind classifies a branch-service failure for the escalation
// policy table (spec.md §4.10).
type ErrorKind string

const (
	ErrorTransient           ErrorKind = "transient"
	ErrorValidation          ErrorKind = "validation"
	ErrorIntentAmbiguity     ErrorKind = "intent_ambiguity"
	ErrorConstraintViolation ErrorKind = "constraint_violation"
	ErrorSuppression         ErrorKind = "suppression"
	ErrorUnknown             ErrorKind = "unknown"
)

// EscalationStrategy is the handling strategy bound to an ErrorKind
// (spec.md §4.10 escalation policy table).
type EscalationStrategy string

const (
	StrategyRetryWithBackoff EscalationStrategy = "retry_with_backoff"
	StrategyReturnToPrevious EscalationStrategy = "return_to_previous"
	StrategyConclaveReview   EscalationStrategy = "conclave_review"
	StrategyHaltAndAlert     EscalationStrategy = "halt_and_alert"
)

// policyEntry is one row of the escalation policy table.
type policyEntry struct {
	Strategy  EscalationStrategy
	Blocking  bool
}

// escalationPolicy is the table-driven escalation policy from spec.md
// §4.10.
var escalationPolicy = map[ErrorKind]policyEntry{
	ErrorTransient:           {Strategy: StrategyRetryWithBackoff, Blocking: false},
	ErrorValidation:          {Strategy: StrategyReturnToPrevious, Blocking: false},
	ErrorIntentAmbiguity:     {Strategy: StrategyConclaveReview, Blocking: true},
	ErrorConstraintViolation: {Strategy: StrategyConclaveReview, Blocking: true},
	ErrorSuppression:         {Strategy: StrategyHaltAndAlert, Blocking: true},
	ErrorUnknown:             {Strategy: StrategyHaltAndAlert, Blocking: true},
}

// failureSignalMapping maps an escalation's ErrorKind to the
// FailureSeverity/FailureSignalKind pair used to build the
// domain.FailureSignal routed through C9 when a branch service reports
// failure (spec.md §4.9, §4.10).
func failureSignalMapping(kind ErrorKind) (domain.FailureSeverity, domain.FailureSignalKind) {
	switch kind {
	case ErrorTransient:
		return domain.FailureSeverityLow, domain.FailureTaskFailed
	case ErrorValidation:
		return domain.FailureSeverityLow, domain.FailureConstraintViolated
	case ErrorIntentAmbiguity:
		return domain.FailureSeverityMedium, domain.FailureIntentAmbiguity
	case ErrorConstraintViolation:
		return domain.FailureSeverityHigh, domain.FailureConstraintViolated
	case ErrorSuppression:
		return domain.FailureSeverityCritical, domain.FailureBlocked
	default:
		return domain.FailureSeverityHigh, domain.FailureTaskFailed
	}
}

// backoffLadder is the fixed retry backoff schedule (spec.md §4.10:
// "e.g. 5s, 30s, 300s").
var backoffLadder = []time.Duration{5 * time.Second, 30 * time.Second, 300 * time.Second}

// maxRetries caps the transient-retry count before it hard-escalates.
const maxRetries = len(backoffLadder)

// Escalation is a pending, resolvable block on a motion.
type Escalation struct {
	ID        uuid.UUID
	MotionID  uuid.UUID
	Kind      ErrorKind
	Reason    string
	CreatedAt time.Time
	Resolved  bool
	Resolver  string
	Notes     string
}

// PipelineState is the mutable per-motion tracking record C10 owns
// (spec.md §4.10, §9 Design Notes: one of the three places mutable
// state lives).
type PipelineState struct {
	MotionID            uuid.UUID
	Current             statemachine.State
	EnteredAt           time.Time
	BlockingReasons      []string
	NextActionDescription string
	RetryCount          int
	LastError           string
	IntentHash          string
	Escalations         []Escalation
}

// Blocked reports whether the pipeline currently refuses to process
// without force.
func (p PipelineState) Blocked() bool { return len(p.BlockingReasons) > 0 }

// RoutingDecision records one route_to_branch outcome (spec.md §4.10).
type RoutingDecision struct {
	MotionID  uuid.UUID
	State     statemachine.State
	Branch    domain.Branch
	Actor     string
	Timestamp time.Time
}

// Stats counts activity since WindowStart, which is set when the
// Orchestrator is constructed. The counters are cumulative and never
// reset; they do not cover a rolling 24-hour window.
type Stats struct {
	TotalProcessed int
	Escalated      int
	Retried        int
	WindowStart    time.Time
}
