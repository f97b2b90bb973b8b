// Package watchdog implements C8: the Suppression Watchdog (spec.md
// §4.8). It tracks every emitted FailureSignal until it is propagated,
// and raises a SuppressionViolation when a deadline passes unmet.
package watchdog

import (
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
)

// DetectionMethod classifies how a SuppressionViolation was detected
// (spec.md §3).
type DetectionMethod string

const (
	DetectionTimeout         DetectionMethod = "timeout"
	DetectionManualOverride  DetectionMethod = "manual_override"
	DetectionStateMismatch   DetectionMethod = "state_mismatch"
	DetectionAuditDiscrepancy DetectionMethod = "audit_discrepancy"
)

// DefaultTimeout is the configurable default monitoring window (spec.md
// §4.8), grounded on original_source's DEFAULT_TIMEOUT_SECONDS=30.
const DefaultTimeout = 30 * time.Second

// criticalTimeoutMultiplier shortens the deadline for Critical-severity
// signals, per original_source's critical_timeout_multiplier=0.5.
const criticalTimeoutMultiplier = 0.5

// MonitoredFailure is the per-signal monitoring entry (spec.md §9 Design
// Notes: mutable state lives in exactly three places, this is one of
// them — C8's per-signal monitoring).
type MonitoredFailure struct {
	SignalID  uuid.UUID
	TaskRef   uuid.UUID
	Severity  domain.FailureSeverity
	StartedAt time.Time
	TimeoutAt time.Time
}

// SuppressionViolation is an immutable record of a detected suppression
// (spec.md §3).
type SuppressionViolation struct {
	ID               uuid.UUID       `json:"id"`
	OffendingSignal  uuid.UUID       `json:"offending_signal"`
	SuppressingActor string          `json:"suppressing_actor"`
	Method           DetectionMethod `json:"method"`
	TaskRef          uuid.UUID       `json:"task_ref"`
	Evidence         string          `json:"evidence"`
	Escalated        bool            `json:"escalated"`
	WitnessRef       *uuid.UUID      `json:"witness_ref,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

// timeoutFor computes the monitoring deadline for a signal of the given
// severity, starting at startedAt. Critical signals get half the
// window that applies (original_source's critical_timeout_multiplier=0.5);
// a zero requested timeout falls back to DefaultTimeout.
func timeoutFor(severity domain.FailureSeverity, requested time.Duration, startedAt time.Time) time.Time {
	window := requested
	if window <= 0 {
		window = DefaultTimeout
	}
	if severity == domain.FailureSeverityCritical {
		window = time.Duration(float64(window) * criticalTimeoutMultiplier)
	}
	return startedAt.Add(window)
}
