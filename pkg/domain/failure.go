package domain

import (
	"time"

	"github.com/google/uuid"
)

// FailureSignalKind classifies what went wrong (spec.md §3).
type FailureSignalKind string

const (
	FailureTaskFailed         FailureSignalKind = "task_failed"
	FailureConstraintViolated FailureSignalKind = "constraint_violated"
	FailureResourceExhausted  FailureSignalKind = "resource_exhausted"
	FailureTimeout            FailureSignalKind = "timeout"
	FailureBlocked            FailureSignalKind = "blocked"
	FailureIntentAmbiguity    FailureSignalKind = "intent_ambiguity"
)

// FailureSeverity grades a FailureSignal (spec.md §3). Distinct from
// Severity (which grades branch-conflict rules and role collapses);
// kept as its own type because the original implementation's
// FailureSeverity enum (Critical/High/Medium/Low) has four members
// where Severity has three.
type FailureSeverity string

const (
	FailureSeverityCritical FailureSeverity = "critical"
	FailureSeverityHigh     FailureSeverity = "high"
	FailureSeverityMedium   FailureSeverity = "medium"
	FailureSeverityLow      FailureSeverity = "low"
)

// FailureSignal is an immutable-once-propagated record of something
// going wrong (spec.md §3). It becomes "propagated" when PropagatedAt is
// set; until then it is pending. Per spec.md I6, PropagatedAt may move
// from unset to set but never back.
type FailureSignal struct {
	ID               uuid.UUID         `json:"id"`
	Kind             FailureSignalKind `json:"kind"`
	SourceActor      string            `json:"source_actor"`
	TaskRef          uuid.UUID         `json:"task_ref"`
	Severity         FailureSeverity   `json:"severity"`
	Evidence         string            `json:"evidence"`
	DetectedAt       time.Time         `json:"detected_at"`
	PropagatedAt     *time.Time        `json:"propagated_at,omitempty"`
	JudicialNotified bool              `json:"judicial_notified"`
	MotionRef        *uuid.UUID        `json:"motion_ref,omitempty"`
	WitnessRef       *uuid.UUID        `json:"witness_ref,omitempty"`
}

// NewFailureSignal constructs a pending FailureSignal.
func NewFailureSignal(kind FailureSignalKind, sourceActor string, taskRef uuid.UUID, severity FailureSeverity, evidence string, detectedAt time.Time) FailureSignal {
	return FailureSignal{
		ID:          uuid.New(),
		Kind:        kind,
		SourceActor: sourceActor,
		TaskRef:     taskRef,
		Severity:    severity,
		Evidence:    evidence,
		DetectedAt:  detectedAt,
	}
}

// Propagated reports whether the signal has been propagated.
func (f FailureSignal) Propagated() bool { return f.PropagatedAt != nil }

// WithPropagation returns a copy of f marked propagated at timestamp,
// with witnessRef attached. Mirrors the original implementation's
// immutable "wither" pattern (FailureSignal.with_propagation), which
// takes an explicit timestamp rather than calling the clock itself.
func (f FailureSignal) WithPropagation(timestamp time.Time, witnessRef uuid.UUID) FailureSignal {
	cp := f
	t := timestamp
	cp.PropagatedAt = &t
	cp.WitnessRef = &witnessRef
	return cp
}
