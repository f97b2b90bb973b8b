// Package propagation implements C9: the Failure Propagator (spec.md
// §4.9). It drives a FailureSignal from emitted to propagated, notifies
// the judicial branch, and records an append-only timeline per task.
package propagation

import (
	"time"

	"github.com/google/uuid"
)

// TimelineEventKind is a supplemented, closed set of typed timeline
// event kinds (spec.md §9 Design Notes, open question (b), flags the
// original's unstructured details map as an extension point). Details
// remains map[string]any for forward compatibility, per the open
// question's own suggestion; these constants just make the common kinds
// self-documenting instead of requiring callers to parse the map.
type TimelineEventKind string

const (
	EventFailureEmitted      TimelineEventKind = "failure_emitted"
	EventPrinceNotified      TimelineEventKind = "prince_notified"
	EventSuppressionViolation TimelineEventKind = "suppression_violation"
	EventEscalationResolved  TimelineEventKind = "escalation_resolved"
	EventRetryScheduled      TimelineEventKind = "retry_scheduled"
)

// TimelineEvent is one opaque {timestamp, event-type, details} triple on
// a task's timeline (spec.md §4.9).
type TimelineEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Kind      TimelineEventKind `json:"event_type"`
	Details   map[string]any    `json:"details,omitempty"`
}

// NotificationContext is the structured input to NotifyPrince.
type NotificationContext struct {
	SignalID  uuid.UUID
	TaskRef   uuid.UUID
	Reason    string
}
