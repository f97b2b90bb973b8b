// Package witness implements C6: the append-only Witness Log (spec.md
// §4.6). Every rejected transition, role collapse, suppression, and
// successful transition must leave at least one WitnessStatement
// (spec.md I5, CT-11/CT-12).
package witness

import (
	"time"

	"github.com/google/uuid"
)

// StatementType classifies a WitnessStatement for query and violation
// routing purposes.
type StatementType string

const (
	TypeObservation       StatementType = "observation"
	TypeProcedural        StatementType = "procedural"        // successful state transition
	TypeRoleViolation      StatementType = "role_violation"     // role collapse
	TypeBranchViolation    StatementType = "branch_violation"    // branch conflict
	TypeSequenceViolation  StatementType = "sequence_violation"  // skip attempt / terminal rejection
	TypeSuppressionViolation StatementType = "suppression_violation"
	TypeFailureEmission    StatementType = "failure_emission"
	TypeJudicialNotification StatementType = "judicial_notification"
	TypeAcknowledgmentReceived StatementType = "acknowledgment_received"
)

// WitnessStatement is an immutable observation record (spec.md §3).
type WitnessStatement struct {
	ID                    uuid.UUID      `json:"id"`
	Type                  StatementType  `json:"type"`
	Description           string         `json:"description"`
	RolesInvolved         []string       `json:"roles_involved,omitempty"`
	TargetRef             *uuid.UUID     `json:"target_ref,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
	AcknowledgmentRequired bool          `json:"acknowledgment_required"`
	Timestamp             time.Time      `json:"timestamp"`
	HashRef               string         `json:"hash_ref,omitempty"`
}

// ObservationContext is the structured constructor input for observe().
// spec.md §9 Design Notes open question (a) requires callers to use this
// structured constructor rather than positional arguments.
type ObservationContext struct {
	Type                  StatementType
	Description           string
	RolesInvolved         []string
	TargetRef             *uuid.UUID
	Metadata              map[string]any
	AcknowledgmentRequired bool
}

// ViolationRecord is the generic shape record_violation accepts; callers
// pass in whichever concrete violation they have (role collapse, skip
// attempt, suppression) pre-rendered into this shape.
type ViolationRecord struct {
	Type          StatementType
	Description   string
	RolesInvolved []string
	TargetRef     *uuid.UUID
	Metadata      map[string]any
	RequiresAck   bool
}

// AcknowledgmentRequest is the mutable bookkeeping object enqueued when a
// witnessed violation demands acknowledgment (spec.md §4.6). It is
// updated in place by Acknowledge; the originating WitnessStatement
// itself is never mutated.
type AcknowledgmentRequest struct {
	ID           uuid.UUID
	StatementID  uuid.UUID
	TargetRef    *uuid.UUID
	CreatedAt    time.Time
	Fulfilled    bool
	FulfilledBy  string
	FulfilledAt  time.Time
}
