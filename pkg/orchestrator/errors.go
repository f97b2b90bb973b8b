package orchestrator

import (
	"fmt"

	"github.com/google/uuid"
)

// MotionUnknownError is returned for any operation on a motion the
// orchestrator has never seen initialized.
type MotionUnknownError struct {
	MotionID uuid.UUID
}

func (e *MotionUnknownError) Error() string {
	return fmt.Sprintf("orchestrator: motion %s is unknown", e.MotionID)
}

// NoBranchServiceError is returned when no branch service is mapped to
// a state (spec.md §4.10 "fail if none").
type NoBranchServiceError struct {
	State string
}

func (e *NoBranchServiceError) Error() string {
	return fmt.Sprintf("orchestrator: no branch service mapped for state %s", e.State)
}

// PipelineBlockedError is returned by ProcessMotion when the motion has
// an unresolved blocking reason and force was not requested.
type PipelineBlockedError struct {
	MotionID uuid.UUID
	Reasons  []string
}

func (e *PipelineBlockedError) Error() string {
	return fmt.Sprintf("orchestrator: motion %s is blocked: %v", e.MotionID, e.Reasons)
}

// EscalationUnknownError is returned by ResolveEscalation for an unknown
// escalation id.
type EscalationUnknownError struct {
	EscalationID uuid.UUID
}

func (e *EscalationUnknownError) Error() string {
	return fmt.Sprintf("orchestrator: escalation %s is unknown", e.EscalationID)
}
