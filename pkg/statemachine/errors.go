package statemachine

import (
	"fmt"

	"github.com/google/uuid"
)

// MotionUnknownError is returned when an operation references a motion
// the state machine has never seen initialize()d.
type MotionUnknownError struct {
	MotionID uuid.UUID
}

func (e *MotionUnknownError) Error() string {
	return fmt.Sprintf("statemachine: motion %s is unknown", e.MotionID)
}

// MotionAlreadyExistsError is returned by Initialize on a motion that is
// already known (spec.md §8: "initialize(motion) on an already-known
// motion fails without side effects").
type MotionAlreadyExistsError struct {
	MotionID uuid.UUID
}

func (e *MotionAlreadyExistsError) Error() string {
	return fmt.Sprintf("statemachine: motion %s already initialized", e.MotionID)
}

// TerminalStateError is returned when a transition is attempted out of a
// terminal state (spec.md §7 TerminalState).
type TerminalStateError struct {
	MotionID uuid.UUID
	Current  State
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("statemachine: motion %s is in terminal state %s", e.MotionID, e.Current)
}

// InvalidTransitionError is returned by EnforceTransition for a rejected,
// non-forced transition (spec.md §7 InvalidTransition / SkipAttempt).
type InvalidTransitionError struct {
	Rejection TransitionRejection
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("statemachine: invalid transition %s -> %s for motion %s: %s",
		e.Rejection.CurrentState, e.Rejection.AttemptedState, e.Rejection.MotionID, e.Rejection.Reason)
}

// ForceSkipAttemptError is always returned by ForceTransition on a
// non-edge (spec.md §4.5, §7 ForceSkipAttempt): "Under no circumstance
// may force_transition bypass the graph".
type ForceSkipAttemptError struct {
	Rejection TransitionRejection
	Violation SkipAttemptViolation
}

func (e *ForceSkipAttemptError) Error() string {
	return fmt.Sprintf("statemachine: force_transition rejected %s -> %s for motion %s: skip is never permitted",
		e.Rejection.CurrentState, e.Rejection.AttemptedState, e.Rejection.MotionID)
}
