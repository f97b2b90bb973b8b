package permission

import "fmt"

// DeniedError is raised by Enforce when Evaluate denies the request
// (spec.md §4.2: "A separate 'enforce' entry point wraps the check and
// fails with a typed error on deny").
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission: denied: %s", e.Decision.Reason)
}

// SelfRatificationError is raised when an actor attempts to ratify a
// motion they authored (spec.md §7 SelfRatification; supplemented per
// the original implementation's role_collapse_detection_service.py,
// since spec.md names the error but no component wires it explicitly).
type SelfRatificationError struct {
	ActorID string
}

func (e *SelfRatificationError) Error() string {
	return fmt.Sprintf("permission: actor %s may not ratify their own motion", e.ActorID)
}
