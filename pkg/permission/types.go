// Package permission implements C2: the Permission Evaluator (spec.md
// §4.2). It decides whether an actor may perform an action in a branch,
// consulting C1's rank policy and, for target-carrying checks, C4's
// role-collapse detector via C3.
package permission

import (
	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
)

// ConstraintViolation is one entry in a Decision's violation list.
type ConstraintViolation struct {
	Constraint             string          `json:"constraint"`
	Severity                domain.Severity `json:"severity"`
	PolicyRef               string          `json:"policy_ref"`
	RequiresWitnessing       bool           `json:"requires_witnessing"`
	RequiresConclaveReview  bool            `json:"requires_conclave_review"`
}

// Request bundles the inputs to Evaluate (spec.md §4.2).
type Request struct {
	ActorID         string
	ActorName       string
	Rank            string // constitutional rank, not organizational title
	ProposedBranch  domain.Branch
	Action          string
	TargetMotionID  *uuid.UUID // present only for target-carrying checks
}

// Decision is the structured result Evaluate returns. It never raises
// (spec.md §4.2: "The evaluator returns results; it does not raise").
type Decision struct {
	Allowed             bool                  `json:"allowed"`
	Reason              string                `json:"reason,omitempty"`
	Violations          []ConstraintViolation `json:"violations,omitempty"`
	MatchedConstraints  []string              `json:"matched_constraints,omitempty"`
}
