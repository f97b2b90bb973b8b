// Package rolecollapse implements C4: the Role-Collapse Detector
// (spec.md §4.4). It enforces separation of powers by checking a
// proposed branch action against an actor's prior branches on the same
// motion, per the rank/branch policy loaded by C1.
package rolecollapse

import (
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
)

// Violation records a detected role collapse (spec.md §4.4): an actor
// touching two conflicting branches on the same motion.
type Violation struct {
	MotionID        uuid.UUID       `json:"motion_id"`
	ActorID         string          `json:"actor_id"`
	ProposedBranch  domain.Branch   `json:"proposed_branch"`
	ConflictingBranch domain.Branch `json:"conflicting_branch"`
	RuleID          string          `json:"rule_id"`
	Rule            string          `json:"rule"`
	PRDRef          string          `json:"prd_ref"`
	Severity        domain.Severity `json:"severity"`
	Escalated       bool            `json:"escalated"`
	Timestamp       time.Time       `json:"timestamp"`
	WitnessRef      *uuid.UUID      `json:"witness_ref,omitempty"`
}
