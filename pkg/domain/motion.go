package domain

import (
	"time"

	"github.com/google/uuid"
)

// Motion is a proposal traversing the governance pipeline. Immutable
// after creation (spec.md §3).
type Motion struct {
	ID              uuid.UUID `json:"id"`
	IntroducerID    string    `json:"introducer_id"`
	Intent          string    `json:"intent"`
	Rationale       string    `json:"rationale"`
	IntroducedAt    time.Time `json:"introduced_at"`
}

// NewMotion constructs a Motion with a fresh identifier.
func NewMotion(introducerID, intent, rationale string, introducedAt time.Time) Motion {
	return Motion{
		ID:           uuid.New(),
		IntroducerID: introducerID,
		Intent:       intent,
		Rationale:    rationale,
		IntroducedAt: introducedAt,
	}
}

// BranchAction records that an actor acted in a branch on a motion
// (spec.md §3). Immutable; many per motion.
type BranchAction struct {
	MotionID  uuid.UUID `json:"motion_id"`
	ActorID   string    `json:"actor_id"`
	Branch    Branch    `json:"branch"`
	ActionKind string   `json:"action_kind"`
	Timestamp time.Time `json:"timestamp"`
}
