// Package findingledger implements C7: the strict append-only, hash-
// chained Finding Ledger (spec.md §4.7). Only RecordFinding writes; no
// update, modify, delete, or remove method exists, here or anywhere in
// this package.
package findingledger

import (
	"time"

	"github.com/google/uuid"
)

// Determination is the judicial panel's conclusion (spec.md §3).
type Determination string

const (
	DeterminationViolationFound         Determination = "violation_found"
	DeterminationNoViolation            Determination = "no_violation"
	DeterminationInsufficientEvidence   Determination = "insufficient_evidence"
)

// Remedy is the corrective action a PanelFinding recommends (spec.md §3).
type Remedy string

const (
	RemedyWarning          Remedy = "warning"
	RemedyCorrection       Remedy = "correction"
	RemedyEscalation       Remedy = "escalation"
	RemedyHaltRecommendation Remedy = "halt_recommendation"
	RemedyNone             Remedy = "none"
)

// Dissent preserves a minority opinion verbatim (spec.md I4: "the kernel
// never drops or edits dissent").
type Dissent struct {
	Members   []string `json:"members"`
	Rationale string   `json:"rationale"`
}

// Panel is the minimal value object supplementing spec.md's PanelFinding
// (original_source/'s panel/panel_member.go models a full roster; this
// kernel only needs enough to stamp a finding, so composition and
// recusal bookkeeping stay external).
type Panel struct {
	ID          uuid.UUID `json:"id"`
	MemberIDs   []string  `json:"member_ids"`
	QuorumSize  int       `json:"quorum_size"`
}

// PanelFinding is the judicial panel's immutable conclusion on a motion
// or violation (spec.md §3).
type PanelFinding struct {
	ID               uuid.UUID          `json:"id"`
	PanelID          uuid.UUID          `json:"panel_id"`
	StatementID      uuid.UUID          `json:"statement_id"`
	Determination    Determination      `json:"determination"`
	Remedy           Remedy             `json:"remedy"`
	MajorityRationale string            `json:"majority_rationale"`
	Dissent          *Dissent           `json:"dissent,omitempty"`
	IssuedAt         time.Time          `json:"issued_at"`
	VotingRecord     map[string]string  `json:"voting_record"` // actor -> vote
}

// HasDissent reports whether the finding carries a recorded dissent.
func (f PanelFinding) HasDissent() bool { return f.Dissent != nil }

// FindingRecord is the immutable, ledger-positioned wrapper around a
// PanelFinding (spec.md §3). Once created it is never mutated or
// removed.
type FindingRecord struct {
	RecordID      uuid.UUID    `json:"record_id"`
	Finding       PanelFinding `json:"finding"`
	RecordedAt    time.Time    `json:"recorded_at"`
	LedgerPosition uint64      `json:"ledger_position"`
	IntegrityHash string       `json:"integrity_hash"`
}

// FindingIssuedEvent is emitted for every RecordFinding call (spec.md
// §4.7 step 3, event name "judicial.panel.finding_issued").
type FindingIssuedEvent struct {
	FindingID         uuid.UUID `json:"finding_id"`
	PanelID           uuid.UUID `json:"panel_id"`
	StatementID       uuid.UUID `json:"statement_id"`
	Determination     Determination `json:"determination"`
	Remedy            Remedy    `json:"remedy"`
	HasDissent        bool      `json:"has_dissent"`
	DissentingCount   int       `json:"dissenting_count"`
	VotingRecordSize  int       `json:"voting_record_size"`
	IssuedAt          time.Time `json:"issued_at"`
	RecordedAt        time.Time `json:"recorded_at"`
	LedgerPosition    uint64    `json:"ledger_position"`
	IntegrityHash     string    `json:"integrity_hash"`
}

// DissentRecordedEvent is emitted only when a finding carries dissent
// (spec.md §4.7 step 4, event name "judicial.panel.dissent_recorded").
type DissentRecordedEvent struct {
	FindingID         uuid.UUID `json:"finding_id"`
	DissentingMembers []string  `json:"dissenting_members"`
	RationaleLength   int       `json:"rationale_length"`
}
