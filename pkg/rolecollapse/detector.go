package rolecollapse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/rules"
)

// branchLedger is the subset of *branchledger.Ledger the detector reads.
// Declared as an interface here (rather than importing the concrete
// package) so the detector depends only on C3's query surface, not its
// storage details.
type branchLedger interface {
	BranchesTouched(actor string, motion uuid.UUID) []domain.Branch
}

// AuditEntry links a detected Violation to the witness-statement id the
// caller eventually assigns it (spec.md §4.4 step (c)).
type AuditEntry struct {
	Violation  Violation
	WitnessRef uuid.UUID
}

// Detector is the Role-Collapse Detector (C4). It never mutates C3; it
// only reads.
type Detector struct {
	rules  *rules.Ruleset
	ledger branchLedger
	clock  clock.Clock

	mu    sync.Mutex
	audit []AuditEntry
}

// New creates a Detector backed by a Ruleset and a Branch-Action Ledger.
func New(rs *rules.Ruleset, ledger branchLedger, clk clock.Clock) *Detector {
	return &Detector{rules: rs, ledger: ledger, clock: clk}
}

// Detect implements spec.md §4.4's core predicate: for every conflict
// rule whose branch set contains proposedBranch, check whether actor has
// already touched a different branch also in that set. The first hit is
// returned; nil means no collapse.
func (d *Detector) Detect(actor string, motion uuid.UUID, proposedBranch domain.Branch) *Violation {
	existing := d.ledger.BranchesTouched(actor, motion)
	if len(existing) == 0 {
		return nil
	}
	existingSet := make(map[domain.Branch]bool, len(existing))
	for _, b := range existing {
		existingSet[b] = true
	}

	for _, rule := range d.rules.ConflictRulesContaining(proposedBranch) {
		for _, candidate := range rule.Branches {
			if candidate == proposedBranch {
				continue
			}
			if existingSet[candidate] {
				v := &Violation{
					MotionID:          motion,
					ActorID:           actor,
					ProposedBranch:    proposedBranch,
					ConflictingBranch: candidate,
					RuleID:            rule.ID,
					Rule:              rule.Rule,
					PRDRef:            rule.PRDRef,
					Severity:          rule.Severity,
					Escalated:         rule.Severity == domain.SeverityCritical || rule.Severity == domain.SeverityMajor,
					Timestamp:         d.clock.Now(),
				}
				return v
			}
		}
	}
	return nil
}

// RecordAudit appends an audit entry linking violation to the witness
// statement id the caller obtained after witnessing it (spec.md §4.4
// step (c)).
func (d *Detector) RecordAudit(violation Violation, witnessRef uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	violation.WitnessRef = &witnessRef
	d.audit = append(d.audit, AuditEntry{Violation: violation, WitnessRef: witnessRef})
}

// Audit returns every recorded audit entry in insertion order.
func (d *Detector) Audit() []AuditEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]AuditEntry(nil), d.audit...)
}
