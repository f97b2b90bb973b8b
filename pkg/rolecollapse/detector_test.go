package rolecollapse

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/branchledger"
	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/rules"
)

const conflictPolicy = `
ranks: {}
actions: {}
branch_conflicts:
  - id: legislative-deliberative
    branches: [legislative, deliberative]
    rule: author may not ratify own motion
    prd_ref: FR-GOV-01
    severity: critical
    description: self-ratification
`

func TestDetectHitsOnConflict(t *testing.T) {
	rs, err := rules.LoadBytes([]byte(conflictPolicy), "test")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	bl := branchledger.New()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	motion := uuid.New()

	bl.Record(motion, "archon-1", domain.BranchLegislative, "introduce_motion", clk.Now())

	detector := New(rs, bl, clk)
	v := detector.Detect("archon-1", motion, domain.BranchDeliberative)
	if v == nil {
		t.Fatal("expected a role-collapse violation")
	}
	if v.Severity != domain.SeverityCritical || !v.Escalated {
		t.Errorf("expected critical + escalated, got severity=%s escalated=%v", v.Severity, v.Escalated)
	}
}

func TestDetectNoHitForUnrelatedBranch(t *testing.T) {
	rs, err := rules.LoadBytes([]byte(conflictPolicy), "test")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	bl := branchledger.New()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	motion := uuid.New()

	bl.Record(motion, "archon-1", domain.BranchExecutive, "execute", clk.Now())

	detector := New(rs, bl, clk)
	if v := detector.Detect("archon-1", motion, domain.BranchDeliberative); v != nil {
		t.Errorf("expected no collapse, got %+v", v)
	}
}
