package permission

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/branchledger"
	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/rolecollapse"
	"github.com/archonkernel/governance-kernel/pkg/rules"
)

const policy = `
ranks:
  archon:
    branch: legislative
    allowed_actions: [introduce_motion]
    prohibited_actions: []
    constraints: []
  arbiter:
    branch: deliberative
    allowed_actions: [ratify_motion]
    prohibited_actions: [introduce_motion]
    constraints: []
actions:
  introduce_motion: {branch: legislative}
  ratify_motion: {branch: deliberative}
  judge: {branch: judicial}
branch_conflicts:
  - id: exec-judicial
    branches: [executive, judicial]
    rule: executor may not judge own execution
    prd_ref: FR-GOV-09
    severity: critical
    description: exec-judicial conflict
`

func newFixture(t *testing.T) (*Evaluator, *branchledger.Ledger) {
	t.Helper()
	rs, err := rules.LoadBytes([]byte(policy), "test")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	bl := branchledger.New()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	detector := rolecollapse.New(rs, bl, clk)
	return New(rs, detector, nil, nil), bl
}

func TestEvaluateUnknownRank(t *testing.T) {
	eval, _ := newFixture(t)
	d := eval.Evaluate(Request{ActorID: "a", Rank: "nonexistent", Action: "introduce_motion"})
	if d.Allowed {
		t.Fatal("expected deny for unknown rank")
	}
	if d.Violations[0].Severity != domain.SeverityCritical {
		t.Errorf("expected critical severity, got %s", d.Violations[0].Severity)
	}
}

func TestEvaluateProhibited(t *testing.T) {
	eval, _ := newFixture(t)
	d := eval.Evaluate(Request{ActorID: "a", Rank: "arbiter", Action: "introduce_motion"})
	if d.Allowed {
		t.Fatal("expected deny for prohibited action")
	}
	if d.Violations[0].Severity != domain.SeverityMajor {
		t.Errorf("expected major severity, got %s", d.Violations[0].Severity)
	}
}

func TestEvaluateDefaultDeny(t *testing.T) {
	eval, _ := newFixture(t)
	d := eval.Evaluate(Request{ActorID: "a", Rank: "archon", Action: "judge"})
	if d.Allowed {
		t.Fatal("expected default deny for action outside allowed set")
	}
}

func TestEvaluateAllowed(t *testing.T) {
	eval, _ := newFixture(t)
	d := eval.Evaluate(Request{ActorID: "a", Rank: "archon", Action: "introduce_motion"})
	if !d.Allowed {
		t.Fatalf("expected allow, got denied: %s", d.Reason)
	}
}

func TestEvaluateBranchConflict(t *testing.T) {
	eval, bl := newFixture(t)
	motion := uuid.New()
	bl.Record(motion, "a", domain.BranchExecutive, "execute", time.Now())

	d := eval.Evaluate(Request{
		ActorID:        "a",
		Rank:           "archon",
		Action:         "introduce_motion",
		ProposedBranch: domain.BranchJudicial,
		TargetMotionID: &motion,
	})
	if d.Allowed {
		t.Fatal("expected deny for branch conflict")
	}
	if !d.Violations[0].RequiresConclaveReview {
		t.Error("expected critical conflict to require conclave review")
	}
}

func TestEvaluateRatificationSelf(t *testing.T) {
	eval, _ := newFixture(t)
	if err := eval.EvaluateRatification("actor-1", "actor-1"); err == nil {
		t.Fatal("expected SelfRatificationError")
	}
}

func TestEvaluateRatificationDifferentActor(t *testing.T) {
	eval, _ := newFixture(t)
	if err := eval.EvaluateRatification("actor-2", "actor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
