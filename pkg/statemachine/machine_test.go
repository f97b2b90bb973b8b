package statemachine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/kvdb"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

func newMachine(t *testing.T) *Machine {
	t.Helper()
	kv, err := kvdb.Open(kvdb.BackendMemory, "statemachine-test", "")
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	log := witness.NewLog(kv, "witness", clk)
	return New(clk, log, nil)
}

func TestForceTransitionValidEdge(t *testing.T) {
	m := newMachine(t)
	motion := uuid.New()
	if err := m.Initialize(motion, "archon-1"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	tr, err := m.ForceTransition(motion, Deliberating, "archon-1", "moving to deliberation")
	if err != nil {
		t.Fatalf("expected force transition over a valid edge to succeed, got: %v", err)
	}
	if tr.To != Deliberating {
		t.Errorf("expected to=deliberating, got %s", tr.To)
	}

	current, err := m.CurrentState(motion)
	if err != nil {
		t.Fatalf("current state: %v", err)
	}
	if current != Deliberating {
		t.Errorf("expected current state deliberating, got %s", current)
	}
	if audit := m.SkipAudit(); len(audit) != 0 {
		t.Errorf("expected no skip audit entries for a valid forced edge, got %d", len(audit))
	}
}

func TestForceTransitionRejectsSkip(t *testing.T) {
	m := newMachine(t)
	motion := uuid.New()
	if err := m.Initialize(motion, "archon-1"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, err := m.ForceTransition(motion, Executing, "archon-1", "attempting to skip ahead")
	if err == nil {
		t.Fatal("expected force transition across a non-edge to be rejected")
	}
	var skipErr *ForceSkipAttemptError
	if !errors.As(err, &skipErr) {
		t.Fatalf("expected *ForceSkipAttemptError, got %T: %v", err, err)
	}
	if skipErr.Violation.AttemptKind != SkipForce {
		t.Errorf("expected attempt kind force, got %s", skipErr.Violation.AttemptKind)
	}
	if !skipErr.Violation.Escalated {
		t.Error("expected forced skip attempt to be escalated")
	}

	current, err := m.CurrentState(motion)
	if err != nil {
		t.Fatalf("current state: %v", err)
	}
	if current != Introduced {
		t.Errorf("expected state unchanged at introduced, got %s", current)
	}

	audit := m.SkipAudit()
	if len(audit) != 1 {
		t.Fatalf("expected 1 skip audit entry, got %d", len(audit))
	}
	if audit[0].AttemptKind != SkipForce {
		t.Errorf("expected audited attempt kind force, got %s", audit[0].AttemptKind)
	}
	if !audit[0].Escalated {
		t.Error("expected audited attempt to be escalated")
	}
}
