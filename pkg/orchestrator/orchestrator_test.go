package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/archonkernel/governance-kernel/pkg/branchledger"
	"github.com/archonkernel/governance-kernel/pkg/branchservice"
	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/kvdb"
	"github.com/archonkernel/governance-kernel/pkg/rolecollapse"
	"github.com/archonkernel/governance-kernel/pkg/rules"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

const emptyPolicy = `
ranks: {}
actions: {}
branch_conflicts: []
`

func newOrchestrator(t *testing.T) (*Orchestrator, domain.Motion, clock.Clock) {
	t.Helper()
	rs, err := rules.LoadBytes([]byte(emptyPolicy), "test")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	kv, err := kvdb.Open(kvdb.BackendMemory, "orchestrator-test", "")
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	log := witness.NewLog(kv, "witness", clk)
	bl := branchledger.New()
	detector := rolecollapse.New(rs, bl, clk)
	machine := statemachine.New(clk, log, nil)
	services := branchservice.Map(nil)

	orch := New(clk, machine, detector, log, services, nil, nil)

	motion := domain.NewMotion("archon-1", "build the thing", "because", clk.Now())
	if err := orch.InitializeMotion(motion); err != nil {
		t.Fatalf("initialize motion: %v", err)
	}
	return orch, motion, clk
}

func TestProcessMotionHappyPath(t *testing.T) {
	orch, motion, _ := newOrchestrator(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if _, err := orch.ProcessMotion(ctx, motion.ID, "archon-1", false); err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
	}

	pipeline, ok := orch.Pipeline(motion.ID)
	if !ok {
		t.Fatal("expected pipeline state to exist")
	}
	if pipeline.Current != statemachine.Acknowledged {
		t.Errorf("expected final state acknowledged, got %s", pipeline.Current)
	}
	if pipeline.Blocked() {
		t.Error("expected pipeline not blocked at completion")
	}

	stats := orch.Stats()
	if stats.TotalProcessed != 7 {
		t.Errorf("expected 7 processed, got %d", stats.TotalProcessed)
	}
}

func TestProcessMotionUnknownMotion(t *testing.T) {
	orch, _, _ := newOrchestrator(t)
	if _, err := orch.ProcessMotion(context.Background(), domain.NewMotion("x", "y", "z", time.Now()).ID, "archon-1", false); err == nil {
		t.Fatal("expected error for unknown motion")
	}
}

func TestResolveEscalationUnknown(t *testing.T) {
	orch, motion, _ := newOrchestrator(t)
	if err := orch.ResolveEscalation(motion.ID, motion.ID, "resolver", "notes"); err == nil {
		t.Fatal("expected error for unknown escalation id")
	}
}
