package propagation

import (
	"testing"
	"time"

	"github.com/google/uuid"

	dbm "github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/kvdb"
	"github.com/archonkernel/governance-kernel/pkg/watchdog"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

func newHarness(t *testing.T) (*Propagator, *witness.Log, *watchdog.Watchdog, dbm.Clock) {
	t.Helper()
	kv, err := kvdb.Open(kvdb.BackendMemory, "propagation-test", "")
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	clk := dbm.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	log := witness.NewLog(kv, "witness", clk)
	wd := watchdog.New(clk, log, nil)
	return New(clk, wd, log), log, wd, clk
}

func TestEmitFailureSequence(t *testing.T) {
	p, log, wd, clk := newHarness(t)
	task := uuid.New()
	signal := domain.NewFailureSignal(domain.FailureTaskFailed, "actor", task, domain.FailureSeverityHigh, "evidence", clk.Now())

	propagated, stmt, err := p.EmitFailure(signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !propagated.Propagated() {
		t.Error("expected signal to be propagated")
	}
	if stmt.Type != witness.TypeFailureEmission {
		t.Errorf("expected failure_emission statement, got %s", stmt.Type)
	}
	if wd.Monitoring(signal.ID) {
		t.Error("expected watchdog monitor cleared after propagation")
	}
	timeline := p.Timeline(task)
	if len(timeline) != 1 || timeline[0].Kind != EventFailureEmitted {
		t.Errorf("expected one failure_emitted timeline entry, got %+v", timeline)
	}
	if log.Len() != 1 {
		t.Errorf("expected 1 witness statement, got %d", log.Len())
	}
}

func TestNotifyPrince(t *testing.T) {
	p, _, _, clk := newHarness(t)
	task := uuid.New()
	signal := domain.NewFailureSignal(domain.FailureBlocked, "actor", task, domain.FailureSeverityMedium, "blocked", clk.Now())
	p.EmitFailure(signal)

	stmt, err := p.NotifyPrince(NotificationContext{SignalID: signal.ID, TaskRef: task, Reason: "needs judicial review"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.Type != witness.TypeJudicialNotification {
		t.Errorf("expected judicial_notification statement, got %s", stmt.Type)
	}

	sig, ok := p.Signal(signal.ID)
	if !ok || !sig.JudicialNotified {
		t.Error("expected stored signal to be marked judicial_notified")
	}

	timeline := p.Timeline(task)
	if len(timeline) != 2 || timeline[1].Kind != EventPrinceNotified {
		t.Errorf("expected prince_notified second on timeline, got %+v", timeline)
	}
}

func TestRecordSuppressionViolation(t *testing.T) {
	p, _, wd, _ := newHarness(t)
	task := uuid.New()
	v := wd.RecordSuppressionAttempt(uuid.New(), task, "actor", watchdog.DetectionTimeout, "deadline exceeded")

	escalated, err := p.RecordSuppressionViolation(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !escalated.Escalated {
		t.Error("expected violation escalated")
	}
	timeline := p.Timeline(task)
	if len(timeline) != 1 || timeline[0].Kind != EventSuppressionViolation {
		t.Errorf("expected suppression_violation on timeline, got %+v", timeline)
	}
}
