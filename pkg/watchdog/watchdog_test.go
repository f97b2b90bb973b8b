package watchdog

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

type fakeLog struct{ calls int }

func (f *fakeLog) RecordViolation(v witness.ViolationRecord) (witness.WitnessStatement, error) {
	f.calls++
	return witness.WitnessStatement{ID: uuid.New(), Type: v.Type}, nil
}

func TestStartMonitoringCriticalHalvesTimeout(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	wd := New(clk, &fakeLog{}, nil)

	signal := domain.NewFailureSignal(domain.FailureTaskFailed, "actor-1", uuid.New(), domain.FailureSeverityCritical, "evidence", clk.Now())
	mf := wd.StartMonitoring(signal, 0)

	want := clk.Now().Add(DefaultTimeout / 2)
	if !mf.TimeoutAt.Equal(want) {
		t.Errorf("timeout = %v, want %v", mf.TimeoutAt, want)
	}
}

func TestCheckForSuppressionDetectsExpired(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	wd := New(clk, &fakeLog{}, nil)
	task := uuid.New()

	signal := domain.NewFailureSignal(domain.FailureTaskFailed, "actor-1", task, domain.FailureSeverityHigh, "evidence", clk.Now())
	wd.StartMonitoring(signal, 10*time.Second)

	clk.Advance(11 * time.Second)

	v := wd.CheckForSuppression(&task)
	if v == nil {
		t.Fatal("expected a suppression violation")
	}
	if v.Method != DetectionTimeout {
		t.Errorf("expected timeout method, got %s", v.Method)
	}
	if wd.Monitoring(signal.ID) {
		t.Error("expected monitor removed after detection")
	}
}

func TestMarkPropagatedIdempotent(t *testing.T) {
	clk := clock.NewFake(time.Now())
	wd := New(clk, &fakeLog{}, nil)
	signal := domain.NewFailureSignal(domain.FailureTaskFailed, "a", uuid.New(), domain.FailureSeverityLow, "e", clk.Now())
	wd.StartMonitoring(signal, time.Minute)

	wd.MarkPropagated(signal.ID)
	wd.MarkPropagated(signal.ID) // second call is a no-op

	if wd.Monitoring(signal.ID) {
		t.Error("expected signal no longer monitored")
	}
}

func TestEscalateToConclave(t *testing.T) {
	clk := clock.NewFake(time.Now())
	log := &fakeLog{}
	wd := New(clk, log, nil)

	v := wd.RecordSuppressionAttempt(uuid.New(), uuid.New(), "actor", DetectionManualOverride, "manual bypass")
	stmt, err := wd.WitnessViolation(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	escalated := wd.EscalateToConclave(v, stmt.ID)

	if !escalated.Escalated {
		t.Error("expected escalated=true")
	}
	if !wd.IsEscalated(v.ID) {
		t.Error("expected IsEscalated to report true")
	}
	if log.calls != 1 {
		t.Errorf("expected 1 witness call, got %d", log.calls)
	}
}
