package watchdog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

// witnessLog is the subset of *witness.Log the watchdog needs, so this
// package depends only on C6's write surface.
type witnessLog interface {
	RecordViolation(v witness.ViolationRecord) (witness.WitnessStatement, error)
}

// metricsSink is the subset of *metrics.Metrics the watchdog records to.
// A nil metricsSink is a valid Watchdog configuration.
type metricsSink interface {
	IncSuppressionViolation()
	SetMonitoredFailures(n int)
}

// Watchdog is the Suppression Watchdog (C8).
type Watchdog struct {
	mu       sync.Mutex
	clock    clock.Clock
	log      witnessLog
	metrics  metricsSink
	monitors map[uuid.UUID]MonitoredFailure
	escalated map[uuid.UUID]bool
}

// New creates a Watchdog that witnesses through log. mx may be nil to
// disable metrics.
func New(clk clock.Clock, log witnessLog, mx metricsSink) *Watchdog {
	return &Watchdog{
		clock:     clk,
		log:       log,
		metrics:   mx,
		monitors:  make(map[uuid.UUID]MonitoredFailure),
		escalated: make(map[uuid.UUID]bool),
	}
}

// setMonitoredGaugeLocked publishes the current monitor count. Callers
// must hold w.mu.
func (w *Watchdog) setMonitoredGaugeLocked() {
	if w.metrics != nil {
		w.metrics.SetMonitoredFailures(len(w.monitors))
	}
}

// StartMonitoring registers signal with a deadline (spec.md §4.8). A
// zero timeout uses DefaultTimeout; Critical severity halves whichever
// window applies. Calling StartMonitoring again for the same signal id
// begins a new monitor (spec.md §8: "calling start_monitoring after
// mark_propagated begins a new monitor").
func (w *Watchdog) StartMonitoring(signal domain.FailureSignal, timeout time.Duration) MonitoredFailure {
	now := w.clock.Now()
	mf := MonitoredFailure{
		SignalID:  signal.ID,
		TaskRef:   signal.TaskRef,
		Severity:  signal.Severity,
		StartedAt: now,
		TimeoutAt: timeoutFor(signal.Severity, timeout, now),
	}

	w.mu.Lock()
	w.monitors[signal.ID] = mf
	w.setMonitoredGaugeLocked()
	w.mu.Unlock()

	return mf
}

// MarkPropagated removes the monitor cleanly (spec.md §4.8). Calling it
// twice for the same signal is a no-op on the second call (spec.md §8).
func (w *Watchdog) MarkPropagated(signalID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.monitors, signalID)
	w.setMonitoredGaugeLocked()
}

// CheckForSuppression scans every monitored signal whose deadline has
// passed, constructs a SuppressionViolation with method Timeout for the
// first it finds, removes it from monitoring, and returns it. A nil
// return means nothing has timed out. If taskRef is non-nil, only
// signals for that task are considered.
func (w *Watchdog) CheckForSuppression(taskRef *uuid.UUID) *SuppressionViolation {
	now := w.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	for id, mf := range w.monitors {
		if taskRef != nil && mf.TaskRef != *taskRef {
			continue
		}
		if now.Before(mf.TimeoutAt) {
			continue
		}
		delete(w.monitors, id)
		w.setMonitoredGaugeLocked()
		if w.metrics != nil {
			w.metrics.IncSuppressionViolation()
		}
		return &SuppressionViolation{
			ID:              uuid.New(),
			OffendingSignal: id,
			Method:          DetectionTimeout,
			TaskRef:         mf.TaskRef,
			Evidence:        "monitoring deadline exceeded without propagation",
			Timestamp:       now,
		}
	}
	return nil
}

// RecordSuppressionAttempt builds an explicit SuppressionViolation for a
// non-timeout detection method (spec.md §4.8).
func (w *Watchdog) RecordSuppressionAttempt(signalID uuid.UUID, taskRef uuid.UUID, actor string, method DetectionMethod, evidence string) SuppressionViolation {
	if w.metrics != nil {
		w.metrics.IncSuppressionViolation()
	}
	return SuppressionViolation{
		ID:               uuid.New(),
		OffendingSignal:  signalID,
		SuppressingActor: actor,
		Method:           method,
		TaskRef:          taskRef,
		Evidence:         evidence,
		Timestamp:        w.clock.Now(),
	}
}

// WitnessViolation delegates to C6 to produce a typed violation
// statement for v (spec.md §4.8).
func (w *Watchdog) WitnessViolation(v SuppressionViolation) (witness.WitnessStatement, error) {
	target := v.TaskRef
	return w.log.RecordViolation(witness.ViolationRecord{
		Type:        witness.TypeSuppressionViolation,
		Description: "suppression detected: " + v.Evidence,
		TargetRef:   &target,
		Metadata: map[string]any{
			"offending_signal": v.OffendingSignal.String(),
			"method":           string(v.Method),
		},
		RequiresAck: true,
	})
}

// EscalateToConclave marks v escalated and links it to witnessRef.
// Every detected suppression must be witnessed and escalated (spec.md
// §4.8: "silent failure is prohibited").
func (w *Watchdog) EscalateToConclave(v SuppressionViolation, witnessRef uuid.UUID) SuppressionViolation {
	v.Escalated = true
	v.WitnessRef = &witnessRef

	w.mu.Lock()
	w.escalated[v.ID] = true
	w.mu.Unlock()

	return v
}

// IsEscalated reports whether the violation with the given id has been
// escalated.
func (w *Watchdog) IsEscalated(violationID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.escalated[violationID]
}

// Monitoring reports whether signalID currently has an active monitor.
func (w *Watchdog) Monitoring(signalID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.monitors[signalID]
	return ok
}
