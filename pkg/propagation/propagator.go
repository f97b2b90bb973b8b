package propagation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/watchdog"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

// suppressionWatchdog is the subset of *watchdog.Watchdog the propagator
// drives.
type suppressionWatchdog interface {
	StartMonitoring(signal domain.FailureSignal, timeout time.Duration) watchdog.MonitoredFailure
	MarkPropagated(signalID uuid.UUID)
	WitnessViolation(v watchdog.SuppressionViolation) (witness.WitnessStatement, error)
	EscalateToConclave(v watchdog.SuppressionViolation, witnessRef uuid.UUID) watchdog.SuppressionViolation
}

// witnessLog is the subset of *witness.Log the propagator needs.
type witnessLog interface {
	Observe(ctx witness.ObservationContext) (witness.WitnessStatement, error)
	RecordViolation(v witness.ViolationRecord) (witness.WitnessStatement, error)
}

// Propagator is the Failure Propagator (C9).
type Propagator struct {
	mu       sync.Mutex
	clock    clock.Clock
	watchdog suppressionWatchdog
	log      witnessLog

	signals  map[uuid.UUID]domain.FailureSignal
	timelines map[uuid.UUID][]TimelineEvent
}

// New creates a Propagator wired to its watchdog and witness log.
func New(clk clock.Clock, wd suppressionWatchdog, log witnessLog) *Propagator {
	return &Propagator{
		clock:     clk,
		watchdog:  wd,
		log:       log,
		signals:   make(map[uuid.UUID]domain.FailureSignal),
		timelines: make(map[uuid.UUID][]TimelineEvent),
	}
}

// EmitFailure implements spec.md §4.9's emit_failure sequence. Failure
// of any step surfaces; nothing is swallowed.
func (p *Propagator) EmitFailure(signal domain.FailureSignal) (domain.FailureSignal, witness.WitnessStatement, error) {
	// 1. Start the watchdog for signal.
	p.watchdog.StartMonitoring(signal, 0)

	// 2. Witness the emission via C6.
	stmt, err := p.log.Observe(witness.ObservationContext{
		Type:        witness.TypeFailureEmission,
		Description: fmt.Sprintf("failure signal %s emitted: %s", signal.Kind, signal.Evidence),
		TargetRef:   &signal.TaskRef,
		Metadata: map[string]any{
			"signal_id": signal.ID.String(),
			"severity":  string(signal.Severity),
		},
	})
	if err != nil {
		return domain.FailureSignal{}, witness.WitnessStatement{}, fmt.Errorf("propagation: witness emission: %w", err)
	}

	// 3. Append failure_emitted to this task's timeline.
	now := p.clock.Now()
	p.appendTimeline(signal.TaskRef, TimelineEvent{
		Timestamp: now,
		Kind:      EventFailureEmitted,
		Details:   map[string]any{"signal_id": signal.ID.String(), "witness_ref": stmt.ID.String()},
	})

	// 4. Mark the signal propagated and store it.
	propagated := signal.WithPropagation(now, stmt.ID)
	p.mu.Lock()
	p.signals[propagated.ID] = propagated
	p.mu.Unlock()

	// 5. Tell C8 it was propagated.
	p.watchdog.MarkPropagated(signal.ID)

	return propagated, stmt, nil
}

// NotifyPrince records a judicial-notification statement, flips
// JudicialNotified on the stored signal, and appends prince_notified to
// the timeline (spec.md §4.9).
func (p *Propagator) NotifyPrince(ctx NotificationContext) (witness.WitnessStatement, error) {
	stmt, err := p.log.Observe(witness.ObservationContext{
		Type:        witness.TypeJudicialNotification,
		Description: "prince notified: " + ctx.Reason,
		TargetRef:   &ctx.TaskRef,
		Metadata: map[string]any{
			"signal_id": ctx.SignalID.String(),
		},
	})
	if err != nil {
		return witness.WitnessStatement{}, fmt.Errorf("propagation: witness notification: %w", err)
	}

	p.mu.Lock()
	if sig, ok := p.signals[ctx.SignalID]; ok {
		sig.JudicialNotified = true
		p.signals[ctx.SignalID] = sig
	}
	p.mu.Unlock()

	p.appendTimeline(ctx.TaskRef, TimelineEvent{
		Timestamp: p.clock.Now(),
		Kind:      EventPrinceNotified,
		Details:   map[string]any{"signal_id": ctx.SignalID.String()},
	})

	return stmt, nil
}

// RecordSuppressionViolation witnesses v, escalates it, and appends
// suppression_violation to the timeline (spec.md §4.9).
func (p *Propagator) RecordSuppressionViolation(v watchdog.SuppressionViolation) (watchdog.SuppressionViolation, error) {
	stmt, err := p.watchdog.WitnessViolation(v)
	if err != nil {
		return watchdog.SuppressionViolation{}, fmt.Errorf("propagation: witness suppression: %w", err)
	}
	escalated := p.watchdog.EscalateToConclave(v, stmt.ID)

	p.appendTimeline(v.TaskRef, TimelineEvent{
		Timestamp: p.clock.Now(),
		Kind:      EventSuppressionViolation,
		Details: map[string]any{
			"violation_id": v.ID.String(),
			"method":       string(v.Method),
		},
	})

	return escalated, nil
}

// RecordEscalationResolved appends an escalation_resolved observation to
// a task's timeline (used by the Flow Orchestrator's resolve_escalation).
func (p *Propagator) RecordEscalationResolved(taskRef uuid.UUID, escalationID, resolver, notes string) {
	p.appendTimeline(taskRef, TimelineEvent{
		Timestamp: p.clock.Now(),
		Kind:      EventEscalationResolved,
		Details: map[string]any{
			"escalation_id": escalationID,
			"resolver":      resolver,
			"notes":         notes,
		},
	})
}

// RecordRetryScheduled appends a retry_scheduled observation to a task's
// timeline.
func (p *Propagator) RecordRetryScheduled(taskRef uuid.UUID, attempt int, backoff time.Duration) {
	p.appendTimeline(taskRef, TimelineEvent{
		Timestamp: p.clock.Now(),
		Kind:      EventRetryScheduled,
		Details: map[string]any{
			"attempt": attempt,
			"backoff": backoff.String(),
		},
	})
}

func (p *Propagator) appendTimeline(taskRef uuid.UUID, event TimelineEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timelines[taskRef] = append(p.timelines[taskRef], event)
}

// Timeline returns the ordered timeline for a task.
func (p *Propagator) Timeline(taskRef uuid.UUID) []TimelineEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TimelineEvent(nil), p.timelines[taskRef]...)
}

// Signal returns the stored signal by id.
func (p *Propagator) Signal(id uuid.UUID) (domain.FailureSignal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sig, ok := p.signals[id]
	return sig, ok
}
