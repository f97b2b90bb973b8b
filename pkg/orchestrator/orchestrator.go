package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/branchservice"
	"github.com/archonkernel/governance-kernel/pkg/canonicaljson"
	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/rolecollapse"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

// machine is the subset of *statemachine.Machine the orchestrator needs.
type machine interface {
	Initialize(motionID uuid.UUID, introducer string) error
	CurrentState(motionID uuid.UUID) (statemachine.State, error)
	Transition(motionID uuid.UUID, to statemachine.State, triggeredBy, reason string) statemachine.TransitionResult
}

// collapseDetector is the subset of *rolecollapse.Detector the
// orchestrator needs.
type collapseDetector interface {
	Detect(actor string, motion uuid.UUID, proposedBranch domain.Branch) *rolecollapse.Violation
	RecordAudit(violation rolecollapse.Violation, witnessRef uuid.UUID)
}

// witnessLog is the subset of *witness.Log the orchestrator needs.
type witnessLog interface {
	Observe(ctx witness.ObservationContext) (witness.WitnessStatement, error)
	RecordViolation(v witness.ViolationRecord) (witness.WitnessStatement, error)
}

// propagator is the subset of *propagation.Propagator the orchestrator
// drives for failures (C9, spec.md §2 "for failures — C8/C9 to propagate
// and monitor") and uses to record retry_scheduled/escalation_resolved
// observations. It is optional: a nil propagator is a valid Orchestrator
// configuration, in which case failures are still witnessed via o.log
// but never monitored by the suppression watchdog.
type propagator interface {
	EmitFailure(signal domain.FailureSignal) (domain.FailureSignal, witness.WitnessStatement, error)
	RecordRetryScheduled(taskRef uuid.UUID, attempt int, backoff time.Duration)
	RecordEscalationResolved(taskRef uuid.UUID, escalationID, resolver, notes string)
}

// metricsSink is the subset of *metrics.Metrics the orchestrator records
// to. A nil metricsSink is a valid Orchestrator configuration.
type metricsSink interface {
	IncMotionsProcessed(state string)
	IncMotionsEscalated(strategy string)
	IncMotionsRetried()
	SetPipelinesBlocked(n int)
	IncRoleCollapseViolation(severity string)
}

// Orchestrator is the Flow Orchestrator (C10).
//
// CONCURRENCY: a single mutex serializes all pipeline and statistics
// mutation. spec.md §5 requires only the effect of per-motion
// serialization (a consistent snapshot per critical section); a coarse
// lock satisfies that at the cost of cross-motion parallelism, which is
// an acceptable simplification for a reference kernel.
type Orchestrator struct {
	mu sync.Mutex

	clock      clock.Clock
	machine    machine
	collapse   collapseDetector
	log        witnessLog
	services   map[statemachine.State]branchservice.Service
	propagator propagator
	metrics    metricsSink

	pipelines map[uuid.UUID]*PipelineState
	stats     Stats
}

// New creates an Orchestrator. prop may be nil if the caller does not
// want branch-service failures routed through C9 or retry/escalation
// timeline entries recorded; mx may be nil to disable metrics.
func New(clk clock.Clock, m machine, collapse collapseDetector, log witnessLog, services map[statemachine.State]branchservice.Service, prop propagator, mx metricsSink) *Orchestrator {
	return &Orchestrator{
		clock:      clk,
		machine:    m,
		collapse:   collapse,
		log:        log,
		services:   services,
		propagator: prop,
		metrics:    mx,
		pipelines:  make(map[uuid.UUID]*PipelineState),
		stats:      Stats{WindowStart: clk.Now()},
	}
}

// InitializeMotion initializes the state machine and seeds pipeline
// state for motion, recording a canonical intent hash so a later
// IntentRedefinition check has something to compare against.
func (o *Orchestrator) InitializeMotion(motion domain.Motion) error {
	if err := o.machine.Initialize(motion.ID, motion.IntroducerID); err != nil {
		return err
	}

	intentHash, err := canonicaljson.Hash(motion.Intent)
	if err != nil {
		return fmt.Errorf("orchestrator: hash intent: %w", err)
	}

	now := o.clock.Now()
	o.mu.Lock()
	o.pipelines[motion.ID] = &PipelineState{
		MotionID:   motion.ID,
		Current:    statemachine.Introduced,
		EnteredAt:  now,
		IntentHash: intentHash,
	}
	o.mu.Unlock()
	return nil
}

// ProcessMotion implements spec.md §4.10's primary loop entry point.
func (o *Orchestrator) ProcessMotion(ctx context.Context, motion uuid.UUID, actor string, force bool) (RoutingDecision, error) {
	state, err := o.machine.CurrentState(motion)
	if err != nil {
		return RoutingDecision{}, err
	}
	if statemachine.IsTerminal(state) {
		return RoutingDecision{}, &statemachine.TerminalStateError{MotionID: motion, Current: state}
	}

	o.mu.Lock()
	pipeline, ok := o.pipelines[motion]
	if !ok {
		o.mu.Unlock()
		return RoutingDecision{}, &MotionUnknownError{MotionID: motion}
	}
	blocked := pipeline.Blocked()
	reasons := append([]string(nil), pipeline.BlockingReasons...)
	o.mu.Unlock()

	if blocked && !force {
		return RoutingDecision{}, &PipelineBlockedError{MotionID: motion, Reasons: reasons}
	}

	decision, err := o.RouteToBranch(ctx, motion, state, actor)
	if err != nil {
		return RoutingDecision{}, err
	}

	o.mu.Lock()
	o.stats.TotalProcessed++
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.IncMotionsProcessed(string(state))
	}

	return decision, nil
}

// RouteToBranch implements spec.md §4.10's route_to_branch.
func (o *Orchestrator) RouteToBranch(ctx context.Context, motion uuid.UUID, state statemachine.State, actor string) (RoutingDecision, error) {
	service, ok := o.services[state]
	if !ok {
		return RoutingDecision{}, &NoBranchServiceError{State: string(state)}
	}
	branch, ok := branchservice.BranchFor(state)
	if !ok {
		return RoutingDecision{}, &NoBranchServiceError{State: string(state)}
	}

	if v := o.collapse.Detect(actor, motion, branch); v != nil {
		stmt, err := o.log.RecordViolation(witness.ViolationRecord{
			Type:        witness.TypeRoleViolation,
			Description: fmt.Sprintf("role collapse for actor %s on motion %s: %s", actor, motion, v.Rule),
			TargetRef:   &motion,
			Metadata: map[string]any{
				"proposed_branch":    string(v.ProposedBranch),
				"conflicting_branch": string(v.ConflictingBranch),
				"rule_id":            v.RuleID,
			},
			RequiresAck: v.Escalated,
		})
		if err != nil {
			return RoutingDecision{}, fmt.Errorf("orchestrator: witness role collapse: %w", err)
		}
		o.collapse.RecordAudit(*v, stmt.ID)
		if o.metrics != nil {
			o.metrics.IncRoleCollapseViolation(string(v.Severity))
		}
		return RoutingDecision{}, fmt.Errorf("orchestrator: role collapse detected for actor %s on motion %s", actor, motion)
	}

	decision := RoutingDecision{MotionID: motion, State: state, Branch: branch, Actor: actor, Timestamp: o.clock.Now()}

	if _, err := o.log.Observe(witness.ObservationContext{
		Type:        witness.TypeObservation,
		Description: fmt.Sprintf("routed motion %s to branch %s at state %s", motion, branch, state),
		TargetRef:   &motion,
	}); err != nil {
		return RoutingDecision{}, fmt.Errorf("orchestrator: witness routing: %w", err)
	}

	result, err := service.Handle(ctx, motion, actor)
	if err != nil {
		return RoutingDecision{}, err
	}
	if err := o.HandleCompletion(motion, result, actor); err != nil {
		return RoutingDecision{}, err
	}

	return decision, nil
}

// HandleCompletion implements spec.md §4.10's handle_completion.
func (o *Orchestrator) HandleCompletion(motion uuid.UUID, result branchservice.BranchResult, actor string) error {
	o.mu.Lock()
	pipeline, ok := o.pipelines[motion]
	o.mu.Unlock()
	if !ok {
		return &MotionUnknownError{MotionID: motion}
	}

	if !result.Success {
		kind := ErrorKind(result.ErrorType)
		if o.propagator != nil {
			severity, sigKind := failureSignalMapping(kind)
			signal := domain.NewFailureSignal(sigKind, actor, motion, severity, result.Error, o.clock.Now())
			signal.MotionRef = &motion
			if _, _, err := o.propagator.EmitFailure(signal); err != nil {
				return fmt.Errorf("orchestrator: propagate failure for motion %s: %w", motion, err)
			}
		}
		if err := o.escalate(pipeline, kind, result.Error); err != nil {
			return err
		}
		return fmt.Errorf("orchestrator: branch %s reported failure for motion %s: %s", result.Branch, motion, result.Error)
	}

	if result.IntentSnapshot != "" && result.IntentSnapshot != pipeline.IntentHash {
		if err := o.escalate(pipeline, ErrorIntentAmbiguity, "intent redefinition detected"); err != nil {
			return err
		}
		return fmt.Errorf("orchestrator: intent redefinition detected for motion %s", motion)
	}

	if result.NextState == nil {
		return nil
	}

	tr := o.machine.Transition(motion, *result.NextState, actor, "branch completion")
	if !tr.Success {
		if tr.Err != nil {
			return tr.Err
		}
		return fmt.Errorf("orchestrator: transition rejected for motion %s: %s", motion, tr.Rejection.Reason)
	}

	o.mu.Lock()
	pipeline.Current = *result.NextState
	pipeline.EnteredAt = o.clock.Now()
	pipeline.LastError = ""
	o.mu.Unlock()

	return nil
}

// escalate applies the table-driven escalation policy for kind and
// witnesses the escalation itself before acting on it: every escalation
// emits a typed violation, never a silent log (spec.md §4.10).
func (o *Orchestrator) escalate(pipeline *PipelineState, kind ErrorKind, reason string) error {
	entry, ok := escalationPolicy[kind]
	if !ok {
		entry = escalationPolicy[ErrorUnknown]
	}

	motion := pipeline.MotionID
	if _, err := o.log.RecordViolation(witness.ViolationRecord{
		Type:        witness.TypeBranchViolation,
		Description: fmt.Sprintf("escalation for motion %s: %s (%s)", motion, reason, kind),
		TargetRef:   &motion,
		Metadata: map[string]any{
			"error_kind": string(kind),
			"strategy":   string(entry.Strategy),
		},
		RequiresAck: entry.Blocking,
	}); err != nil {
		return fmt.Errorf("orchestrator: witness escalation: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	pipeline.LastError = reason
	if o.metrics != nil {
		o.metrics.IncMotionsEscalated(string(entry.Strategy))
	}

	switch entry.Strategy {
	case StrategyRetryWithBackoff:
		pipeline.RetryCount++
		if pipeline.RetryCount > maxRetries {
			o.blockPipeline(pipeline, reason)
			o.stats.Escalated++
			break
		}
		o.stats.Retried++
		if o.metrics != nil {
			o.metrics.IncMotionsRetried()
		}
		if o.propagator != nil {
			o.propagator.RecordRetryScheduled(pipeline.MotionID, pipeline.RetryCount, backoffLadder[pipeline.RetryCount-1])
		}
	case StrategyReturnToPrevious:
		// non-blocking: caller retries from the same state.
	default:
		o.blockPipeline(pipeline, reason)
		o.stats.Escalated++
	}

	if o.metrics != nil {
		o.metrics.SetPipelinesBlocked(o.countBlockedLocked())
	}
	return nil
}

func (o *Orchestrator) blockPipeline(pipeline *PipelineState, reason string) {
	pipeline.BlockingReasons = append(pipeline.BlockingReasons, reason)
	pipeline.Escalations = append(pipeline.Escalations, Escalation{
		ID:        uuid.New(),
		MotionID:  pipeline.MotionID,
		Reason:    reason,
		CreatedAt: o.clock.Now(),
	})
}

// countBlockedLocked returns the number of pipelines currently blocked.
// Callers must hold o.mu.
func (o *Orchestrator) countBlockedLocked() int {
	n := 0
	for _, p := range o.pipelines {
		if p.Blocked() {
			n++
		}
	}
	return n
}

// RetryMotion clears a transient retry block so the motion can be
// re-processed without resolving a formal escalation.
func (o *Orchestrator) RetryMotion(motion uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	pipeline, ok := o.pipelines[motion]
	if !ok {
		return &MotionUnknownError{MotionID: motion}
	}
	pipeline.BlockingReasons = nil
	return nil
}

// ResolveEscalation clears the blocking set and records an
// escalation_resolved observation (spec.md §4.10).
func (o *Orchestrator) ResolveEscalation(motion, escalationID uuid.UUID, resolver, notes string) error {
	o.mu.Lock()
	pipeline, ok := o.pipelines[motion]
	if !ok {
		o.mu.Unlock()
		return &MotionUnknownError{MotionID: motion}
	}

	found := false
	for i := range pipeline.Escalations {
		if pipeline.Escalations[i].ID == escalationID {
			pipeline.Escalations[i].Resolved = true
			pipeline.Escalations[i].Resolver = resolver
			pipeline.Escalations[i].Notes = notes
			found = true
			break
		}
	}
	if !found {
		o.mu.Unlock()
		return &EscalationUnknownError{EscalationID: escalationID}
	}
	pipeline.BlockingReasons = nil
	o.mu.Unlock()

	if o.metrics != nil {
		o.mu.Lock()
		o.metrics.SetPipelinesBlocked(o.countBlockedLocked())
		o.mu.Unlock()
	}

	if o.propagator != nil {
		o.propagator.RecordEscalationResolved(motion, escalationID.String(), resolver, notes)
	}

	_, err := o.log.Observe(witness.ObservationContext{
		Type:        witness.TypeObservation,
		Description: fmt.Sprintf("escalation %s resolved by %s: %s", escalationID, resolver, notes),
		TargetRef:   &motion,
	})
	return err
}

// Pipeline returns a copy of a motion's current pipeline state.
func (o *Orchestrator) Pipeline(motion uuid.UUID) (PipelineState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pipelines[motion]
	if !ok {
		return PipelineState{}, false
	}
	cp := *p
	cp.BlockingReasons = append([]string(nil), p.BlockingReasons...)
	cp.Escalations = append([]Escalation(nil), p.Escalations...)
	return cp, true
}

// Stats returns a snapshot of the rolling statistics.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}
