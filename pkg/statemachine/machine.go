package statemachine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

const policyRefFR2307 = "FR-GOV-23: no step may be skipped"

// metricsSink is the subset of *metrics.Metrics the state machine
// records to. A nil metricsSink is a valid Machine configuration.
type metricsSink interface {
	IncStateTransition(from, to string)
}

// Machine is the State Machine (C5). Individual motions are serialized
// internally (spec.md §5); different motions may progress in parallel.
type Machine struct {
	mu      sync.Mutex
	clock   clock.Clock
	log     *witness.Log
	metrics metricsSink

	records map[uuid.UUID]*MotionStateRecord
	audit   []SkipAttemptViolation
}

// New creates a Machine. log receives a witness statement for every
// initialization, success, rejection, and skip attempt (spec.md §4.5).
// mx may be nil to disable metrics.
func New(clk clock.Clock, log *witness.Log, mx metricsSink) *Machine {
	return &Machine{
		clock:   clk,
		log:     log,
		metrics: mx,
		records: make(map[uuid.UUID]*MotionStateRecord),
	}
}

// Initialize requires the motion is unknown, sets current=Introduced,
// appends a self-transition to history, and witnesses the initialization
// (spec.md §4.5).
func (m *Machine) Initialize(motionID uuid.UUID, introducer string) error {
	m.mu.Lock()
	if _, exists := m.records[motionID]; exists {
		m.mu.Unlock()
		return &MotionAlreadyExistsError{MotionID: motionID}
	}

	now := m.clock.Now()
	self := StateTransition{
		MotionID:    motionID,
		From:        Introduced,
		To:          Introduced,
		TriggeredBy: introducer,
		Timestamp:   now,
	}
	m.records[motionID] = &MotionStateRecord{
		MotionID:  motionID,
		Current:   Introduced,
		EnteredAt: now,
		History:   []StateTransition{self},
	}
	m.mu.Unlock()

	_, err := m.log.Observe(witness.ObservationContext{
		Type:        witness.TypeProcedural,
		Description: fmt.Sprintf("motion %s introduced by %s", motionID, introducer),
		TargetRef:   &motionID,
	})
	return err
}

// CurrentState returns the current state for a known motion.
func (m *Machine) CurrentState(motionID uuid.UUID) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[motionID]
	if !ok {
		return "", &MotionUnknownError{MotionID: motionID}
	}
	return rec.Current, nil
}

// Record returns a copy of the full MotionStateRecord.
func (m *Machine) Record(motionID uuid.UUID) (MotionStateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[motionID]
	if !ok {
		return MotionStateRecord{}, &MotionUnknownError{MotionID: motionID}
	}
	cp := *rec
	cp.History = append([]StateTransition(nil), rec.History...)
	cp.IsTerminal = IsTerminal(rec.Current)
	return cp, nil
}

// AvailableTransitions returns the states reachable in a single valid
// edge from the motion's current state; empty for a terminal state.
func (m *Machine) AvailableTransitions(motionID uuid.UUID) ([]State, error) {
	st, err := m.CurrentState(motionID)
	if err != nil {
		return nil, err
	}
	if IsTerminal(st) {
		return []State{}, nil
	}
	return NextStates(st), nil
}

// MotionsInState returns every known motion currently in state s.
func (m *Machine) MotionsInState(s State) []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for id, rec := range m.records {
		if rec.Current == s {
			out = append(out, id)
		}
	}
	return out
}

// History returns the full transition history for a motion.
func (m *Machine) History(motionID uuid.UUID) ([]StateTransition, error) {
	rec, err := m.Record(motionID)
	if err != nil {
		return nil, err
	}
	return rec.History, nil
}

// SkipAudit returns every recorded SkipAttemptViolation, in order.
func (m *Machine) SkipAudit() []SkipAttemptViolation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SkipAttemptViolation(nil), m.audit...)
}

// ValidateTransition is pure: it never mutates state. It reports whether
// (current, to) is valid and, if not, which canonical states would be
// skipped (spec.md §4.5 validate_transition()).
func (m *Machine) ValidateTransition(motionID uuid.UUID, to State) (bool, []State, error) {
	st, err := m.CurrentState(motionID)
	if err != nil {
		return false, nil, err
	}
	if IsValidEdge(st, to) {
		return true, nil, nil
	}
	return false, SkippedStates(st, to), nil
}

// Transition attempts to move a motion to to_state. Invalid transitions
// are rejected, not raised (spec.md §4.5): callers must check
// TransitionResult.Success.
func (m *Machine) Transition(motionID uuid.UUID, to State, triggeredBy, reason string) TransitionResult {
	return m.transition(motionID, to, triggeredBy, reason, false)
}

// EnforceTransition is a thin wrapper over Transition that raises a typed
// error on any non-success outcome (spec.md §4.5 enforce_transition()).
func (m *Machine) EnforceTransition(motionID uuid.UUID, to State, triggeredBy, reason string) (StateTransition, error) {
	result := m.Transition(motionID, to, triggeredBy, reason)
	if result.Success {
		return *result.Transition, nil
	}
	if result.Err != nil {
		return StateTransition{}, result.Err
	}
	if result.Violation != nil && result.Violation.AttemptKind != "" {
		return StateTransition{}, &InvalidTransitionError{Rejection: *result.Rejection}
	}
	return StateTransition{}, &InvalidTransitionError{Rejection: *result.Rejection}
}

// ForceTransition is the privileged variant: a valid edge is handled like
// Transition, but an invalid edge is always rejected and always produces
// a SkipAttemptViolation of kind Force with Escalated=true. Force never
// bypasses the graph (spec.md §4.5): the entry point exists solely to
// make force attempts auditable.
func (m *Machine) ForceTransition(motionID uuid.UUID, to State, triggeredBy, reason string) (StateTransition, error) {
	st, err := m.CurrentState(motionID)
	if err != nil {
		return StateTransition{}, err
	}
	if IsValidEdge(st, to) {
		result := m.Transition(motionID, to, triggeredBy, reason)
		if result.Success {
			return *result.Transition, nil
		}
		return StateTransition{}, result.Err
	}

	rejection, violation := m.rejectSkip(motionID, st, to, triggeredBy, reason, SkipForce, true)
	return StateTransition{}, &ForceSkipAttemptError{Rejection: rejection, Violation: violation}
}

func (m *Machine) transition(motionID uuid.UUID, to State, triggeredBy, reason string, forced bool) TransitionResult {
	m.mu.Lock()
	rec, ok := m.records[motionID]
	if !ok {
		m.mu.Unlock()
		return TransitionResult{Err: &MotionUnknownError{MotionID: motionID}}
	}
	current := rec.Current
	m.mu.Unlock()

	if IsTerminal(current) {
		rejection := TransitionRejection{
			MotionID:       motionID,
			CurrentState:   current,
			AttemptedState: to,
			Reason:         fmt.Sprintf("motion is in terminal state %s", current),
			Severity:       string("critical"),
			PolicyRef:      policyRefFR2307,
			ErrorCode:      "TERMINAL_STATE",
		}
		m.witnessRejection(motionID, rejection, nil)
		return TransitionResult{Err: &TerminalStateError{MotionID: motionID, Current: current}, Rejection: &rejection}
	}

	if !IsValidEdge(current, to) {
		kind := SkipForce
		escalated := forced
		if !forced {
			kind = ClassifySkip(SkippedStates(current, to))
		}
		rejection, violation := m.rejectSkip(motionID, current, to, triggeredBy, reason, kind, escalated)
		return TransitionResult{Rejection: &rejection, Violation: &violation}
	}

	now := m.clock.Now()
	tr := StateTransition{
		MotionID:    motionID,
		From:        current,
		To:          to,
		TriggeredBy: triggeredBy,
		Timestamp:   now,
		Reason:      reason,
	}

	m.mu.Lock()
	if rec.Current != current {
		// Another transition of this motion landed after current was
		// read; evaluate the request again against the new state.
		m.mu.Unlock()
		return m.transition(motionID, to, triggeredBy, reason, forced)
	}
	rec.Current = to
	rec.EnteredAt = now
	rec.History = append(rec.History, tr)
	m.mu.Unlock()

	stmt, err := m.log.Observe(witness.ObservationContext{
		Type:        witness.TypeProcedural,
		Description: fmt.Sprintf("motion %s transitioned %s -> %s", motionID, current, to),
		TargetRef:   &motionID,
		Metadata: map[string]any{
			"from":         string(current),
			"to":           string(to),
			"triggered_by": triggeredBy,
		},
	})
	if err != nil {
		return TransitionResult{Err: fmt.Errorf("statemachine: witness transition: %w", err)}
	}
	tr.WitnessRef = &stmt.ID

	if m.metrics != nil {
		m.metrics.IncStateTransition(string(current), string(to))
	}

	return TransitionResult{Success: true, Transition: &tr}
}

// rejectSkip builds, audits, and witnesses a rejected forward transition.
func (m *Machine) rejectSkip(motionID uuid.UUID, current, to State, triggeredBy, reason string, kind SkipAttemptKind, escalated bool) (TransitionRejection, SkipAttemptViolation) {
	skipped := SkippedStates(current, to)

	violation := SkipAttemptViolation{
		ID:             uuid.New(),
		MotionID:       motionID,
		CurrentState:   current,
		AttemptedState: to,
		SkippedStates:  skipped,
		AttemptKind:    kind,
		ActorID:        triggeredBy,
		Source:         "api",
		Severity:       "critical",
		Rejected:       true,
		Escalated:      escalated,
		Timestamp:      m.clock.Now(),
	}

	m.mu.Lock()
	m.audit = append(m.audit, violation)
	m.mu.Unlock()

	rejection := TransitionRejection{
		MotionID:       motionID,
		CurrentState:   current,
		AttemptedState: to,
		RequiredNext:   NextStates(current),
		SkippedStates:  skipped,
		Reason: fmt.Sprintf("invalid transition %s -> %s: no step may be skipped per FR-GOV-23", current, to),
		Severity:  "critical",
		PolicyRef: policyRefFR2307,
		ErrorCode: "SKIP_ATTEMPT",
	}
	if reason != "" {
		rejection.Reason = reason
	}

	m.witnessRejection(motionID, rejection, &violation)
	return rejection, violation
}

func (m *Machine) witnessRejection(motionID uuid.UUID, rejection TransitionRejection, violation *SkipAttemptViolation) {
	stmtType := witness.TypeSequenceViolation
	desc := fmt.Sprintf("rejected transition for motion %s: %s", motionID, rejection.Reason)
	requiresAck := violation != nil && violation.Escalated

	_, _ = m.log.RecordViolation(witness.ViolationRecord{
		Type:        stmtType,
		Description: desc,
		TargetRef:   &motionID,
		Metadata: map[string]any{
			"current_state":   string(rejection.CurrentState),
			"attempted_state": string(rejection.AttemptedState),
			"error_code":      rejection.ErrorCode,
		},
		RequiresAck: requiresAck,
	})
}
