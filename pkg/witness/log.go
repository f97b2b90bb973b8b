package witness

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/canonicaljson"
	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/ledger"
)

// Log is the append-only Witness Log (C6). Writes are durably appended
// to an underlying ledger.Store (so the sequence and its length can
// survive a restart) and mirrored into in-memory indexes for the query
// shapes spec.md §4.6 requires (by id, by target, by time range, pending
// acknowledgment, violation listing) — cometbft-db's KV interface has no
// native range scan, so the indexes are the kernel's own responsibility,
// exactly as the teacher's LedgerStore pairs a KV-backed sequence with
// in-memory lookup maps built at call time.
type Log struct {
	mu    sync.RWMutex
	store *ledger.Store
	clock clock.Clock

	byOrder []WitnessStatement
	byID    map[uuid.UUID]*WitnessStatement

	pendingAcks map[uuid.UUID]*AcknowledgmentRequest
}

// NewLog creates a Log backed by kv, using prefix to namespace its
// records within the shared KV store.
func NewLog(kv ledger.KV, prefix string, clk clock.Clock) *Log {
	return &Log{
		store:       ledger.NewStore(kv, prefix),
		clock:       clk,
		byID:        make(map[uuid.UUID]*WitnessStatement),
		pendingAcks: make(map[uuid.UUID]*AcknowledgmentRequest),
	}
}

// Observe creates a statement from an observation context (spec.md §4.6
// observe()).
func (l *Log) Observe(ctx ObservationContext) (WitnessStatement, error) {
	stmt := WitnessStatement{
		ID:                     uuid.New(),
		Type:                   ctx.Type,
		Description:            ctx.Description,
		RolesInvolved:          ctx.RolesInvolved,
		TargetRef:              ctx.TargetRef,
		Metadata:               ctx.Metadata,
		AcknowledgmentRequired: ctx.AcknowledgmentRequired,
		Timestamp:              l.clock.Now(),
	}
	return l.publish(stmt)
}

// RecordViolation creates a statement typed to a violation class and, if
// the violation demands acknowledgment, enqueues an AcknowledgmentRequest
// for the next deliberation cycle (spec.md §4.6 record_violation()).
func (l *Log) RecordViolation(v ViolationRecord) (WitnessStatement, error) {
	stmt := WitnessStatement{
		ID:                     uuid.New(),
		Type:                   v.Type,
		Description:            v.Description,
		RolesInvolved:          v.RolesInvolved,
		TargetRef:              v.TargetRef,
		Metadata:               v.Metadata,
		AcknowledgmentRequired: v.RequiresAck,
		Timestamp:              l.clock.Now(),
	}
	published, err := l.publish(stmt)
	if err != nil {
		return WitnessStatement{}, err
	}
	if v.RequiresAck {
		l.mu.Lock()
		req := &AcknowledgmentRequest{
			ID:          uuid.New(),
			StatementID: published.ID,
			TargetRef:   published.TargetRef,
			CreatedAt:   published.Timestamp,
		}
		l.pendingAcks[req.ID] = req
		l.mu.Unlock()
	}
	return published, nil
}

// publish assigns a hash reference (SHA-256 over canonical JSON) and
// stores the hash-annotated statement (spec.md §4.6 publish()). The
// returned hash is the statement's integrity anchor.
func (l *Log) publish(stmt WitnessStatement) (WitnessStatement, error) {
	hash, err := canonicaljson.Hash(stmt)
	if err != nil {
		return WitnessStatement{}, fmt.Errorf("witness: hash statement: %w", err)
	}
	stmt.HashRef = hash

	if _, err := l.store.Append(stmt); err != nil {
		return WitnessStatement{}, fmt.Errorf("witness: append statement: %w", err)
	}

	l.mu.Lock()
	l.byOrder = append(l.byOrder, stmt)
	l.byID[stmt.ID] = &l.byOrder[len(l.byOrder)-1]
	l.mu.Unlock()

	return stmt, nil
}

// ByID looks up a statement by id.
func (l *Log) ByID(id uuid.UUID) (WitnessStatement, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stmt, ok := l.byID[id]
	if !ok {
		return WitnessStatement{}, false
	}
	return *stmt, true
}

// ByTarget returns every statement whose TargetRef equals target, in
// insertion order.
func (l *Log) ByTarget(target uuid.UUID) []WitnessStatement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []WitnessStatement
	for _, s := range l.byOrder {
		if s.TargetRef != nil && *s.TargetRef == target {
			out = append(out, s)
		}
	}
	return out
}

// ByTimeRange returns every statement with start <= Timestamp < end.
func (l *Log) ByTimeRange(start, end time.Time) []WitnessStatement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []WitnessStatement
	for _, s := range l.byOrder {
		if !s.Timestamp.Before(start) && s.Timestamp.Before(end) {
			out = append(out, s)
		}
	}
	return out
}

// Violations returns every statement typed as one of the four violation
// classes.
func (l *Log) Violations() []WitnessStatement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []WitnessStatement
	for _, s := range l.byOrder {
		switch s.Type {
		case TypeRoleViolation, TypeBranchViolation, TypeSequenceViolation, TypeSuppressionViolation:
			out = append(out, s)
		}
	}
	return out
}

// PendingAcknowledgments returns every AcknowledgmentRequest not yet
// fulfilled.
func (l *Log) PendingAcknowledgments() []AcknowledgmentRequest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []AcknowledgmentRequest
	for _, req := range l.pendingAcks {
		if !req.Fulfilled {
			out = append(out, *req)
		}
	}
	return out
}

// Acknowledge marks the pending request for statementID fulfilled by
// actor and emits an AcknowledgmentReceived statement (spec.md §4.6
// acknowledge()). It returns ErrNoSuchRequest if no pending request
// exists for that statement.
func (l *Log) Acknowledge(statementID uuid.UUID, actor string) (WitnessStatement, error) {
	l.mu.Lock()
	var req *AcknowledgmentRequest
	for _, r := range l.pendingAcks {
		if r.StatementID == statementID && !r.Fulfilled {
			req = r
			break
		}
	}
	if req == nil {
		l.mu.Unlock()
		return WitnessStatement{}, ErrNoSuchRequest
	}
	req.Fulfilled = true
	req.FulfilledBy = actor
	req.FulfilledAt = l.clock.Now()
	l.mu.Unlock()

	return l.publish(WitnessStatement{
		ID:          uuid.New(),
		Type:        TypeAcknowledgmentReceived,
		Description: fmt.Sprintf("acknowledgment received from %s", actor),
		TargetRef:   req.TargetRef,
		Metadata: map[string]any{
			"statement_id": statementID.String(),
			"request_id":   req.ID.String(),
		},
		Timestamp: l.clock.Now(),
	})
}

// Len returns the total number of statements appended (spec.md I7: the
// witness log's length only ever increases).
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byOrder)
}
