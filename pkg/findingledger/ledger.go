package findingledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/canonicaljson"
	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/events"
	"github.com/archonkernel/governance-kernel/pkg/ledger"
)

// metricsSink is the subset of *metrics.Metrics the finding ledger
// records to. A nil metricsSink is a valid Ledger configuration.
type metricsSink interface {
	IncFindingRecorded(determination string)
	IncDissentRecorded()
	SetLedgerEntries(ledger string, n int)
}

// Ledger is the Finding Ledger (C7). Its only write method is
// RecordFinding; there is deliberately no update, modify, delete, or
// remove method on this type.
type Ledger struct {
	mu      sync.RWMutex
	store   *ledger.Store
	clock   clock.Clock
	sink    events.Sink
	metrics metricsSink

	byOrder       []FindingRecord
	byFindingID   map[uuid.UUID]*FindingRecord
	byStatementID map[uuid.UUID][]*FindingRecord
	byPanelID     map[uuid.UUID][]*FindingRecord
}

// New creates a Ledger backed by kv under prefix, emitting events
// through sink. mx may be nil to disable metrics.
func New(kv ledger.KV, prefix string, clk clock.Clock, sink events.Sink, mx metricsSink) *Ledger {
	return &Ledger{
		store:         ledger.NewStore(kv, prefix),
		clock:         clk,
		sink:          sink,
		metrics:       mx,
		byFindingID:   make(map[uuid.UUID]*FindingRecord),
		byStatementID: make(map[uuid.UUID][]*FindingRecord),
		byPanelID:     make(map[uuid.UUID][]*FindingRecord),
	}
}

// RecordFinding implements spec.md §4.7: assigns the next ledger
// position, computes the integrity hash, appends, and emits
// judicial.panel.finding_issued (and, when dissent is present,
// judicial.panel.dissent_recorded).
func (l *Ledger) RecordFinding(finding PanelFinding) (FindingRecord, error) {
	hash, err := canonicaljson.Hash(finding)
	if err != nil {
		return FindingRecord{}, fmt.Errorf("findingledger: hash finding: %w", err)
	}

	now := l.clock.Now()

	// The position must be embedded in the persisted record, but
	// Store.Append only assigns it internally. l.mu serializes this
	// Ledger's writers (single-writer-per-prefix, per pkg/ledger.Store's
	// own concurrency contract), so predicting the next position and
	// then appending while holding l.mu is safe.
	l.mu.Lock()
	defer l.mu.Unlock()

	length, err := l.store.Len()
	if err != nil {
		return FindingRecord{}, fmt.Errorf("findingledger: read length: %w", err)
	}

	record := FindingRecord{
		RecordID:      uuid.New(),
		Finding:       finding,
		RecordedAt:    now,
		IntegrityHash: hash,
		LedgerPosition: length + 1,
	}

	position, err := l.store.Append(&record)
	if err != nil {
		return FindingRecord{}, fmt.Errorf("findingledger: append: %w", err)
	}
	record.LedgerPosition = position

	l.byOrder = append(l.byOrder, record)
	stored := &l.byOrder[len(l.byOrder)-1]
	l.byFindingID[finding.ID] = stored
	l.byStatementID[finding.StatementID] = append(l.byStatementID[finding.StatementID], stored)
	l.byPanelID[finding.PanelID] = append(l.byPanelID[finding.PanelID], stored)

	dissentingCount := 0
	if finding.Dissent != nil {
		dissentingCount = len(finding.Dissent.Members)
	}

	if err := l.sink.Emit("judicial.panel.finding_issued", FindingIssuedEvent{
		FindingID:        finding.ID,
		PanelID:          finding.PanelID,
		StatementID:      finding.StatementID,
		Determination:    finding.Determination,
		Remedy:           finding.Remedy,
		HasDissent:       finding.HasDissent(),
		DissentingCount:  dissentingCount,
		VotingRecordSize: len(finding.VotingRecord),
		IssuedAt:         finding.IssuedAt,
		RecordedAt:       record.RecordedAt,
		LedgerPosition:   record.LedgerPosition,
		IntegrityHash:    record.IntegrityHash,
	}); err != nil {
		return FindingRecord{}, fmt.Errorf("findingledger: emit finding_issued: %w", err)
	}

	if finding.Dissent != nil {
		if err := l.sink.Emit("judicial.panel.dissent_recorded", DissentRecordedEvent{
			FindingID:         finding.ID,
			DissentingMembers: finding.Dissent.Members,
			RationaleLength:   len(finding.Dissent.Rationale),
		}); err != nil {
			return FindingRecord{}, fmt.Errorf("findingledger: emit dissent_recorded: %w", err)
		}
	}

	if l.metrics != nil {
		l.metrics.IncFindingRecorded(string(finding.Determination))
		if finding.Dissent != nil {
			l.metrics.IncDissentRecorded()
		}
		l.metrics.SetLedgerEntries("finding", len(l.byOrder))
	}

	return record, nil
}

// ByFindingID looks up a record by its finding's id.
func (l *Ledger) ByFindingID(id uuid.UUID) (FindingRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.byFindingID[id]
	if !ok {
		return FindingRecord{}, false
	}
	return *rec, true
}

// ByRecordID looks up a record by its own record id.
func (l *Ledger) ByRecordID(id uuid.UUID) (FindingRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.byOrder {
		if r.RecordID == id {
			return r, true
		}
	}
	return FindingRecord{}, false
}

// ByStatementID returns every finding derived from the given witness
// statement (many-to-one).
func (l *Ledger) ByStatementID(id uuid.UUID) []FindingRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	refs := l.byStatementID[id]
	out := make([]FindingRecord, len(refs))
	for i, r := range refs {
		out[i] = *r
	}
	return out
}

// ByPanelID returns every finding issued by the given panel.
func (l *Ledger) ByPanelID(id uuid.UUID) []FindingRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	refs := l.byPanelID[id]
	out := make([]FindingRecord, len(refs))
	for i, r := range refs {
		out[i] = *r
	}
	return out
}

// ByDetermination returns every finding with the given determination,
// optionally filtered to those issued at or after since.
func (l *Ledger) ByDetermination(d Determination, since *time.Time) []FindingRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []FindingRecord
	for _, r := range l.byOrder {
		if r.Finding.Determination != d {
			continue
		}
		if since != nil && r.Finding.IssuedAt.Before(*since) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ByDateRange returns every finding recorded within [start, end).
func (l *Ledger) ByDateRange(start, end time.Time) []FindingRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []FindingRecord
	for _, r := range l.byOrder {
		if !r.RecordedAt.Before(start) && r.RecordedAt.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

// ByLedgerPosition returns the record stored at the given position.
func (l *Ledger) ByLedgerPosition(position uint64) (FindingRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := int(position) - 1
	if idx < 0 || idx >= len(l.byOrder) {
		return FindingRecord{}, false
	}
	return l.byOrder[idx], true
}

// Latest returns the most recently recorded finding, if any.
func (l *Ledger) Latest() (FindingRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.byOrder) == 0 {
		return FindingRecord{}, false
	}
	return l.byOrder[len(l.byOrder)-1], true
}

// Count returns the number of findings matching an optional
// determination filter and an optional since filter.
func (l *Ledger) Count(determination *Determination, since *time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if determination == nil && since == nil {
		return len(l.byOrder)
	}
	n := 0
	for _, r := range l.byOrder {
		if determination != nil && r.Finding.Determination != *determination {
			continue
		}
		if since != nil && r.Finding.IssuedAt.Before(*since) {
			continue
		}
		n++
	}
	return n
}

// Dissenting returns every finding that carries a dissent, derived from
// the full range (spec.md §4.7: "Dissent-only view is derived from the
// full range").
func (l *Ledger) Dissenting() []FindingRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []FindingRecord
	for _, r := range l.byOrder {
		if r.Finding.HasDissent() {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of findings recorded (spec.md I7).
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byOrder)
}
