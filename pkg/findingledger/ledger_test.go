package findingledger

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/clock"
)

type memKV struct{ data map[string][]byte }

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(key []byte) ([]byte, error) { return m.data[string(key)], nil }
func (m *memKV) Set(key, value []byte) error {
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

type recordingSink struct{ names []string }

func (s *recordingSink) Emit(name string, payload any) error {
	s.names = append(s.names, name)
	return nil
}

func TestRecordFindingNoDissent(t *testing.T) {
	sink := &recordingSink{}
	l := New(newMemKV(), "findings", clock.NewFake(time.Now()), sink, nil)

	finding := PanelFinding{
		ID:                uuid.New(),
		PanelID:           uuid.New(),
		StatementID:       uuid.New(),
		Determination:     DeterminationNoViolation,
		Remedy:            RemedyNone,
		MajorityRationale: "no evidence of conflict",
		IssuedAt:          time.Now(),
		VotingRecord:      map[string]string{"m1": "no_violation"},
	}

	rec, err := l.RecordFinding(finding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.LedgerPosition != 1 {
		t.Errorf("expected ledger position 1, got %d", rec.LedgerPosition)
	}
	if rec.IntegrityHash == "" {
		t.Error("expected non-empty integrity hash")
	}
	if len(sink.names) != 1 || sink.names[0] != "judicial.panel.finding_issued" {
		t.Errorf("expected one finding_issued event, got %v", sink.names)
	}
}

func TestRecordFindingWithDissent(t *testing.T) {
	sink := &recordingSink{}
	l := New(newMemKV(), "findings", clock.NewFake(time.Now()), sink, nil)

	finding := PanelFinding{
		ID:                uuid.New(),
		PanelID:           uuid.New(),
		StatementID:       uuid.New(),
		Determination:     DeterminationViolationFound,
		Remedy:            RemedyCorrection,
		MajorityRationale: "clear violation",
		Dissent:           &Dissent{Members: []string{"m1"}, Rationale: "insufficient evidence"},
		IssuedAt:          time.Now(),
		VotingRecord:      map[string]string{"m1": "no_violation", "m2": "violation_found"},
	}

	_, err := l.RecordFinding(finding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.names) != 2 {
		t.Fatalf("expected finding_issued + dissent_recorded events, got %v", sink.names)
	}
	if sink.names[1] != "judicial.panel.dissent_recorded" {
		t.Errorf("expected dissent_recorded second, got %s", sink.names[1])
	}
}

func TestLedgerPositionsMonotonic(t *testing.T) {
	l := New(newMemKV(), "findings", clock.NewFake(time.Now()), &recordingSink{}, nil)
	for i := 0; i < 3; i++ {
		rec, err := l.RecordFinding(PanelFinding{
			ID:            uuid.New(),
			PanelID:       uuid.New(),
			StatementID:   uuid.New(),
			Determination: DeterminationNoViolation,
			Remedy:        RemedyNone,
			IssuedAt:      time.Now(),
			VotingRecord:  map[string]string{},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.LedgerPosition != uint64(i+1) {
			t.Errorf("expected position %d, got %d", i+1, rec.LedgerPosition)
		}
	}
	if l.Len() != 3 {
		t.Errorf("expected length 3, got %d", l.Len())
	}
}
