package branchledger

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
)

func TestRecordAndQuery(t *testing.T) {
	l := New()
	motion := uuid.New()
	now := time.Now()

	l.Record(motion, "archon-1", domain.BranchLegislative, "introduce_motion", now)
	l.Record(motion, "archon-1", domain.BranchDeliberative, "ratify_motion", now.Add(time.Second))

	branches := l.BranchesTouched("archon-1", motion)
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches touched, got %d", len(branches))
	}
	if !l.HasTouched("archon-1", motion, domain.BranchLegislative) {
		t.Error("expected legislative to be touched")
	}

	history := l.History(motion)
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Branch != domain.BranchLegislative || history[1].Branch != domain.BranchDeliberative {
		t.Error("expected strict insertion order in history")
	}
}

func TestClear(t *testing.T) {
	l := New()
	motion := uuid.New()
	l.Record(motion, "a", domain.BranchExecutive, "execute", time.Now())

	l.Clear(motion)

	if len(l.History(motion)) != 0 {
		t.Error("expected history cleared")
	}
	if l.HasTouched("a", motion, domain.BranchExecutive) {
		t.Error("expected actor index cleared")
	}
}

func TestActorsInBranch(t *testing.T) {
	l := New()
	motion := uuid.New()
	l.Record(motion, "a", domain.BranchJudicial, "judge", time.Now())
	l.Record(motion, "b", domain.BranchJudicial, "judge", time.Now())
	l.Record(motion, "a", domain.BranchJudicial, "judge", time.Now())

	actors := l.ActorsInBranch(motion, domain.BranchJudicial)
	if len(actors) != 2 {
		t.Fatalf("expected 2 distinct actors, got %d", len(actors))
	}
}
