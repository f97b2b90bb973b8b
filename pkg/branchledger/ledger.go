// Package branchledger implements C3: the append-only, in-memory
// Branch-Action Ledger (spec.md §4.3). It is the sole source of truth
// the Role-Collapse Detector (C4) consults to decide whether an actor
// has already touched a conflicting branch on a motion.
package branchledger

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
)

// actorMotionKey identifies one (actor, motion) pair for the branch-set
// index.
type actorMotionKey struct {
	actor  string
	motion uuid.UUID
}

// Ledger is the in-memory Branch-Action Ledger. Zero value is unusable;
// use New.
type Ledger struct {
	mu sync.Mutex

	byMotion map[uuid.UUID][]domain.BranchAction
	byActor  map[actorMotionKey]map[domain.Branch]bool
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{
		byMotion: make(map[uuid.UUID][]domain.BranchAction),
		byActor:  make(map[actorMotionKey]map[domain.Branch]bool),
	}
}

// Record creates a BranchAction and updates both indexes: the by-motion
// sequence and the (actor, motion) -> branch-set map (spec.md §4.3
// record()).
func (l *Ledger) Record(motion uuid.UUID, actor string, branch domain.Branch, action string, timestamp time.Time) domain.BranchAction {
	ba := domain.BranchAction{
		MotionID:  motion,
		ActorID:   actor,
		Branch:    branch,
		ActionKind: action,
		Timestamp: timestamp,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.byMotion[motion] = append(l.byMotion[motion], ba)

	key := actorMotionKey{actor: actor, motion: motion}
	set, ok := l.byActor[key]
	if !ok {
		set = make(map[domain.Branch]bool)
		l.byActor[key] = set
	}
	set[branch] = true

	return ba
}

// BranchesTouched returns the set of branches actor has touched for
// motion, in no particular order (it is a set, per spec.md §4.3).
func (l *Ledger) BranchesTouched(actor string, motion uuid.UUID) []domain.Branch {
	l.mu.Lock()
	defer l.mu.Unlock()

	set := l.byActor[actorMotionKey{actor: actor, motion: motion}]
	out := make([]domain.Branch, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	return out
}

// HasTouched reports whether actor has recorded any action on branch for
// motion.
func (l *Ledger) HasTouched(actor string, motion uuid.UUID, branch domain.Branch) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byActor[actorMotionKey{actor: actor, motion: motion}][branch]
}

// History returns the full action history for motion in strict insertion
// order (spec.md §4.3: "timestamps may tie but insertion order breaks
// ties").
func (l *Ledger) History(motion uuid.UUID) []domain.BranchAction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.BranchAction(nil), l.byMotion[motion]...)
}

// ActorsInBranch returns every distinct actor who has touched branch for
// motion.
func (l *Ledger) ActorsInBranch(motion uuid.UUID, branch domain.Branch) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, ba := range l.byMotion[motion] {
		if ba.Branch == branch && !seen[ba.ActorID] {
			seen[ba.ActorID] = true
			out = append(out, ba.ActorID)
		}
	}
	return out
}

// Clear deletes all records and index entries for motion. Permitted only
// for terminated motions and tests (spec.md §4.3).
func (l *Ledger) Clear(motion uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ba := range l.byMotion[motion] {
		delete(l.byActor, actorMotionKey{actor: ba.ActorID, motion: motion})
	}
	delete(l.byMotion, motion)
}
