package branchservice

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
)

// Stub is a branch service that always accepts work and transitions to
// a fixed next state. Real branch services (legislative drafting,
// deliberative translation, executive action, administrative planning,
// judicial review, advisory risk analysis) live outside the kernel
// (spec.md's Non-goals: "the kernel is a referee, not a player"); Stub
// exists so the orchestrator has something to route to in tests and
// single-process demos.
type Stub struct {
	Branch    domain.Branch
	Next      statemachine.State
	logger    *log.Logger
}

// NewStub creates a Stub for the given branch that always transitions to
// next.
func NewStub(branch domain.Branch, next statemachine.State, logger *log.Logger) *Stub {
	if logger == nil {
		logger = log.New(log.Writer(), "[BranchService] ", log.LstdFlags)
	}
	return &Stub{Branch: branch, Next: next, logger: logger}
}

// Handle always succeeds and proposes Next as the following state.
func (s *Stub) Handle(ctx context.Context, motion uuid.UUID, actor string) (BranchResult, error) {
	select {
	case <-ctx.Done():
		return BranchResult{}, ctx.Err()
	default:
	}
	s.logger.Printf("branch %s accepted motion %s from %s", s.Branch, motion, actor)
	next := s.Next
	return BranchResult{Success: true, NextState: &next, Branch: s.Branch}, nil
}

// Map builds the default state->service routing table (spec.md §4.10
// "service ← Map[state → BranchService]"), one Stub per canonical
// non-terminal state, wired to the canonical forward edge; Tabled has
// no entry.
func Map(logger *log.Logger) map[statemachine.State]Service {
	return map[statemachine.State]Service{
		statemachine.Introduced:   NewStub(domain.BranchLegislative, statemachine.Deliberating, logger),
		statemachine.Deliberating: NewStub(domain.BranchDeliberative, statemachine.Ratified, logger),
		statemachine.Ratified:     NewStub(domain.BranchAdministrative, statemachine.Planning, logger),
		statemachine.Planning:     NewStub(domain.BranchAdministrative, statemachine.Executing, logger),
		statemachine.Executing:    NewStub(domain.BranchExecutive, statemachine.Judging, logger),
		statemachine.Judging:      NewStub(domain.BranchJudicial, statemachine.Witnessing, logger),
		statemachine.Witnessing:   NewStub(domain.BranchWitness, statemachine.Acknowledged, logger),
	}
}

// BranchFor returns the constitutional branch the orchestrator expects
// to route through for a given state (spec.md §4.10 "branch ← Map[state
// → Branch]").
func BranchFor(state statemachine.State) (domain.Branch, bool) {
	switch state {
	case statemachine.Introduced:
		return domain.BranchLegislative, true
	case statemachine.Deliberating:
		return domain.BranchDeliberative, true
	case statemachine.Ratified, statemachine.Planning:
		return domain.BranchAdministrative, true
	case statemachine.Executing:
		return domain.BranchExecutive, true
	case statemachine.Judging:
		return domain.BranchJudicial, true
	case statemachine.Witnessing:
		return domain.BranchWitness, true
	default:
		return "", false
	}
}
