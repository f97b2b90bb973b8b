// Package branchservice defines the contract every external branch
// service must satisfy (spec.md §6, §9 Design Notes: "Branch services
// are polymorphic over the capability set {accept work; return a
// BranchResult}. A tagged variant or small interface suffices; no deep
// hierarchy."). The orchestrator (C10) routes to one of these per
// governance state; this package owns only the contract and minimal
// stand-ins, never the real branch logic (that is explicitly out of
// scope — the kernel is a referee, not a player).
package branchservice

import (
	"context"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
)

// BranchResult is the contract every Service.Handle call returns
// (spec.md §6).
type BranchResult struct {
	Success bool
	// NextState is required when Success is true.
	NextState *statemachine.State
	Branch    domain.Branch
	Error     string
	ErrorType string

	// IntentSnapshot is a supplemented optional field (not in spec.md):
	// the original's translation/ratification services re-derive an
	// intent hash after acting, so the orchestrator's route_to_branch can
	// flag IntentRedefinition by comparing it against the hash recorded
	// at initialize time. Empty when a service has no opinion on intent
	// drift.
	IntentSnapshot string
}

// Service is the minimal capability every branch service exposes.
type Service interface {
	// Handle accepts work for motion and returns a BranchResult. It may
	// suspend at I/O boundaries (spec.md §5); context carries
	// cancellation.
	Handle(ctx context.Context, motion uuid.UUID, actor string) (BranchResult, error)
}
