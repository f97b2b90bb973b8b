package rules

import "fmt"

// LoadError is returned by Load for any policy defect. It always carries
// a specific source/reason pair (spec.md §4.1: "Any violation fails
// loudly with a specific source/reason pair").
type LoadError struct {
	Source string // e.g. "ranks.archon", "branch_conflicts[2]"
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("rules: %s: %s", e.Source, e.Reason)
}
