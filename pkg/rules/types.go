// Package rules implements C1: the Rules Loader (spec.md §4.1). It parses
// and validates the rank/branch/conflict policy from an external YAML
// configuration and exposes a frozen ruleset for the kernel's lifetime.
package rules

import "github.com/archonkernel/governance-kernel/pkg/domain"

// RankRule describes one constitutional rank: its branch, its allowed
// and prohibited action sets, and its constraint descriptions.
type RankRule struct {
	Name              string        `yaml:"-"`
	Branch            domain.Branch `yaml:"branch"`
	AllowedActions    []string      `yaml:"allowed_actions"`
	ProhibitedActions []string      `yaml:"prohibited_actions"`
	Constraints       []string      `yaml:"constraints"`
}

// Allows reports whether action is in the rank's allowed set.
func (r RankRule) Allows(action string) bool {
	for _, a := range r.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}

// Prohibits reports whether action is in the rank's prohibited set.
func (r RankRule) Prohibits(action string) bool {
	for _, a := range r.ProhibitedActions {
		if a == action {
			return true
		}
	}
	return false
}

// ActionRule binds an action name to the branch it belongs to.
type ActionRule struct {
	Name   string        `yaml:"-"`
	Branch domain.Branch `yaml:"branch"`
}

// BranchConflictRule is the set-of-branches pattern used by the
// Role-Collapse Detector (C4): any actor touching two or more branches
// in Branches for the same motion is a conflict of the named Severity.
type BranchConflictRule struct {
	ID          string          `yaml:"id"`
	Branches    []domain.Branch `yaml:"branches"`
	Rule        string          `yaml:"rule"`
	PRDRef      string          `yaml:"prd_ref"`
	Severity    domain.Severity `yaml:"severity"`
	Description string          `yaml:"description"`
}

// Contains reports whether b is a member of the conflict rule's branch set.
func (c BranchConflictRule) Contains(b domain.Branch) bool {
	for _, bb := range c.Branches {
		if bb == b {
			return true
		}
	}
	return false
}

// rawConfig is the literal YAML shape (spec.md §6 configuration file).
type rawConfig struct {
	Ranks           map[string]RankRule   `yaml:"ranks"`
	Actions         map[string]ActionRule `yaml:"actions"`
	BranchConflicts []BranchConflictRule  `yaml:"branch_conflicts"`
}
