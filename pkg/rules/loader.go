package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/archonkernel/governance-kernel/pkg/domain"
)

// Ruleset is the frozen, validated policy (spec.md §4.1: "Once loaded,
// the ruleset is frozen for the kernel's lifetime"). Its zero value is
// not usable; obtain one via Load.
type Ruleset struct {
	ranks           map[string]RankRule
	actions         map[string]ActionRule
	branchConflicts map[string]BranchConflictRule
	conflictOrder   []string
}

// Load reads path, parses it as YAML, validates it fully, and returns a
// frozen Ruleset. The kernel must refuse to start on any validation
// failure (spec.md §4.1: "integrity outranks availability").
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Reason: fmt.Sprintf("read config: %v", err)}
	}
	return LoadBytes(data, path)
}

// LoadBytes parses and validates raw YAML content. source is used only
// to annotate error messages (typically the originating file path).
func LoadBytes(data []byte, source string) (*Ruleset, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Source: source, Reason: fmt.Sprintf("parse yaml: %v", err)}
	}

	rs := &Ruleset{
		ranks:           make(map[string]RankRule, len(raw.Ranks)),
		actions:         make(map[string]ActionRule, len(raw.Actions)),
		branchConflicts: make(map[string]BranchConflictRule, len(raw.BranchConflicts)),
	}

	for name, action := range raw.Actions {
		if !action.Branch.Valid() {
			return nil, &LoadError{Source: fmt.Sprintf("actions.%s.branch", name), Reason: fmt.Sprintf("unknown branch %q", action.Branch)}
		}
		action.Name = name
		rs.actions[name] = action
	}

	for name, rank := range raw.Ranks {
		if !rank.Branch.Valid() {
			return nil, &LoadError{Source: fmt.Sprintf("ranks.%s.branch", name), Reason: fmt.Sprintf("unknown branch %q", rank.Branch)}
		}
		for _, a := range rank.AllowedActions {
			if _, ok := rs.actions[a]; !ok {
				return nil, &LoadError{Source: fmt.Sprintf("ranks.%s.allowed_actions", name), Reason: fmt.Sprintf("references unknown action %q", a)}
			}
		}
		for _, a := range rank.ProhibitedActions {
			if _, ok := rs.actions[a]; !ok {
				return nil, &LoadError{Source: fmt.Sprintf("ranks.%s.prohibited_actions", name), Reason: fmt.Sprintf("references unknown action %q", a)}
			}
		}
		rank.Name = name
		rs.ranks[name] = rank
	}

	for i, rule := range raw.BranchConflicts {
		src := fmt.Sprintf("branch_conflicts[%d]", i)
		if rule.ID == "" {
			return nil, &LoadError{Source: src, Reason: "missing id"}
		}
		if _, exists := rs.branchConflicts[rule.ID]; exists {
			return nil, &LoadError{Source: src, Reason: fmt.Sprintf("duplicate rule id %q", rule.ID)}
		}
		if !rule.Severity.Valid() {
			return nil, &LoadError{Source: fmt.Sprintf("%s.severity", src), Reason: fmt.Sprintf("invalid severity %q: must be one of critical, major, info", rule.Severity)}
		}
		if len(rule.Branches) == 0 {
			return nil, &LoadError{Source: fmt.Sprintf("%s.branches", src), Reason: "must name at least one branch"}
		}
		for _, b := range rule.Branches {
			if !b.Valid() {
				return nil, &LoadError{Source: fmt.Sprintf("%s.branches", src), Reason: fmt.Sprintf("unknown branch %q", b)}
			}
		}
		rs.branchConflicts[rule.ID] = rule
		rs.conflictOrder = append(rs.conflictOrder, rule.ID)
	}

	return rs, nil
}

// GetRuleByID returns the branch-conflict rule with the given id.
func (rs *Ruleset) GetRuleByID(id string) (BranchConflictRule, bool) {
	rule, ok := rs.branchConflicts[id]
	return rule, ok
}

// Rank returns the named rank rule.
func (rs *Ruleset) Rank(name string) (RankRule, bool) {
	rank, ok := rs.ranks[name]
	return rank, ok
}

// Action returns the named action rule.
func (rs *Ruleset) Action(name string) (ActionRule, bool) {
	action, ok := rs.actions[name]
	return action, ok
}

// ConflictRules iterates the branch-conflict rules in load order.
func (rs *Ruleset) ConflictRules(fn func(BranchConflictRule) bool) {
	for _, id := range rs.conflictOrder {
		if !fn(rs.branchConflicts[id]) {
			return
		}
	}
}

// ConflictRulesContaining returns every branch-conflict rule whose
// branch set contains b, in load order (used by the Role-Collapse
// Detector).
func (rs *Ruleset) ConflictRulesContaining(b domain.Branch) []BranchConflictRule {
	var out []BranchConflictRule
	rs.ConflictRules(func(r BranchConflictRule) bool {
		if r.Contains(b) {
			out = append(out, r)
		}
		return true
	})
	return out
}
