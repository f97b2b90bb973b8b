package rules

import "testing"

const validPolicy = `
ranks:
  archon:
    branch: legislative
    allowed_actions: [introduce_motion]
    prohibited_actions: [ratify_motion]
    constraints: ["may not ratify own motion"]
  arbiter:
    branch: deliberative
    allowed_actions: [ratify_motion, reject_motion]
    prohibited_actions: []
    constraints: []
actions:
  introduce_motion: {branch: legislative}
  ratify_motion: {branch: deliberative}
  reject_motion: {branch: deliberative}
branch_conflicts:
  - id: legislative-deliberative
    branches: [legislative, deliberative]
    rule: author may not ratify own motion
    prd_ref: FR-GOV-01
    severity: critical
    description: self-ratification
`

func TestLoadBytesValid(t *testing.T) {
	rs, err := LoadBytes([]byte(validPolicy), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rank, ok := rs.Rank("archon")
	if !ok {
		t.Fatal("expected rank archon to exist")
	}
	if !rank.Allows("introduce_motion") {
		t.Error("expected archon to allow introduce_motion")
	}
	if !rank.Prohibits("ratify_motion") {
		t.Error("expected archon to prohibit ratify_motion")
	}

	rule, ok := rs.GetRuleByID("legislative-deliberative")
	if !ok {
		t.Fatal("expected conflict rule to exist")
	}
	if rule.Severity != "critical" {
		t.Errorf("severity = %q, want critical", rule.Severity)
	}
}

func TestLoadBytesUnknownActionReference(t *testing.T) {
	bad := `
ranks:
  archon:
    branch: legislative
    allowed_actions: [does_not_exist]
actions: {}
branch_conflicts: []
`
	if _, err := LoadBytes([]byte(bad), "test"); err == nil {
		t.Fatal("expected error for unknown action reference")
	}
}

func TestLoadBytesInvalidSeverity(t *testing.T) {
	bad := `
ranks: {}
actions: {}
branch_conflicts:
  - id: x
    branches: [legislative]
    rule: r
    prd_ref: p
    severity: extreme
    description: d
`
	if _, err := LoadBytes([]byte(bad), "test"); err == nil {
		t.Fatal("expected error for invalid severity")
	}
}

func TestLoadBytesDuplicateRuleID(t *testing.T) {
	bad := `
ranks: {}
actions: {}
branch_conflicts:
  - id: dup
    branches: [legislative]
    rule: r
    prd_ref: p
    severity: major
    description: d
  - id: dup
    branches: [executive]
    rule: r2
    prd_ref: p2
    severity: major
    description: d2
`
	if _, err := LoadBytes([]byte(bad), "test"); err == nil {
		t.Fatal("expected error for duplicate rule id")
	}
}

func TestLoadBytesUnknownBranch(t *testing.T) {
	bad := `
ranks:
  archon:
    branch: imperial
actions: {}
branch_conflicts: []
`
	if _, err := LoadBytes([]byte(bad), "test"); err == nil {
		t.Fatal("expected error for unknown branch")
	}
}
