package domain

// Branch is one of the constitutional divisions of authority a BranchAction
// or BranchConflictRule can reference (spec.md §3).
type Branch string

const (
	BranchLegislative   Branch = "legislative"
	BranchDeliberative  Branch = "deliberative"
	BranchExecutive     Branch = "executive"
	BranchAdministrative Branch = "administrative"
	BranchJudicial      Branch = "judicial"
	BranchWitness       Branch = "witness"
	BranchAdvisory      Branch = "advisory"
)

// Valid reports whether b is one of the seven constitutional branches.
func (b Branch) Valid() bool {
	switch b {
	case BranchLegislative, BranchDeliberative, BranchExecutive,
		BranchAdministrative, BranchJudicial, BranchWitness, BranchAdvisory:
		return true
	default:
		return false
	}
}

// Severity grades how serious a violation or conflict rule is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityInfo     Severity = "info"
)

// Valid reports whether s is one of the three accepted severity tokens
// (spec.md §4.1: "validates that every severity value is one of the three
// accepted tokens").
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityInfo:
		return true
	default:
		return false
	}
}
