package permission

import (
	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/rolecollapse"
	"github.com/archonkernel/governance-kernel/pkg/rules"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

// witnessLog is the subset of *witness.Log the evaluator needs to link
// a detected role-collapse violation to its witness statement.
type witnessLog interface {
	RecordViolation(v witness.ViolationRecord) (witness.WitnessStatement, error)
}

// metricsSink is the subset of *metrics.Metrics the evaluator records
// to. A nil metricsSink is a valid Evaluator configuration.
type metricsSink interface {
	IncPermissionDecision(allowed bool)
	IncRoleCollapseViolation(severity string)
}

// Evaluator is the Permission Evaluator (C2). Its allow/deny decision is
// pure with respect to its inputs, but a target-carrying check that
// finds a role-collapse conflict also witnesses and audits that
// violation through C6/C4 before returning (spec.md §4.2, §4.4c).
type Evaluator struct {
	rules    *rules.Ruleset
	collapse *rolecollapse.Detector
	log      witnessLog
	metrics  metricsSink
}

// New creates an Evaluator backed by a frozen Ruleset and the
// Role-Collapse Detector it consults for target-carrying checks. log
// witnesses any detected conflict; mx may be nil to disable metrics.
func New(rs *rules.Ruleset, collapse *rolecollapse.Detector, log witnessLog, mx metricsSink) *Evaluator {
	return &Evaluator{rules: rs, collapse: collapse, log: log, metrics: mx}
}

// Evaluate implements the decision procedure of spec.md §4.2.
func (e *Evaluator) Evaluate(req Request) Decision {
	decision := e.evaluate(req)
	if e.metrics != nil {
		e.metrics.IncPermissionDecision(decision.Allowed)
	}
	return decision
}

func (e *Evaluator) evaluate(req Request) Decision {
	rank, ok := e.rules.Rank(req.Rank)
	if !ok {
		return Decision{
			Allowed: false,
			Reason:  "unknown constitutional rank",
			Violations: []ConstraintViolation{{
				Constraint:         "unknown constitutional rank",
				Severity:           domain.SeverityCritical,
				PolicyRef:          "FR-GOV-02",
				RequiresWitnessing: true,
			}},
		}
	}

	if rank.Prohibits(req.Action) {
		return Decision{
			Allowed: false,
			Reason:  "action is explicitly prohibited for this rank",
			Violations: []ConstraintViolation{{
				Constraint:         "prohibited action",
				Severity:           domain.SeverityMajor,
				PolicyRef:          "FR-GOV-03",
				RequiresWitnessing: true,
			}},
		}
	}
	if !rank.Allows(req.Action) {
		return Decision{
			Allowed: false,
			Reason:  "action is not in the rank's allowed set",
			Violations: []ConstraintViolation{{
				Constraint:         "default deny: action not allowed",
				Severity:           domain.SeverityMajor,
				PolicyRef:          "FR-GOV-03",
				RequiresWitnessing: true,
			}},
		}
	}

	if req.TargetMotionID != nil {
		if v := e.collapse.Detect(req.ActorID, *req.TargetMotionID, req.ProposedBranch); v != nil {
			if e.log != nil {
				target := *req.TargetMotionID
				stmt, err := e.log.RecordViolation(witness.ViolationRecord{
					Type:        witness.TypeRoleViolation,
					Description: "branch conflict: separation of powers: " + v.Rule,
					TargetRef:   &target,
					Metadata: map[string]any{
						"actor_id": req.ActorID,
						"rule_id":  v.RuleID,
						"branch":   string(req.ProposedBranch),
					},
					RequiresAck: v.Escalated,
				})
				if err == nil {
					e.collapse.RecordAudit(*v, stmt.ID)
				}
			}
			if e.metrics != nil {
				e.metrics.IncRoleCollapseViolation(string(v.Severity))
			}
			return Decision{
				Allowed: false,
				Reason:  "branch conflict: separation of powers",
				Violations: []ConstraintViolation{{
					Constraint:             v.Rule,
					Severity:               v.Severity,
					PolicyRef:              v.PRDRef,
					RequiresWitnessing:     true,
					RequiresConclaveReview: v.Escalated,
				}},
				MatchedConstraints: []string{v.RuleID},
			}
		}
	}

	return Decision{Allowed: true, MatchedConstraints: rank.Constraints}
}

// Enforce wraps Evaluate and fails with a typed error on deny, for
// callers preferring that discipline (spec.md §4.2).
func (e *Evaluator) Enforce(req Request) error {
	decision := e.Evaluate(req)
	if !decision.Allowed {
		return &DeniedError{Decision: decision}
	}
	return nil
}

// EvaluateRatification is the SelfRatificationError check supplemented
// from the original implementation's role_collapse_detection_service.py
// (spec.md §7 names SelfRatification but no component wires it): a
// motion's introducer may not be the same actor who ratifies it. It is
// a direct equality check of the two actor ids; the Role-Collapse
// Detector is not consulted.
func (e *Evaluator) EvaluateRatification(actorID, introducerID string) error {
	if actorID == introducerID {
		return &SelfRatificationError{ActorID: actorID}
	}
	return nil
}
