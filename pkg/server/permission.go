package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/permission"
)

// evaluatePermissionRequest is the body for POST /api/v1/permission/evaluate.
type evaluatePermissionRequest struct {
	ActorID        string  `json:"actor_id"`
	ActorName      string  `json:"actor_name"`
	Rank           string  `json:"rank"`
	ProposedBranch string  `json:"proposed_branch"`
	Action         string  `json:"action"`
	TargetMotionID *string `json:"target_motion_id,omitempty"`
}

// HandleEvaluatePermission handles POST /api/v1/permission/evaluate
// (spec.md §4.2 evaluate_permission). Always returns 200 with a
// structured Decision; the evaluator never raises.
func (s *Server) HandleEvaluatePermission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only POST is allowed")
		return
	}

	var body evaluatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not parse request body")
		return
	}

	req := permission.Request{
		ActorID:        body.ActorID,
		ActorName:      body.ActorName,
		Rank:           body.Rank,
		ProposedBranch: domain.Branch(body.ProposedBranch),
		Action:         body.Action,
	}
	if body.TargetMotionID != nil {
		id, err := uuid.Parse(*body.TargetMotionID)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_TARGET_MOTION_ID", "target_motion_id must be a valid uuid")
			return
		}
		req.TargetMotionID = &id
	}

	decision := s.evaluator.Evaluate(req)
	s.writeJSON(w, http.StatusOK, decision)
}
