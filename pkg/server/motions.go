package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/domain"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
)

// introduceMotionRequest is the body for POST /api/v1/motions.
type introduceMotionRequest struct {
	IntroducerID string `json:"introducer_id"`
	Intent       string `json:"intent"`
	Rationale    string `json:"rationale"`
}

// HandleIntroduceMotion handles POST /api/v1/motions: creates a new
// motion and seeds its pipeline state (spec.md §4.10 initialize_motion).
func (s *Server) HandleIntroduceMotion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only POST is allowed")
		return
	}

	var req introduceMotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not parse request body")
		return
	}
	if req.IntroducerID == "" || req.Intent == "" {
		s.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "introducer_id and intent are required")
		return
	}

	motion := domain.NewMotion(req.IntroducerID, req.Intent, req.Rationale, s.clock.Now())
	if err := s.orch.InitializeMotion(motion); err != nil {
		s.logger.Printf("error initializing pipeline for motion %s: %v", motion.ID, err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to initialize motion pipeline")
		return
	}

	s.writeJSON(w, http.StatusCreated, motion)
}

// processMotionRequest is the body for POST /api/v1/motions/process.
type processMotionRequest struct {
	MotionID string `json:"motion_id"`
	Actor    string `json:"actor"`
	Force    bool   `json:"force"`
}

// HandleProcessMotion handles POST /api/v1/motions/process: routes the
// motion to its branch service and applies escalation on failure
// (spec.md §4.10 process_motion).
func (s *Server) HandleProcessMotion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only POST is allowed")
		return
	}

	var req processMotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not parse request body")
		return
	}
	motionID, err := uuid.Parse(req.MotionID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_MOTION_ID", "motion_id must be a valid uuid")
		return
	}

	decision, err := s.orch.ProcessMotion(r.Context(), motionID, req.Actor, req.Force)
	if err != nil {
		s.logger.Printf("error processing motion %s: %v", motionID, err)
		s.writeError(w, http.StatusConflict, "PROCESS_FAILED", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, decision)
}

// forceTransitionRequest is the body for POST /api/v1/motions/force.
type forceTransitionRequest struct {
	MotionID    string `json:"motion_id"`
	To          string `json:"to"`
	TriggeredBy string `json:"triggered_by"`
	Reason      string `json:"reason"`
}

// HandleForceTransition handles POST /api/v1/motions/force: the
// privileged admin surface for statemachine.Machine.ForceTransition
// (spec.md §4.5). A valid edge is applied like any other transition; an
// invalid edge is always rejected and always recorded in SkipAudit —
// force never bypasses the graph, it only makes the attempt auditable.
func (s *Server) HandleForceTransition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only POST is allowed")
		return
	}

	var req forceTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not parse request body")
		return
	}
	motionID, err := uuid.Parse(req.MotionID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_MOTION_ID", "motion_id must be a valid uuid")
		return
	}
	if req.TriggeredBy == "" {
		s.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "triggered_by is required")
		return
	}

	transition, err := s.machine.ForceTransition(motionID, statemachine.State(req.To), req.TriggeredBy, req.Reason)
	if err != nil {
		var unknown *statemachine.MotionUnknownError
		if errors.As(err, &unknown) {
			s.writeError(w, http.StatusNotFound, "MOTION_NOT_FOUND", err.Error())
			return
		}
		var skip *statemachine.ForceSkipAttemptError
		if errors.As(err, &skip) {
			s.logger.Printf("force-transition rejected for motion %s: %v", motionID, err)
			s.writeError(w, http.StatusConflict, "FORCE_SKIP_REJECTED", err.Error())
			return
		}
		s.logger.Printf("error force-transitioning motion %s: %v", motionID, err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, transition)
}

// ratifyMotionRequest is the body for POST /api/v1/motions/ratify.
type ratifyMotionRequest struct {
	MotionID string `json:"motion_id"`
	ActorID  string `json:"actor_id"`
	Reason   string `json:"reason"`
}

// HandleRatifyMotion handles POST /api/v1/motions/ratify: the
// Deliberative->Ratified transition, gated on EvaluateRatification so an
// actor can never ratify the motion they introduced (spec.md §7
// SelfRatification).
func (s *Server) HandleRatifyMotion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only POST is allowed")
		return
	}

	var req ratifyMotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not parse request body")
		return
	}
	motionID, err := uuid.Parse(req.MotionID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_MOTION_ID", "motion_id must be a valid uuid")
		return
	}
	if req.ActorID == "" {
		s.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "actor_id is required")
		return
	}

	record, err := s.machine.Record(motionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "MOTION_NOT_FOUND", err.Error())
		return
	}
	introducerID := record.History[0].TriggeredBy

	if err := s.evaluator.EvaluateRatification(req.ActorID, introducerID); err != nil {
		s.logger.Printf("ratification rejected for motion %s: %v", motionID, err)
		s.writeError(w, http.StatusForbidden, "SELF_RATIFICATION", err.Error())
		return
	}

	transition, err := s.machine.EnforceTransition(motionID, statemachine.Ratified, req.ActorID, req.Reason)
	if err != nil {
		var skip *statemachine.InvalidTransitionError
		if errors.As(err, &skip) {
			s.writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
			return
		}
		s.logger.Printf("error ratifying motion %s: %v", motionID, err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, transition)
}

// HandleMotionState handles GET /api/v1/motions/state?motion_id=...
func (s *Server) HandleMotionState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	motionID, err := uuid.Parse(r.URL.Query().Get("motion_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_MOTION_ID", "motion_id must be a valid uuid")
		return
	}

	record, err := s.machine.Record(motionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "MOTION_NOT_FOUND", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

// HandleMotionHistory handles GET /api/v1/motions/history?motion_id=...
func (s *Server) HandleMotionHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	motionID, err := uuid.Parse(r.URL.Query().Get("motion_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_MOTION_ID", "motion_id must be a valid uuid")
		return
	}

	history, err := s.machine.History(motionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "MOTION_NOT_FOUND", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, history)
}

// HandlePipelineState handles GET /api/v1/motions/pipeline?motion_id=...
func (s *Server) HandlePipelineState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	motionID, err := uuid.Parse(r.URL.Query().Get("motion_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_MOTION_ID", "motion_id must be a valid uuid")
		return
	}

	pipeline, ok := s.orch.Pipeline(motionID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "PIPELINE_NOT_FOUND", "no pipeline state for this motion")
		return
	}

	s.writeJSON(w, http.StatusOK, pipeline)
}
