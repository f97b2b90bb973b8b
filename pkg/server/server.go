// Package server exposes the governance kernel's operations over HTTP:
// introducing motions, driving the pipeline forward, evaluating
// permissions, and querying the witness log, finding ledger, and
// state machine. Handler shape (struct of dependencies, writeJSON/
// writeError helpers, one handler per endpoint) follows the proof/ledger
// API handlers of the validator service this package is modelled on.
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/findingledger"
	"github.com/archonkernel/governance-kernel/pkg/orchestrator"
	"github.com/archonkernel/governance-kernel/pkg/permission"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

// Server wires the kernel's core components into HTTP handlers.
type Server struct {
	clock     clock.Clock
	orch      *orchestrator.Orchestrator
	evaluator *permission.Evaluator
	machine   *statemachine.Machine
	witness   *witness.Log
	findings  *findingledger.Ledger
	logger    *log.Logger
}

// New creates a Server. logger defaults to a bracketed stdlib logger
// when nil, matching the handler packages of that validator service.
func New(clk clock.Clock, orch *orchestrator.Orchestrator, evaluator *permission.Evaluator, machine *statemachine.Machine,
	wlog *witness.Log, findings *findingledger.Ledger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[GovernanceAPI] ", log.LstdFlags)
	}
	return &Server{clock: clk, orch: orch, evaluator: evaluator, machine: machine, witness: wlog, findings: findings, logger: logger}
}

// Routes builds the HTTP route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/motions", s.HandleIntroduceMotion)
	mux.HandleFunc("/api/v1/motions/process", s.HandleProcessMotion)
	mux.HandleFunc("/api/v1/motions/state", s.HandleMotionState)
	mux.HandleFunc("/api/v1/motions/history", s.HandleMotionHistory)
	mux.HandleFunc("/api/v1/motions/pipeline", s.HandlePipelineState)
	mux.HandleFunc("/api/v1/motions/force", s.HandleForceTransition)
	mux.HandleFunc("/api/v1/motions/ratify", s.HandleRatifyMotion)

	mux.HandleFunc("/api/v1/permission/evaluate", s.HandleEvaluatePermission)

	mux.HandleFunc("/api/v1/witness/statement", s.HandleWitnessStatement)
	mux.HandleFunc("/api/v1/witness/violations", s.HandleWitnessViolations)

	mux.HandleFunc("/api/v1/findings/latest", s.HandleLatestFinding)
	mux.HandleFunc("/api/v1/findings/dissenting", s.HandleDissentingFindings)

	mux.HandleFunc("/healthz", s.HandleHealthz)

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("error encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// HandleHealthz reports basic liveness.
func (s *Server) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
