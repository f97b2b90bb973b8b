package server

import (
	"net/http"

	"github.com/google/uuid"
)

// HandleWitnessStatement handles GET /api/v1/witness/statement?id=...
func (s *Server) HandleWitnessStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid uuid")
		return
	}

	statement, ok := s.witness.ByID(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "STATEMENT_NOT_FOUND", "no witness statement with that id")
		return
	}

	s.writeJSON(w, http.StatusOK, statement)
}

// HandleWitnessViolations handles GET /api/v1/witness/violations: every
// witness statement classified as a violation type (spec.md §4.6).
func (s *Server) HandleWitnessViolations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, s.witness.Violations())
}
