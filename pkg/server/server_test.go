package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/archonkernel/governance-kernel/pkg/branchledger"
	"github.com/archonkernel/governance-kernel/pkg/branchservice"
	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/events"
	"github.com/archonkernel/governance-kernel/pkg/findingledger"
	"github.com/archonkernel/governance-kernel/pkg/kvdb"
	"github.com/archonkernel/governance-kernel/pkg/orchestrator"
	"github.com/archonkernel/governance-kernel/pkg/permission"
	"github.com/archonkernel/governance-kernel/pkg/rolecollapse"
	"github.com/archonkernel/governance-kernel/pkg/rules"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

const testPolicy = `
ranks: {}
actions: {}
branch_conflicts: []
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rs, err := rules.LoadBytes([]byte(testPolicy), "test")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	kv, err := kvdb.Open(kvdb.BackendMemory, "server-test", "")
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	wlog := witness.NewLog(kv, "witness", clk)
	bl := branchledger.New()
	detector := rolecollapse.New(rs, bl, clk)
	machine := statemachine.New(clk, wlog, nil)
	services := branchservice.Map(nil)
	orch := orchestrator.New(clk, machine, detector, wlog, services, nil, nil)
	evaluator := permission.New(rs, detector, wlog, nil)
	findings := findingledger.New(kv, "findings", clk, events.LogSink{}, nil)

	return New(clk, orch, evaluator, machine, wlog, findings, nil)
}

func TestHandleIntroduceAndProcessMotion(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	body := `{"introducer_id":"archon-1","intent":"build the thing","rationale":"because"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/motions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var motion struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &motion); err != nil {
		t.Fatalf("decode motion: %v", err)
	}
	if motion.ID == "" {
		t.Fatal("expected non-empty motion id")
	}

	processBody := `{"motion_id":"` + motion.ID + `","actor":"archon-1"}`
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/motions/process", strings.NewReader(processBody))
	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, req2)

	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec2.Code, rec2.Body.String())
	}
}

func TestHandleMotionStateUnknownMotion(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/motions/state?motion_id=00000000-0000-0000-0000-000000000000", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleEvaluatePermissionUnknownRank(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	body := `{"actor_id":"a1","rank":"nonexistent","proposed_branch":"legislative","action":"draft"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/permission/evaluate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 (evaluator never raises), got %d", rec.Code)
	}

	var decision permission.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decision.Allowed {
		t.Error("expected unknown rank to be denied")
	}
}

func TestHandleForceTransitionRejectsSkip(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	body := `{"introducer_id":"archon-1","intent":"build the thing","rationale":"because"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/motions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var motion struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &motion); err != nil {
		t.Fatalf("decode motion: %v", err)
	}

	forceBody := `{"motion_id":"` + motion.ID + `","to":"executing","triggered_by":"archon-1","reason":"trying to skip ahead"}`
	forceReq := httptest.NewRequest(http.MethodPost, "/api/v1/motions/force", strings.NewReader(forceBody))
	forceRec := httptest.NewRecorder()
	mux.ServeHTTP(forceRec, forceReq)

	if forceRec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a forced skip attempt, got %d: %s", forceRec.Code, forceRec.Body.String())
	}
}

func TestHandleForceTransitionValidEdge(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	body := `{"introducer_id":"archon-1","intent":"build the thing","rationale":"because"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/motions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var motion struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &motion); err != nil {
		t.Fatalf("decode motion: %v", err)
	}

	forceBody := `{"motion_id":"` + motion.ID + `","to":"deliberating","triggered_by":"archon-1","reason":"moving to deliberation"}`
	forceReq := httptest.NewRequest(http.MethodPost, "/api/v1/motions/force", strings.NewReader(forceBody))
	forceRec := httptest.NewRecorder()
	mux.ServeHTTP(forceRec, forceReq)

	if forceRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a valid forced edge, got %d: %s", forceRec.Code, forceRec.Body.String())
	}
}

func TestHandleRatifyMotionRejectsSelfRatification(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	body := `{"introducer_id":"archon-1","intent":"build the thing","rationale":"because"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/motions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var motion struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &motion); err != nil {
		t.Fatalf("decode motion: %v", err)
	}

	forceBody := `{"motion_id":"` + motion.ID + `","to":"deliberating","triggered_by":"archon-1","reason":"moving to deliberation"}`
	forceReq := httptest.NewRequest(http.MethodPost, "/api/v1/motions/force", strings.NewReader(forceBody))
	forceRec := httptest.NewRecorder()
	mux.ServeHTTP(forceRec, forceReq)
	if forceRec.Code != http.StatusOK {
		t.Fatalf("expected 200 moving to deliberating, got %d: %s", forceRec.Code, forceRec.Body.String())
	}

	ratifyBody := `{"motion_id":"` + motion.ID + `","actor_id":"archon-1","reason":"self-ratify attempt"}`
	ratifyReq := httptest.NewRequest(http.MethodPost, "/api/v1/motions/ratify", strings.NewReader(ratifyBody))
	ratifyRec := httptest.NewRecorder()
	mux.ServeHTTP(ratifyRec, ratifyReq)

	if ratifyRec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self-ratification, got %d: %s", ratifyRec.Code, ratifyRec.Body.String())
	}
}

func TestHandleRatifyMotionAllowsDifferentActor(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	body := `{"introducer_id":"archon-1","intent":"build the thing","rationale":"because"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/motions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var motion struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &motion); err != nil {
		t.Fatalf("decode motion: %v", err)
	}

	forceBody := `{"motion_id":"` + motion.ID + `","to":"deliberating","triggered_by":"archon-1","reason":"moving to deliberation"}`
	forceReq := httptest.NewRequest(http.MethodPost, "/api/v1/motions/force", strings.NewReader(forceBody))
	forceRec := httptest.NewRecorder()
	mux.ServeHTTP(forceRec, forceReq)
	if forceRec.Code != http.StatusOK {
		t.Fatalf("expected 200 moving to deliberating, got %d: %s", forceRec.Code, forceRec.Body.String())
	}

	ratifyBody := `{"motion_id":"` + motion.ID + `","actor_id":"arbiter-1","reason":"ratified"}`
	ratifyReq := httptest.NewRequest(http.MethodPost, "/api/v1/motions/ratify", strings.NewReader(ratifyBody))
	ratifyRec := httptest.NewRecorder()
	mux.ServeHTTP(ratifyRec, ratifyReq)

	if ratifyRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a different-actor ratification, got %d: %s", ratifyRec.Code, ratifyRec.Body.String())
	}
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
