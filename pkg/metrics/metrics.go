// Package metrics exposes Prometheus instrumentation for the governance
// kernel.
//
// Endpoint: GET /metrics (address configurable via config.Config.MetricsAddr).
// Format: Prometheus text exposition format (OpenMetrics compatible).
//
// Metric naming convention: governance_<subsystem>_<name>_<unit>
//
// All metrics are registered on a dedicated prometheus.Registry rather
// than the default global registry, so embedding this package in a
// larger process never collides with that process's own metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus metric descriptor the kernel exposes.
type Metrics struct {
	registry *prometheus.Registry

	// ─── Motion pipeline (C10 orchestrator) ──────────────────────────────

	// MotionsProcessedTotal counts process_motion invocations.
	// Labels: state (the state the motion was routed out of)
	MotionsProcessedTotal *prometheus.CounterVec

	// MotionsEscalatedTotal counts escalations raised, by strategy.
	MotionsEscalatedTotal *prometheus.CounterVec

	// MotionsRetriedTotal counts retry-with-backoff attempts.
	MotionsRetriedTotal prometheus.Counter

	// PipelinesBlocked is the current count of pipelines with a
	// non-empty blocking reason set.
	PipelinesBlocked prometheus.Gauge

	// StateTransitionsTotal counts statemachine transitions.
	// Labels: from_state, to_state
	StateTransitionsTotal *prometheus.CounterVec

	// ─── Role-collapse detection (C4) ────────────────────────────────────

	// RoleCollapseViolationsTotal counts detected separation-of-powers
	// violations, by severity.
	RoleCollapseViolationsTotal *prometheus.CounterVec

	// ─── Suppression watchdog (C8) ───────────────────────────────────────

	// SuppressionViolationsTotal counts detected suppression violations:
	// failures that exceeded their propagation timeout, plus explicitly
	// recorded suppression attempts.
	SuppressionViolationsTotal prometheus.Counter

	// MonitoredFailures is the current number of failure signals under
	// active suppression monitoring.
	MonitoredFailures prometheus.Gauge

	// ─── Ledgers (C6, C7, skip audit) ────────────────────────────────────

	// LedgerEntries is the current length of an append-only ledger.
	// Labels: ledger (witness, finding, skip_audit). Only the finding
	// ledger sets its value ("finding"); the other two are never set.
	LedgerEntries *prometheus.GaugeVec

	// FindingsRecordedTotal counts panel findings recorded, by
	// determination.
	FindingsRecordedTotal *prometheus.CounterVec

	// DissentsRecordedTotal counts panel findings recorded with dissent.
	DissentsRecordedTotal prometheus.Counter

	// ─── Permission evaluation (C2) ──────────────────────────────────────

	// PermissionDecisionsTotal counts evaluate_permission calls, by
	// allowed/denied.
	PermissionDecisionsTotal *prometheus.CounterVec

	// startTime records process start, for uptime reporting.
	startTime time.Time

	// Uptime is seconds since the kernel started.
	Uptime prometheus.Gauge
}

// New creates and registers every kernel metric on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		MotionsProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "motions",
			Name:      "processed_total",
			Help:      "Total process_motion invocations, by the state routed out of.",
		}, []string{"state"}),

		MotionsEscalatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "motions",
			Name:      "escalated_total",
			Help:      "Total escalations raised, by escalation strategy.",
		}, []string{"strategy"}),

		MotionsRetriedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "motions",
			Name:      "retried_total",
			Help:      "Total retry-with-backoff attempts issued by the orchestrator.",
		}),

		PipelinesBlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "governance",
			Subsystem: "motions",
			Name:      "pipelines_blocked",
			Help:      "Current number of motion pipelines with an unresolved blocking reason.",
		}),

		StateTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "statemachine",
			Name:      "transitions_total",
			Help:      "Total motion state transitions, by from_state and to_state.",
		}, []string{"from_state", "to_state"}),

		RoleCollapseViolationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "rolecollapse",
			Name:      "violations_total",
			Help:      "Total separation-of-powers violations detected, by severity.",
		}, []string{"severity"}),

		SuppressionViolationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "watchdog",
			Name:      "suppression_violations_total",
			Help:      "Total suppression violations detected, by timeout or explicit report.",
		}),

		MonitoredFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "governance",
			Subsystem: "watchdog",
			Name:      "monitored_failures",
			Help:      "Current number of failure signals under active suppression monitoring.",
		}),

		LedgerEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "governance",
			Subsystem: "ledger",
			Name:      "entries",
			Help:      "Current length of an append-only ledger, by ledger name.",
		}, []string{"ledger"}),

		FindingsRecordedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "judicial",
			Name:      "findings_recorded_total",
			Help:      "Total panel findings recorded, by determination.",
		}, []string{"determination"}),

		DissentsRecordedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "judicial",
			Name:      "dissents_recorded_total",
			Help:      "Total panel findings recorded carrying a dissent.",
		}),

		PermissionDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "permission",
			Name:      "decisions_total",
			Help:      "Total permission evaluations, by outcome (allowed, denied).",
		}, []string{"outcome"}),

		Uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "governance",
			Subsystem: "kernel",
			Name:      "uptime_seconds",
			Help:      "Seconds since the kernel process started.",
		}),
	}

	reg.MustRegister(
		m.MotionsProcessedTotal,
		m.MotionsEscalatedTotal,
		m.MotionsRetriedTotal,
		m.PipelinesBlocked,
		m.StateTransitionsTotal,
		m.RoleCollapseViolationsTotal,
		m.SuppressionViolationsTotal,
		m.MonitoredFailures,
		m.LedgerEntries,
		m.FindingsRecordedTotal,
		m.DissentsRecordedTotal,
		m.PermissionDecisionsTotal,
		m.Uptime,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Serve starts the Prometheus HTTP metrics server on addr. Blocks until
// ctx is cancelled or the server fails.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go m.updateUptime(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server on %s: %w", addr, err)
	}
	return nil
}

// Recorder methods below are all nil-receiver safe, so a disabled
// metrics subsystem (a nil *Metrics threaded into a component
// constructor) is a no-op rather than a guard every call site must
// remember.

// IncMotionsProcessed records one process_motion invocation routed out
// of state.
func (m *Metrics) IncMotionsProcessed(state string) {
	if m == nil {
		return
	}
	m.MotionsProcessedTotal.WithLabelValues(state).Inc()
}

// IncMotionsEscalated records one escalation raised under strategy.
func (m *Metrics) IncMotionsEscalated(strategy string) {
	if m == nil {
		return
	}
	m.MotionsEscalatedTotal.WithLabelValues(strategy).Inc()
}

// IncMotionsRetried records one retry-with-backoff attempt.
func (m *Metrics) IncMotionsRetried() {
	if m == nil {
		return
	}
	m.MotionsRetriedTotal.Inc()
}

// SetPipelinesBlocked sets the current count of blocked pipelines.
func (m *Metrics) SetPipelinesBlocked(n int) {
	if m == nil {
		return
	}
	m.PipelinesBlocked.Set(float64(n))
}

// IncStateTransition records one successful from->to statemachine
// transition.
func (m *Metrics) IncStateTransition(from, to string) {
	if m == nil {
		return
	}
	m.StateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// SetLedgerEntries sets the current length of the named ledger.
func (m *Metrics) SetLedgerEntries(ledger string, n int) {
	if m == nil {
		return
	}
	m.LedgerEntries.WithLabelValues(ledger).Set(float64(n))
}

// IncRoleCollapseViolation records one detected role-collapse violation
// of the given severity.
func (m *Metrics) IncRoleCollapseViolation(severity string) {
	if m == nil {
		return
	}
	m.RoleCollapseViolationsTotal.WithLabelValues(severity).Inc()
}

// IncSuppressionViolation records one detected suppression violation.
func (m *Metrics) IncSuppressionViolation() {
	if m == nil {
		return
	}
	m.SuppressionViolationsTotal.Inc()
}

// SetMonitoredFailures sets the current count of actively monitored
// failure signals.
func (m *Metrics) SetMonitoredFailures(n int) {
	if m == nil {
		return
	}
	m.MonitoredFailures.Set(float64(n))
}

// IncFindingRecorded records one panel finding of the given
// determination.
func (m *Metrics) IncFindingRecorded(determination string) {
	if m == nil {
		return
	}
	m.FindingsRecordedTotal.WithLabelValues(determination).Inc()
}

// IncDissentRecorded records one panel finding carrying a dissent.
func (m *Metrics) IncDissentRecorded() {
	if m == nil {
		return
	}
	m.DissentsRecordedTotal.Inc()
}

// IncPermissionDecision records one evaluate_permission outcome.
func (m *Metrics) IncPermissionDecision(allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.PermissionDecisionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) updateUptime(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-ctx.Done():
			return
		}
	}
}
