package metrics

import "testing"

func TestNewRegistersWithoutPanic(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("expected non-nil Metrics")
	}
	m.MotionsProcessedTotal.WithLabelValues("introduced").Inc()
	m.RoleCollapseViolationsTotal.WithLabelValues("critical").Inc()
	m.LedgerEntries.WithLabelValues("witness").Set(3)
}

func TestNewTwiceUsesIndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.MotionsRetriedTotal.Inc()
	b.MotionsRetriedTotal.Inc()
}
