package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KVBackend != "memory" {
		t.Errorf("expected default KVBackend memory, got %s", cfg.KVBackend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{KVBackend: "not-a-backend"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown KV backend")
	}
}

func TestValidateRequiresDatabaseURLWhenPostgresEnabled(t *testing.T) {
	cfg := &Config{KVBackend: "memory", PostgresEnabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when postgres enabled without DATABASE_URL")
	}
}

func TestDefaultKernelPolicy(t *testing.T) {
	p := DefaultKernelPolicy()
	if p.Judicial.DefaultQuorumSize != 3 {
		t.Errorf("expected default quorum size 3, got %d", p.Judicial.DefaultQuorumSize)
	}
	if len(p.Escalation.BackoffLadder) != 3 {
		t.Errorf("expected 3-step backoff ladder, got %d", len(p.Escalation.BackoffLadder))
	}
}
