// Package config loads the governance kernel's ambient, environment-driven
// configuration: where to persist state, where to bind the API and
// metrics servers, and which rules policy to load. Domain policy (ranks,
// permitted actions, branch-conflict rules) is not here — see
// pkg/rules.Load, which parses that from its own YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all ambient configuration for the governance kernel
// process.
type Config struct {
	// Server configuration
	ListenAddr  string
	MetricsAddr string
	HealthAddr  string

	// Storage configuration: which KV backend kvdb.Open should use for
	// the witness log and finding ledger.
	KVBackend string // "memory", "goleveldb", or "boltdb" (see pkg/kvdb.Backend)
	KVName    string
	DataDir   string

	// RulesPolicyPath points at the YAML file pkg/rules.Load parses.
	RulesPolicyPath string

	// Optional durable mirrors. Both are no-ops when disabled, the way
	// the Firestore sync in this codebase's ancestor was designed.
	PostgresEnabled bool
	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnMaxLifetime time.Duration

	FirestoreEnabled        bool
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// Operational defaults
	LogLevel             string
	KernelID             string
	DefaultFailureTimeout time.Duration
	MetricsEnabled       bool
}

// Load reads configuration from environment variables. Every value has a
// safe local-development default; callers that need production-grade
// enforcement should call Validate.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("GOVKERNEL_HOST", "0.0.0.0") + ":" + getEnv("GOVKERNEL_PORT", "8080"),
		MetricsAddr: getEnv("GOVKERNEL_HOST", "0.0.0.0") + ":" + getEnv("METRICS_PORT", "9090"),
		HealthAddr:  getEnv("GOVKERNEL_HOST", "0.0.0.0") + ":" + getEnv("HEALTH_PORT", "8081"),

		KVBackend: getEnv("KV_BACKEND", "memory"),
		KVName:    getEnv("KV_NAME", "governance-kernel"),
		DataDir:   getEnv("DATA_DIR", "./data"),

		RulesPolicyPath: getEnv("RULES_POLICY_PATH", "./rules.yaml"),

		PostgresEnabled:   getEnvBool("POSTGRES_ENABLED", false),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),

		FirestoreEnabled:        getEnvBool("FIRESTORE_ENABLED", false),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		LogLevel:              getEnv("LOG_LEVEL", "info"),
		KernelID:              getEnv("KERNEL_ID", "governance-kernel-default"),
		DefaultFailureTimeout: getEnvDuration("DEFAULT_FAILURE_TIMEOUT", 30*time.Second),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
	}

	return cfg, nil
}

// Validate checks that configuration is internally consistent and that
// any enabled durable backend has what it needs to start.
func (c *Config) Validate() error {
	var errs []string

	switch c.KVBackend {
	case "memory", "goleveldb", "boltdb":
	default:
		errs = append(errs, fmt.Sprintf("KV_BACKEND %q is not one of memory, goleveldb, boltdb", c.KVBackend))
	}

	if c.PostgresEnabled && c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required when POSTGRES_ENABLED is true")
	}

	if c.FirestoreEnabled && c.FirebaseProjectID == "" {
		errs = append(errs, "FIREBASE_PROJECT_ID is required when FIRESTORE_ENABLED is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
