// Operational policy loader: runtime tunables that are easier to express
// as YAML than as a flat env var per field (escalation timing, panel
// quorum defaults, watchdog timeouts). Domain rules (ranks,
// actions, branch conflicts) still live in pkg/rules — this file is for
// knobs the orchestrator and watchdog need that aren't "which actions
// are allowed", but "how long to wait" and "how many retries".

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// KernelPolicy holds operational tuning knobs loaded from YAML.
type KernelPolicy struct {
	Environment string `yaml:"environment"`

	Watchdog   WatchdogPolicy   `yaml:"watchdog"`
	Escalation EscalationPolicy `yaml:"escalation"`
	Judicial   JudicialPolicy   `yaml:"judicial"`
}

// WatchdogPolicy tunes the suppression watchdog (C8).
type WatchdogPolicy struct {
	DefaultTimeout            Duration `yaml:"default_timeout"`
	CriticalTimeoutMultiplier float64  `yaml:"critical_timeout_multiplier"`
}

// EscalationPolicy tunes the orchestrator's retry/backoff behavior
// (C10, spec.md §4.10).
type EscalationPolicy struct {
	BackoffLadder []Duration `yaml:"backoff_ladder"`
	MaxRetries    int        `yaml:"max_retries"`
}

// JudicialPolicy tunes default panel composition (C7).
type JudicialPolicy struct {
	DefaultQuorumSize int `yaml:"default_quorum_size"`
}

// Duration wraps time.Duration for YAML unmarshaling of "5s"-style
// strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultKernelPolicy returns the policy used when no policy file is
// configured.
func DefaultKernelPolicy() *KernelPolicy {
	return &KernelPolicy{
		Environment: "development",
		Watchdog: WatchdogPolicy{
			DefaultTimeout:            Duration(30 * time.Second),
			CriticalTimeoutMultiplier: 0.5,
		},
		Escalation: EscalationPolicy{
			BackoffLadder: []Duration{Duration(5 * time.Second), Duration(30 * time.Second), Duration(300 * time.Second)},
			MaxRetries:    3,
		},
		Judicial: JudicialPolicy{
			DefaultQuorumSize: 3,
		},
	}
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadKernelPolicy loads operational policy from a YAML file. Environment
// variables in the form ${VAR_NAME} or ${VAR_NAME:-default} are
// substituted before parsing. Missing fields fall back to
// DefaultKernelPolicy's values. An empty path returns the defaults
// unchanged, so the kernel policy file is optional.
func LoadKernelPolicy(path string) (*KernelPolicy, error) {
	if path == "" {
		return DefaultKernelPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kernel policy file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	cfg := DefaultKernelPolicy()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse kernel policy file %s: %w", path, err)
	}

	if len(cfg.Escalation.BackoffLadder) == 0 {
		cfg.Escalation.BackoffLadder = DefaultKernelPolicy().Escalation.BackoffLadder
	}
	if cfg.Judicial.DefaultQuorumSize <= 0 {
		cfg.Judicial.DefaultQuorumSize = DefaultKernelPolicy().Judicial.DefaultQuorumSize
	}

	return cfg, nil
}
