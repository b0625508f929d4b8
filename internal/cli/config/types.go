// Package config provides configuration management for the rulebench CLI,
// layered from defaults, rulebench.yaml, RULEBENCH_ environment variables
// and command-line flags.
package config

import "time"

// EngineConfig selects and parameterizes the external rule engine.
type EngineConfig struct {
	// Type is "exec" or "http".
	Type    string   `koanf:"type"`
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
	URL     string   `koanf:"url"`

	// Breaker opens the circuit after this many consecutive engine
	// failures. Zero disables the breaker.
	Breaker uint32 `koanf:"breaker"`
}

// Config holds all CLI configuration options.
type Config struct {
	FixturesDir string        `koanf:"fixtures_dir"`
	Rule        string        `koanf:"rule"`
	Timeout     time.Duration `koanf:"timeout"`
	Jobs        int           `koanf:"jobs"`
	StatePath   string        `koanf:"state_path"`
	Output      string        `koanf:"output"`
	NoHistory   bool          `koanf:"no_history"`
	Verbose     bool          `koanf:"verbose"`
	Engine      *EngineConfig `koanf:"engine"`

	// Defaults is sent with every evaluation; per-case fixture configs
	// override it key by key (keys are dotted, e.g. "core.dialect").
	Defaults map[string]any `koanf:"defaults"`
}

// Default configuration values.
const (
	DefaultFixturesDir = "fixtures"
	DefaultTimeout     = 30 * time.Second
	DefaultJobs        = 4
	DefaultStateFile   = ".rulebench/state.db"
	DefaultOutput      = "auto" // TTY=text, piped=markdown
	DefaultBreaker     = 3
)
