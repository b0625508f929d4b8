package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/rulebench/rulebench/pkg/fixture"
)

// configFileUsed tracks which file the last LoadConfig call read.
var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > rulebench.yaml > rulebench.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"rulebench.yaml", "rulebench.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// GetConfigFileUsed returns the config file path used by the last load.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"fixtures_dir":   DefaultFixturesDir,
		"rule":           "",
		"timeout":        DefaultTimeout.String(),
		"jobs":           DefaultJobs,
		"state_path":     DefaultStateFile,
		"output":         DefaultOutput,
		"no_history":     false,
		"verbose":        false,
		"engine.type":    "exec",
		"engine.breaker": DefaultBreaker,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (RULEBENCH_ prefix)
	// Transform: RULEBENCH_FIXTURES_DIR -> fixtures_dir,
	// RULEBENCH_ENGINE__COMMAND -> engine.command
	if err := k.Load(env.Provider("RULEBENCH_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "RULEBENCH_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch f.Name {
			case "state":
				key = "state_path"
			case "engine-type":
				key = "engine.type"
			case "engine-cmd":
				key = "engine.command"
			case "engine-url":
				key = "engine.url"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Engine == nil {
		cfg.Engine = &EngineConfig{Type: "exec", Breaker: DefaultBreaker}
	}

	// koanf reconstructs dotted keys as nested maps; the engine request
	// wants them flat ("core.dialect").
	cfg.Defaults = fixture.Flatten(cfg.Defaults)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Engine.Type {
	case "exec", "http", "":
	default:
		return fmt.Errorf("invalid engine type %q (expected exec or http)", cfg.Engine.Type)
	}
	switch cfg.Output {
	case "auto", "text", "json", "markdown", "md", "":
	default:
		return fmt.Errorf("invalid output format %q (expected auto, text, json or markdown)", cfg.Output)
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("jobs must be positive, got %d", cfg.Jobs)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return nil
}
