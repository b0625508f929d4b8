package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulebench/rulebench/internal/cli/config"
	"github.com/rulebench/rulebench/internal/cli/output"
	"github.com/rulebench/rulebench/internal/state"
	"github.com/rulebench/rulebench/pkg/engine"
)

// breakerCooldown is how long an open engine circuit stays open.
const breakerCooldown = 30 * time.Second

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext assembles the dependencies commands share.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		cfg = &config.Config{
			FixturesDir: config.DefaultFixturesDir,
			Timeout:     config.DefaultTimeout,
			Jobs:        config.DefaultJobs,
			StatePath:   config.DefaultStateFile,
			Output:      config.DefaultOutput,
			Engine:      &config.EngineConfig{Type: "exec", Breaker: config.DefaultBreaker},
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// buildEngine constructs the configured rule engine adapter, applying
// command-line overrides on top of the config file.
func buildEngine(cfg *config.Config, execOverride, urlOverride string) (engine.Engine, error) {
	ecfg := *cfg.Engine
	if execOverride != "" {
		ecfg.Type = "exec"
		ecfg.Command = execOverride
	}
	if urlOverride != "" {
		ecfg.Type = "http"
		ecfg.URL = urlOverride
	}

	var eng engine.Engine
	switch ecfg.Type {
	case "exec", "":
		if ecfg.Command == "" {
			return nil, fmt.Errorf("no rule engine configured: set engine.command in rulebench.yaml or pass --engine-cmd")
		}
		eng = engine.NewExecEngine(ecfg.Command, ecfg.Args...)
	case "http":
		if ecfg.URL == "" {
			return nil, fmt.Errorf("no rule engine configured: set engine.url in rulebench.yaml or pass --engine-url")
		}
		eng = engine.NewHTTPEngine(ecfg.URL)
	default:
		return nil, fmt.Errorf("unknown engine type %q", ecfg.Type)
	}

	if ecfg.Breaker > 0 {
		eng = engine.NewBreaker(eng, ecfg.Breaker, breakerCooldown)
	}
	return eng, nil
}

// openStore opens the run-history store, creating its directory.
func openStore(cfg *config.Config) (*state.Store, error) {
	dir := filepath.Dir(cfg.StatePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.Open(cfg.StatePath)
}

// collectFixtureFiles resolves a path argument (or the configured
// fixtures directory) to a sorted list of fixture files.
func collectFixtureFiles(path string, cfg *config.Config) ([]string, error) {
	if path == "" {
		path = cfg.FixturesDir
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fixture path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", path)
	}
	sort.Strings(files)
	return files, nil
}
