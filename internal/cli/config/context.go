package config

import (
	"context"
	"log/slog"
	"os"
)

// loggerKey stores the CLI logger in a command context.
type loggerKey struct{}

// currentConfig stores the config loaded by the root command so
// subcommands can reach it without re-parsing.
var currentConfig *Config

// SetCurrentConfig records the active configuration.
func SetCurrentConfig(cfg *Config) {
	currentConfig = cfg
}

// GetCurrentConfig returns the active configuration, or nil before the
// root command has loaded one.
func GetCurrentConfig() *Config {
	return currentConfig
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger returns the context logger, or a stderr text logger when
// none was attached.
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return NewLogger(false)
}

// NewLogger builds the CLI logger. Verbose enables debug level.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
