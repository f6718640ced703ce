// Package commands implements the modbuilder CLI subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/modbuilder/internal/metrics"
)

// LogLevelEnv overrides the log level unless --verbose is given.
const LogLevelEnv = "MODBUILDER_LOG_LEVEL"

// Global is passed to every subcommand's Run.
type Global struct {
	Context context.Context
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Compile the project into a module archive or print document"`
	Scan  ScanCmd  `cmd:"" help:"Run the full pipeline without writing output and report problems"`
	Watch WatchCmd `cmd:"" help:"Rebuild whenever the project changes"`
	Init  InitCmd  `cmd:"" help:"Create an example project"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel returns debug for --verbose, otherwise the level named by
// MODBUILDER_LOG_LEVEL, defaulting to info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (g *Global) ctx() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

// newRecorder returns a Prometheus recorder when metrics are requested and a
// no-op recorder otherwise.
func newRecorder(enabled bool) (metrics.Recorder, *metrics.PrometheusRecorder) {
	if !enabled {
		return metrics.NoopRecorder{}, nil
	}
	pr := metrics.NewPrometheusRecorder(nil)
	return pr, pr
}

// writeMetrics flushes the registry to path; failures are logged only.
func writeMetrics(pr *metrics.PrometheusRecorder, path string) {
	if pr == nil || path == "" {
		return
	}
	if err := metrics.WriteTextfile(path, pr.Registry()); err != nil {
		slog.Warn("Failed to write metrics file", "path", path, "error", err)
	}
}
