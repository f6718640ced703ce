package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/modbuilder/internal/build"
	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/modbuilder/internal/resolve"
	"git.home.luguber.info/inful/modbuilder/internal/walker"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env     string
		verbose bool
		want    slog.Level
	}{
		{"", false, slog.LevelInfo},
		{"", true, slog.LevelDebug},
		{"warn", false, slog.LevelWarn},
		{"ERROR", false, slog.LevelError},
		{"error", true, slog.LevelDebug},
		{"bogus", false, slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(LogLevelEnv, tt.env)
			assert.Equal(t, tt.want, parseLogLevel(tt.verbose))
		})
	}
}

func TestCLI_Parse(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli)
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"build", "adventure", "--target", "print", "-o", "out", "-j", "4"})
	require.NoError(t, err)
	assert.Equal(t, "build <dir>", ctx.Command())
	assert.Equal(t, "adventure", cli.Build.Dir)
	assert.Equal(t, "print", cli.Build.Target)
	assert.Equal(t, "out", cli.Build.Output)
	assert.Equal(t, 4, cli.Build.Concurrency)

	ctx, err = parser.Parse([]string{"watch"})
	require.NoError(t, err)
	assert.Equal(t, "watch", ctx.Command())
	assert.Equal(t, ".", cli.Watch.Dir)
	assert.Equal(t, "scan", cli.Watch.Target)
	assert.Equal(t, 300*time.Millisecond, cli.Watch.Debounce)
}

func TestInitThenBuild(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "adventure")
	require.NoError(t, (&InitCmd{Dir: dir}).Run(&Global{}))

	metricsFile := filepath.Join(t.TempDir(), "modbuilder.prom")
	cmd := &BuildCmd{Dir: dir, Target: "package", MetricsFile: metricsFile}
	require.NoError(t, cmd.Run(&Global{}))

	assert.FileExists(t, filepath.Join(dir, config.DefaultOutput, "my-adventure.module"))
	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "modbuilder_build_outcomes_total")

	err = (&InitCmd{Dir: dir}).Run(&Global{})
	require.Error(t, err, "init refuses to overwrite without --force")
}

func TestBuildCmd_InvalidTarget(t *testing.T) {
	err := (&BuildCmd{Dir: t.TempDir(), Target: "epub"}).Run(&Global{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestScanCmd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Init(dir, false))
	require.NoError(t, (&ScanCmd{Dir: dir}).Run(&Global{}))
	assert.NoDirExists(t, filepath.Join(dir, config.DefaultOutput))
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	var clean bytes.Buffer
	printReport(&clean, &build.Result{
		Project: &config.Project{Name: "Sunken Keep"},
		Counts:  map[string]int{"page": 3, "group": 1},
	})
	assert.Contains(t, clean.String(), "=== Sunken Keep ===")
	assert.Contains(t, clean.String(), "page       3")
	assert.Contains(t, clean.String(), "No problems found")

	var warn bytes.Buffer
	printReport(&warn, &build.Result{
		Project:  &config.Project{Name: "Sunken Keep"},
		Walk:     walker.Stats{Warnings: 1},
		Resolve:  resolve.Report{Unresolved: []string{"crypt"}},
		Findings: []linkcheck.Finding{{Page: "arrival", Href: "/page/gaet", Suggestion: "gate"}},
	})
	out := warn.String()
	assert.Contains(t, out, "3 warning(s):")
	assert.Contains(t, out, "1 document problem(s)")
	assert.Contains(t, out, `unknown parent "crypt"`)
	assert.Contains(t, out, `arrival: broken link /page/gaet (did you mean "gate"?)`)
}
