package build

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/metrics"
)

type testRecorder struct {
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []metrics.BuildOutcomeLabel
	entities map[string]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stages: map[string]metrics.ResultLabel{}, entities: map[string]int{}}
}

func (t *testRecorder) ObserveStageDuration(string, time.Duration) {}
func (t *testRecorder) ObserveBuildDuration(time.Duration)         {}
func (t *testRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages[stage] = result
}
func (t *testRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = append(t.outcomes, o)
}
func (t *testRecorder) SetEntityCount(kind string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entities[kind] = n
}
func (t *testRecorder) ObserveExtraction(string, time.Duration, bool) {}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, config.Init(dir, false))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestRun_Package(t *testing.T) {
	dir := newProject(t)
	rec := newTestRecorder()

	res, err := New().WithRecorder(rec).Run(context.Background(), Request{Dir: dir, Target: entity.TargetPackage})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Counts["group"])
	assert.Equal(t, 1, res.Counts["page"])
	assert.Equal(t, 1, res.Counts["monster"])

	out := filepath.Join(dir, config.DefaultOutput)
	require.NotNil(t, res.Export)
	assert.Equal(t, filepath.Join(out, "my-adventure.module"), res.Export.Archive)
	assert.FileExists(t, res.Export.Archive)
	assert.FileExists(t, filepath.Join(out, "my-adventure.manifest.json"))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".staging-"), "staging directory %s left behind", e.Name())
	}

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.OutcomeSuccess}, rec.outcomes)
	for _, stage := range []string{StageConfig, StageWalk, StageExtract, StageResolve, StageLinkCheck, StageExport} {
		assert.Equal(t, metrics.ResultSuccess, rec.stages[stage], stage)
	}
	assert.Equal(t, 1, rec.entities["page"])
}

func TestRun_IgnoresOutputDirectory(t *testing.T) {
	dir := newProject(t)
	_, err := New().Run(context.Background(), Request{Dir: dir})
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, config.DefaultOutput, "stray.md"), "# Stray\n")

	res, err := New().Run(context.Background(), Request{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts["page"])
}

func TestRun_FindsProjectBelowDir(t *testing.T) {
	outer := t.TempDir()
	dir := filepath.Join(outer, "keep")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, config.Init(dir, false))

	res, err := New().Run(context.Background(), Request{Dir: outer, Target: entity.TargetScan})
	require.NoError(t, err)
	assert.Equal(t, dir, res.Project.Root)
}

func TestRun_ScanWritesNothing(t *testing.T) {
	dir := newProject(t)
	rec := newTestRecorder()

	res, err := New().WithRecorder(rec).Run(context.Background(), Request{Dir: dir, Target: entity.TargetScan})
	require.NoError(t, err)
	assert.Nil(t, res.Export)
	assert.NoDirExists(t, filepath.Join(dir, config.DefaultOutput))
	_, exported := rec.stages[StageExport]
	assert.False(t, exported)
}

func TestRun_Print(t *testing.T) {
	dir := newProject(t)
	res, err := New().Run(context.Background(), Request{Dir: dir, Target: entity.TargetPrint})
	require.NoError(t, err)
	require.NotNil(t, res.Export)
	assert.FileExists(t, filepath.Join(dir, config.DefaultOutput, "my-adventure-print", "print.html"))
}

func TestRun_OutputOverride(t *testing.T) {
	dir := newProject(t)
	out := filepath.Join(t.TempDir(), "artifacts")
	_, err := New().Run(context.Background(), Request{Dir: dir, OutputDir: out})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "my-adventure.module"))
}

func TestRun_BrokenLinkIsWarning(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "chapters", "links.md"), "# Links\n\nSee [the intro](/page/introductoin).\n")
	rec := newTestRecorder()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	res, err := New().WithRecorder(rec).Run(context.Background(), Request{Dir: dir, Target: entity.TargetScan})
	require.NoError(t, err)
	assert.Equal(t, StatusWarning, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "introduction", res.Findings[0].Suggestion)
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.OutcomeWarning}, rec.outcomes)

	assert.Equal(t, 1, strings.Count(logs.String(), "/page/introductoin"), "each broken link is logged once")
	assert.Contains(t, logs.String(), "suggestion=/page/introduction")
}

func TestRun_MissingConfig(t *testing.T) {
	rec := newTestRecorder()
	res, err := New().WithRecorder(rec).Run(context.Background(), Request{Dir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, metrics.ResultFatal, rec.stages[StageConfig])
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.OutcomeFailed}, rec.outcomes)
}

func TestRun_DuplicateTokenFailsWithoutOutput(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "chapters", "a.md"), "---\nslug: twin\n---\n# A\n")
	writeFile(t, filepath.Join(dir, "chapters", "b.md"), "---\nslug: twin\n---\n# B\n")

	res, err := New().Run(context.Background(), Request{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStructural))
	assert.Equal(t, StatusFailed, res.Status)
	assert.NoFileExists(t, filepath.Join(dir, config.DefaultOutput, "my-adventure.module"))
}

func TestRun_CyclicParentsFailWithoutOutput(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "chapters", "a.md"), "---\nslug: a\nparent: b\n---\n# A\n")
	writeFile(t, filepath.Join(dir, "chapters", "b.md"), "---\nslug: b\nparent: a\n---\n# B\n")
	rec := newTestRecorder()

	res, err := New().WithRecorder(rec).Run(context.Background(), Request{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStructural))
	assert.Contains(t, err.Error(), "cyclic")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Export)
	assert.Equal(t, metrics.ResultFatal, rec.stages[StageResolve])
	_, exported := rec.stages[StageExport]
	assert.False(t, exported, "export stage must not run")
	assert.NoFileExists(t, filepath.Join(dir, config.DefaultOutput, "my-adventure.module"))
}

func TestRun_OutputLocked(t *testing.T) {
	dir := newProject(t)
	out := filepath.Join(dir, config.DefaultOutput)
	require.NoError(t, os.MkdirAll(out, 0o750))
	lock := flock.New(filepath.Join(out, LockFile))
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = lock.Unlock() }()

	_, err = New().Run(context.Background(), Request{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryResource))
}

func TestRun_Canceled(t *testing.T) {
	dir := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New().Run(ctx, Request{Dir: dir, Target: entity.TargetScan})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, res.Status)
}
