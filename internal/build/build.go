package build

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/export"
	"git.home.luguber.info/inful/modbuilder/internal/extract"
	ferrors "git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/git"
	"git.home.luguber.info/inful/modbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/modbuilder/internal/logfields"
	"git.home.luguber.info/inful/modbuilder/internal/markdown"
	"git.home.luguber.info/inful/modbuilder/internal/metrics"
	"git.home.luguber.info/inful/modbuilder/internal/observability"
	"git.home.luguber.info/inful/modbuilder/internal/resolve"
	"git.home.luguber.info/inful/modbuilder/internal/slug"
	"git.home.luguber.info/inful/modbuilder/internal/walker"
	"git.home.luguber.info/inful/modbuilder/internal/workspace"
)

// LockFile is created in the output directory while a build runs.
const LockFile = ".modbuilder.lock"

// Stage names used for logging and metrics.
const (
	StageConfig    = "config"
	StageWalk      = "walk"
	StageExtract   = "extract"
	StageResolve   = "resolve"
	StageLinkCheck = "linkcheck"
	StageExport    = "export"
)

// Request describes one build.
type Request struct {
	// Dir is the project directory or any path inside it.
	Dir    string
	Target entity.Target
	// OutputDir overrides the configured output directory.
	OutputDir string
	// Concurrency bounds parallel extractions; <= 0 uses GOMAXPROCS.
	Concurrency int
}

// Status is the outcome of a build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusWarning  Status = "warning"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Result contains the outcome of a build execution.
type Result struct {
	Status  Status
	Project *config.Project
	Module  *entity.Module

	Walk     walker.Stats
	Resolve  resolve.Report
	Findings []linkcheck.Finding
	Export   *export.Result
	// Counts holds the number of exported entities per kind.
	Counts map[string]int

	Duration time.Duration
}

// Warnings is the number of advisory problems the build reported.
func (r *Result) Warnings() int {
	return r.Walk.Warnings + len(r.Resolve.Unresolved) + len(r.Findings)
}

// Builder executes builds.
type Builder struct {
	recorder metrics.Recorder
	renderer markdown.Renderer
}

// New returns a builder with metrics disabled.
func New() *Builder {
	return &Builder{recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	b.recorder = r
	return b
}

// WithRenderer replaces the markdown renderer (for testing).
func (b *Builder) WithRenderer(r markdown.Renderer) *Builder {
	b.renderer = r
	return b
}

// run is the state of one build.
type run struct {
	b      *Builder
	req    Request
	result *Result
	start  time.Time
}

// Run executes the complete pipeline. On error the result carries the failed
// status and whatever stages completed.
func (b *Builder) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Target == "" {
		req.Target = entity.TargetPackage
	}
	r := &run{b: b, req: req, result: &Result{}, start: time.Now()}
	err := r.execute(ctx)
	r.finish(err)
	return r.result, err
}

func (r *run) execute(ctx context.Context) error {
	ctx = observability.WithBuildID(ctx, r.start.Format("20060102-150405"))

	var p *config.Project
	err := r.stage(ctx, StageConfig, func(context.Context) error {
		root, err := config.FindProjectRoot(r.req.Dir)
		if err != nil {
			return err
		}
		p, err = config.Load(root)
		return err
	})
	if err != nil {
		return err
	}
	r.result.Project = p
	if r.req.OutputDir != "" {
		p.Output = r.req.OutputDir
	}
	target := r.req.Target

	m, err := entity.NewModule(p.Name, p.Slug, slug.Namespace(p.ID, p.Slug), target)
	if err != nil {
		return err
	}
	r.result.Module = m
	ctx = observability.WithModule(ctx, m.Token, string(target))
	observability.InfoContext(ctx, "Building module", logfields.Name(p.Name), logfields.Path(p.Root))

	var stage *workspace.Manager
	if target.WritesOutput() {
		unlock, err := lockOutput(p.OutputDir())
		if err != nil {
			return err
		}
		defer unlock()

		stage = workspace.NewManager(p.OutputDir())
		if err := stage.Create(); err != nil {
			return err
		}
		defer func() {
			if err := stage.Cleanup(); err != nil {
				observability.WarnContext(ctx, "Failed to clean up staging directory", logfields.Error(err))
			}
		}()
	}

	err = r.stage(ctx, StageWalk, func(ctx context.Context) error {
		opts := walker.Options{
			Root:           p.Root,
			Renderer:       r.b.renderer,
			Mode:           p.Mode,
			PageBreaks:     p.PageBreaks,
			Footer:         p.Footer,
			AutoRollTables: p.AutoRollTables,
		}
		if rel, err := filepath.Rel(p.Root, p.OutputDir()); err == nil && !strings.HasPrefix(rel, "..") {
			opts.Exclude = []string{filepath.ToSlash(rel)}
		}
		if stage != nil {
			opts.Stage = stage
		}
		w := walker.New(m, opts)
		err := w.Walk(ctx, ".", entity.NoHandle)
		r.result.Walk = w.Stats()
		return err
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageExtract, func(ctx context.Context) error {
		opts := extract.Options{
			Root:  p.Root,
			Limit: r.req.Concurrency,
			Observe: func(kind entity.Kind, d time.Duration, err error) {
				r.b.recorder.ObserveExtraction(string(kind), d, err == nil)
			},
		}
		if stage != nil {
			opts.StageDir = stage.Path()
		}
		_, err := extract.All(ctx, m, p.Maps, p.Encounters, opts)
		return err
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, StageResolve, func(context.Context) error {
		report, err := resolve.Resolve(m, resolve.Options{DeleteEmptyGroups: p.DeleteEmptyGroups})
		r.result.Resolve = report
		return err
	})
	if err != nil {
		return err
	}

	_ = r.stage(ctx, StageLinkCheck, func(ctx context.Context) error {
		r.result.Findings = linkcheck.Check(m)
		for _, f := range r.result.Findings {
			attrs := []slog.Attr{slog.String("page", f.Page), slog.String("href", f.Href)}
			if f.Suggestion != "" {
				attrs = append(attrs, logfields.Suggestion("/"+f.Kind+"/"+f.Suggestion))
			}
			observability.WarnContext(ctx, "Broken internal link", attrs...)
		}
		return nil
	})

	r.result.Counts = countEntities(m)
	for kind, n := range r.result.Counts {
		r.b.recorder.SetEntityCount(kind, n)
	}

	if stage == nil {
		return nil
	}
	return r.stage(ctx, StageExport, func(ctx context.Context) error {
		stamp, err := git.SourceStamp(p.Root)
		if err != nil {
			observability.WarnContext(ctx, "Cannot read source revision", logfields.Error(err))
		}
		res, err := export.New(p, stage, p.OutputDir(), stamp).Export(m)
		r.result.Export = res
		return err
	})
}

// stage runs fn with a stage-scoped context, recording its duration and result.
func (r *run) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	r.b.recorder.ObserveStageDuration(name, d)
	switch {
	case err == nil:
		r.b.recorder.IncStageResult(name, metrics.ResultSuccess)
		observability.DebugContext(ctx, "Stage complete", logfields.DurationMS(float64(d.Microseconds())/1000))
	case errors.Is(err, context.Canceled):
		r.b.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		r.b.recorder.IncStageResult(name, metrics.ResultFatal)
		observability.DebugContext(ctx, "Stage failed", logfields.Error(err))
	}
	return err
}

func (r *run) finish(err error) {
	res := r.result
	res.Duration = time.Since(r.start)
	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, context.Canceled):
		res.Status, outcome = StatusCanceled, metrics.OutcomeCanceled
	case err != nil:
		res.Status, outcome = StatusFailed, metrics.OutcomeFailed
	case res.Warnings() > 0:
		res.Status, outcome = StatusWarning, metrics.OutcomeWarning
	default:
		res.Status = StatusSuccess
	}
	r.b.recorder.IncBuildOutcome(outcome)
	r.b.recorder.ObserveBuildDuration(res.Duration)
}

// lockOutput takes an exclusive lock on the output directory.
func lockOutput(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryResource, "failed to create output directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryResource, "cannot lock output directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	if !ok {
		return nil, ferrors.ResourceError("output directory is locked by another build").
			WithContext("path", dir).
			Build()
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release output lock", logfields.Path(dir), logfields.Error(err))
		}
	}, nil
}

func countEntities(m *entity.Module) map[string]int {
	counts := map[string]int{
		string(entity.KindContainer): 0,
		string(entity.KindPage):      0,
		string(entity.KindMap):       0,
		string(entity.KindEncounter): 0,
		"monster":                    len(m.Monsters),
		"item":                       len(m.Items),
		"spell":                      len(m.Spells),
		"table":                      len(m.Tables),
	}
	m.Tree.Walk(func(e *entity.Entity, _ int) bool {
		counts[string(e.Kind)]++
		return true
	})
	return counts
}
