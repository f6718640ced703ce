package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/modbuilder/internal/build"
	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/metrics"
	"git.home.luguber.info/inful/modbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Dir         string        `arg:"" optional:"" default:"." help:"Project directory"`
	Target      string        `short:"t" help:"Build target for each rebuild: package, print or scan" default:"scan"`
	Output      string        `short:"o" help:"Output directory (overrides module.yaml output)"`
	Debounce    time.Duration `help:"Quiet period after the last change before rebuilding" default:"300ms"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
}

func (w *WatchCmd) Run(g *Global) error {
	target, err := entity.ParseTarget(w.Target)
	if err != nil {
		return err
	}
	root, err := config.FindProjectRoot(w.Dir)
	if err != nil {
		return err
	}
	ctx := g.ctx()

	rec, pr := newRecorder(w.MetricsAddr != "")
	if pr != nil {
		stop := serveMetrics(w.MetricsAddr, pr)
		defer stop()
	}

	builder := build.New().WithRecorder(rec)
	req := build.Request{Dir: root, Target: target, OutputDir: w.Output}

	ignore := []string{}
	if p, err := config.Load(root); err == nil {
		if w.Output != "" {
			p.Output = w.Output
		}
		ignore = append(ignore, p.OutputDir())
	}

	return watch.Run(ctx, watch.Options{
		Root:     root,
		Ignore:   ignore,
		Debounce: w.Debounce,
		Build: func(ctx context.Context) error {
			res, err := builder.Run(ctx, req)
			if err != nil {
				return err
			}
			slog.Info("Build finished",
				slog.String("status", string(res.Status)),
				slog.Int("warnings", res.Warnings()))
			return nil
		},
	})
}

func serveMetrics(addr string, pr *metrics.PrometheusRecorder) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(pr.Registry()))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("Metrics server stopped", "error", err)
		}
	}()
	slog.Info("Serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
