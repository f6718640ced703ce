// Package extract unpacks map and encounter archives produced by external
// tools and turns them into module entities.
package extract

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/splitter"
)

// Options configures an extraction run.
type Options struct {
	// Root is the project directory external paths are relative to.
	Root string
	// StageDir receives the extracted assets; empty means nothing is written.
	StageDir string
	// Limit bounds concurrent extractions; <= 0 uses GOMAXPROCS.
	Limit int
	// Observe, when set, is called once per archive.
	Observe func(kind entity.Kind, d time.Duration, err error)
}

type task struct {
	kind entity.Kind
	ref  config.ExternalRef
	e    *entity.Entity
}

// All extracts every map and encounter and adds the resulting entities to the
// module root. Tokens are reserved before the fan-out; the module is only
// modified after every extraction finished successfully.
func All(ctx context.Context, m *entity.Module, maps, encounters []config.ExternalRef, opts Options) ([]entity.Handle, error) {
	var tasks []*task
	for _, group := range []struct {
		kind entity.Kind
		refs []config.ExternalRef
	}{{entity.KindMap, maps}, {entity.KindEncounter, encounters}} {
		for _, ref := range group.refs {
			name := strings.TrimSpace(ref.Name)
			if name == "" {
				name = splitter.StemTitle(ref.Path)
			}
			e, err := m.NewEntity(group.kind, name, ref.Slug)
			if err != nil {
				if ce, ok := errors.AsClassified(err); ok {
					return nil, ce.WithContext("path", ref.Path)
				}
				return nil, err
			}
			e.ParentToken = ref.Parent
			e.SortKey = ref.Order
			e.Source = filepath.ToSlash(ref.Path)
			tasks = append(tasks, &task{kind: group.kind, ref: ref, e: e})
		}
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, t := range tasks {
		g.Go(func() error {
			start := time.Now()
			err := run(gctx, t, opts)
			if opts.Observe != nil {
				opts.Observe(t.kind, time.Since(start), err)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	handles := make([]entity.Handle, 0, len(tasks))
	for _, t := range tasks {
		h, err := m.Tree.Add(t.e, entity.NoHandle)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// Dir returns the module-relative directory an entity's assets are unpacked to.
func Dir(kind entity.Kind, token string) string {
	return kind.Plural() + "/" + token
}

func run(ctx context.Context, t *task, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := t.ref.Path
	if !filepath.IsAbs(src) {
		src = filepath.Join(opts.Root, filepath.FromSlash(src))
	}
	rel := Dir(t.kind, t.e.Token)
	dest := ""
	if opts.StageDir != "" {
		dest = filepath.Join(opts.StageDir, filepath.FromSlash(rel))
	}

	p, err := unpack(ctx, src, dest, rel)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return ce.WithContext("path", t.ref.Path)
		}
		return errors.WrapError(err, errors.CategoryResource, "cannot extract archive").
			Fatal().
			WithContext("path", t.ref.Path).
			Build()
	}
	t.e.Payload = p.body
	if strings.TrimSpace(t.ref.Name) == "" && p.name != "" {
		t.e.Name = p.name
	}
	return nil
}
