// Package walker traverses a project directory and builds the module tree:
// containers for directories, pages for markdown documents, compendium
// entries for the entity blocks found in them.
package walker

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/modbuilder/internal/logfields"
	"git.home.luguber.info/inful/modbuilder/internal/markdown"
	"git.home.luguber.info/inful/modbuilder/internal/rolltable"
	"git.home.luguber.info/inful/modbuilder/internal/splitter"
)

// FilesOnlyMarker makes a directory a plain file tree: copied, never parsed.
const FilesOnlyMarker = ".filesonly"

// Stager receives the files copied verbatim into the output.
type Stager interface {
	CopyFile(rel, src string) error
	CopyDir(rel, src string) error
}

// Options configures a Walker.
type Options struct {
	// Root is the absolute project directory.
	Root     string
	Renderer markdown.Renderer
	// Stage is nil when the target writes no output.
	Stage Stager

	// Defaults inherited by top-level content.
	Mode           entity.InclusionMode
	PageBreaks     string
	Footer         string
	AutoRollTables bool

	// Exclude lists slash-separated paths relative to Root that are never
	// walked, such as the output directory.
	Exclude []string
}

// Stats counts what a walk produced.
type Stats struct {
	Documents  int
	Pages      int
	Containers int
	Assets     int
	FileTrees  int
	Warnings   int
}

// inherited are the settings a directory passes on to its content.
type inherited struct {
	mode       entity.InclusionMode
	pageBreaks string
	footer     string
	copyFiles  bool
}

// Walker builds entities into one module.
type Walker struct {
	m        *entity.Module
	opts     Options
	splitter *splitter.Splitter
	settings map[entity.Handle]inherited
	stats    Stats
}

// New returns a walker adding to m.
func New(m *entity.Module, opts Options) *Walker {
	if opts.Renderer == nil {
		opts.Renderer = markdown.NewRenderer()
	}
	if opts.Mode == "" {
		opts.Mode = entity.IncludeAll
	}
	return &Walker{
		m:        m,
		opts:     opts,
		splitter: splitter.New(m),
		settings: map[entity.Handle]inherited{
			entity.NoHandle: {mode: opts.Mode, pageBreaks: opts.PageBreaks, footer: opts.Footer, copyFiles: true},
		},
	}
}

// Stats returns the counters of the walks so far.
func (w *Walker) Stats() Stats {
	return w.stats
}

// Walk processes dir (relative to the project root, "." for the root) and
// appends its content below parent.
func (w *Walker) Walk(ctx context.Context, dir string, parent entity.Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs := filepath.Join(w.opts.Root, filepath.FromSlash(dir))
	entries, err := os.ReadDir(abs)
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot read directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	set := w.settings[parent]

	for _, de := range entries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		rel := path.Join(filepath.ToSlash(dir), name)

		if de.IsDir() {
			if w.excluded(rel) {
				slog.Debug("Skipping excluded directory", logfields.Path(rel))
				continue
			}
			if err := w.walkDir(ctx, rel, parent, set); err != nil {
				return err
			}
			continue
		}

		switch {
		case name == config.FileName || name == frontmatter.GroupFile:
		case isMarkdownFile(name):
			if err := w.document(rel, parent, set); err != nil {
				return err
			}
		case isAsset(name):
			if w.opts.Stage == nil || !set.copyFiles {
				continue
			}
			if err := w.opts.Stage.CopyFile(rel, filepath.Join(abs, name)); err != nil {
				return err
			}
			w.stats.Assets++
		}
	}
	return nil
}

func (w *Walker) excluded(rel string) bool {
	for _, ex := range w.opts.Exclude {
		if rel == ex {
			return true
		}
	}
	return false
}

func (w *Walker) walkDir(ctx context.Context, rel string, parent entity.Handle, set inherited) error {
	abs := filepath.Join(w.opts.Root, filepath.FromSlash(rel))

	if exists(filepath.Join(abs, config.FileName)) {
		slog.Debug("Skipping nested project", logfields.Path(rel))
		return nil
	}
	if exists(filepath.Join(abs, FilesOnlyMarker)) {
		return w.fileTree(rel, abs)
	}

	group, _, err := frontmatter.LoadGroup(filepath.Join(abs, frontmatter.GroupFile))
	if err != nil {
		return err
	}
	mode, err := entity.ParseInclusionMode(group.IncludeIn)
	if err != nil {
		return addPath(err, rel)
	}
	switch {
	case mode == entity.IncludeFiles:
		return w.fileTree(rel, abs)
	case mode != "" && !w.m.Target.Keeps(mode):
		slog.Debug("Directory excluded from target", logfields.Path(rel), logfields.Target(string(w.m.Target)))
		return w.fileTree(rel, abs)
	case mode == "":
		mode = set.mode
	}

	name := strings.TrimSpace(group.Name)
	if name == "" {
		name = splitter.StemTitle(rel)
	}
	e, err := w.m.NewEntity(entity.KindContainer, name, group.Slug)
	if err != nil {
		return addPath(err, rel)
	}
	e.Mode = mode
	e.SortKey = group.Order
	e.ParentToken = group.Parent
	e.CopyFiles = group.ShouldCopyFiles()
	e.Source = rel
	e.Footer = set.footer
	if group.Footer != "" {
		e.Footer = group.Footer
	}

	h, err := w.m.Tree.Add(e, parent)
	if err != nil {
		return err
	}
	w.stats.Containers++

	child := inherited{mode: mode, pageBreaks: set.pageBreaks, footer: e.Footer, copyFiles: e.CopyFiles}
	if group.PageBreaks != nil {
		child.pageBreaks = *group.PageBreaks
	}
	w.settings[h] = child

	slog.Debug("Container", logfields.Token(e.Token), logfields.Path(rel))
	return w.Walk(ctx, rel, h)
}

// fileTree copies a directory without creating entities.
func (w *Walker) fileTree(rel, abs string) error {
	w.stats.FileTrees++
	if w.opts.Stage == nil {
		return nil
	}
	slog.Debug("Copying file tree", logfields.Path(rel))
	return w.opts.Stage.CopyDir(rel, abs)
}

func (w *Walker) document(rel string, parent entity.Handle, set inherited) error {
	abs := filepath.Join(w.opts.Root, filepath.FromSlash(rel))
	content, err := os.ReadFile(abs)
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot read file").
			Fatal().
			WithContext("file", rel).
			Build()
	}
	meta, body, err := frontmatter.Parse(rel, content)
	if err != nil {
		return err
	}

	footer := set.footer
	if meta.Footer != "" {
		footer = meta.Footer
	}
	srcDir := path.Dir(rel)
	doc, err := w.opts.Renderer.Render(body, markdown.Context{
		Target:    w.m.Target,
		Footer:    footer,
		SourceDir: srcDir,
	})
	if err != nil {
		return addFile(err, rel)
	}
	for _, warn := range doc.Warnings {
		w.stats.Warnings++
		slog.Warn("Invalid entity block", logfields.File(rel), logfields.Error(warn))
	}
	if err := w.checkCovers(rel, doc.Covers); err != nil {
		return err
	}

	handles, err := w.splitter.Split(splitter.Input{
		File:       rel,
		Rendered:   doc.HTML,
		Meta:       meta,
		Parent:     parent,
		Mode:       set.mode,
		PageBreaks: set.pageBreaks,
		Footer:     set.footer,
	})
	if err != nil {
		return err
	}
	w.stats.Documents++
	w.stats.Pages += len(handles)
	slog.Debug("Document", logfields.File(rel), logfields.Count(len(handles)), slog.Int("entities", doc.Blocks.Len()))

	if err := w.register(doc, srcDir, handles); err != nil {
		return addFile(err, rel)
	}
	return nil
}

// checkCovers verifies that the cover images of a document exist. A missing
// cover fails targets that write output and is a warning otherwise.
func (w *Walker) checkCovers(rel string, covers []string) error {
	for _, ref := range covers {
		if !markdown.IsRelative(ref) || exists(filepath.Join(w.opts.Root, filepath.FromSlash(ref))) {
			continue
		}
		if w.m.Target.WritesOutput() {
			return errors.ResourceError("cover image not found").
				WithContext("file", rel).
				WithContext("path", ref).
				Build()
		}
		w.stats.Warnings++
		slog.Warn("Cover image not found", logfields.File(rel), logfields.Path(ref))
	}
	return nil
}

// register adds the compendium entries of a document, owned by its first page.
// Roll tables are owned by the page they appear in.
func (w *Walker) register(doc *markdown.Document, srcDir string, pages []entity.Handle) error {
	if len(pages) == 0 {
		return nil
	}
	owner := pages[0]
	for _, mon := range doc.Blocks.Monsters {
		if err := w.m.Identify(&mon.Ident); err != nil {
			return err
		}
		mon.Owner = owner
		mon.Image = markdown.ResolveAsset(srcDir, mon.Image)
		mon.Token2D = markdown.ResolveAsset(srcDir, mon.Token2D)
		w.m.Monsters = append(w.m.Monsters, mon)
	}
	for _, it := range doc.Blocks.Items {
		if err := w.m.Identify(&it.Ident); err != nil {
			return err
		}
		it.Owner = owner
		it.Image = markdown.ResolveAsset(srcDir, it.Image)
		w.m.Items = append(w.m.Items, it)
	}
	for _, sp := range doc.Blocks.Spells {
		if err := w.m.Identify(&sp.Ident); err != nil {
			return err
		}
		sp.Owner = owner
		sp.Image = markdown.ResolveAsset(srcDir, sp.Image)
		w.m.Spells = append(w.m.Spells, sp)
	}

	if !w.opts.AutoRollTables {
		return nil
	}
	for _, h := range pages {
		page := w.m.Tree.Get(h)
		tables, err := rolltable.Extract(page.Content, page.Name)
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "cannot scan page tables").Fatal().Build()
		}
		for _, t := range tables {
			if err := w.m.Identify(&t.Ident); err != nil {
				return err
			}
			t.Owner = h
			w.m.Tables = append(w.m.Tables, t)
		}
	}
	return nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func addFile(err error, file string) error {
	if ce, ok := errors.AsClassified(err); ok {
		if _, set := ce.Context().Get("file"); !set {
			return ce.WithContext("file", file)
		}
	}
	return err
}

func addPath(err error, p string) error {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext("path", p)
	}
	return err
}
