// Package splitter turns one rendered markdown document into module pages,
// optionally partitioning it at header boundaries.
package splitter

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/modbuilder/internal/htmlnode"
)

// Input is one rendered document and the settings inherited from its directory.
type Input struct {
	// File is the source path relative to the project root.
	File     string
	Rendered string
	Meta     frontmatter.PageMeta
	Parent   entity.Handle

	// Mode, PageBreaks and Footer are the values inherited from the enclosing
	// container; front matter overrides them.
	Mode       entity.InclusionMode
	PageBreaks string
	Footer     string
}

// Splitter appends pages to a module.
type Splitter struct {
	m *entity.Module
}

// New returns a splitter adding pages to m.
func New(m *entity.Module) *Splitter {
	return &Splitter{m: m}
}

// openHeader is a page produced from a header, a candidate parent for the
// deeper headers that follow it.
type openHeader struct {
	level  int
	handle entity.Handle
}

type segment struct {
	level int
	title string
	nodes []*html.Node
}

// Split appends the pages of in to the module tree and returns their handles
// in document order.
func (s *Splitter) Split(in Input) ([]entity.Handle, error) {
	mode, err := pageMode(in)
	if err != nil {
		return nil, err
	}
	footer := in.Footer
	if in.Meta.Footer != "" {
		footer = in.Meta.Footer
	}
	selector := in.PageBreaks
	if in.Meta.PageBreaks != nil {
		selector = *in.Meta.PageBreaks
	}

	nodes, err := htmlnode.ParseFragment(in.Rendered)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "cannot parse rendered page").
			Fatal().
			WithContext("file", in.File).
			Build()
	}

	levels, err := ParseSelector(selector)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStructural, "invalid pagebreaks selector").
			Fatal().
			WithContext("file", in.File).
			Build()
	}

	var segments []segment
	if len(levels) > 0 {
		segments = partition(nodes, levels)
	}
	if len(segments) <= 1 && (len(segments) == 0 || segments[0].level == 0) {
		return s.single(in, nodes, mode, footer)
	}

	docName := documentName(in, nil)
	var handles []entity.Handle
	var open []openHeader
	for _, seg := range segments {
		title := seg.title
		if seg.level == 0 {
			title = docName
		}

		parent := in.Parent
		for j := len(open) - 1; j >= 0 && seg.level > 0; j-- {
			if open[j].level < seg.level {
				parent = open[j].handle
				break
			}
		}

		explicit := ""
		if len(handles) == 0 {
			explicit = in.Meta.Slug
		}
		e, err := s.m.NewEntity(entity.KindPage, title, explicit)
		if err != nil {
			return nil, withFile(err, in.File)
		}
		e.Mode = mode
		e.Footer = footer
		e.Source = in.File
		if len(handles) == 0 {
			e.ParentToken = in.Meta.Parent
		}
		idx := len(handles)
		if in.Meta.Order != nil {
			e.SortKey = entity.IntPtr(*in.Meta.Order + idx)
		} else {
			e.SortKey = entity.IntPtr(idx)
		}
		if e.Content, err = htmlnode.Render(seg.nodes); err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "cannot serialize page").Fatal().Build()
		}

		h, err := s.m.Tree.Add(e, parent)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
		if seg.level > 0 {
			open = append(open, openHeader{level: seg.level, handle: h})
		}
	}
	return handles, nil
}

func (s *Splitter) single(in Input, nodes []*html.Node, mode entity.InclusionMode, footer string) ([]entity.Handle, error) {
	e, err := s.m.NewEntity(entity.KindPage, documentName(in, nodes), in.Meta.Slug)
	if err != nil {
		return nil, withFile(err, in.File)
	}
	e.Mode = mode
	e.Footer = footer
	e.Source = in.File
	e.ParentToken = in.Meta.Parent
	e.SortKey = in.Meta.Order
	e.Content = in.Rendered

	h, err := s.m.Tree.Add(e, in.Parent)
	if err != nil {
		return nil, err
	}
	return []entity.Handle{h}, nil
}

// partition cuts nodes at every header whose level is in levels. A segment
// with level 0 is the preamble; it is dropped when it holds nothing but
// deferred covers.
func partition(nodes []*html.Node, levels map[int]bool) []segment {
	segments := []segment{{}}
	for _, n := range nodes {
		if lvl := htmlnode.HeadingLevel(n); lvl > 0 && levels[lvl] {
			prev := &segments[len(segments)-1]
			var covers []*html.Node
			prev.nodes, covers = trailingCovers(prev.nodes)
			segments = append(segments, segment{
				level: lvl,
				title: htmlnode.Text(n),
				nodes: append(covers, n),
			})
			continue
		}
		cur := &segments[len(segments)-1]
		cur.nodes = append(cur.nodes, n)
	}
	if isEmpty(segments[0].nodes) {
		segments = segments[1:]
	}
	return segments
}

// trailingCovers splits off the .cover elements (and blank nodes between them)
// at the end of nodes.
func trailingCovers(nodes []*html.Node) (rest, covers []*html.Node) {
	cut := len(nodes)
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if htmlnode.IsBlank(n) {
			continue
		}
		if !htmlnode.HasClass(n, "cover") {
			break
		}
		cut = i
	}
	var out []*html.Node
	for _, n := range nodes[cut:] {
		if !htmlnode.IsBlank(n) {
			out = append(out, n)
		}
	}
	return nodes[:cut], out
}

func isEmpty(nodes []*html.Node) bool {
	for _, n := range nodes {
		if !htmlnode.IsBlank(n) {
			return false
		}
	}
	return true
}

// ParseSelector parses a pagebreaks selector such as "h1,h2" into heading levels.
func ParseSelector(selector string) (map[int]bool, error) {
	levels := map[int]bool{}
	for _, part := range strings.Split(selector, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) != 2 || part[0] != 'h' || part[1] < '1' || part[1] > '6' {
			return nil, errors.StructuralError("unsupported selector").WithContext("selector", part).Build()
		}
		levels[int(part[1]-'0')] = true
	}
	return levels, nil
}

func pageMode(in Input) (entity.InclusionMode, error) {
	mode, err := entity.ParseInclusionMode(in.Meta.IncludeIn)
	if err != nil {
		return "", withFile(err, in.File)
	}
	if mode == entity.IncludeFiles {
		return "", errors.StructuralError("include-in: files is only valid for directories").
			WithContext("file", in.File).
			Build()
	}
	if mode == "" {
		mode = in.Mode
	}
	if mode == "" {
		mode = entity.IncludeAll
	}
	return mode, nil
}

// documentName picks the front matter name, then the first heading in nodes,
// then the title-cased file stem.
func documentName(in Input, nodes []*html.Node) string {
	if name := strings.TrimSpace(in.Meta.Name); name != "" {
		return name
	}
	for _, n := range nodes {
		if htmlnode.HeadingLevel(n) > 0 {
			if t := htmlnode.Text(n); t != "" {
				return t
			}
		}
	}
	return StemTitle(in.File)
}

// StemTitle turns "01_the-goblin_caves.md" into "01 The Goblin Caves".
func StemTitle(file string) string {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return cases.Title(language.Und).String(strings.Join(strings.Fields(stem), " "))
}

func withFile(err error, file string) error {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext("file", file)
	}
	return err
}
