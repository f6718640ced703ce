// Package markdown renders authored markdown bodies to HTML for module pages.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/modbuilder/internal/compendium"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// Context is the per-document render state. It is passed explicitly on every
// call; nothing about the previous document leaks into the next one.
type Context struct {
	Target entity.Target
	// Footer is emitted before every page break when rendering for print.
	Footer string
	// SourceDir is the document's folder relative to the project root. Relative
	// image references are rewritten against it.
	SourceDir string
}

// Document is the result of rendering one markdown body.
type Document struct {
	HTML string
	// Blocks holds the domain entities found in fenced blocks, in document order.
	Blocks compendium.Result
	// Warnings are block errors rendered inline by lenient targets.
	Warnings []error
	// Covers are the project-relative cover images the document references.
	Covers []string
}

// Renderer converts a markdown body to HTML plus its side channel of entities.
type Renderer interface {
	Render(src []byte, rc Context) (*Document, error)
}

// Goldmark is the Renderer used by builds.
type Goldmark struct{}

// NewRenderer returns the goldmark backed renderer.
func NewRenderer() *Goldmark {
	return &Goldmark{}
}

// Render renders src. Block errors abort the render unless the target is lenient,
// in which case they are rendered inline and returned as Document.Warnings.
func (g *Goldmark) Render(src []byte, rc Context) (*Document, error) {
	doc := &Document{}
	pre := preprocess(src, rc, doc)

	blocks := &blockRenderer{doc: doc, lenient: rc.Target.Lenient()}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&imageRewriter{dir: rc.SourceDir}, 100)),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(blocks, 100)),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert(pre, &buf); err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryInternal, "markdown render failed").Fatal().Build()
	}
	doc.HTML = buf.String()
	return doc, nil
}
