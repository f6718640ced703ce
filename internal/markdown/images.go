package markdown

import (
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// imageRewriter prefixes relative image destinations with the document's folder
// so they resolve from the module root.
type imageRewriter struct {
	dir string
}

func (t *imageRewriter) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	if t.dir == "" || t.dir == "." {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			img.Destination = []byte(ResolveAsset(t.dir, string(img.Destination)))
		}
		return ast.WalkContinue, nil
	})
}

// ResolveAsset joins a reference found in a document under dir with dir.
// Absolute paths, URLs and fragments are returned unchanged.
func ResolveAsset(dir, ref string) string {
	if ref == "" || dir == "" || dir == "." || !IsRelative(ref) {
		return ref
	}
	return path.Join(dir, ref)
}

// IsRelative reports whether ref points into the project rather than at a URL
// or an absolute path.
func IsRelative(ref string) bool {
	if strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "data:") {
		return false
	}
	return !strings.Contains(ref, "://")
}
