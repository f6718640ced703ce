package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/modbuilder/internal/compendium"
)

// blockRenderer replaces fenced monster/item/spell blocks with stat blocks and
// records the decoded entities. Other fenced blocks render as plain code.
type blockRenderer struct {
	doc     *Document
	lenient bool
}

func (r *blockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *blockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := string(n.Language(source))
	body := blockBody(n, source)

	kind, ok := compendium.IsBlock(lang)
	if !ok {
		writeCode(w, lang, body)
		return ast.WalkSkipChildren, nil
	}

	v, err := r.doc.Blocks.Parse(kind, body)
	if err != nil {
		if !r.lenient {
			return ast.WalkStop, err
		}
		r.doc.Warnings = append(r.doc.Warnings, err)
		_, _ = w.WriteString(compendium.ErrorHTML(err))
		_ = w.WriteByte('\n')
		return ast.WalkSkipChildren, nil
	}
	out, err := compendium.HTML(v)
	if err != nil {
		return ast.WalkStop, err
	}
	_, _ = w.WriteString(out)
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}

func blockBody(n *ast.FencedCodeBlock, source []byte) []byte {
	var out []byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(source)...)
	}
	return out
}

func writeCode(w util.BufWriter, lang string, body []byte) {
	_, _ = w.WriteString("<pre><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(">")
	_, _ = w.Write(util.EscapeHTML(body))
	_, _ = w.WriteString("</code></pre>\n")
}
