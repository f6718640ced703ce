package markdown

import (
	"bytes"
	"html"
	"strings"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
)

const (
	directivePageBreak   = `\pagebreak`
	directiveColumnBreak = `\columnbreak`
	directiveCover       = `\cover`
)

// preprocess replaces directive lines with raw HTML blocks. Lines inside fenced
// code are left alone.
func preprocess(src []byte, rc Context, doc *Document) []byte {
	lines := bytes.SplitAfter(src, []byte("\n"))
	var out bytes.Buffer
	fence := ""
	for _, raw := range lines {
		line := strings.TrimRight(string(raw), "\r\n")
		trimmed := strings.TrimSpace(line)

		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(trimmed, fence) && strings.TrimLeft(trimmed, fence[:1]) == "":
				fence = ""
			}
			out.Write(raw)
			continue
		}
		if fence != "" {
			out.Write(raw)
			continue
		}

		switch {
		case trimmed == directivePageBreak:
			out.WriteString("\n")
			if rc.Target == entity.TargetPrint && rc.Footer != "" {
				out.WriteString(FooterHTML(rc.Footer))
				out.WriteString("\n")
			}
			out.WriteString("<div class=\"page-break\"></div>\n\n")
		case trimmed == directiveColumnBreak:
			out.WriteString("\n<div class=\"column-break\"></div>\n\n")
		case strings.HasPrefix(trimmed, directiveCover+" "):
			ref := strings.TrimSpace(strings.TrimPrefix(trimmed, directiveCover))
			ref = ResolveAsset(rc.SourceDir, ref)
			doc.Covers = append(doc.Covers, ref)
			out.WriteString("\n<div class=\"cover\"><img src=\"" + html.EscapeString(ref) + "\"></div>\n\n")
		default:
			out.Write(raw)
		}
	}
	return out.Bytes()
}

// FooterHTML renders a print footer.
func FooterHTML(text string) string {
	return `<div class="footer">` + html.EscapeString(text) + `</div>`
}

func fenceMarker(trimmed string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, m) {
			n := len(trimmed) - len(strings.TrimLeft(trimmed, m[:1]))
			return strings.Repeat(m[:1], n)
		}
	}
	return ""
}
