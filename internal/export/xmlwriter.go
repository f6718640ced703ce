package export

import (
	"bytes"
	"encoding/xml"
	"strings"
)

type attr struct{ key, value string }

// xmlWriter emits indented XML and allows raw fragments to be merged in.
type xmlWriter struct {
	buf   bytes.Buffer
	depth int
}

func newXMLWriter() *xmlWriter {
	w := &xmlWriter{}
	w.buf.WriteString(xml.Header)
	return w
}

func (w *xmlWriter) indent() {
	w.buf.WriteString(strings.Repeat("  ", w.depth))
}

func (w *xmlWriter) start(tag string, attrs ...attr) {
	w.indent()
	w.buf.WriteByte('<')
	w.buf.WriteString(tag)
	for _, a := range attrs {
		if a.value == "" {
			continue
		}
		w.buf.WriteString(" " + a.key + `="`)
		_ = xml.EscapeText(&w.buf, []byte(a.value))
		w.buf.WriteByte('"')
	}
	w.buf.WriteString(">\n")
	w.depth++
}

func (w *xmlWriter) end(tag string) {
	w.depth--
	w.indent()
	w.buf.WriteString("</" + tag + ">\n")
}

// text writes <tag>value</tag>; empty values are skipped.
func (w *xmlWriter) text(tag, value string) {
	if value == "" {
		return
	}
	w.indent()
	w.buf.WriteString("<" + tag + ">")
	_ = xml.EscapeText(&w.buf, []byte(value))
	w.buf.WriteString("</" + tag + ">\n")
}

// raw merges an already serialized fragment.
func (w *xmlWriter) raw(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}
	w.indent()
	w.buf.WriteString(fragment)
	w.buf.WriteByte('\n')
}

func (w *xmlWriter) bytes() []byte {
	return w.buf.Bytes()
}
