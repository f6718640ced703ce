package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

type payload struct {
	name string
	body string
}

// identity elements directly below the root are replaced by the module's own.
var identity = map[string]bool{"id": true, "name": true, "slug": true}

// rewrite returns the inner XML of the document root with member references
// prefixed, and the text of its <name> element.
func rewrite(r io.Reader, members map[string]bool, prefix string) (*payload, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	p := &payload{}

	depth := 0
	skip := 0
	var nameText strings.Builder
	capturing := false

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryStructural, "invalid archive document").Fatal().Build()
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if skip > 0 {
				skip++
				continue
			}
			if depth == 1 {
				continue
			}
			if depth == 2 && identity[t.Name.Local] {
				skip = 1
				capturing = t.Name.Local == "name"
				continue
			}
			t = flatten(t)
			for i, a := range t.Attr {
				t.Attr[i].Value = ref(a.Value, members, prefix)
			}
			if err := enc.EncodeToken(t); err != nil {
				return nil, encodeErr(err)
			}
		case xml.EndElement:
			depth--
			if skip > 0 {
				skip--
				if skip == 0 {
					capturing = false
				}
				continue
			}
			if depth == 0 {
				continue
			}
			if err := enc.EncodeToken(xml.EndElement{Name: flatName(t.Name)}); err != nil {
				return nil, encodeErr(err)
			}
		case xml.CharData:
			if capturing {
				nameText.Write(t)
			}
			if skip > 0 || depth < 1 {
				continue
			}
			if err := enc.EncodeToken(xml.CharData(ref(string(t), members, prefix))); err != nil {
				return nil, encodeErr(err)
			}
		case xml.Comment:
			if skip > 0 || depth < 1 {
				continue
			}
			if err := enc.EncodeToken(t.Copy()); err != nil {
				return nil, encodeErr(err)
			}
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, encodeErr(err)
	}
	p.name = strings.TrimSpace(nameText.String())
	p.body = strings.TrimSpace(buf.String())
	return p, nil
}

// ref prefixes value when it names an extracted member.
func ref(value string, members map[string]bool, prefix string) string {
	v := strings.TrimSpace(value)
	if v == "" || !members[path.Clean(v)] {
		return value
	}
	return strings.Replace(value, v, prefix+"/"+path.Clean(v), 1)
}

// flatten keeps namespace prefixes literally, as RawToken reports them.
func flatten(t xml.StartElement) xml.StartElement {
	out := xml.StartElement{Name: flatName(t.Name), Attr: make([]xml.Attr, len(t.Attr))}
	for i, a := range t.Attr {
		out.Attr[i] = xml.Attr{Name: flatName(a.Name), Value: a.Value}
	}
	return out
}

func flatName(n xml.Name) xml.Name {
	if n.Space == "" {
		return n
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}

func encodeErr(err error) error {
	return errors.WrapError(err, errors.CategoryInternal, "cannot re-encode archive document").Fatal().Build()
}
