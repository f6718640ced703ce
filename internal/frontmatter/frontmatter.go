// Package frontmatter reads the YAML header of markdown documents and the
// per-directory group.yaml settings.
package frontmatter

import (
	"bytes"
	stderrors "errors"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// ErrMissingClosingDelimiter indicates the document opened a front matter block
// that is never closed.
var ErrMissingClosingDelimiter = stderrors.New("front matter start delimiter found but closing delimiter is missing")

// PageMeta is the front matter of a markdown document.
type PageMeta struct {
	Name      string `yaml:"name"`
	Slug      string `yaml:"slug"`
	Order     *int   `yaml:"order"`
	Parent    string `yaml:"parent"`
	IncludeIn string `yaml:"include-in"`
	// PageBreaks is the header selector that splits the document into pages.
	// nil inherits the directory setting; an empty string disables splitting.
	PageBreaks *string `yaml:"pagebreaks"`
	Footer     string  `yaml:"footer"`
}

// Split separates a `---` delimited YAML header from the markdown body. Without
// a header, had is false and body is the full input.
func Split(content []byte) (header []byte, body []byte, had bool, err error) {
	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}
	rest := content[len(open):]

	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closing := []byte(nl + "---")
	idx := bytes.Index(rest, closing)
	for idx >= 0 {
		after := rest[idx+len(closing):]
		switch {
		case len(after) == 0:
			return rest[:idx+len(nl)], nil, true, nil
		case bytes.HasPrefix(after, []byte(nl)):
			return rest[:idx+len(nl)], after[len(nl):], true, nil
		}
		next := bytes.Index(after, closing)
		if next < 0 {
			break
		}
		idx += len(closing) + next
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// Parse splits content and decodes its header into PageMeta. Malformed headers
// are structural errors naming file.
func Parse(file string, content []byte) (PageMeta, []byte, error) {
	var meta PageMeta
	header, body, had, err := Split(content)
	if err != nil {
		return meta, nil, errors.WrapError(err, errors.CategoryStructural, "invalid front matter").
			Fatal().
			WithContext("file", file).
			Build()
	}
	if !had || len(bytes.TrimSpace(header)) == 0 {
		return meta, body, nil
	}
	if err := yaml.Unmarshal(header, &meta); err != nil {
		return meta, nil, errors.WrapError(err, errors.CategoryStructural, "invalid front matter").
			Fatal().
			WithContext("file", file).
			Build()
	}
	return meta, body, nil
}
