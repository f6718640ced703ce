package frontmatter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_SplitsHeaderAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nname: Intro\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("name: Intro\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\nname: Intro\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("name: Intro\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyHeader(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_HeaderOnly(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nname: Intro\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("name: Intro\n"), fm)
	require.Empty(t, body)
}

func TestSplit_DashesInsideValueDoNotClose(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nfooter: a\n----x\n---\nbody\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("footer: a\n----x\n"), fm)
	require.Equal(t, []byte("body\n"), body)
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse_TypedFields(t *testing.T) {
	meta, body, err := Parse("a.md", []byte("---\nname: Intro\nslug: intro\norder: 3\nparent: chapter-1\ninclude-in: pdf\npagebreaks: h1,h2\nfooter: Part One\n---\nbody\n"))
	require.NoError(t, err)
	require.Equal(t, "Intro", meta.Name)
	require.Equal(t, "intro", meta.Slug)
	require.NotNil(t, meta.Order)
	require.Equal(t, 3, *meta.Order)
	require.Equal(t, "chapter-1", meta.Parent)
	require.Equal(t, "pdf", meta.IncludeIn)
	require.NotNil(t, meta.PageBreaks)
	require.Equal(t, "h1,h2", *meta.PageBreaks)
	require.Equal(t, "Part One", meta.Footer)
	require.Equal(t, []byte("body\n"), body)
}

func TestParse_InvalidYAMLIsStructural(t *testing.T) {
	_, _, err := Parse("bad.md", []byte("---\nname: [unclosed\n---\nbody\n"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryStructural))
}

func TestLoadGroup(t *testing.T) {
	dir := t.TempDir()

	_, found, err := LoadGroup(filepath.Join(dir, GroupFile))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, os.WriteFile(filepath.Join(dir, GroupFile), []byte("name: Appendix\ncopy-files: false\ninclude-in: print\n"), 0o600))
	g, found, err := LoadGroup(filepath.Join(dir, GroupFile))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Appendix", g.Name)
	require.False(t, g.ShouldCopyFiles())
	require.Equal(t, "print", g.IncludeIn)

	require.True(t, GroupSettings{}.ShouldCopyFiles())
}
