package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/git"
	"git.home.luguber.info/inful/modbuilder/internal/workspace"
)

var testNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func newModule(t *testing.T, target entity.Target) *entity.Module {
	t.Helper()
	m, err := entity.NewModule("Sunken Keep", "sunken-keep", testNamespace, target)
	require.NoError(t, err)
	return m
}

func add(t *testing.T, m *entity.Module, kind entity.Kind, name string, parent entity.Handle) *entity.Entity {
	t.Helper()
	e, err := m.NewEntity(kind, name, "")
	require.NoError(t, err)
	_, err = m.Tree.Add(e, parent)
	require.NoError(t, err)
	return e
}

func sampleModule(t *testing.T, target entity.Target) *entity.Module {
	t.Helper()
	m := newModule(t, target)
	group := add(t, m, entity.KindContainer, "Chapter One", entity.NoHandle)
	intro := add(t, m, entity.KindPage, "Arrival", group.Handle)
	intro.Content = "<p>The gate is &amp; was shut.</p>"
	intro.Footer = "Sunken Keep"
	add(t, m, entity.KindPage, "Courtyard", group.Handle).Content = "<p>Weeds.</p>"
	return m
}

func TestModuleXML_NestsChildrenWithAttributes(t *testing.T) {
	m := sampleModule(t, entity.TargetPackage)
	p := &config.Project{Description: "A drowned ruin", Cover: "images/cover.png"}

	out := string(ModuleXML(m, p))
	group := m.Tree.Get(m.Tree.Roots()[0])
	children := m.Tree.Children(group.Handle)
	require.Len(t, children, 2)
	second := m.Tree.Get(children[1])

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<module id="`+testNamespace.String()+`">`)
	assert.Contains(t, out, "<description>A drowned ruin</description>")
	assert.Contains(t, out, "<image>images/cover.png</image>")
	assert.Contains(t, out, `<group id="`+group.ID.String()+`" sort="0">`)
	assert.Contains(t, out, `<page id="`+second.ID.String()+`" sort="1" parent="`+group.ID.String()+`">`)
	assert.Contains(t, out, "&lt;p&gt;The gate is &amp;amp; was shut.&lt;/p&gt;")

	// the pages are inside the group element
	groupStart := strings.Index(out, "<group ")
	groupEnd := strings.Index(out, "</group>")
	pageAt := strings.Index(out, "<slug>courtyard</slug>")
	assert.Greater(t, pageAt, groupStart)
	assert.Less(t, pageAt, groupEnd)
}

func TestModuleXML_MergesPayload(t *testing.T) {
	m := newModule(t, entity.TargetPackage)
	e := add(t, m, entity.KindMap, "Harbor", entity.NoHandle)
	e.Payload = `<layer>harbor/ground.png</layer>`

	out := string(ModuleXML(m, &config.Project{}))
	assert.Contains(t, out, "<layer>harbor/ground.png</layer>")
	assert.NotContains(t, out, "<image>")
}

func TestCompendiumXML(t *testing.T) {
	m := newModule(t, entity.TargetPackage)
	_, ok, err := CompendiumXML(m)
	require.NoError(t, err)
	assert.False(t, ok, "empty compendium is not written")

	goblin := &entity.Monster{Ident: entity.Ident{Name: "Goblin"}, AC: "15", HP: "7", Dex: 14,
		Actions: []entity.Feature{{Name: "Scimitar", Text: "+4 to hit"}}}
	require.NoError(t, m.Identify(&goblin.Ident))
	m.Monsters = append(m.Monsters, goblin)
	table := &entity.RollTable{Ident: entity.Ident{Name: "Loot"}, Dice: "d6",
		Rows: []entity.TableRow{{Min: 1, Max: 3, Result: "Copper"}, {Min: 4, Max: 6, Result: "Silver"}}}
	require.NoError(t, m.Identify(&table.Ident))
	m.Tables = append(m.Tables, table)

	data, ok, err := CompendiumXML(m)
	require.NoError(t, err)
	require.True(t, ok)
	out := string(data)
	assert.Contains(t, out, `<monster id="`+goblin.ID.String()+`">`)
	assert.Contains(t, out, "<slug>goblin</slug>")
	assert.Contains(t, out, "<dex>14</dex>")
	assert.Contains(t, out, "<action>")
	assert.Contains(t, out, `<row min="4" max="6">Silver</row>`)
}

func TestPrintHTML(t *testing.T) {
	m := sampleModule(t, entity.TargetPrint)
	out, err := PrintHTML(m, &config.Project{Cover: "cover.png"})
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, `<section class="page cover"><img src="cover.png"`)
	assert.Contains(t, doc, `<h1 class="group" id="chapter-one" data-depth="0">Chapter One</h1>`)
	assert.Contains(t, doc, `<section class="page" id="arrival">`)
	assert.Contains(t, doc, "<p>The gate is &amp; was shut.</p>")
	assert.Contains(t, doc, `<div class="footer">Sunken Keep</div>`)
	assert.Less(t, strings.Index(doc, "arrival"), strings.Index(doc, "courtyard"))
}

func TestWriteArchive_ReplacesAtomically(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "module.xml"), []byte("<module/>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "images"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "images", "a.png"), []byte("png"), 0o600))

	out := t.TempDir()
	dest := filepath.Join(out, "keep.module")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o600))
	require.NoError(t, WriteArchive(src, dest))

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"module.xml", "images/a.png"}, names)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary archive left behind")
}

func TestWriteArchive_MissingSourceLeavesNothing(t *testing.T) {
	out := t.TempDir()
	err := WriteArchive(filepath.Join(out, "missing"), filepath.Join(out, "keep.module"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryResource))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildManifest_Fingerprints(t *testing.T) {
	m := sampleModule(t, entity.TargetPackage)
	stamp := &git.Stamp{Commit: "abc123", Branch: "main"}

	first := BuildManifest(m, stamp)
	require.Len(t, first.Entities, 3)
	assert.Equal(t, "group", first.Entities[0].Kind)
	assert.Equal(t, "chapter-one", first.Entities[1].Parent)
	assert.NotEmpty(t, first.Entities[1].Fingerprint)

	again := BuildManifest(m, stamp)
	assert.Equal(t, first.Entities[1].Fingerprint, again.Entities[1].Fingerprint)

	page := m.Tree.Get(m.Tree.Children(m.Tree.Roots()[0])[0])
	page.Content = "<p>Changed.</p>"
	changed := BuildManifest(m, stamp)
	assert.NotEqual(t, first.Entities[1].Fingerprint, changed.Entities[1].Fingerprint)
	assert.Equal(t, first.Entities[2].Fingerprint, changed.Entities[2].Fingerprint)

	data, err := first.JSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "sunken-keep", decoded["slug"])
}

func newExporter(t *testing.T, p *config.Project) (*Exporter, *workspace.Manager, string) {
	t.Helper()
	out := t.TempDir()
	ws := workspace.NewManager(out)
	require.NoError(t, ws.Create())
	t.Cleanup(func() { _ = ws.Cleanup() })
	return New(p, ws, out, nil), ws, out
}

func TestExporter_Package(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "cover.png"), []byte("png"), 0o600))
	p := &config.Project{Root: root, Cover: "cover.png"}
	x, _, out := newExporter(t, p)

	res, err := x.Export(sampleModule(t, entity.TargetPackage))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "sunken-keep.module"), res.Archive)
	assert.FileExists(t, res.Manifest)

	zr, err := zip.OpenReader(res.Archive)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"module.xml", "cover.png"}, names)
}

func TestExporter_MissingCover(t *testing.T) {
	p := &config.Project{Root: t.TempDir(), Cover: "cover.png"}
	x, _, out := newExporter(t, p)

	_, err := x.Export(sampleModule(t, entity.TargetPackage))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryResource))
	assert.NoFileExists(t, filepath.Join(out, "sunken-keep.module"))
}

func TestExporter_Print(t *testing.T) {
	x, ws, out := newExporter(t, &config.Project{Root: t.TempDir()})

	res, err := x.Export(sampleModule(t, entity.TargetPrint))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "sunken-keep-print"), res.PrintDir)
	assert.FileExists(t, filepath.Join(res.PrintDir, PrintFile))
	assert.Empty(t, ws.Path(), "staging directory was promoted")
}

func TestExporter_ScanWritesNothing(t *testing.T) {
	x, _, out := newExporter(t, &config.Project{})
	res, err := x.Export(sampleModule(t, entity.TargetScan))
	require.NoError(t, err)
	assert.Empty(t, res.Archive)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the staging directory")
}
