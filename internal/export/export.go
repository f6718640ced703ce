// Package export serializes a resolved module: module.xml, compendium.xml,
// the print document, the archive and the build manifest.
package export

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/git"
	"git.home.luguber.info/inful/modbuilder/internal/workspace"
)

const (
	ModuleFile     = "module.xml"
	CompendiumFile = "compendium.xml"
	PrintFile      = "print.html"
	// ArchiveExt is the extension of packaged modules.
	ArchiveExt = ".module"
)

// Result lists the artifacts written by an export.
type Result struct {
	Archive  string
	PrintDir string
	Manifest string
}

// Exporter writes the artifacts of one build from its staging workspace.
type Exporter struct {
	project *config.Project
	stage   *workspace.Manager
	outDir  string
	stamp   *git.Stamp
}

// New returns an exporter writing final artifacts into outDir.
func New(p *config.Project, stage *workspace.Manager, outDir string, stamp *git.Stamp) *Exporter {
	return &Exporter{project: p, stage: stage, outDir: outDir, stamp: stamp}
}

// Export writes the artifacts for the module's target. The scan target
// exports nothing.
func (x *Exporter) Export(m *entity.Module) (*Result, error) {
	switch m.Target {
	case entity.TargetPackage:
		return x.pkg(m)
	case entity.TargetPrint:
		return x.print(m)
	}
	return &Result{}, nil
}

func (x *Exporter) pkg(m *entity.Module) (*Result, error) {
	if err := x.copyCover(); err != nil {
		return nil, err
	}
	if err := x.stage.Write(ModuleFile, ModuleXML(m, x.project)); err != nil {
		return nil, err
	}
	data, ok, err := CompendiumXML(m)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "cannot serialize compendium").Fatal().Build()
	}
	if ok {
		if err := x.stage.Write(CompendiumFile, data); err != nil {
			return nil, err
		}
	}

	archive := filepath.Join(x.outDir, m.Token+ArchiveExt)
	if err := WriteArchive(x.stage.Path(), archive); err != nil {
		return nil, err
	}
	manifest, err := x.writeManifest(m)
	if err != nil {
		return nil, err
	}
	return &Result{Archive: archive, Manifest: manifest}, nil
}

func (x *Exporter) print(m *entity.Module) (*Result, error) {
	if err := x.copyCover(); err != nil {
		return nil, err
	}
	doc, err := PrintHTML(m, x.project)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "cannot render print document").Fatal().Build()
	}
	if err := x.stage.Write(PrintFile, doc); err != nil {
		return nil, err
	}
	dir := filepath.Join(x.outDir, m.Token+"-print")
	if err := x.stage.Promote(dir); err != nil {
		return nil, err
	}
	manifest, err := x.writeManifest(m)
	if err != nil {
		return nil, err
	}
	return &Result{PrintDir: dir, Manifest: manifest}, nil
}

// copyCover stages the configured cover image. A configured cover that does
// not exist fails the export.
func (x *Exporter) copyCover() error {
	if x.project.Cover == "" {
		return nil
	}
	src := filepath.Join(x.project.Root, filepath.FromSlash(x.project.Cover))
	if _, err := os.Stat(src); err != nil {
		return errors.ResourceError("cover image not found").WithContext("path", x.project.Cover).Build()
	}
	return x.stage.CopyFile(x.project.Cover, src)
}

func (x *Exporter) writeManifest(m *entity.Module) (string, error) {
	data, err := BuildManifest(m, x.stamp).JSON()
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "cannot serialize manifest").Fatal().Build()
	}
	path := filepath.Join(x.outDir, m.Token+".manifest.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.WrapError(err, errors.CategoryResource, "cannot write manifest").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return path, nil
}

func coverPath(p *config.Project) string {
	return filepath.ToSlash(p.Cover)
}
