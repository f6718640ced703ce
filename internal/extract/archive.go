package extract

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// unpack reads the archive at src. Every member except the payload document
// is written below dest (when dest is set); references to those members inside
// the payload are rewritten to live below prefix.
func unpack(ctx context.Context, src, dest, prefix string) (*payload, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ResourceError("archive not found").WithContext("path", src).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryResource, "cannot open archive").
			Fatal().
			WithContext("path", src).
			Build()
	}
	defer zr.Close()

	doc := payloadFile(zr.File)
	if doc == nil {
		return nil, errors.StructuralError("archive has no xml document").WithContext("path", src).Build()
	}

	members := map[string]bool{}
	for _, f := range zr.File {
		name := path.Clean(f.Name)
		if f == doc || f.FileInfo().IsDir() {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return nil, errors.StructuralError("archive member escapes its directory").
				WithContext("member", f.Name).
				Build()
		}
		members[name] = true
	}

	if dest != "" {
		if _, err := os.Stat(dest); err == nil {
			return nil, errors.ResourceError("extraction target already exists").WithContext("target", dest).Build()
		}
		if err := os.MkdirAll(dest, 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryResource, "cannot create extraction target").
				Fatal().
				WithContext("target", dest).
				Build()
		}
		for _, f := range zr.File {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !members[path.Clean(f.Name)] {
				continue
			}
			if err := writeMember(f, filepath.Join(dest, filepath.FromSlash(path.Clean(f.Name)))); err != nil {
				return nil, err
			}
		}
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryResource, "cannot read archive document").
			Fatal().
			WithContext("member", doc.Name).
			Build()
	}
	defer rc.Close()
	return rewrite(rc, members, prefix)
}

// payloadFile picks the document describing the map or encounter: a top-level
// .xml member, preferring the conventional names.
func payloadFile(files []*zip.File) *zip.File {
	var first *zip.File
	for _, f := range files {
		name := path.Clean(f.Name)
		if strings.Contains(name, "/") || !strings.EqualFold(path.Ext(name), ".xml") {
			continue
		}
		switch strings.ToLower(name) {
		case "map.xml", "encounter.xml", "module.xml":
			return f
		}
		if first == nil {
			first = f
		}
	}
	return first
}

func writeMember(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot read archive member").
			Fatal().
			WithContext("member", f.Name).
			Build()
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot write output").Fatal().WithContext("path", dst).Build()
	}
	out, err := os.Create(dst)
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot write output").Fatal().WithContext("path", dst).Build()
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return errors.WrapError(err, errors.CategoryResource, "cannot write output").Fatal().WithContext("path", dst).Build()
	}
	return out.Close()
}
