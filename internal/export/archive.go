package export

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// WriteArchive zips srcDir into dest. The archive is written to a temporary
// file next to dest and renamed into place only when complete, so dest is
// either the previous archive or the new one, never a partial file.
func WriteArchive(srcDir, dest string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot create archive").
			Fatal().
			WithContext("path", dest).
			Build()
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(srcDir, p)
		if relErr != nil {
			return relErr
		}
		return addFile(zw, filepath.ToSlash(rel), p)
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot write archive").
			Fatal().
			WithContext("path", dest).
			Build()
	}
	if err = zw.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot write archive").Fatal().WithContext("path", dest).Build()
	}
	if err = tmp.Sync(); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot write archive").Fatal().WithContext("path", dest).Build()
	}
	if err = tmp.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot write archive").Fatal().WithContext("path", dest).Build()
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot move archive into place").
			Fatal().
			WithContext("path", dest).
			Build()
	}
	return nil
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
