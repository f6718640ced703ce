package workspace

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/logfields"
)

// Manager owns one staging directory.
type Manager struct {
	baseDir string
	dir     string
}

// NewManager creates a manager staging below baseDir.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create makes a fresh staging directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "failed to create output directory").
			Fatal().
			WithContext("path", m.baseDir).
			Build()
	}
	dir, err := os.MkdirTemp(m.baseDir, ".staging-*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "failed to create staging directory").
			Fatal().
			WithContext("path", m.baseDir).
			Build()
	}
	m.dir = dir
	slog.Debug("Created staging directory", logfields.Path(dir))
	return nil
}

// Path returns the staging directory, or "" before Create.
func (m *Manager) Path() string {
	return m.dir
}

func (m *Manager) target(rel string) (string, error) {
	if m.dir == "" {
		return "", errors.InternalError("workspace not created").Build()
	}
	rel = filepath.FromSlash(rel)
	if rel != "." && !filepath.IsLocal(rel) {
		return "", errors.StructuralError("path escapes the module").WithContext("path", rel).Build()
	}
	return filepath.Join(m.dir, rel), nil
}

// Write stores data at rel inside the staging directory.
func (m *Manager) Write(rel string, data []byte) error {
	dst, err := m.target(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return writeErr(err, dst)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return writeErr(err, dst)
	}
	return nil
}

// CopyFile copies src to rel inside the staging directory.
func (m *Manager) CopyFile(rel, src string) error {
	dst, err := m.target(rel)
	if err != nil {
		return err
	}
	return copyFile(dst, src)
}

// CopyDir copies the tree at src to rel, skipping hidden entries.
func (m *Manager) CopyDir(rel, src string) error {
	dst, err := m.target(rel)
	if err != nil {
		return err
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapError(err, errors.CategoryResource, "cannot read directory").
				Fatal().
				WithContext("path", p).
				Build()
		}
		if p != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		sub, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := os.MkdirAll(filepath.Join(dst, sub), 0o750); err != nil {
				return writeErr(err, filepath.Join(dst, sub))
			}
			return nil
		}
		return copyFile(filepath.Join(dst, sub), p)
	})
}

// Promote replaces dest with the staging directory. The previous dest is moved
// aside and only removed once the new one is in place. The manager is empty
// afterwards.
func (m *Manager) Promote(dest string) error {
	if m.dir == "" {
		return errors.InternalError("workspace not created").Build()
	}
	backup := ""
	if _, err := os.Lstat(dest); err == nil {
		backup = filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+".old-"+strconv.FormatInt(time.Now().UnixNano(), 36))
		if err := os.Rename(dest, backup); err != nil {
			return writeErr(err, dest)
		}
	}
	if err := os.Rename(m.dir, dest); err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, dest); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Path(backup), logfields.Error(rerr))
			}
		}
		return writeErr(err, dest)
	}
	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			slog.Warn("Failed to remove previous output", logfields.Path(backup), logfields.Error(err))
		}
	}
	slog.Debug("Promoted staging directory", logfields.Path(dest))
	m.dir = ""
	return nil
}

// Cleanup removes the staging directory if it still exists.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "failed to clean up staging directory").
			WithContext("path", m.dir).
			Build()
	}
	slog.Debug("Cleaned up staging directory", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot read file").
			Fatal().
			WithContext("path", src).
			Build()
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return writeErr(err, dst)
	}
	out, err := os.Create(dst)
	if err != nil {
		return writeErr(err, dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return writeErr(err, dst)
	}
	if err := out.Close(); err != nil {
		return writeErr(err, dst)
	}
	return nil
}

func writeErr(err error, path string) error {
	return errors.WrapError(err, errors.CategoryResource, "cannot write output").
		Fatal().
		WithContext("path", path).
		Build()
}
