package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// FindProjectRoot returns the single project root at or below path. A path that
// holds module.yaml is returned as is; otherwise the tree is searched and more
// than one project below path is a structural error.
func FindProjectRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "invalid project path").Fatal().Build()
	}
	if _, err := os.Stat(filepath.Join(abs, FileName)); err == nil {
		return abs, nil
	}

	var roots []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != abs && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if _, statErr := os.Stat(filepath.Join(p, FileName)); statErr == nil {
			roots = append(roots, p)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryResource, "cannot search for project").
			Fatal().
			WithContext("path", abs).
			Build()
	}

	switch len(roots) {
	case 0:
		return "", errors.ConfigError("no module.yaml found").WithContext("path", abs).Build()
	case 1:
		return roots[0], nil
	default:
		return "", errors.StructuralError("more than one project found").
			WithContext("path", abs).
			WithContext("projects", strings.Join(roots, ", ")).
			Build()
	}
}
