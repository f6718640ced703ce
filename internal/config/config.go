// Package config loads module.yaml, the project configuration of a module.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/slug"
)

// FileName marks a project root.
const FileName = "module.yaml"

// DefaultOutput is the output directory used when module.yaml names none.
const DefaultOutput = "dist"

// Project is the configuration of one module.
type Project struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
	Category    string `yaml:"category,omitempty"`
	Code        string `yaml:"code,omitempty"`
	Cover       string `yaml:"cover,omitempty"`

	// IncludeIn is the inclusion mode inherited by top-level content.
	IncludeIn         string `yaml:"include-in,omitempty"`
	DeleteEmptyGroups bool   `yaml:"delete-empty-groups,omitempty"`
	AutoRollTables    bool   `yaml:"auto-roll-tables,omitempty"`
	// PageBreaks is the default header selector used to split documents.
	PageBreaks string `yaml:"pagebreaks,omitempty"`
	Footer     string `yaml:"footer,omitempty"`

	Maps       []ExternalRef `yaml:"maps,omitempty"`
	Encounters []ExternalRef `yaml:"encounters,omitempty"`

	// Output is the directory receiving build artifacts, relative to Root.
	Output string `yaml:"output,omitempty"`

	// Root is the absolute project directory; set by Load.
	Root string `yaml:"-"`
	// Mode is the parsed IncludeIn.
	Mode entity.InclusionMode `yaml:"-"`
}

// ExternalRef points at a map or encounter archive exported by another tool.
type ExternalRef struct {
	Name   string `yaml:"name,omitempty"`
	Slug   string `yaml:"slug,omitempty"`
	Path   string `yaml:"path"`
	Parent string `yaml:"parent,omitempty"`
	Order  *int   `yaml:"order,omitempty"`
}

// OutputDir returns the absolute output directory.
func (p *Project) OutputDir() string {
	if filepath.IsAbs(p.Output) {
		return p.Output
	}
	return filepath.Join(p.Root, p.Output)
}

// Load reads dir/module.yaml. A .env file next to it is loaded first (existing
// variables win) so ${VAR} references expand.
func Load(dir string) (*Project, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid project path").Fatal().Build()
	}
	if err := loadEnv(root); err != nil {
		return nil, err
	}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	var p Project
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &p); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
			Fatal().
			WithContext("path", path).
			Build()
	}
	p.Root = root

	applyDefaults(&p)
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func loadEnv(root string) error {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").
				Fatal().
				WithContext("path", path).
				Build()
		}
	}
	return nil
}

func applyDefaults(p *Project) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Slug == "" && p.Name != "" {
		p.Slug = slug.Sanitize(p.Name)
	}
	if p.Output == "" {
		p.Output = DefaultOutput
	}
	if p.IncludeIn == "" {
		p.IncludeIn = string(entity.IncludeAll)
	}
}

// Validate checks a loaded project and fills Mode.
func Validate(p *Project) error {
	if p.Name == "" {
		return errors.ConfigError("module name is required").WithContext("field", "name").Build()
	}
	mode, err := entity.ParseInclusionMode(p.IncludeIn)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid include-in").
			Fatal().
			WithContext("field", "include-in").
			Build()
	}
	if mode == entity.IncludeFiles {
		return errors.ConfigError("include-in: files is not valid for a module").WithContext("field", "include-in").Build()
	}
	p.Mode = mode

	for i, refs := range [][]ExternalRef{p.Maps, p.Encounters} {
		field := "maps"
		if i == 1 {
			field = "encounters"
		}
		for _, r := range refs {
			if strings.TrimSpace(r.Path) == "" {
				return errors.ConfigError("external reference without path").WithContext("field", field).Build()
			}
		}
	}
	if p.Cover != "" && filepath.IsAbs(p.Cover) {
		return errors.ConfigError("cover must be relative to the project").WithContext("field", "cover").Build()
	}
	return nil
}
