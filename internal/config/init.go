package config

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

const samplePage = `---
name: Introduction
order: 1
---
# Introduction

Welcome to the adventure.

## Background

Describe the setting here.

` + "```monster" + `
name: Goblin
ac: 15 (leather armor, shield)
hp: 7 (2d6)
str: 8
dex: 14
con: 10
int: 10
wis: 8
cha: 8
cr: 1/4
` + "```" + `
`

// Init writes an example project into dir.
func Init(dir string, force bool) error {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Project{
		ID:                uuid.NewString(),
		Name:              "My Adventure",
		Slug:              "my-adventure",
		Description:       "A short adventure",
		Author:            "Unknown",
		Category:          "adventure",
		PageBreaks:        "h1",
		DeleteEmptyGroups: true,
		AutoRollTables:    true,
		Output:            DefaultOutput,
	}
	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Fatal().Build()
	}

	if err := os.MkdirAll(filepath.Join(dir, "chapters"), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot create project directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	files := map[string][]byte{
		path: data,
		filepath.Join(dir, "chapters", "introduction.md"): []byte(samplePage),
	}
	for name, content := range files {
		if err := os.WriteFile(name, content, 0o600); err != nil {
			return errors.WrapError(err, errors.CategoryResource, "cannot write file").
				Fatal().
				WithContext("path", name).
				Build()
		}
	}
	return nil
}
