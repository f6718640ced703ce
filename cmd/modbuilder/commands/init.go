package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Directory to create the project in"`
	Force bool   `help:"Overwrite an existing module.yaml"`
}

func (i *InitCmd) Run(_ *Global) error {
	if err := os.MkdirAll(i.Dir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot create project directory").
			Fatal().
			WithContext("path", i.Dir).
			Build()
	}
	fmt.Printf("Writing %s\n", filepath.Join(i.Dir, config.FileName))
	if err := config.Init(i.Dir, i.Force); err != nil {
		return err
	}
	fmt.Println("Project initialized; run 'modbuilder build' to package it")
	return nil
}
