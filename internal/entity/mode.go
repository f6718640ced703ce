package entity

import (
	"git.home.luguber.info/inful/modbuilder/internal/foundation"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// InclusionMode selects which build targets keep an entity and its subtree.
type InclusionMode string

const (
	IncludeAll     InclusionMode = "all"
	IncludePrint   InclusionMode = "print"
	IncludePackage InclusionMode = "module"
	// IncludeFiles is only valid on directories: copy the files, build no entities.
	IncludeFiles InclusionMode = "files"
)

var inclusionModes = foundation.NewNormalizer(map[string]InclusionMode{
	"all":     IncludeAll,
	"print":   IncludePrint,
	"pdf":     IncludePrint,
	"module":  IncludePackage,
	"package": IncludePackage,
	"files":   IncludeFiles,
}, "")

// ParseInclusionMode parses an authored include-in value. Empty input yields ""
// (meaning "inherit"); unknown values are structural errors.
func ParseInclusionMode(raw string) (InclusionMode, error) {
	mode, err := inclusionModes.NormalizeWithError(raw)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryStructural, "invalid inclusion mode").
			Fatal().
			WithContext("include-in", raw).
			Build()
	}
	return mode, nil
}

// Target is the kind of build being run.
type Target string

const (
	TargetPackage Target = "package"
	TargetPrint   Target = "print"
	// TargetScan runs the package pipeline without writing any output.
	TargetScan Target = "scan"
)

var targets = foundation.NewNormalizer(map[string]Target{
	"package": TargetPackage,
	"module":  TargetPackage,
	"print":   TargetPrint,
	"pdf":     TargetPrint,
	"scan":    TargetScan,
}, TargetPackage)

// ParseTarget parses a CLI target selector; empty input selects the package target.
func ParseTarget(raw string) (Target, error) {
	t, err := targets.NormalizeWithError(raw)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "invalid build target").Fatal().Build()
	}
	return t, nil
}

// Keeps reports whether an entity with mode m survives into this target.
func (t Target) Keeps(m InclusionMode) bool {
	switch m {
	case "", IncludeAll:
		return true
	case IncludePrint:
		return t == TargetPrint
	case IncludePackage:
		return t == TargetPackage || t == TargetScan
	default:
		return false
	}
}

// WritesOutput reports whether the target produces files.
func (t Target) WritesOutput() bool {
	return t != TargetScan
}

// Lenient reports whether content errors should be rendered inline instead of
// aborting the build.
func (t Target) Lenient() bool {
	return t == TargetScan
}
