// Package build runs the module pipeline: configuration, directory walk,
// external extraction, tree resolution, link check and export.
//
// All entry points (build, scan, watch) route through Builder.Run. A build
// stages its output in a private directory below the output directory and
// only replaces the previous artifacts once every stage succeeded; the output
// directory is locked for the duration so concurrent builds of the same
// project fail fast instead of interleaving.
package build
