// Package errors provides the classified error primitives used across modbuilder.
//
// Every failure that aborts a build is a ClassifiedError carrying a category
// (structural, resource, config, validation, internal), a severity, and a small
// context map. The CLI adapter turns the category into an exit code.
//
// Example usage:
//
//	err := errors.StructuralError("duplicate token").
//		WithContext("token", tok).
//		Build()
package errors
