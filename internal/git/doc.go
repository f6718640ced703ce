// Package git stamps build output with the commit of the project sources.
package git
