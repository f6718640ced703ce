package entity

import "github.com/google/uuid"

// Kind tags the concrete variant of a tree entity.
type Kind string

const (
	KindContainer Kind = "group"
	KindPage      Kind = "page"
	KindMap       Kind = "map"
	KindEncounter Kind = "encounter"
)

// Plural is the collection name used for output directories ("maps").
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Handle addresses an entity inside a Tree.
type Handle int

// NoHandle is the parent of root-level entities.
const NoHandle Handle = -1

// DefaultSortKey is used for entities without an authored sort key.
const DefaultSortKey = 1000

// Entity is a node of the module tree.
type Entity struct {
	Handle Handle
	Kind   Kind

	Name  string
	Token string
	// ExplicitToken is true when Token was authored rather than derived.
	ExplicitToken bool
	ID            uuid.UUID

	Parent Handle
	// ParentToken is an authored parent override, resolved after traversal.
	ParentToken string
	Children    []Handle

	SortKey *int
	Mode    InclusionMode

	// Source is the path of the originating file or directory, relative to the project root.
	Source string

	// CopyFiles is set on containers whose directory assets are copied verbatim.
	CopyFiles bool
	// Content is the rendered HTML body of a page.
	Content string
	// Footer is the per-page footer text used by the print target.
	Footer string
	// Payload is the raw XML body merged from an external map or encounter archive.
	Payload string
}

// Sort returns the effective sort key.
func (e *Entity) Sort() int {
	if e.SortKey == nil {
		return DefaultSortKey
	}
	return *e.SortKey
}

// IntPtr is a small helper for optional sort keys.
func IntPtr(v int) *int { return &v }
