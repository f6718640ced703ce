package entity

import (
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/modbuilder/internal/slug"
)

// Module is the root of one build: the entity arena, the per-build token
// registry, the identifier namespace and the flat compendium lists.
type Module struct {
	Name      string
	Token     string
	Namespace uuid.UUID
	Target    Target

	Tree     *Tree
	Registry *slug.Registry

	Monsters []*Monster
	Items    []*Item
	Spells   []*Spell
	Tables   []*RollTable
}

// NewModule starts a build. The module token is reserved first so no entity can
// claim it; a parent token equal to it means "the root".
func NewModule(name, token string, namespace uuid.UUID, target Target) (*Module, error) {
	reg := slug.NewRegistry()
	if token == "" {
		token = slug.Sanitize(name)
	}
	if err := reg.ReserveExplicit(token); err != nil {
		return nil, err
	}
	return &Module{
		Name:      name,
		Token:     token,
		Namespace: namespace,
		Target:    target,
		Tree:      NewTree(),
		Registry:  reg,
	}, nil
}

// assignToken reserves an authored token or derives one from name.
func (m *Module) assignToken(name, explicit string) (string, bool, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		if err := m.Registry.ReserveExplicit(explicit); err != nil {
			return "", false, err
		}
		return explicit, true, nil
	}
	return m.Registry.Reserve(slug.Sanitize(name)), false, nil
}

// NewEntity constructs an unattached entity with a reserved token and derived id.
func (m *Module) NewEntity(kind Kind, name, explicitToken string) (*Entity, error) {
	tok, explicit, err := m.assignToken(name, explicitToken)
	if err != nil {
		return nil, err
	}
	return &Entity{
		Handle:        NoHandle,
		Kind:          kind,
		Name:          name,
		Token:         tok,
		ExplicitToken: explicit,
		ID:            slug.DeriveID(m.Namespace, tok),
		Parent:        NoHandle,
		Mode:          IncludeAll,
	}, nil
}

// Identify reserves the token of a compendium entry (authored slug or derived
// from the name) and derives its id.
func (m *Module) Identify(id *Ident) error {
	tok, _, err := m.assignToken(id.Name, id.Token)
	if err != nil {
		return err
	}
	id.Token = tok
	id.ID = slug.DeriveID(m.Namespace, tok)
	return nil
}

// TokenIndex maps every live tree entity's token to its handle.
func (m *Module) TokenIndex() map[string]Handle {
	idx := make(map[string]Handle)
	for _, h := range m.Tree.Live() {
		idx[m.Tree.Get(h).Token] = h
	}
	return idx
}

// CompendiumSize returns the number of flat compendium entries.
func (m *Module) CompendiumSize() int {
	return len(m.Monsters) + len(m.Items) + len(m.Spells) + len(m.Tables)
}

// DropOwnedBy removes compendium entries whose owning page was removed and
// returns how many entries were dropped.
func (m *Module) DropOwnedBy(removed map[Handle]bool) int {
	before := m.CompendiumSize()
	m.Monsters = keepUnowned(m.Monsters, removed, func(x *Monster) Handle { return x.Owner })
	m.Items = keepUnowned(m.Items, removed, func(x *Item) Handle { return x.Owner })
	m.Spells = keepUnowned(m.Spells, removed, func(x *Spell) Handle { return x.Owner })
	m.Tables = keepUnowned(m.Tables, removed, func(x *RollTable) Handle { return x.Owner })
	return before - m.CompendiumSize()
}

func keepUnowned[T any](list []T, removed map[Handle]bool, owner func(T) Handle) []T {
	out := list[:0]
	for _, x := range list {
		if !removed[owner(x)] {
			out = append(out, x)
		}
	}
	return out
}
