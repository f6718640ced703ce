package export

import (
	"encoding/json"
	"fmt"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/git"
)

// Manifest records what a build produced.
type Manifest struct {
	ModuleID string           `json:"module_id"`
	Name     string           `json:"name"`
	Slug     string           `json:"slug"`
	Target   string           `json:"target"`
	Source   *git.Stamp       `json:"source,omitempty"`
	Entities []ManifestEntity `json:"entities"`
}

// ManifestEntity is one exported entity with the fingerprint of its content.
type ManifestEntity struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Parent      string `json:"parent,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// BuildManifest lists tree entities in tree order, then compendium entries.
func BuildManifest(m *entity.Module, stamp *git.Stamp) *Manifest {
	man := &Manifest{
		ModuleID: m.Namespace.String(),
		Name:     m.Name,
		Slug:     m.Token,
		Target:   string(m.Target),
		Source:   stamp,
	}
	m.Tree.Walk(func(e *entity.Entity, _ int) bool {
		parent := ""
		if p := m.Tree.Get(e.Parent); p != nil {
			parent = p.Token
		}
		body := e.Content
		if body == "" {
			body = e.Payload
		}
		man.Entities = append(man.Entities, ManifestEntity{
			Kind:        string(e.Kind),
			ID:          e.ID.String(),
			Slug:        e.Token,
			Name:        e.Name,
			Parent:      parent,
			Fingerprint: fingerprint(string(e.Kind), e.Token, e.Name, body),
		})
		return true
	})

	add := func(kind string, id entity.Ident, body string) {
		man.Entities = append(man.Entities, ManifestEntity{
			Kind:        kind,
			ID:          id.ID.String(),
			Slug:        id.Token,
			Name:        id.Name,
			Fingerprint: fingerprint(kind, id.Token, id.Name, body),
		})
	}
	for _, x := range m.Monsters {
		add("monster", x.Ident, authored(x))
	}
	for _, x := range m.Items {
		add("item", x.Ident, authored(x))
	}
	for _, x := range m.Spells {
		add("spell", x.Ident, authored(x))
	}
	for _, x := range m.Tables {
		add("table", x.Ident, authored(x.Rows))
	}
	return man
}

// authored serializes the authored fields of a compendium entry; identifiers
// and owners are tagged out of the YAML form.
func authored(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(out)
}

func fingerprint(kind, slug, name, body string) string {
	header := fmt.Sprintf("kind: %s\nname: %s\nslug: %s", kind, name, slug)
	return mdfp.CalculateFingerprintFromParts(header, body)
}

// JSON returns the indented manifest.
func (m *Manifest) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
