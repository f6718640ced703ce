// Package compendium parses the structured YAML blocks authored inside markdown
// (```monster, ```item, ```spell) into typed domain entities.
package compendium

import (
	"bytes"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// BlockKind names a fenced block language that carries a domain entity.
type BlockKind string

const (
	BlockMonster BlockKind = "monster"
	BlockItem    BlockKind = "item"
	BlockSpell   BlockKind = "spell"
)

var required = map[BlockKind][]string{
	BlockMonster: {"name", "ac", "hp"},
	BlockItem:    {"name", "type"},
	BlockSpell:   {"name", "level", "school"},
}

// IsBlock reports whether a fenced code block language is a domain entity block.
func IsBlock(lang string) (BlockKind, bool) {
	k := BlockKind(strings.ToLower(strings.TrimSpace(lang)))
	_, ok := required[k]
	return k, ok
}

// Result collects the entities parsed from one document in authoring order.
type Result struct {
	Monsters []*entity.Monster
	Items    []*entity.Item
	Spells   []*entity.Spell
}

// Len returns the number of collected entities.
func (r *Result) Len() int {
	return len(r.Monsters) + len(r.Items) + len(r.Spells)
}

// Parse decodes one block body and appends the entity to the result. The
// returned value is the decoded entity so callers can render it in place.
func (r *Result) Parse(kind BlockKind, src []byte) (any, error) {
	switch kind {
	case BlockMonster:
		m := &entity.Monster{}
		if err := decode(kind, src, m); err != nil {
			return nil, err
		}
		r.Monsters = append(r.Monsters, m)
		return m, nil
	case BlockItem:
		it := &entity.Item{}
		if err := decode(kind, src, it); err != nil {
			return nil, err
		}
		r.Items = append(r.Items, it)
		return it, nil
	case BlockSpell:
		sp := &entity.Spell{}
		if err := decode(kind, src, sp); err != nil {
			return nil, err
		}
		r.Spells = append(r.Spells, sp)
		return sp, nil
	}
	return nil, errors.InternalError("unknown block kind").WithContext("kind", string(kind)).Build()
}

// decode checks required fields first so every missing one is reported at once,
// then decodes strictly into the typed value.
func decode(kind BlockKind, src []byte, out any) error {
	var fields map[string]any
	if err := yaml.Unmarshal(src, &fields); err != nil {
		return errors.WrapError(err, errors.CategoryStructural, "invalid "+string(kind)+" block").
			Fatal().
			WithContext("kind", string(kind)).
			Build()
	}

	if missing := missingFields(required[kind], fields); len(missing) > 0 {
		return errors.StructuralError("invalid "+string(kind)+" block: missing "+strings.Join(missing, ", ")).
			WithContext("kind", string(kind)).
			WithContext("missing", missing).
			Build()
	}

	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return errors.WrapError(err, errors.CategoryStructural, "invalid "+string(kind)+" block").
			Fatal().
			WithContext("kind", string(kind)).
			Build()
	}
	return nil
}

func missingFields(want []string, fields map[string]any) []string {
	var missing []string
	for _, key := range want {
		v, ok := fields[key]
		if !ok || v == nil {
			missing = append(missing, key)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
