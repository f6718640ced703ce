// Package resolve finalises a module tree after traversal: explicit
// reparenting, target filtering, empty-container pruning, cycle detection and
// deterministic ordering.
package resolve

import (
	"log/slog"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/logfields"
)

// MaxDepth bounds parent chains; a longer chain is treated as a cycle.
const MaxDepth = 50

// Options selects the optional passes.
type Options struct {
	DeleteEmptyGroups bool
}

// Report summarises what the passes changed.
type Report struct {
	Reparented int
	// Unresolved lists parent tokens that matched no entity.
	Unresolved []string
	Filtered   int
	Pruned     int
	Dropped    int
}

// Resolve runs every pass in order.
func Resolve(m *entity.Module, opts Options) (Report, error) {
	var r Report
	var err error
	if r.Reparented, r.Unresolved, err = Reparent(m); err != nil {
		return r, err
	}
	if err := CheckCycles(m); err != nil {
		return r, err
	}
	r.Filtered, r.Dropped = Filter(m)
	if opts.DeleteEmptyGroups {
		r.Pruned = Prune(m)
	}
	Sort(m)
	return r, nil
}

// Reparent moves every entity with a parent token under the entity owning that
// token. The module token means the root. A token that matches nothing moves
// the entity to the root and is reported as unresolved.
func Reparent(m *entity.Module) (int, []string, error) {
	idx := m.TokenIndex()
	moved := 0
	var unresolved []string
	for _, h := range m.Tree.Live() {
		e := m.Tree.Get(h)
		if e == nil || e.ParentToken == "" {
			continue
		}
		target := entity.NoHandle
		if e.ParentToken != m.Token {
			p, ok := idx[e.ParentToken]
			if !ok {
				unresolved = append(unresolved, e.ParentToken)
				slog.Warn("Unresolved parent token",
					logfields.Token(e.Token),
					logfields.Parent(e.ParentToken),
					logfields.File(e.Source))
			} else {
				target = p
			}
		}
		if err := m.Tree.Attach(h, target); err != nil {
			return moved, unresolved, err
		}
		moved++
	}
	return moved, unresolved, nil
}

// Filter removes every entity (with its subtree) that the module target does not
// keep, together with the compendium entries owned by removed pages. Running it
// twice changes nothing the second time.
func Filter(m *entity.Module) (removed, dropped int) {
	gone := map[entity.Handle]bool{}
	for _, h := range m.Tree.Live() {
		e := m.Tree.Get(h)
		if e == nil || m.Target.Keeps(e.Mode) {
			continue
		}
		for _, r := range m.Tree.Remove(h) {
			gone[r] = true
		}
	}
	if len(gone) == 0 {
		return 0, 0
	}
	return len(gone), m.DropOwnedBy(gone)
}

// Prune removes containers without children until none is left. A container
// emptied by an earlier removal is removed in a later round.
func Prune(m *entity.Module) int {
	total := 0
	for {
		removed := 0
		for _, h := range m.Tree.Live() {
			e := m.Tree.Get(h)
			if e == nil || e.Kind != entity.KindContainer || len(e.Children) > 0 {
				continue
			}
			slog.Debug("Pruning empty container", logfields.Token(e.Token))
			removed += len(m.Tree.Remove(h))
		}
		if removed == 0 {
			return total
		}
		total += removed
	}
}

// CheckCycles follows every entity's parent chain. Reaching the entity itself
// or exceeding MaxDepth is a structural error.
func CheckCycles(m *entity.Module) error {
	for _, h := range m.Tree.Live() {
		e := m.Tree.Get(h)
		cur := e.Parent
		for depth := 0; cur != entity.NoHandle; depth++ {
			if cur == h {
				return errors.StructuralError("entity is cyclic").
					WithContext("token", e.Token).
					Build()
			}
			if depth >= MaxDepth {
				return errors.StructuralError("entity is probably cyclic: parent chain too deep").
					WithContext("token", e.Token).
					WithContext("max_depth", MaxDepth).
					Build()
			}
			p := m.Tree.Get(cur)
			if p == nil {
				return errors.InternalError("dangling parent").WithContext("token", e.Token).Build()
			}
			cur = p.Parent
		}
	}
	return nil
}

// Sort stably orders every sibling list by sort key.
func Sort(m *entity.Module) {
	m.Tree.SortChildren()
}
