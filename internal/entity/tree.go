package entity

import (
	"slices"
	"sort"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// Tree is an arena of entities. Removed slots stay nil so handles are never reused.
type Tree struct {
	nodes []*Entity
	roots []Handle
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Add stores e in the arena and attaches it under parent (NoHandle = root).
func (t *Tree) Add(e *Entity, parent Handle) (Handle, error) {
	h := Handle(len(t.nodes))
	e.Handle = h
	e.Parent = NoHandle
	e.Children = nil
	t.nodes = append(t.nodes, e)
	if err := t.Attach(h, parent); err != nil {
		t.nodes[h] = nil
		return NoHandle, err
	}
	return h, nil
}

// Get returns the live entity for h, or nil.
func (t *Tree) Get(h Handle) *Entity {
	if h < 0 || int(h) >= len(t.nodes) {
		return nil
	}
	return t.nodes[h]
}

// Roots returns the root-level handles in order.
func (t *Tree) Roots() []Handle {
	return slices.Clone(t.roots)
}

// Children returns the child handles of h in order. NoHandle yields the roots.
func (t *Tree) Children(h Handle) []Handle {
	if h == NoHandle {
		return t.Roots()
	}
	if e := t.Get(h); e != nil {
		return slices.Clone(e.Children)
	}
	return nil
}

// Live returns every live handle in creation order.
func (t *Tree) Live() []Handle {
	out := make([]Handle, 0, len(t.nodes))
	for i, e := range t.nodes {
		if e != nil {
			out = append(out, Handle(i))
		}
	}
	return out
}

// Len returns the number of live entities.
func (t *Tree) Len() int {
	n := 0
	for _, e := range t.nodes {
		if e != nil {
			n++
		}
	}
	return n
}

// Attach moves child under parent (NoHandle = root), detaching it from its
// current parent first. The child is appended to the end of the new child list.
// Attaching an entity to itself is a structural error; deeper cycles are left
// for the resolver's cycle check.
func (t *Tree) Attach(child, parent Handle) error {
	c := t.Get(child)
	if c == nil {
		return errors.InternalError("attach of unknown entity").WithContext("handle", int(child)).Build()
	}
	if child == parent {
		return errors.StructuralError("entity is cyclic").
			WithContext("token", c.Token).
			Build()
	}
	var p *Entity
	if parent != NoHandle {
		if p = t.Get(parent); p == nil {
			return errors.InternalError("attach to unknown parent").WithContext("handle", int(parent)).Build()
		}
	}

	t.detach(c)
	c.Parent = parent
	if p == nil {
		t.roots = append(t.roots, child)
	} else {
		p.Children = append(p.Children, child)
	}
	return nil
}

// detach unlinks c from its parent's child list (or the roots) without
// attaching it anywhere else.
func (t *Tree) detach(c *Entity) {
	if c.Parent == NoHandle {
		t.roots = removeHandle(t.roots, c.Handle)
		return
	}
	if p := t.Get(c.Parent); p != nil {
		p.Children = removeHandle(p.Children, c.Handle)
	}
	c.Parent = NoHandle
}

// Remove deletes h and its whole subtree, returning every removed handle.
// The walk tracks visited handles so a corrupted (cyclic) subtree still terminates.
func (t *Tree) Remove(h Handle) []Handle {
	e := t.Get(h)
	if e == nil {
		return nil
	}
	t.detach(e)

	var removed []Handle
	visited := map[Handle]bool{}
	stack := []Handle{h}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		node := t.Get(cur)
		if node == nil {
			continue
		}
		stack = append(stack, node.Children...)
		t.nodes[cur] = nil
		removed = append(removed, cur)
	}
	return removed
}

// SortChildren stably orders the roots and every child list by sort key.
func (t *Tree) SortChildren() {
	t.sortList(t.roots)
	for _, e := range t.nodes {
		if e != nil {
			t.sortList(e.Children)
		}
	}
}

func (t *Tree) sortList(list []Handle) {
	sort.SliceStable(list, func(i, j int) bool {
		return t.nodes[list[i]].Sort() < t.nodes[list[j]].Sort()
	})
}

// Walk visits the tree depth-first in child order. fn returning false skips the
// subtree below that entity.
func (t *Tree) Walk(fn func(e *Entity, depth int) bool) {
	visited := map[Handle]bool{}
	var visit func(h Handle, depth int)
	visit = func(h Handle, depth int) {
		e := t.Get(h)
		if e == nil || visited[h] {
			return
		}
		visited[h] = true
		if !fn(e, depth) {
			return
		}
		for _, c := range e.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.roots {
		visit(r, 0)
	}
}

func removeHandle(list []Handle, h Handle) []Handle {
	if i := slices.Index(list, h); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}
