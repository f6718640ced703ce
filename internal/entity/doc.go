// Package entity holds the module being built: an arena of tree entities
// addressed by Handle, and the flat lists of compendium entries (monsters,
// items, spells, roll tables) discovered inside pages.
//
// Parent and child links are handles, never pointers, so reparenting, pruning
// and cycle checks are handle rewrites over the arena.
package entity
