// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package mwa

import "github.com/petenewcomb/mwa-go/internal/spin"

// An Iterator references one node of a [List]. It stays usable after its
// node is removed from the list: the node reports [Iterator.IsDeleted], any
// update through the iterator fails, and advancing steps back into the live
// list at the point the node was unlinked. Iterators are values; compare
// them with ==, which matches exactly when they reference the same node.
// The zero Iterator is invalid and marks the position past the end.
type Iterator[T any] struct {
	cell *Cell[node[T]]
}

// Valid reports whether the iterator references a node.
func (it Iterator[T]) Valid() bool {
	return it.cell != nil
}

// Next returns an iterator to the successor node, or an invalid iterator at
// the end of the list. Advancing an invalid iterator yields an invalid
// iterator.
func (it Iterator[T]) Next() Iterator[T] {
	if it.cell == nil {
		return it
	}
	return Iterator[T]{cell: Read(it.cell, func(n *node[T]) *Cell[node[T]] {
		return n.next
	})}
}

// Value returns a copy of the node's data.
func (it Iterator[T]) Value() T {
	it.mustBeValid()
	return Read(it.cell, func(n *node[T]) T {
		return n.data
	})
}

// IsLocked reports whether the node is currently reserved by a removal, or
// was removed already.
func (it Iterator[T]) IsLocked() bool {
	it.mustBeValid()
	return Read(it.cell, func(n *node[T]) bool {
		return n.locked
	})
}

// IsDeleted reports whether the node has been unlinked from its list. The
// flag is sticky: once observed true it never reverts.
func (it Iterator[T]) IsDeleted() bool {
	it.mustBeValid()
	return Read(it.cell, func(n *node[T]) bool {
		return n.deleted
	})
}

// TryUpdate makes one attempt to update the node's data in place, with the
// same semantics as [Cell.TryUpdate]. It vetoes when the node has been
// removed from the list.
func (it Iterator[T]) TryUpdate(fn func(*T) bool) bool {
	if fn == nil {
		panic("update function must be non-nil")
	}
	it.mustBeValid()
	return it.cell.TryUpdate(func(n *node[T]) bool {
		if n.deleted {
			return false
		}
		return fn(&n.data)
	})
}

// Update retries TryUpdate until it succeeds or the node is observed
// deleted, and reports which.
func (it Iterator[T]) Update(fn func(*T) bool) bool {
	var y spin.Yielder
	for {
		if it.TryUpdate(fn) {
			return true
		}
		if it.IsDeleted() {
			return false
		}
		y.Yield()
	}
}

func (it Iterator[T]) mustBeValid() {
	if it.cell == nil {
		panic("iterator is not valid")
	}
}
