// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package mwa

import (
	"github.com/petenewcomb/mwa-go/internal/slotpool"
	"github.com/petenewcomb/mwa-go/internal/spin"
)

// node is the list's element type, stored inside a Cell so every field
// change goes through the cell's copy-and-publish protocol. The zero node
// is the sentinel head: never locked, never deleted, holding no user data.
//
// locked reserves the node for a would-be deleter; a locked node is never
// the target of an insertion after it or a deletion of it. deleted is the
// tombstone, set only after the node has been unlinked, and sticky.
type node[T any] struct {
	locked  bool
	deleted bool
	data    T
	next    *Cell[node[T]]
}

// List is a concurrent singly linked list built from one [Cell] per node.
// All node cells share one slot pool, so the pool's capacity scales the
// whole list rather than each element. Nodes stay reachable through
// outstanding iterators after removal; the garbage collector frees a node
// once the last iterator referencing it is gone.
type List[T any] struct {
	q    *slotpool.Queue[node[T]]
	head *Cell[node[T]]
}

// NewList creates an empty list whose node cells share a pool of
// queueCapacity slots. Capacity must be a power of two and at least 2: a
// removal nests two slot acquisitions, one for the predecessor's update and
// one for locking the victim.
func NewList[T any](queueCapacity int) *List[T] {
	if queueCapacity < 2 {
		panic("list queue capacity must be at least 2")
	}
	q := slotpool.New[node[T]](queueCapacity)
	return &List[T]{
		q:    q,
		head: newCellIn(q, node[T]{}),
	}
}

// Begin returns an iterator at the sentinel head. The head holds no user
// data; the first element is Begin().Next().
func (l *List[T]) Begin() Iterator[T] {
	return Iterator[T]{cell: l.head}
}

// TryInsertAfter makes one attempt to insert v after pos. It fails when the
// node at pos is locked by a pending removal, or for any of the transient
// reasons [Cell.TryUpdate] can fail; retry with a fresh iterator. On
// success it returns an iterator to the new node.
func (l *List[T]) TryInsertAfter(pos Iterator[T], v T) (Iterator[T], bool) {
	if pos.cell == nil {
		panic("position iterator must be valid")
	}
	var created *Cell[node[T]]
	ok := pos.cell.TryUpdate(func(n *node[T]) bool {
		if n.locked {
			return false
		}
		// The new node is built inside the attempt so its next link is the
		// successor the commit CAS will verify. Its initial value comes
		// from the ordinary heap, not the slot pool.
		created = newCellIn(l.q, node[T]{data: v, next: n.next})
		n.next = created
		return true
	})
	if !ok {
		return Iterator[T]{}, false
	}
	return Iterator[T]{cell: created}, true
}

// PushFront inserts v at the front of the list, retrying until it lands,
// and returns an iterator to the new node. The head is never locked, so
// only transient contention can delay it.
func (l *List[T]) PushFront(v T) Iterator[T] {
	var y spin.Yielder
	for {
		if it, ok := l.TryInsertAfter(l.Begin(), v); ok {
			return it
		}
		y.Yield()
	}
}

// TryEraseAfter makes one attempt to remove the successor of pos. Removal
// is two-step: first the victim is reserved by setting its locked flag
// through its own cell, then it is unlinked through the predecessor's cell.
// A plain unlink would lose races with writers updating the victim, whose
// refreshed next link could resurrect it. Once locked, the victim can
// neither gain an insertion after it nor be chosen as a victim again by a
// retrying deleter that rediscovers it through a different predecessor.
//
// On success the victim carries its tombstone (deleted, and therefore still
// locked) and an iterator to it is returned so callers can observe the
// removed value. On failure nothing is visibly changed; if the victim had
// already been locked here, it is unlocked again before returning.
func (l *List[T]) TryEraseAfter(pos Iterator[T]) (Iterator[T], bool) {
	if pos.cell == nil {
		panic("position iterator must be valid")
	}
	var victim *Cell[node[T]]
	ok := pos.cell.TryUpdate(func(n *node[T]) bool {
		if n.locked {
			return false
		}
		victim = n.next
		if victim == nil {
			return false
		}
		// Step one: reserve the victim through its own cell. Nested
		// TryUpdate, hence the pool capacity floor of 2.
		reserved := victim.TryUpdate(func(vn *node[T]) bool {
			if vn.locked {
				return false
			}
			vn.locked = true
			return true
		})
		if !reserved {
			victim = nil
			return false
		}
		// Step two: unlink. The victim is locked, so its next link is
		// frozen and safe to splice over.
		n.next = Read(victim, func(vn *node[T]) *Cell[node[T]] {
			return vn.next
		})
		return true
	})
	if !ok {
		if victim != nil {
			// Locked the victim but the predecessor's commit failed; roll
			// the reservation back so the node is usable again.
			victim.Update(func(vn *node[T]) bool {
				vn.locked = false
				return true
			})
		}
		return Iterator[T]{}, false
	}
	victim.Update(func(vn *node[T]) bool {
		vn.deleted = true
		return true
	})
	return Iterator[T]{cell: victim}, true
}

// PopFront removes the first element, retrying past transient failures,
// and returns an iterator to the removed node. It returns false once the
// list is observed empty.
func (l *List[T]) PopFront() (Iterator[T], bool) {
	var y spin.Yielder
	for {
		if l.Empty() {
			return Iterator[T]{}, false
		}
		if it, ok := l.TryEraseAfter(l.Begin()); ok {
			return it, true
		}
		y.Yield()
	}
}

// Len walks the list and counts elements, excluding the sentinel head. The
// count is best-effort under concurrent mutation: nodes inserted or removed
// mid-walk may or may not be included.
func (l *List[T]) Len() int {
	n := 0
	for it := l.Begin().Next(); it.Valid(); it = it.Next() {
		n++
	}
	return n
}

// Empty reports whether the list had no elements at the moment of the
// check.
func (l *List[T]) Empty() bool {
	return !l.Begin().Next().Valid()
}

// Clear removes elements from the front until the list is empty. A node
// held permanently locked from outside the removal protocol prevents Clear
// from getting past it.
func (l *List[T]) Clear() {
	for {
		if _, ok := l.PopFront(); !ok {
			return
		}
	}
}
