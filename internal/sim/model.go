// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import "github.com/gammazero/deque"

// ListModel is the sequential reference a state-machine test compares the
// concurrent list against. Positions are counted in elements past the
// sentinel head: position 0 is the head itself, so InsertAfter(0, v) puts v
// at the front.
type ListModel[T any] struct {
	d deque.Deque[T]
}

// Len returns the number of elements.
func (m *ListModel[T]) Len() int {
	return m.d.Len()
}

// InsertAfter inserts v after position pos. It reports false when pos is
// past the end, mirroring an insert attempt through an invalid iterator.
func (m *ListModel[T]) InsertAfter(pos int, v T) bool {
	if pos < 0 || pos > m.d.Len() {
		return false
	}
	m.d.Insert(pos, v)
	return true
}

// EraseAfter removes the element following position pos and returns it. It
// reports false when there is no such element.
func (m *ListModel[T]) EraseAfter(pos int) (T, bool) {
	if pos < 0 || pos >= m.d.Len() {
		var zero T
		return zero, false
	}
	return m.d.Remove(pos), true
}

// Values returns the elements front to back.
func (m *ListModel[T]) Values() []T {
	out := make([]T, m.d.Len())
	for i := range out {
		out[i] = m.d.At(i)
	}
	return out
}
