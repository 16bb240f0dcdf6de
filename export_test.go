// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package mwa

// ForceLock sets the node's locked flag outside the removal protocol,
// making it a permanent resident of its list. Test hook for the churn
// scenarios; a node locked this way is never unlinked because both
// insertion after it and removal of it are vetoed.
func (it Iterator[T]) ForceLock() {
	it.mustBeValid()
	it.cell.Update(func(n *node[T]) bool {
		n.locked = true
		return true
	})
}
