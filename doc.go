// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package mwa provides a multi-word atomic container: a [Cell] wraps a value
// of any type T and lets many goroutines observe and replace it atomically,
// even when T is far larger than a machine word. Readers receive a stable
// snapshot pointer and are wait-free. Writers supply a function that derives
// a new value from the current one; the new value is published with a single
// compare-and-swap, so writers are lock-free but may need to retry under
// contention.
//
// Displaced values are not freed but recycled through a fixed-capacity
// [Pool] of pre-allocated slots. Once per sweep of the pool a writer passes
// a reclamation barrier that waits for every reader still holding a pointer
// from the previous sweep to drain, bounding the window in which a retired
// slot can be observed without hazard pointers or epochs.
//
// [List] builds a concurrent singly linked list from one Cell per node. A
// node is removed in two steps, locked through its own cell and then
// unlinked through its predecessor's, because a lock-free singly linked
// list cannot otherwise unlink a node that other goroutines may still be
// traversing.
//
// [MutexCell] offers the same surface as Cell behind a plain mutex and
// exists for correctness and performance baselining.
package mwa
