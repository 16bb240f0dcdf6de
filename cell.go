// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package mwa

import (
	"sync/atomic"

	"github.com/petenewcomb/mwa-go/internal/slotpool"
	"github.com/petenewcomb/mwa-go/internal/spin"
)

// DefaultQueueCapacity is the slot count of the private pool a [Cell] gets
// when none is supplied. Twice the expected number of concurrently updating
// goroutines is usually enough.
const DefaultQueueCapacity = 8

// A Pool owns the pre-allocated slots that cells cycle displaced values
// through. Sharing one Pool across many cells of the same type amortizes
// the slots over all of them; the alternative is a private pool per cell,
// which [NewCell] defaults to. A Pool never relocates its slots, so a
// snapshot pointer handed to a reader stays valid for the whole read.
type Pool[T any] struct {
	q *slotpool.Queue[T]
}

// NewPool creates a pool with the given number of slots. Capacity must be a
// power of two and at least 1. A [List] does not use a Pool; [NewList]
// creates its own.
func NewPool[T any](capacity int) *Pool[T] {
	return &Pool[T]{q: slotpool.New[T](capacity)}
}

// Capacity returns the number of slots the pool cycles through.
func (p *Pool[T]) Capacity() int {
	return p.q.Capacity()
}

// A CellOption configures a [Cell] at construction.
type CellOption[T any] func(*Cell[T])

// WithPool makes the cell draw its update slots from a shared pool instead
// of a private one.
func WithPool[T any](p *Pool[T]) CellOption[T] {
	return func(c *Cell[T]) {
		c.q = p.q
	}
}

// WithClone installs the copy function used to move values between slots.
// The default is plain assignment, which is wrong for types that hold
// references: a map-valued cell updated through a shallow copy would alias
// live state into the recycle pool. The function must make dst an
// independent copy of src.
func WithClone[T any](fn func(dst, src *T)) CellOption[T] {
	return func(c *Cell[T]) {
		c.clone = fn
	}
}

// A Cell holds a value of type T that many goroutines may read and update
// atomically. current always points at a live, fully published value; the
// pointed-to slot is swapped, never mutated in place, so readers see a
// consistent T for as long as they hold the snapshot.
//
// A Cell must not be copied after first use, and must not be garbage
// collected out from under in-flight readers or writers; join the
// goroutines using it first.
type Cell[T any] struct {
	q       *slotpool.Queue[T]
	clone   func(dst, src *T)
	current atomic.Pointer[T]
}

// NewCell creates a cell holding initial. Without [WithPool] the cell gets
// a private pool of [DefaultQueueCapacity] slots.
func NewCell[T any](initial T, opts ...CellOption[T]) *Cell[T] {
	c := &Cell[T]{}
	for _, opt := range opts {
		opt(c)
	}
	if c.q == nil {
		c.q = slotpool.New[T](DefaultQueueCapacity)
	}
	if c.clone == nil {
		c.clone = func(dst, src *T) { *dst = *src }
	}
	v := new(T)
	*v = initial
	c.current.Store(v)
	return c
}

// newCellIn creates a cell on an existing queue with shallow copy
// semantics. The initial value lives on the ordinary heap; it joins the
// pool's rotation the first time an update displaces it.
func newCellIn[T any](q *slotpool.Queue[T], initial T) *Cell[T] {
	c := &Cell[T]{
		q:     q,
		clone: func(dst, src *T) { *dst = *src },
	}
	v := new(T)
	*v = initial
	c.current.Store(v)
	return c
}

// Read invokes fn with a snapshot of the current value. The pointed-to
// value does not change for the duration of fn, and fn must not retain the
// pointer or mutate through it. Read is wait-free and panic-safe: the
// reader registration is released even if fn unwinds.
func (c *Cell[T]) Read(fn func(*T)) {
	if fn == nil {
		panic("reader function must be non-nil")
	}
	ticket := c.q.Enter()
	defer c.q.Leave(ticket)
	fn(c.current.Load())
}

// Read invokes fn with a snapshot of the cell's current value and returns
// fn's result. It is the result-returning form of [Cell.Read], a free
// function only because a method cannot introduce the result type
// parameter.
func Read[T, R any](c *Cell[T], fn func(*T) R) R {
	if fn == nil {
		panic("reader function must be non-nil")
	}
	ticket := c.q.Enter()
	defer c.q.Leave(ticket)
	return fn(c.current.Load())
}

// Load returns a copy of the current value, made with the cell's clone
// function.
func (c *Cell[T]) Load() T {
	var v T
	c.Read(func(p *T) {
		c.clone(&v, p)
	})
	return v
}

// TryUpdate makes one attempt to replace the cell's value: it copies the
// current value into a free slot, applies fn to the copy, and publishes it
// with a single compare-and-swap. It returns false without any visible
// mutation when the pool has no free slot, the reclamation barrier is not
// yet satisfied, another writer won the race, or fn itself returns false.
// The four causes are deliberately indistinguishable; callers handle all of
// them by retrying. The acquired slot is returned to the pool on every
// failure path, including a panic in fn; on success it becomes the current
// value and the displaced one is returned instead.
//
// TryUpdate is lock-free and reentrant: fn may itself call TryUpdate, on
// this cell or another, provided the pool holds enough slots for the
// nesting depth.
func (c *Cell[T]) TryUpdate(fn func(*T) bool) bool {
	if fn == nil {
		panic("update function must be non-nil")
	}
	s, err := c.q.Acquire()
	if err != nil {
		return false
	}
	// Register as a reader for the publish window: if we displace current,
	// a concurrent reader may still be looking at it, and the barrier has
	// to know about us while we hold either pointer.
	ticket := c.q.Enter()
	giveBack := s
	defer func() {
		c.q.Release(giveBack)
		c.q.Leave(ticket)
	}()
	old := c.current.Load()
	c.clone(s, old)
	if !fn(s) {
		return false
	}
	if !c.current.CompareAndSwap(old, s) {
		return false
	}
	// Published. The displaced value goes back to the pool instead of the
	// slot we acquired.
	giveBack = old
	return true
}

// Update calls [Cell.TryUpdate] until it succeeds. fn must eventually
// return true for some attempt or Update never returns.
//
// Update is not reentrant: the slot held by the outer attempt is not
// returned until that attempt finishes, so an inner Update on a cell
// sharing the same pool can exhaust it and spin forever. Use TryUpdate for
// nesting.
func (c *Cell[T]) Update(fn func(*T) bool) {
	var y spin.Yielder
	for !c.TryUpdate(fn) {
		y.Yield()
	}
}

// Store replaces the cell's value with v, copying with the cell's clone
// function.
func (c *Cell[T]) Store(v T) {
	c.Update(func(p *T) bool {
		c.clone(p, &v)
		return true
	})
}
