// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package mwa_test

import (
	"maps"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/petenewcomb/mwa-go"
	"github.com/petenewcomb/mwa-go/internal/sim"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"
)

func TestCellHoldsInitialValue(t *testing.T) {
	chk := require.New(t)
	c := mwa.NewCell(42)
	chk.Equal(42, c.Load())

	var seen int
	c.Read(func(p *int) { seen = *p })
	chk.Equal(42, seen)

	chk.Equal(42, mwa.Read(c, func(p *int) int { return *p }))
}

func TestCellStoreAndUpdate(t *testing.T) {
	chk := require.New(t)
	c := mwa.NewCell("initial")
	c.Store("replaced")
	chk.Equal("replaced", c.Load())

	c.Update(func(p *string) bool {
		*p += " twice"
		return true
	})
	chk.Equal("replaced twice", c.Load())
}

func TestCellNilFunctionPanics(t *testing.T) {
	chk := require.New(t)
	c := mwa.NewCell(0)
	chk.PanicsWithValue("reader function must be non-nil", func() { c.Read(nil) })
	chk.PanicsWithValue("update function must be non-nil", func() { c.TryUpdate(nil) })
}

func TestTryUpdateVetoLeavesNoTrace(t *testing.T) {
	chk := require.New(t)
	c := mwa.NewCell(7)
	ok := c.TryUpdate(func(p *int) bool {
		*p = 99 // mutates only the private copy
		return false
	})
	chk.False(ok)
	chk.Equal(7, c.Load())
}

// A panic in the update function must return the slot to the pool and
// balance the usage counter: if either leaked, the barrier could never be
// satisfied again and the follow-up updates below would spin forever.
func TestTryUpdatePanicReturnsSlot(t *testing.T) {
	chk := require.New(t)
	pool := mwa.NewPool[int](2)
	c := mwa.NewCell(0, mwa.WithPool(pool))

	for i := 0; i < 10; i++ {
		chk.PanicsWithValue("injected failure", func() {
			c.TryUpdate(func(p *int) bool {
				*p = -1
				panic("injected failure")
			})
		})
		chk.Equal(i, c.Load())
		c.Update(func(p *int) bool {
			*p++
			return true
		})
	}
	chk.Equal(10, c.Load())
}

// TryUpdate may nest as long as the shared pool has a slot per level.
func TestTryUpdateIsReentrant(t *testing.T) {
	chk := require.New(t)
	pool := mwa.NewPool[int](4)
	outer := mwa.NewCell(0, mwa.WithPool(pool))
	inner := mwa.NewCell(0, mwa.WithPool(pool))

	ok := outer.TryUpdate(func(p *int) bool {
		*p = 1
		for !inner.TryUpdate(func(q *int) bool {
			*q = 2
			return true
		}) {
		}
		return true
	})
	chk.True(ok)
	chk.Equal(1, outer.Load())
	chk.Equal(2, inner.Load())
}

// Scenario: increment-cell. Concurrent blind increments through the weak
// update must conserve every single one.
func TestCellConservation(t *testing.T) {
	chk := require.New(t)
	const workers = 8
	iterations := 81290
	if testing.Short() {
		iterations = 2048
	}

	c := mwa.NewCell(uint32(0), mwa.WithPool(mwa.NewPool[uint32](2*workers)))
	sim.Run(workers, iterations, func(_, _ int, _ *fastrand.RNG) {
		for !c.TryUpdate(func(p *uint32) bool {
			*p++
			return true
		}) {
		}
	})

	chk.Equal(uint32(workers*iterations), c.Load())
}

// Readers must always observe a fully published value: the writers below
// only ever publish arrays with all entries equal, so any mixed array seen
// by a reader would be a torn snapshot.
func TestReadSnapshotIsConsistent(t *testing.T) {
	chk := require.New(t)
	const workers = 8
	iterations := 20_000
	if testing.Short() {
		iterations = 2_000
	}

	type block = [8]uint64
	c := mwa.NewCell(block{}, mwa.WithPool(mwa.NewPool[block](2*workers)))
	var torn atomic.Bool

	sim.Run(workers, iterations, func(worker, _ int, rng *fastrand.RNG) {
		if worker%2 == 0 {
			v := uint64(rng.Uint32())
			c.Update(func(p *block) bool {
				for i := range p {
					p[i] = v
				}
				return true
			})
		} else {
			c.Read(func(p *block) {
				for i := 1; i < len(p); i++ {
					if p[i] != p[0] {
						torn.Store(true)
					}
				}
			})
		}
	})

	chk.False(torn.Load(), "a reader observed a torn or recycled snapshot")
}

// Scenario: array-minimum-increment. Every update finds the smallest entry
// and bumps it; the final state must match the sequential oracle exactly.
func TestMinimumIncrementSpreadsEvenly(t *testing.T) {
	chk := require.New(t)
	const workers = 8
	const entries = 64
	iterations := 81920
	if testing.Short() {
		iterations = 8192
	}

	type counters = [entries]uint32
	c := mwa.NewCell(counters{}, mwa.WithPool(mwa.NewPool[counters](2*workers)))
	sim.Run(workers, iterations, func(_, _ int, _ *fastrand.RNG) {
		c.Update(incrementMinimum)
	})

	expected := sim.MinIncrementOracle(entries, workers*iterations)
	final := c.Load()
	chk.Equal(expected, final[:])
	chk.Equal(uint32(workers*iterations/entries), final[0])
}

// Scenario: exception safety. Same workload, but the update function
// panics periodically after mutating its copy. Workers recover and retry;
// the end state must be untouched by the abandoned attempts.
func TestMinimumIncrementRecoversFromPanics(t *testing.T) {
	chk := require.New(t)
	const workers = 8
	const entries = 64
	const panicEvery = 3
	iterations := 8192
	if testing.Short() {
		iterations = 1024
	}

	type counters = [entries]uint32
	c := mwa.NewCell(counters{}, mwa.WithPool(mwa.NewPool[counters](2*workers)))
	calls := make([]int, workers)
	sim.Run(workers, iterations, func(worker, _ int, _ *fastrand.RNG) {
		attempt := func() (ok bool) {
			defer func() {
				if r := recover(); r != nil {
					ok = false
				}
			}()
			return c.TryUpdate(func(p *counters) bool {
				incrementMinimum(p)
				calls[worker]++
				if calls[worker]%panicEvery == 0 {
					panic("injected failure")
				}
				return true
			})
		}
		for !attempt() {
		}
	})

	expected := sim.MinIncrementOracle(entries, workers*iterations)
	final := c.Load()
	chk.Equal(expected, final[:])
}

func incrementMinimum(p *[64]uint32) bool {
	min := 0
	for i := 1; i < len(p); i++ {
		if p[i] < p[min] {
			min = i
		}
	}
	p[min]++
	return true
}

// Scenario: map-of-counters. A reference-holding T needs the clone hook;
// updaters bump their own entry while readers sum concurrently.
func TestMapOfCountersWithCloneHook(t *testing.T) {
	chk := require.New(t)
	const updaters = 4
	const readers = 4
	iterations := 102400
	if testing.Short() {
		iterations = 4096
	}

	c := mwa.NewCell(
		map[int]uint32{},
		mwa.WithPool(mwa.NewPool[map[int]uint32](2*updaters)),
		mwa.WithClone(func(dst, src *map[int]uint32) {
			*dst = maps.Clone(*src)
		}),
	)

	var done atomic.Bool
	var wg sync.WaitGroup
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !done.Load() {
				c.Read(func(p *map[int]uint32) {
					var total uint32
					for _, v := range *p {
						total += v
					}
					_ = total
				})
			}
		}()
	}

	sim.Run(updaters, iterations, func(worker, _ int, _ *fastrand.RNG) {
		c.Update(func(p *map[int]uint32) bool {
			(*p)[worker]++
			return true
		})
	})
	done.Store(true)
	wg.Wait()

	final := c.Load()
	chk.Len(final, updaters)
	for w := 0; w < updaters; w++ {
		chk.Equal(uint32(iterations), final[w], "updater %d", w)
	}
}

// The mutex cell is the correctness baseline: the same workload must land
// on the same answer.
func TestCellMatchesMutexCellBaseline(t *testing.T) {
	chk := require.New(t)
	const workers = 8
	iterations := 10_000
	if testing.Short() {
		iterations = 1_000
	}

	lockFree := mwa.NewCell(uint64(0), mwa.WithPool(mwa.NewPool[uint64](2*workers)))
	baseline := mwa.NewMutexCell(uint64(0))

	sim.Run(workers, iterations, func(_, _ int, _ *fastrand.RNG) {
		lockFree.Update(func(p *uint64) bool { *p += 3; return true })
		baseline.Update(func(p *uint64) bool { *p += 3; return true })
	})

	chk.Equal(baseline.Load(), lockFree.Load())
	chk.Equal(uint64(3*workers*iterations), lockFree.Load())
}

func TestPoolCapacityValidation(t *testing.T) {
	chk := require.New(t)
	chk.PanicsWithValue("queue capacity must be a power of two", func() {
		mwa.NewPool[int](12)
	})
	chk.Equal(16, mwa.NewPool[int](16).Capacity())
}
