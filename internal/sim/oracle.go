// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"cmp"

	"github.com/addrummond/heap"
)

type minEntry struct {
	value uint32
	index int
}

func (a *minEntry) Cmp(b *minEntry) int {
	if c := cmp.Compare(a.value, b.value); c != 0 {
		return c
	}
	return cmp.Compare(a.index, b.index)
}

// MinIncrementOracle plays the minimum-increment workload sequentially:
// starting from entries zeroed counters, it performs rounds iterations of
// "find the minimum entry and increment it" and returns the final counter
// values. A heap keeps each step logarithmic so the oracle stays cheap even
// at the full scenario sizes. The concurrent cell under test must converge
// to the same final state, since min-increment is order-insensitive.
func MinIncrementOracle(entries, rounds int) []uint32 {
	var h heap.Heap[minEntry, heap.Min]
	for i := 0; i < entries; i++ {
		heap.PushOrderable(&h, minEntry{index: i})
	}
	for r := 0; r < rounds; r++ {
		e, ok := heap.PopOrderable(&h)
		if !ok {
			panic("oracle heap unexpectedly empty")
		}
		e.value++
		heap.PushOrderable(&h, e)
	}
	out := make([]uint32, entries)
	for {
		e, ok := heap.PopOrderable(&h)
		if !ok {
			break
		}
		out[e.index] = e.value
	}
	return out
}
