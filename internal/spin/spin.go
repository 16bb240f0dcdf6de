// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package spin provides a bounded busy-wait helper for retry loops.
package spin

import "runtime"

// Yield the processor only every yieldEvery failed attempts. A failed CAS
// usually means another goroutine just made progress, so an immediate retry
// is cheaper than a scheduler round trip.
const yieldEvery = 64

// Yielder counts failed attempts and periodically yields the processor.
// The zero value is ready to use.
type Yielder struct {
	spins uint32
}

// Yield records a failed attempt, handing the processor to the scheduler
// every yieldEvery calls.
func (y *Yielder) Yield() {
	y.spins++
	if y.spins%yieldEvery == 0 {
		runtime.Gosched()
	}
}
