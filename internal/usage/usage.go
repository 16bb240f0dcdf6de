// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package usage tracks in-flight readers of a recycling queue. The count is
// split across two sides, one per half of the doubled slot ring, so that the
// reclamation barrier can wait for the previous lap's readers to drain while
// new readers keep accumulating on the other side.
package usage

import "sync/atomic"

// Counter is a phase-split in-flight counter. The zero value is ready to
// use. Which side a caller increments is decided by the queue from its
// right-hand ring cursor; the counter itself only keeps the two tallies.
type Counter struct {
	sides [2]atomic.Int64
}

// Inc registers an in-flight reader on the given side.
func (c *Counter) Inc(side int) {
	c.sides[side].Add(1)
}

// Dec removes a previously registered reader from the given side.
func (c *Counter) Dec(side int) {
	if c.sides[side].Add(-1) < 0 {
		panic("there were no readers in flight")
	}
}

// Idle reports whether the given side has drained to zero.
func (c *Counter) Idle(side int) bool {
	return c.sides[side].Load() == 0
}
