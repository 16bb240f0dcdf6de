// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"sync"

	"github.com/valyala/fastrand"
)

// Run launches workers goroutines, each calling body iterations times, and
// waits for all of them. Every worker gets its own lazily seeded RNG so the
// random streams never contend on shared state.
func Run(workers, iterations int, body func(worker, iteration int, rng *fastrand.RNG)) {
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var rng fastrand.RNG
			for i := 0; i < iterations; i++ {
				body(w, i, &rng)
			}
		}(w)
	}
	wg.Wait()
}
