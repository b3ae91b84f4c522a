package sim

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
)

// Ensemble runs the same system from perturbed copies of one initial
// state in parallel. Member idx seeds its perturbation from
// seedStart+idx, so any member can be reproduced from its seed alone.
// Each run gets its own Simulator and Stepper (scratch buffers inside
// steppers are not safe to share), while the System is shared read-only:
// Derive never mutates the system.
type Ensemble struct {
	sys        System
	newStepper func() Stepper
	numRuns    int
	seedStart  int64

	// Noise is the standard deviation of the Gaussian perturbation
	// applied per cell to each member's initial state. Zero runs every
	// member from the identical state.
	Noise float64
}

func NewEnsemble(sys System, newStepper func() Stepper, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{sys: sys, newStepper: newStepper, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, x0 State, cfg Config) ([]*Trajectory, error) {
	results := make([]*Trajectory, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			x := x0.Clone()
			if e.Noise > 0 {
				rng := rand.New(rand.NewSource(e.seedStart + int64(idx)))
				for j := range x {
					x[j] += e.Noise * rng.NormFloat64()
				}
			}

			s := New(e.sys, e.newStepper())
			results[idx], errs[idx] = s.Run(ctx, x, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// ParallelFor splits [0, n) across workers. workers <= 0 uses one per
// CPU. Each worker must write only to its own output range; callers
// guarantee disjoint writes. Ranges below minChunk run inline.
func ParallelFor(n, workers, minChunk int, fn func(start, end int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		go func(s, e int) {
			defer wg.Done()
			if s < e {
				fn(s, e)
			}
		}(start, end)
	}

	wg.Wait()
}
