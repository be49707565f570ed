// Package simulation draws Monte Carlo NPV samples from simulation parameters.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/celrisk/internal/domain"
)

// cancelCheckInterval is how many trials a worker runs between context checks.
const cancelCheckInterval = 4096

// Options controls how a sample is drawn.
type Options struct {
	// Seed fixes the random stream. The same seed and worker count reproduce
	// the same sample. Zero derives a seed from the clock.
	Seed uint64
	// Workers is the number of goroutines trials are fanned out to.
	// Values below one use runtime.NumCPU.
	Workers int
}

// Sampler draws independent NPV trials.
type Sampler struct {
	log zerolog.Logger
}

// NewSampler creates a new NPV sampler
func NewSampler(log zerolog.Logger) *Sampler {
	return &Sampler{
		log: log.With().Str("component", "npv_sampler").Logger(),
	}
}

// Sample validates params and returns exactly params.NumSimulations NPV values.
// Trials are split into contiguous ranges, one per worker, and each worker
// writes only its own range of the output slice.
func (s *Sampler) Sample(ctx context.Context, params domain.SimulationParameters, opts Options) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > params.NumSimulations {
		workers = params.NumSimulations
	}

	start := time.Now()
	samples := make([]float64, params.NumSimulations)
	chunk := (params.NumSimulations + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, params.NumSimulations)
		if lo >= hi {
			break
		}
		model := newTrialModel(params, rand.NewPCG(seed, uint64(w)))
		out := samples[lo:hi]

		g.Go(func() error {
			for i := range out {
				if i%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return fmt.Errorf("sampling cancelled: %w", err)
					}
				}
				out[i] = model.npv()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("trials", params.NumSimulations).
		Int("workers", workers).
		Uint64("seed", seed).
		Dur("elapsed", time.Since(start)).
		Msg("NPV sampling completed")

	return samples, nil
}
