package formulas

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrInvalidPartitions is returned when the partition count is not positive.
	ErrInvalidPartitions = errors.New("partition count must be positive")
	// ErrNegativeWidth is returned when the upper bound lies below the lower bound.
	ErrNegativeWidth = errors.New("upper bound below lower bound")
	// ErrNonFiniteBound is returned when a bound is NaN or infinite.
	ErrNonFiniteBound = errors.New("integration bound is not finite")
)

// Density is a probability density function of one variable.
type Density func(x float64) float64

// NormalDensity returns the density of a normal distribution with mean mu and
// standard deviation sigma. sigma must be positive.
func NormalDensity(mu, sigma float64) Density {
	normal := distuv.Normal{Mu: mu, Sigma: sigma}
	return normal.Prob
}

// Integral holds composite midpoint-rule approximations over [Lower, Upper].
type Integral struct {
	Lower      float64
	Upper      float64
	Partitions int
	Delta      float64
	// Mass approximates the integral of f(x).
	Mass float64
	// Moment approximates the integral of x*f(x). Zero unless weighted.
	Moment float64
}

// MidpointIntegrate approximates the integral of f over [lower, upper] with the
// composite midpoint rule on partitions equal-width subintervals. When weighted
// is set the first moment, the integral of x*f(x), is accumulated from the same
// midpoints.
//
// Every call builds its own partition; nothing is shared between calls.
// A zero-width interval integrates to zero.
func MidpointIntegrate(f Density, lower, upper float64, partitions int, weighted bool) (Integral, error) {
	if partitions <= 0 {
		return Integral{}, fmt.Errorf("%w: got %d", ErrInvalidPartitions, partitions)
	}
	if !isFinite(lower) || !isFinite(upper) {
		return Integral{}, fmt.Errorf("%w: [%g, %g]", ErrNonFiniteBound, lower, upper)
	}
	if upper < lower {
		return Integral{}, fmt.Errorf("%w: [%g, %g]", ErrNegativeWidth, lower, upper)
	}

	delta := (upper - lower) / float64(partitions)
	result := Integral{
		Lower:      lower,
		Upper:      upper,
		Partitions: partitions,
		Delta:      delta,
	}
	if delta == 0 {
		return result, nil
	}

	var mass, moment float64
	for i := 0; i < partitions; i++ {
		// m_i = a + (2i+1)/2 * delta
		midpoint := lower + (float64(2*i+1)/2)*delta
		fx := f(midpoint)
		mass += fx
		if weighted {
			moment += midpoint * fx
		}
	}

	result.Mass = delta * mass
	if weighted {
		result.Moment = delta * moment
	}
	return result, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
