package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population (divide-by-N) standard deviation.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopStdDev(data, nil)
}

// PopMeanStdDev returns the mean and the population standard deviation in one pass.
func PopMeanStdDev(data []float64) (mean, std float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(data, nil)
}

// Median returns the middle value of data, averaging the two middle values
// when the length is even. The input is not modified.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MinMax returns the smallest and largest values in data.
func MinMax(data []float64) (min, max float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return floats.Min(data), floats.Max(data)
}

// AllFinite reports whether data contains no NaN or infinite values.
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
