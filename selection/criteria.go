package selection

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CandidateGrid returns {1} ∪ {step, 2 step, ...} restricted to ranks below
// ceiling and no larger than maxRank. maxRank is the largest rank with a
// positive noise variance, so the grid never contains a rank whose
// likelihood is undefined.
func CandidateGrid(step, ceiling, maxRank int) []int {
	if maxRank < 1 || ceiling < 2 {
		return nil
	}
	if step < 1 {
		step = 1
	}
	grid := []int{1}
	for p := step; p < ceiling && p <= maxRank; p += step {
		if p > 1 {
			grid = append(grid, p)
		}
	}
	return grid
}

// FreeParameters returns the number of free parameters of a rank p factor
// model in d dimensions, d p + 1 - p (p - 1) / 2.
func FreeParameters(d, p int) float64 {
	return float64(d*p) + 1 - 0.5*float64(p*(p-1))
}

// AIC returns -2 ll + 2 m(p) where ll[p-1] is the log-likelihood at rank p.
func AIC(ll []float64, d int) []float64 {
	res := make([]float64, len(ll))
	for i, v := range ll {
		res[i] = -2*v + 2*FreeParameters(d, i+1)
	}
	return res
}

// BIC returns -2 ll + m(p) log n where ll[p-1] is the log-likelihood at rank
// p of n samples.
func BIC(ll []float64, d, n int) []float64 {
	res := make([]float64, len(ll))
	logn := math.Log(float64(n))
	for i, v := range ll {
		res[i] = -2*v + FreeParameters(d, i+1)*logn
	}
	return res
}

// Argmin returns the first index of the smallest value, -1 for an empty
// slice.
func Argmin(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	return floats.MinIdx(values)
}

// Argmax returns the first index of the largest value, -1 for an empty
// slice.
func Argmax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	return floats.MaxIdx(values)
}

// firstBelow returns the index of the first value strictly below tau, or
// len(values) when there is none.
func firstBelow(values []float64, tau float64) int {
	for i, v := range values {
		if v < tau {
			return i
		}
	}
	return len(values)
}
