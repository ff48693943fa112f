// Package svht implements the optimal singular value hard threshold of
//
// M. Gavish and D. L. Donoho (2014) 'The Optimal Hard Threshold for Singular
// Values is 4/√3.' IEEE Transactions on Information Theory 60(8):5040.
//
// For an m x n matrix with aspect ratio β = m/n <= 1 the threshold is
// ω(β) · median(singular values) when the noise level is unknown and
// λ*(β) · √n · σ when it is known.
package svht

import (
	"errors"
	"fmt"
	"math"

	"github.com/vishalbelsare/widefield/gonumExtensions"
	"gonum.org/v1/gonum/integrate/quad"
)

// ErrDomain is returned for aspect ratios outside (0, 1].
var ErrDomain = errors.New("svht: aspect ratio outside (0, 1]")

// Beta returns the aspect ratio smaller/larger of a rows x cols matrix.
func Beta(rows, cols int) float64 {
	if rows > cols {
		rows, cols = cols, rows
	}
	return float64(rows) / float64(cols)
}

func checkBeta(beta float64) error {
	if !(beta > 0 && beta <= 1) {
		return fmt.Errorf("%w: β=%v", ErrDomain, beta)
	}
	return nil
}

// Lambda returns λ*(β), the known-noise coefficient
//
// sqrt(2(β+1) + 8β / ((β+1) + sqrt(β² + 14β + 1)))
func Lambda(beta float64) (float64, error) {
	if err := checkBeta(beta); err != nil {
		return 0, err
	}
	return lambda(beta), nil
}

func lambda(beta float64) float64 {
	return math.Sqrt(2*(beta+1) + 8*beta/((beta+1)+math.Sqrt(beta*beta+14*beta+1)))
}

// Omega returns the threshold coefficient ω(β). With knownNoise it is λ*(β),
// which multiplies √n σ. Otherwise it is the published cubic approximation
//
// 0.56β³ - 0.95β² + 1.82β + 1.43
//
// which multiplies the median empirical singular value.
func Omega(beta float64, knownNoise bool) (float64, error) {
	if err := checkBeta(beta); err != nil {
		return 0, err
	}
	if knownNoise {
		return lambda(beta), nil
	}
	return ((0.56*beta-0.95)*beta+1.82)*beta + 1.43, nil
}

// OmegaExact returns λ*(β)/sqrt(μ_β), the unknown-noise coefficient the cubic
// in Omega approximates, where μ_β is the median of the Marchenko-Pastur
// distribution.
func OmegaExact(beta float64) (float64, error) {
	if err := checkBeta(beta); err != nil {
		return 0, err
	}
	return lambda(beta) / math.Sqrt(MarchenkoPasturMedian(beta)), nil
}

// quadPoints is the number of Legendre nodes used per CDF evaluation.
const quadPoints = 64

// MarchenkoPasturMedian returns the median of the Marchenko-Pastur law with
// ratio β and unit variance, found by bisection on its CDF. β must be in
// (0, 1].
func MarchenkoPasturMedian(beta float64) float64 {
	lo := math.Pow(1-math.Sqrt(beta), 2)
	hi := math.Pow(1+math.Sqrt(beta), 2)
	a, b := lo, hi
	for i := 0; i < 100 && b-a > 1e-12; i++ {
		mid := 0.5 * (a + b)
		if marchenkoPasturCDF(beta, lo, hi, mid) < 0.5 {
			a = mid
		} else {
			b = mid
		}
	}
	return 0.5 * (a + b)
}

// marchenkoPasturCDF integrates the density
//
// sqrt((hi - t)(t - lo)) / (2π β t)
//
// from lo to x. The substitution t = lo + u² removes the square root
// singularity at the lower edge.
func marchenkoPasturCDF(beta, lo, hi, x float64) float64 {
	if x <= lo {
		return 0
	}
	if x >= hi {
		return 1
	}
	f := func(u float64) float64 {
		t := lo + u*u
		return u * u * math.Sqrt(math.Max(hi-t, 0)) / (math.Pi * beta * t)
	}
	return quad.Fixed(f, 0, math.Sqrt(x-lo), quadPoints, nil, 0)
}

// Threshold returns ω(β) · median(sv).
func Threshold(sv []float64, beta float64, knownNoise bool) (float64, error) {
	omega, err := Omega(beta, knownNoise)
	if err != nil {
		return 0, err
	}
	return omega * gonumExtensions.Median(sv), nil
}

// ThresholdKnownNoise returns λ*(β) √n σ for an m x n matrix (m <= n) with
// noise standard deviation sigma.
func ThresholdKnownNoise(beta float64, n int, sigma float64) (float64, error) {
	l, err := Lambda(beta)
	if err != nil {
		return 0, err
	}
	return l * math.Sqrt(float64(n)) * sigma, nil
}

// Rank returns the number of singular values strictly greater than tau.
func Rank(sv []float64, tau float64) int {
	var count int
	for _, v := range sv {
		if v > tau {
			count++
		}
	}
	return count
}
