// Package ppca fits probabilistic principal component analysis models
// https://en.wikipedia.org/wiki/Principal_component_analysis#Probabilistic_PCA
// in closed form. A single eigendecomposition of the sample covariance is
// computed by Fit and reused for every candidate rank, so training and
// held-out log-likelihoods can be evaluated at any rank without refitting.
//
// The model of rank p is
//
// x ~ N(mean, W Wᵀ + σ² I)
//
// where W holds the top p eigenvectors scaled by sqrt(λ_i - σ²) and σ² is the
// average of the remaining eigenvalues.
package ppca

import (
	"errors"
	"fmt"
	"math"

	"github.com/vishalbelsare/widefield/gonumExtensions"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDegenerateInput is returned when the data cannot support a covariance
	// estimate: fewer than two samples, no variance, or non-finite entries.
	ErrDegenerateInput = errors.New("ppca: degenerate input")
	// ErrDimensionMismatch is returned when held-out data does not have the
	// feature count of the fitted model.
	ErrDimensionMismatch = errors.New("ppca: dimension mismatch")
	// ErrRank is returned for candidate ranks outside [1, MaxRank()].
	ErrRank = errors.New("ppca: candidate rank out of range")
)

// relativeNoiseFloor is the smallest residual variance, relative to the
// leading eigenvalue, that still counts as non-zero. Centred data with n <= d
// has rank at most n-1 so its trailing eigenvalue is zero up to round-off.
const relativeNoiseFloor = 1e-10

// Model is a fitted PPCA model.
type Model struct {
	n, d int
	mean *mat.VecDense
	// Eigenvalues of the sample covariance in descending order.
	evals []float64
	// Matching eigenvectors in feature space, one per column (d x len(evals)).
	evecs *mat.Dense
	// tail[p] is the sum of evals[p:].
	tail    []float64
	maxRank int
	llTrain []float64
}

// Fit computes the maximum likelihood PPCA solution for X where rows are
// samples and columns are features. The smaller of the d x d covariance
// eigendecomposition and the thin SVD of the centred n x d data is used.
func Fit(X mat.Matrix) (*Model, error) {
	n, d := X.Dims()
	if n < 2 {
		return nil, fmt.Errorf("%w: %d samples, need at least 2", ErrDegenerateInput, n)
	}
	if gonumExtensions.NANORINF(X) {
		return nil, fmt.Errorf("%w: data contains NaN or Inf", ErrDegenerateInput)
	}

	model := &Model{n: n, d: d}
	model.mean = gonumExtensions.ColumnMeans(X)
	centred := gonumExtensions.Center(X, model.mean)

	var err error
	if d <= n {
		model.evals, model.evecs, err = covarianceEigen(centred, n)
	} else {
		model.evals, model.evecs, err = dataSVD(centred, n)
	}
	if err != nil {
		return nil, err
	}
	if model.evals[0] <= 0 {
		return nil, fmt.Errorf("%w: data has zero variance", ErrDegenerateInput)
	}

	m := len(model.evals)
	model.tail = make([]float64, m+1)
	for i := m - 1; i >= 0; i-- {
		model.tail[i] = model.tail[i+1] + model.evals[i]
	}
	for p := m - 1; p >= 1; p-- {
		if model.NoiseVariance(p) > relativeNoiseFloor*model.evals[0] {
			model.maxRank = p
			break
		}
	}

	model.llTrain = make([]float64, model.maxRank)
	for p := 1; p <= model.maxRank; p++ {
		model.llTrain[p-1] = model.trainLogLikelihood(p)
	}
	return model, nil
}

// covarianceEigen eigendecomposes the d x d maximum likelihood covariance.
func covarianceEigen(centred *mat.Dense, n int) ([]float64, *mat.Dense, error) {
	_, d := centred.Dims()
	var cov mat.SymDense
	cov.SymOuterK(1/float64(n), centred.T())

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return nil, nil, fmt.Errorf("%w: covariance eigendecomposition failed", ErrDegenerateInput)
	}
	ascending := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// EigenSym orders ascending, reverse both values and vectors.
	evals := make([]float64, d)
	evecs := mat.NewDense(d, d, nil)
	col := make([]float64, d)
	for i := 0; i < d; i++ {
		evals[i] = math.Max(ascending[d-1-i], 0)
		mat.Col(col, d-1-i, &vectors)
		evecs.SetCol(i, col)
	}
	return evals, evecs, nil
}

// dataSVD uses the thin SVD of the centred data, λ_i = s_i²/n.
func dataSVD(centred *mat.Dense, n int) ([]float64, *mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(centred, mat.SVDThinV); !ok {
		return nil, nil, fmt.Errorf("%w: singular value decomposition failed", ErrDegenerateInput)
	}
	s := svd.Values(nil)
	evals := make([]float64, len(s))
	for i, v := range s {
		evals[i] = v * v / float64(n)
	}
	var v mat.Dense
	svd.VTo(&v)
	return evals, &v, nil
}

// Dims returns the number of training samples and features.
func (model *Model) Dims() (n, d int) {
	return model.n, model.d
}

// Mean returns a copy of the training mean.
func (model *Model) Mean() *mat.VecDense {
	return mat.VecDenseCopyOf(model.mean)
}

// Eigenvalues returns the descending eigenvalues of the sample covariance.
// There are min(n, d) of them.
func (model *Model) Eigenvalues() []float64 {
	res := make([]float64, len(model.evals))
	copy(res, model.evals)
	return res
}

// SingularValues returns sqrt(λ_i n), the singular values of the centred
// training data.
func (model *Model) SingularValues() []float64 {
	res := model.Eigenvalues()
	for i := range res {
		res[i] = math.Sqrt(res[i] * float64(model.n))
	}
	return res
}

// MaxRank returns the largest candidate rank whose noise variance is
// positive. It is always smaller than min(n, d).
func (model *Model) MaxRank() int {
	return model.maxRank
}

// NoiseVariance returns the average of the min(n, d)-p smallest eigenvalues.
// It is NaN for p outside [0, min(n, d)).
func (model *Model) NoiseVariance(p int) float64 {
	m := len(model.evals)
	if p < 0 || p >= m {
		return math.NaN()
	}
	return model.tail[p] / float64(m-p)
}

// TrainLogLikelihood returns the training log-likelihood for p = 1..MaxRank()
// at index p-1.
func (model *Model) TrainLogLikelihood() []float64 {
	res := make([]float64, len(model.llTrain))
	copy(res, model.llTrain)
	return res
}

// trainLogLikelihood is the closed form
//
// -n/2 (d log 2π + Σ_{i<=p} log λ_i + (d-p) log σ² + p + Σ_{i>p} λ_i / σ²)
func (model *Model) trainLogLikelihood(p int) float64 {
	sigma2 := model.NoiseVariance(p)
	logDet := model.logDet(p, sigma2)
	trace := float64(p) + model.tail[p]/sigma2
	return -0.5 * float64(model.n) * (float64(model.d)*math.Log(2*math.Pi) + logDet + trace)
}

func (model *Model) logDet(p int, sigma2 float64) float64 {
	var res float64
	for _, v := range model.evals[:p] {
		res += math.Log(v)
	}
	return res + float64(model.d-p)*math.Log(sigma2)
}

func (model *Model) checkRank(p int) error {
	if p < 1 || p > model.maxRank {
		return fmt.Errorf("%w: p=%d, feasible ranks are [1, %d]", ErrRank, p, model.maxRank)
	}
	return nil
}

// ScoreHeldOut returns the summed log-density of the rows of Xtest under the
// rank p model. The covariance is never inverted explicitly: the quadratic
// form is evaluated in the eigenbasis of the training covariance.
func (model *Model) ScoreHeldOut(Xtest mat.Matrix, p int) (float64, error) {
	t, d := Xtest.Dims()
	if d != model.d {
		return 0, fmt.Errorf("%w: model has %d features, data has %d", ErrDimensionMismatch, model.d, d)
	}
	if err := model.checkRank(p); err != nil {
		return 0, err
	}
	if t == 0 {
		return 0, fmt.Errorf("%w: no held-out samples", ErrDegenerateInput)
	}
	if gonumExtensions.NANORINF(Xtest) {
		return 0, fmt.Errorf("%w: held-out data contains NaN or Inf", ErrDegenerateInput)
	}

	sigma2 := model.NoiseVariance(p)
	constant := float64(d)*math.Log(2*math.Pi) + model.logDet(p, sigma2)

	centred := gonumExtensions.Center(Xtest, model.mean)
	var proj mat.Dense
	proj.Mul(centred, model.evecs.Slice(0, d, 0, p))

	inv := make([]float64, p)
	for j := range inv {
		inv[j] = 1 / model.evals[j]
	}

	var ll float64
	for r := 0; r < t; r++ {
		row := centred.RawRowView(r)
		pr := proj.RawRowView(r)
		norm := floats.Dot(row, row)
		var explained, quad float64
		for j, v := range pr {
			explained += v * v
			quad += v * v * inv[j]
		}
		quad += (norm - explained) / sigma2
		ll += -0.5 * (constant + quad)
	}
	return ll, nil
}

// Covariance returns the rank p covariance W Wᵀ + σ² I.
func (model *Model) Covariance(p int) (*mat.SymDense, error) {
	if err := model.checkRank(p); err != nil {
		return nil, err
	}
	sigma2 := model.NoiseVariance(p)
	cov := mat.NewSymDense(model.d, nil)
	for i := 0; i < model.d; i++ {
		cov.SetSym(i, i, sigma2)
	}
	for j := 0; j < p; j++ {
		cov.SymRankOne(cov, model.evals[j]-sigma2, model.evecs.ColView(j))
	}
	return cov, nil
}
