package ppca

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishalbelsare/widefield/gonumExtensions"
	"github.com/vishalbelsare/widefield/simulate"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

func randomMatrix(n, d int, seed uint64) *mat.Dense {
	rnd := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, d, nil)
	X.Apply(func(_, _ int, _ float64) float64 { return rnd.NormFloat64() }, X)
	return X
}

func TestEigenvaluesOrderAndCount(t *testing.T) {
	shapes := []struct{ n, d int }{
		{2, 1}, {2, 5}, {10, 3}, {7, 7}, {5, 20}, {50, 12},
	}
	for i, shape := range shapes {
		model, err := Fit(randomMatrix(shape.n, shape.d, uint64(i+1)))
		require.NoError(t, err)
		evals := model.Eigenvalues()
		require.Len(t, evals, min(shape.n, shape.d))
		for j, v := range evals {
			assert.GreaterOrEqual(t, v, 0.)
			if j > 0 {
				assert.LessOrEqualf(t, v, evals[j-1], "eigenvalue %d out of order for %dx%d", j, shape.n, shape.d)
			}
		}
		assert.Less(t, model.MaxRank(), min(shape.n, shape.d))
	}
}

func TestFitDegenerate(t *testing.T) {
	_, err := Fit(mat.NewDense(1, 4, []float64{1, 2, 3, 4}))
	assert.True(t, errors.Is(err, ErrDegenerateInput))

	X := randomMatrix(6, 3, 1)
	X.Set(2, 1, math.NaN())
	_, err = Fit(X)
	assert.True(t, errors.Is(err, ErrDegenerateInput))

	X = randomMatrix(6, 3, 1)
	X.Set(4, 0, math.Inf(-1))
	_, err = Fit(X)
	assert.True(t, errors.Is(err, ErrDegenerateInput))

	_, err = Fit(gonumExtensions.Full(5, 3, 2))
	assert.True(t, errors.Is(err, ErrDegenerateInput))
}

func TestFitDoesNotModifyInput(t *testing.T) {
	X := randomMatrix(8, 4, 3)
	orig := mat.DenseCopyOf(X)
	_, err := Fit(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(X, orig))
}

// The SVD path (d > n) and the covariance path (d <= n) must give the same
// spectrum as a direct eigendecomposition of the ML covariance.
func TestEigenvaluesMatchCovariance(t *testing.T) {
	for _, shape := range []struct{ n, d int }{{30, 6}, {6, 30}} {
		X := randomMatrix(shape.n, shape.d, 11)
		model, err := Fit(X)
		require.NoError(t, err)

		centred := gonumExtensions.Center(X, gonumExtensions.ColumnMeans(X))
		var cov mat.SymDense
		cov.SymOuterK(1/float64(shape.n), centred.T())
		var eig mat.EigenSym
		require.True(t, eig.Factorize(&cov, false))
		want := eig.Values(nil)

		got := model.Eigenvalues()
		for i, v := range got {
			assert.InDelta(t, want[len(want)-1-i], v, 1e-9)
		}
	}
}

func TestSingularValues(t *testing.T) {
	X := randomMatrix(12, 5, 5)
	model, err := Fit(X)
	require.NoError(t, err)
	var svd mat.SVD
	require.True(t, svd.Factorize(gonumExtensions.Center(X, model.Mean()), mat.SVDNone))
	assert.InDeltaSlice(t, svd.Values(nil), model.SingularValues(), 1e-9)
}

func TestNoiseVariance(t *testing.T) {
	model, err := Fit(randomMatrix(40, 6, 9))
	require.NoError(t, err)
	evals := model.Eigenvalues()
	for p := 0; p < 6; p++ {
		var sum float64
		for _, v := range evals[p:] {
			sum += v
		}
		assert.InDelta(t, sum/float64(6-p), model.NoiseVariance(p), 1e-12)
	}
	assert.True(t, math.IsNaN(model.NoiseVariance(6)))
	assert.True(t, math.IsNaN(model.NoiseVariance(-1)))
}

// Centred data with n <= d has a zero trailing eigenvalue, the largest rank
// that would average over it is never feasible.
func TestMaxRankExcludesZeroNoise(t *testing.T) {
	model, err := Fit(randomMatrix(5, 20, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, model.MaxRank())
	assert.Len(t, model.TrainLogLikelihood(), 3)
	assert.Greater(t, model.NoiseVariance(model.MaxRank()), 0.)

	model, err = Fit(randomMatrix(50, 8, 2))
	require.NoError(t, err)
	assert.Equal(t, 7, model.MaxRank())
}

func TestTrainLogLikelihoodEqualsHeldOutOnTrainingData(t *testing.T) {
	X, _ := simulate.LowRankData(60, 9, 3, 0.2, 4)
	model, err := Fit(X)
	require.NoError(t, err)
	ll := model.TrainLogLikelihood()
	require.Len(t, ll, model.MaxRank())
	for p := 1; p <= model.MaxRank(); p++ {
		score, err := model.ScoreHeldOut(X, p)
		require.NoError(t, err)
		assert.InDeltaf(t, ll[p-1], score, 1e-7*math.Abs(score), "rank %d", p)
	}
}

func TestScoreHeldOutMatchesGaussianDensity(t *testing.T) {
	X, _ := simulate.LowRankData(80, 7, 2, 0.3, 8)
	Xtest, _ := simulate.LowRankData(15, 7, 2, 0.3, 9)
	model, err := Fit(X)
	require.NoError(t, err)

	for _, p := range []int{1, 2, 4, model.MaxRank()} {
		cov, err := model.Covariance(p)
		require.NoError(t, err)
		normal, ok := distmv.NewNormal(model.Mean().RawVector().Data, cov, nil)
		require.True(t, ok)
		var want float64
		for r := 0; r < 15; r++ {
			want += normal.LogProb(Xtest.RawRowView(r))
		}
		got, err := model.ScoreHeldOut(Xtest, p)
		require.NoError(t, err)
		assert.InDeltaf(t, want, got, 1e-8*math.Abs(want), "rank %d", p)
	}
}

func TestScoreHeldOutErrors(t *testing.T) {
	model, err := Fit(randomMatrix(20, 5, 1))
	require.NoError(t, err)

	_, err = model.ScoreHeldOut(randomMatrix(4, 6, 2), 1)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = model.ScoreHeldOut(randomMatrix(4, 5, 2), 0)
	assert.True(t, errors.Is(err, ErrRank))

	_, err = model.ScoreHeldOut(randomMatrix(4, 5, 2), 5)
	assert.True(t, errors.Is(err, ErrRank))

	bad := randomMatrix(4, 5, 2)
	bad.Set(0, 0, math.NaN())
	_, err = model.ScoreHeldOut(bad, 2)
	assert.True(t, errors.Is(err, ErrDegenerateInput))

	_, err = model.Covariance(0)
	assert.True(t, errors.Is(err, ErrRank))
}

// Held-out likelihood is higher at the generating rank than at rank one for
// well separated low-rank data.
func TestScoreHeldOutPrefersTrueRank(t *testing.T) {
	X, _ := simulate.LowRankData(200, 12, 3, 0.1, 21)
	train := X.Slice(0, 150, 0, 12)
	test := X.Slice(150, 200, 0, 12)
	fit, err := Fit(train)
	require.NoError(t, err)
	ll1, err := fit.ScoreHeldOut(test, 1)
	require.NoError(t, err)
	ll3, err := fit.ScoreHeldOut(test, 3)
	require.NoError(t, err)
	assert.Greater(t, ll3, ll1)
}

func BenchmarkFit(b *testing.B) {
	X := randomMatrix(500, 100, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Fit(X); err != nil {
			b.Fatal(err)
		}
	}
}
