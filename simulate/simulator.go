// Package simulate draws synthetic observation matrices from the state space
// models in github.com/vishalbelsare/widefield/ssm. Every simulator owns its
// random source, so a seed fully determines the data.
package simulate

import (
	"math"

	"github.com/vishalbelsare/widefield/ssm"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulator interface
type Simulator interface {
	// Simulate returns n samples, one per row.
	Simulate(n int) *mat.Dense
}

// simulator type
type simulator struct {
	model  ssm.StateSpaceModel
	latent distuv.Normal
	noise  distuv.Normal
	// noisy is false for noiseless models, which skip the noise draws.
	noisy bool
}

// NewSimulator returns a simulator of model drawing the latent state from
// N(0, I) and every noise component from N(0, noiseVariance), both from src.
func NewSimulator(model ssm.StateSpaceModel, noiseVariance float64, src rand.Source) Simulator {
	return &simulator{
		model:  model,
		latent: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		noise:  distuv.Normal{Mu: 0, Sigma: math.Sqrt(noiseVariance), Src: src},
		noisy:  noiseVariance > 0,
	}
}

// NewFactorModelSimulator returns a simulator drawing z ~ N(0, I) and
// e ~ N(0, σ² I) from src.
func NewFactorModelSimulator(model *ssm.FactorModel, src rand.Source) Simulator {
	return NewSimulator(model, model.NoiseVariance, src)
}

func (sim *simulator) Simulate(n int) *mat.Dense {
	k := sim.model.StateSpaceOrder()
	d := sim.model.ObservationSpaceOrder()
	res := mat.NewDense(n, d, nil)
	state := mat.NewVecDense(k, nil)
	noise := mat.NewVecDense(d, nil)
	for row := 0; row < n; row++ {
		for i := 0; i < k; i++ {
			state.SetVec(i, sim.latent.Rand())
		}
		if sim.noisy {
			for i := 0; i < d; i++ {
				noise.SetVec(i, sim.noise.Rand())
			}
		}
		x := sim.model.Observation(state, noise)
		for i := 0; i < d; i++ {
			res.Set(row, i, x.AtVec(i))
		}
	}
	return res
}

// LowRank returns a factor model with d features, the given rank and
// noise variance. Loadings are independent standard normal draws.
func LowRank(d, rank int, noiseVariance float64, src rand.Source) *ssm.FactorModel {
	loading := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	C := mat.NewDense(d, rank, nil)
	C.Apply(func(_, _ int, _ float64) float64 { return loading.Rand() }, C)
	return ssm.NewFactorModel(C, nil, noiseVariance)
}

// LowRankData draws n samples of a fresh LowRank model seeded with seed.
func LowRankData(n, d, rank int, noiseVariance float64, seed uint64) (*mat.Dense, *ssm.FactorModel) {
	src := rand.NewSource(seed)
	model := LowRank(d, rank, noiseVariance, src)
	return NewFactorModelSimulator(model, src).Simulate(n), model
}
