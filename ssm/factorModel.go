package ssm

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// FactorModel struct represent the system
//
// x = C z + mean + e
//
// where z is the latent state and e is isotropic observation noise.
type FactorModel struct {
	// Observation (loading) matrix, features x latent order
	C *mat.Dense
	// Observation mean
	Mean *mat.VecDense
	// Variance of every noise component
	NoiseVariance float64
}

var _ StateSpaceModel = FactorModel{}

// NewFactorModel creates a new factor model. A nil mean is the zero vector.
func NewFactorModel(C *mat.Dense, mean *mat.VecDense, noiseVariance float64) *FactorModel {
	d, _ := C.Dims()
	if mean == nil {
		mean = mat.NewVecDense(d, nil)
	}
	if mean.Len() != d {
		panic(errors.New("Mean doesn't match observation matrix"))
	}
	if noiseVariance < 0 {
		panic(errors.New("Noise variance must be non-negative"))
	}
	return &FactorModel{C: C, Mean: mean, NoiseVariance: noiseVariance}
}

// Observation returns
// x = C z + mean + e
// where state = z and noise = e.
func (model FactorModel) Observation(state, noise mat.Vector) mat.Vector {
	d, k := model.C.Dims()
	if state.Len() != k {
		panic(errors.New("State vector doesn't match observation matrix"))
	}
	if noise.Len() != d {
		panic(errors.New("Noise vector doesn't match observation matrix"))
	}
	res := mat.NewVecDense(d, nil)
	res.MulVec(model.C, state)
	res.AddVec(res, model.Mean)
	res.AddVec(res, noise)
	return res
}

// Covariance returns C Cᵀ + σ² I.
func (model FactorModel) Covariance() *mat.SymDense {
	d, _ := model.C.Dims()
	var cov mat.SymDense
	cov.SymOuterK(1, model.C)
	for i := 0; i < d; i++ {
		cov.SetSym(i, i, cov.At(i, i)+model.NoiseVariance)
	}
	return &cov
}

func (model FactorModel) StateSpaceOrder() int {
	_, k := model.C.Dims()
	return k
}

func (model FactorModel) ObservationSpaceOrder() int {
	d, _ := model.C.Dims()
	return d
}
