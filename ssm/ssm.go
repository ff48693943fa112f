// Package ssm describes the generative side of the models fitted in this
// module. A memoryless linear Gaussian state space model
//
// x = C z + mean + e, z ~ N(0, I), e ~ N(0, σ² I)
//
// is exactly the model that probabilistic PCA recovers, so it is used to
// draw synthetic data with known rank and noise level.
package ssm

import (
	"gonum.org/v1/gonum/mat"
)

// StateSpaceModel interface has two parts:
//
// 1) The observation function mapping a latent state and a noise draw to an
// observed vector.
//
// 2) The marginal covariance of the observations.
type StateSpaceModel interface {
	// Observation returns the observed vector for latent state and noise.
	Observation(state, noise mat.Vector) mat.Vector
	// Covariance returns the marginal covariance of the observations.
	Covariance() *mat.SymDense
	// Returns the state space order
	StateSpaceOrder() int
	// Returns the observation space order.
	ObservationSpaceOrder() int
}
