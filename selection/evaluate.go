package selection

import (
	"fmt"
	"sync"

	"github.com/vishalbelsare/widefield/gonumExtensions"
	"github.com/vishalbelsare/widefield/ppca"
	"github.com/vishalbelsare/widefield/svht"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Unit is one (window, sample size) pair.
type Unit struct {
	// Window is the zero based window number and Start its first row.
	Window, Start int
	// SampleIndex is the position of Samples in Config.SampleSizes.
	SampleIndex, Samples int
	// Seed of the unit's random source.
	Seed uint64
}

// Units lists every (window, sample size) pair of c in window-major order.
func (c Config) Units() []Unit {
	twin := c.WindowLength()
	units := make([]Unit, 0, c.Windows*len(c.SampleSizes))
	for w := 0; w < c.Windows; w++ {
		for i, n := range c.SampleSizes {
			units = append(units, Unit{
				Window:      w,
				Start:       w * twin,
				SampleIndex: i,
				Samples:     n,
				Seed:        unitSeed(c.Seed, w, i),
			})
		}
	}
	return units
}

// unitSeed mixes the base seed with the unit position (splitmix64 finaliser).
func unitSeed(seed uint64, window, sampleIndex int) uint64 {
	z := seed ^ (uint64(window)<<32 | uint64(uint32(sampleIndex)))
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Result holds the four rank estimates of a unit together with everything
// needed to audit them.
type Result struct {
	Window       int    `json:"window"`
	WindowStart  int    `json:"window_start"`
	WindowLength int    `json:"window_length"`
	Samples      int    `json:"n_samples"`
	Folds        int    `json:"n_folds"`
	Seed         uint64 `json:"seed"`

	// Grid holds the cross-validation candidate ranks.
	Grid []int `json:"ps"`

	ThresholdRank int `json:"p_threshold"`
	CVRank        int `json:"p_xval"`
	AICRank       int `json:"p_aic"`
	BICRank       int `json:"p_bic"`

	// Threshold is the SVHT cutoff applied to SingularValues.
	Threshold      float64   `json:"tau"`
	SingularValues []float64 `json:"svs"`

	// TrainLogLikelihood, AIC and BIC are indexed by rank-1.
	TrainLogLikelihood []float64 `json:"ll_all"`
	AIC                []float64 `json:"aic"`
	BIC                []float64 `json:"bic"`

	// CVLogLikelihood is the fold average at every Grid rank.
	CVLogLikelihood   []float64   `json:"ll_xval"`
	FoldLogLikelihood [][]float64 `json:"ll_folds"`
	FoldBestRank      []int       `json:"err_xval"`

	// Permutation lists the sampled rows in fold order.
	Permutation []int `json:"perm"`
}

// Evaluate computes the Result of unit on X, rows being time points. X is
// only read.
func Evaluate(X mat.Matrix, unit Unit, c Config) (*Result, error) {
	rows, d := X.Dims()
	twin := c.WindowLength()
	if unit.Start < 0 || unit.Start+twin > rows {
		return nil, fmt.Errorf("%w: window [%d, %d) exceeds %d rows", ErrInvalidConfiguration, unit.Start, unit.Start+twin, rows)
	}

	rnd := rand.New(rand.NewSource(unit.Seed))
	perm, err := Permutation(rnd, twin, unit.Samples, unit.Start)
	if err != nil {
		return nil, err
	}
	folds, err := Partition(perm, c.Folds)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Window:       unit.Window,
		WindowStart:  unit.Start,
		WindowLength: twin,
		Samples:      unit.Samples,
		Folds:        c.Folds,
		Seed:         unit.Seed,
		Permutation:  perm,
	}
	if err := res.fullSample(X, d); err != nil {
		return nil, err
	}
	if err := res.crossValidate(X, folds, c); err != nil {
		return nil, err
	}
	return res, nil
}

// fullSample fits the whole subset once and derives the threshold, AIC and
// BIC estimates from the single eigendecomposition.
func (res *Result) fullSample(X mat.Matrix, d int) error {
	n := len(res.Permutation)
	model, err := ppca.Fit(gonumExtensions.Rows(X, res.Permutation))
	if err != nil {
		return fmt.Errorf("full sample fit: %w", err)
	}

	res.SingularValues = model.SingularValues()
	res.Threshold, err = svht.Threshold(res.SingularValues, svht.Beta(n, d), false)
	if err != nil {
		return err
	}
	// One less than the position of the first singular value below the
	// threshold, the mean removes a degree of freedom.
	res.ThresholdRank = firstBelow(res.SingularValues, res.Threshold) - 1

	res.TrainLogLikelihood = model.TrainLogLikelihood()
	if len(res.TrainLogLikelihood) == 0 {
		return fmt.Errorf("full sample fit: %w: no rank with positive noise variance", ppca.ErrDegenerateInput)
	}
	res.AIC = AIC(res.TrainLogLikelihood, d)
	res.BIC = BIC(res.TrainLogLikelihood, d, n)
	res.AICRank = Argmin(res.AIC) + 1
	res.BICRank = Argmin(res.BIC) + 1
	return nil
}

// crossValidate fits every training fold concurrently, then scores the held
// out folds on the candidate grid. Any fold failure fails the unit.
func (res *Result) crossValidate(X mat.Matrix, folds Folds, c Config) error {
	k := len(folds)
	models := make([]*ppca.Model, k)
	tests := make([]*mat.Dense, k)
	errs := make([]error, k)

	var wg sync.WaitGroup
	wg.Add(k)
	for i := range folds {
		go func(i int) {
			defer wg.Done()
			tests[i] = gonumExtensions.Rows(X, folds[i])
			models[i], errs[i] = ppca.Fit(gonumExtensions.Rows(X, folds.Train(i)))
		}(i)
	}
	wg.Wait()

	maxRank := -1
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("fold %d: %w", i, err)
		}
		if maxRank < 0 || models[i].MaxRank() < maxRank {
			maxRank = models[i].MaxRank()
		}
	}
	res.Grid = CandidateGrid(c.GridStep, c.GridCeiling, maxRank)
	if len(res.Grid) == 0 {
		return fmt.Errorf("%w: no feasible cross-validation rank", ppca.ErrDegenerateInput)
	}

	res.FoldLogLikelihood = make([][]float64, k)
	res.FoldBestRank = make([]int, k)
	res.CVLogLikelihood = make([]float64, len(res.Grid))
	for i, model := range models {
		ll := make([]float64, len(res.Grid))
		for j, p := range res.Grid {
			score, err := model.ScoreHeldOut(tests[i], p)
			if err != nil {
				return fmt.Errorf("fold %d rank %d: %w", i, p, err)
			}
			ll[j] = score
			res.CVLogLikelihood[j] += score / float64(k)
		}
		res.FoldLogLikelihood[i] = ll
		res.FoldBestRank[i] = res.Grid[Argmax(ll)]
	}
	res.CVRank = res.Grid[Argmax(res.CVLogLikelihood)]
	return nil
}

// Ranks returns the threshold, cross-validated, AIC and BIC estimates.
func (res *Result) Ranks() (threshold, cv, aic, bic int) {
	return res.ThresholdRank, res.CVRank, res.AICRank, res.BICRank
}
