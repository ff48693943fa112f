// Package selection estimates the intrinsic rank of windows of an
// observation matrix four independent ways: the singular value hard
// threshold, k-fold cross-validated PPCA likelihood, AIC and BIC.
//
// Every (window, sample size) pair is an independent unit of work with its
// own random source, so units can run on a worker pool and reruns reproduce
// the same permutations.
package selection

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned for settings that cannot produce a
// valid fold partition or window layout.
var ErrInvalidConfiguration = errors.New("selection: invalid configuration")

// Config determines the behaviour of a Driver.
type Config struct {
	// Frames is the number of leading rows (time points) used. Windows
	// split them into equal consecutive blocks.
	Frames, Windows int

	// SampleSizes are the subset sizes drawn from every window.
	SampleSizes []int

	// Folds is the number of cross-validation folds.
	Folds int

	// GridStep and GridCeiling define the cross-validation candidate ranks
	// {1} ∪ {GridStep, 2 GridStep, ...} below GridCeiling.
	GridStep, GridCeiling int

	// Seed is mixed with the window and sample size index of every unit.
	Seed uint64

	// Workers is the number of units evaluated concurrently.
	Workers int
}

// WindowLength returns the number of rows in every window.
func (c Config) WindowLength() int {
	if c.Windows <= 0 {
		return 0
	}
	return c.Frames / c.Windows
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Frames <= 0 || c.Windows <= 0 {
		return fmt.Errorf("%w: frames=%d windows=%d must be positive", ErrInvalidConfiguration, c.Frames, c.Windows)
	}
	twin := c.WindowLength()
	if twin < 1 {
		return fmt.Errorf("%w: %d frames cannot fill %d windows", ErrInvalidConfiguration, c.Frames, c.Windows)
	}
	if c.Folds < 2 {
		return fmt.Errorf("%w: need at least 2 folds, got %d", ErrInvalidConfiguration, c.Folds)
	}
	if c.GridStep < 1 || c.GridCeiling < 2 {
		return fmt.Errorf("%w: grid step=%d ceiling=%d", ErrInvalidConfiguration, c.GridStep, c.GridCeiling)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: need at least 1 worker, got %d", ErrInvalidConfiguration, c.Workers)
	}
	if len(c.SampleSizes) == 0 {
		return fmt.Errorf("%w: no sample sizes", ErrInvalidConfiguration)
	}
	for _, n := range c.SampleSizes {
		if err := checkSampleSize(n, c.Folds); err != nil {
			return err
		}
		if n > twin {
			return fmt.Errorf("%w: %d samples exceed the window length %d", ErrInvalidConfiguration, n, twin)
		}
	}
	return nil
}

func checkSampleSize(n, folds int) error {
	if folds < 1 || n < 1 || n%folds != 0 {
		return fmt.Errorf("%w: number of samples n_samples=%d is not a multiple of n_folds=%d", ErrInvalidConfiguration, n, folds)
	}
	if n/folds*(folds-1) < 2 {
		return fmt.Errorf("%w: %d samples leave fewer than 2 training rows per fold", ErrInvalidConfiguration, n)
	}
	return nil
}

// SampleSizes returns the schedule 3T/64, 3T/64 + T/32, ... up to and
// including windowLength, T being the number of frames.
func SampleSizes(frames, windowLength int) []int {
	start, step := 3*frames/64, frames/32
	if step < 1 {
		step = 1
	}
	var res []int
	for n := start; n <= windowLength; n += step {
		if n > 0 {
			res = append(res, n)
		}
	}
	return res
}
