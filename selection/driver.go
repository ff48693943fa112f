package selection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Sink persists finished results, one artifact per unit.
type Sink interface {
	Write(*Result) error
}

// Checkpointer is a Sink that knows which units it already holds.
type Checkpointer interface {
	Sink
	Done(unit Unit, windowLength int) bool
}

// UnitError records why a unit produced no result.
type UnitError struct {
	Unit Unit
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("window %d (start %d) n_samples %d: %v", e.Unit.Window, e.Unit.Start, e.Unit.Samples, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// Report collects the outcome of a Run. Results and Failures are ordered by
// window, then position in Config.SampleSizes.
type Report struct {
	Results  []*Result
	Failures []*UnitError
	// Skipped lists units already held by a Checkpointer sink when resuming.
	Skipped []Unit
}

// Driver evaluates every unit of a Config over a worker pool.
type Driver struct {
	config Config
	log    zerolog.Logger
	sink   Sink
	resume bool
}

// NewDriver validates c and returns a driver. sink may be nil.
func NewDriver(c Config, log zerolog.Logger, sink Sink) (*Driver, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Driver{config: c, log: log, sink: sink}, nil
}

// Resume makes Run skip units whose artifact the sink already holds. It has
// no effect unless the sink is a Checkpointer.
func (d *Driver) Resume(resume bool) {
	d.resume = resume
}

// Config returns the driver configuration.
func (d *Driver) Config() Config {
	return d.config
}

type outcome struct {
	unit   Unit
	result *Result
	err    error
}

// Run evaluates all units on X, rows being time points. A failing unit is
// logged and reported without stopping the others. Cancelling ctx stops
// dispatching new units; units already running finish and the partial report
// is returned with ctx.Err().
func (d *Driver) Run(ctx context.Context, X mat.Matrix) (*Report, error) {
	rows, _ := X.Dims()
	if d.config.Frames > rows {
		return nil, fmt.Errorf("%w: %d frames requested, data has %d rows", ErrInvalidConfiguration, d.config.Frames, rows)
	}

	report := &Report{}
	var units []Unit
	for _, unit := range d.config.Units() {
		if cp, ok := d.sink.(Checkpointer); ok && d.resume && cp.Done(unit, d.config.WindowLength()) {
			d.log.Info().Int("window", unit.Window).Int("n_samples", unit.Samples).Msg("skipping finished unit")
			report.Skipped = append(report.Skipped, unit)
			continue
		}
		units = append(units, unit)
	}

	work := make(chan Unit)
	done := make(chan outcome)

	var wg sync.WaitGroup
	wg.Add(d.config.Workers)
	for w := 0; w < d.config.Workers; w++ {
		go func() {
			defer wg.Done()
			for unit := range work {
				done <- d.evaluate(X, unit)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, unit := range units {
			if ctx.Err() != nil {
				return
			}
			select {
			case work <- unit:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	var outcomes []outcome
	for out := range done {
		outcomes = append(outcomes, out)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		a, b := outcomes[i].unit, outcomes[j].unit
		if a.Window != b.Window {
			return a.Window < b.Window
		}
		return a.SampleIndex < b.SampleIndex
	})
	for _, out := range outcomes {
		if out.err != nil {
			report.Failures = append(report.Failures, &UnitError{Unit: out.unit, Err: out.err})
			continue
		}
		report.Results = append(report.Results, out.result)
	}

	d.log.Info().
		Int("results", len(report.Results)).
		Int("failures", len(report.Failures)).
		Int("skipped", len(report.Skipped)).
		Msg("selection finished")
	return report, ctx.Err()
}

func (d *Driver) evaluate(X mat.Matrix, unit Unit) outcome {
	log := d.log.With().Int("window", unit.Window).Int("t_start", unit.Start).Int("n_samples", unit.Samples).Logger()
	log.Info().Msg("evaluating unit")

	res, err := Evaluate(X, unit, d.config)
	if err != nil {
		log.Error().Err(err).Msg("unit failed")
		return outcome{unit: unit, err: err}
	}

	lo, hi := Folds{res.Permutation}.Range()
	log.Info().
		Int("min_index", lo).
		Int("max_index", hi).
		Int("p_threshold", res.ThresholdRank).
		Int("p_xval", res.CVRank).
		Int("p_aic", res.AICRank).
		Int("p_bic", res.BICRank).
		Msg("unit done")

	if d.sink != nil {
		if err := d.sink.Write(res); err != nil {
			log.Error().Err(err).Msg("writing result failed")
			return outcome{unit: unit, err: fmt.Errorf("writing result: %w", err)}
		}
	}
	return outcome{unit: unit, result: res}
}
