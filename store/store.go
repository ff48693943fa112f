// Package store reads observation matrices and writes one result artifact per
// (window, sample size) unit.
//
// Matrices use the gonum binary format (mat.Dense MarshalBinaryTo), artifacts
// are JSON documents named after the window length, sample count and window
// number.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vishalbelsare/widefield/selection"
	"gonum.org/v1/gonum/mat"
)

// ErrFormat is returned for files that do not decode.
var ErrFormat = errors.New("store: bad format")

// LoadMatrix reads a gonum binary matrix. With transpose the stored matrix is
// features x time and is returned as time x features.
func LoadMatrix(path string, transpose bool) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	if transpose {
		return mat.DenseCopyOf(m.T()), nil
	}
	return &m, nil
}

// SaveMatrix writes m in the gonum binary format.
func SaveMatrix(path string, m mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := mat.DenseCopyOf(m).MarshalBinaryTo(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ArtifactName returns the file name of a unit result. window is zero based
// and written one based.
func ArtifactName(windowLength, samples, window int) string {
	return fmt.Sprintf("p_twin%d_nsamples%d_%d.json", windowLength, samples, window+1)
}

// Dir writes results into a directory. It implements selection.Sink.
type Dir struct {
	Path string
}

// NewDir creates path if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return &Dir{Path: path}, nil
}

// Write stores res under its ArtifactName. The file is written to a
// temporary name first so a killed run never leaves a truncated artifact.
func (d *Dir) Write(res *selection.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	name := filepath.Join(d.Path, ArtifactName(res.WindowLength, res.Samples, res.Window))
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, name)
}

// Artifacts lists the result files in the directory.
func (d *Dir) Artifacts() ([]string, error) {
	names, err := filepath.Glob(filepath.Join(d.Path, "p_twin*_nsamples*_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Done reports whether the artifact of unit is already present, so a
// restarted batch can skip it. It implements selection.Checkpointer.
func (d *Dir) Done(unit selection.Unit, windowLength int) bool {
	_, err := os.Stat(filepath.Join(d.Path, ArtifactName(windowLength, unit.Samples, unit.Window)))
	return err == nil
}

// LoadResult reads an artifact written by Dir.Write.
func LoadResult(path string) (*selection.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var res selection.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	return &res, nil
}
