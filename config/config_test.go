package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 16, f.Windows)
	assert.Equal(t, 4, f.Folds)
	assert.Equal(t, 25, f.Grid.Step)
	assert.Equal(t, 8200, f.Grid.Ceiling)
	assert.Equal(t, runtime.NumCPU(), f.Workers)
	assert.Equal(t, ".", f.Output)
	assert.Equal(t, "info", f.LogLevel)
	assert.Equal(t, Default(), f)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := `
data:
  path: /data/m187201_150727_detrend.bin
  transpose: true
frames: 347904
windows: 16
folds: 4
grid:
  step: 50
seed: 12
workers: 3
output: results
resume: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/m187201_150727_detrend.bin", f.Data.Path)
	assert.True(t, f.Data.Transpose)
	assert.Equal(t, 50, f.Grid.Step)
	assert.Equal(t, 8200, f.Grid.Ceiling)
	assert.Equal(t, uint64(12), f.Seed)
	assert.True(t, f.Resume)

	c := f.Selection(347973)
	require.NoError(t, c.Validate())
	assert.Equal(t, 21744, c.WindowLength())
	assert.Equal(t, []int{16308}, c.SampleSizes)
	assert.Len(t, c.Units(), 16)
}

func TestSelectionUsesAllRows(t *testing.T) {
	f := Default()
	f.Windows = 2
	f.SampleSizes = []int{40}
	c := f.Selection(200)
	assert.Equal(t, 200, c.Frames)
	assert.Equal(t, 100, c.WindowLength())
	assert.Equal(t, []int{40}, c.SampleSizes)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("windows: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
