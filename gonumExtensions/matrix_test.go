package gonumExtensions

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFull(t *testing.T) {
	m := Full(2, 3, 4.5)
	r, c := m.Dims()
	if r != 2 || c != 3 {
		t.Errorf("Wrong dimensions %v x %v", r, c)
	}
	if mat.Sum(m) != 27 {
		t.Errorf("Wrong entries\n%v", mat.Formatted(m))
	}
	if mat.Sum(Ones(3, 3)) != 9 {
		t.Error("Ones is not filled with ones")
	}
}

func TestNANORINF(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if NANORINF(m) {
		t.Error("Finite matrix flagged")
	}
	m.Set(2, 1, math.Inf(1))
	if !NANORINF(m) {
		t.Error("Inf not found")
	}
	// A slice view must only look at its own elements.
	if NANORINF(m.Slice(0, 2, 0, 3)) {
		t.Error("Slice view looked outside its rows")
	}
	if !NANORINF(m.T()) {
		t.Error("Inf not found through transpose")
	}
	m.Set(2, 1, math.NaN())
	if !NANORINF(m) {
		t.Error("NaN not found")
	}
}

func TestRows(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{0, 1, 10, 11, 20, 21, 30, 31})
	res := Rows(m, []int{3, 0, 3})
	want := mat.NewDense(3, 2, []float64{30, 31, 0, 1, 30, 31})
	if !mat.Equal(res, want) {
		t.Errorf("Wrong rows\n%v", mat.Formatted(res))
	}
	res.Set(0, 0, -1)
	if m.At(3, 0) != 30 {
		t.Error("Rows must copy")
	}
	res = Rows(m.T(), []int{1})
	if !mat.Equal(res, mat.NewDense(1, 4, []float64{1, 11, 21, 31})) {
		t.Errorf("Wrong rows of transpose\n%v", mat.Formatted(res))
	}
}

func TestRowsPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Out of range index should panic")
		}
	}()
	Rows(mat.NewDense(2, 2, nil), []int{2})
}

func TestCenter(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1, 10, 2, 20, 3, 30})
	mean := ColumnMeans(m)
	if mean.AtVec(0) != 2 || mean.AtVec(1) != 20 {
		t.Errorf("Wrong mean %v", mat.Formatted(mean.T()))
	}
	c := Center(m, mean)
	if !mat.Equal(c, mat.NewDense(3, 2, []float64{-1, -10, 0, 0, 1, 10})) {
		t.Errorf("Wrong centring\n%v", mat.Formatted(c))
	}
	if m.At(0, 0) != 1 {
		t.Error("Center modified its input")
	}
}

func TestMedian(t *testing.T) {
	if v := Median([]float64{5, 1, 3}); v != 3 {
		t.Errorf("Median of odd count is %v", v)
	}
	values := []float64{4, 1, 3, 2}
	if v := Median(values); v != 2.5 {
		t.Errorf("Median of even count is %v", v)
	}
	if values[0] != 4 {
		t.Error("Median reordered its input")
	}
	if !math.IsNaN(Median(nil)) {
		t.Error("Median of nothing should be NaN")
	}
}
