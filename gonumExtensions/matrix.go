package gonumExtensions

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ones returns a (m by n) matrix filled with ones
func Ones(m, n int) *mat.Dense {
	return Full(m, n, 1.)
}

// Full returns a (m by n) matrix filled with value
func Full(m, n int, value float64) *mat.Dense {
	data := make([]float64, m*n)
	for index := range data {
		data[index] = value
	}
	return mat.NewDense(m, n, data)
}

// NANORINF checks if there are any NAN or INF in matrix
func NANORINF(matrix mat.Matrix) bool {
	if raw, ok := matrix.(mat.RawMatrixer); ok {
		rm := raw.RawMatrix()
		for row := 0; row < rm.Rows; row++ {
			for _, v := range rm.Data[row*rm.Stride : row*rm.Stride+rm.Cols] {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return true
				}
			}
		}
		return false
	}
	m, n := matrix.Dims()
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			if math.IsNaN(matrix.At(row, col)) || math.IsInf(matrix.At(row, col), 0) {
				return true
			}
		}
	}
	return false
}

// Rows gathers the rows listed in index into a new (len(index) by n) matrix.
// The source matrix is never modified.
func Rows(matrix mat.Matrix, index []int) *mat.Dense {
	m, n := matrix.Dims()
	res := mat.NewDense(len(index), n, nil)
	for dst, src := range index {
		if src < 0 || src >= m {
			panic(mat.ErrRowAccess)
		}
		if raw, ok := matrix.(mat.RawRowViewer); ok {
			res.SetRow(dst, raw.RawRowView(src))
			continue
		}
		for col := 0; col < n; col++ {
			res.Set(dst, col, matrix.At(src, col))
		}
	}
	return res
}

// ColumnMeans returns the mean of every column of matrix.
func ColumnMeans(matrix mat.Matrix) *mat.VecDense {
	m, n := matrix.Dims()
	res := mat.NewVecDense(n, nil)
	col := make([]float64, m)
	for j := 0; j < n; j++ {
		mat.Col(col, j, matrix)
		res.SetVec(j, stat.Mean(col, nil))
	}
	return res
}

// Center returns matrix with mean subtracted from every row.
func Center(matrix mat.Matrix, mean mat.Vector) *mat.Dense {
	m, n := matrix.Dims()
	if mean.Len() != n {
		panic(mat.ErrShape)
	}
	res := mat.DenseCopyOf(matrix)
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			res.Set(row, col, res.At(row, col)-mean.AtVec(col))
		}
	}
	return res
}

// Median returns the median of values without reordering them.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	tmp := make([]float64, len(values))
	copy(tmp, values)
	sort.Float64s(tmp)
	// stat.Quantile with the empirical CDF picks the lower middle element,
	// the conventional median averages the two middle ones.
	if len(tmp)%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, tmp, nil)
	}
	return 0.5 * (tmp[len(tmp)/2-1] + tmp[len(tmp)/2])
}
