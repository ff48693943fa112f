package selection

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
)

// Permutation draws n distinct row indices uniformly without replacement
// from [start, start+windowLength). The order is random and defines the fold
// assignment.
func Permutation(rnd *rand.Rand, windowLength, n, start int) ([]int, error) {
	if n < 1 || n > windowLength {
		return nil, fmt.Errorf("%w: cannot draw %d of %d rows", ErrInvalidConfiguration, n, windowLength)
	}
	perm := rnd.Perm(windowLength)[:n]
	for i := range perm {
		perm[i] += start
	}
	return perm, nil
}

// Folds is a partition of a permutation into equal sized groups.
type Folds [][]int

// Partition splits perm into k consecutive folds of len(perm)/k indices.
func Partition(perm []int, k int) (Folds, error) {
	if err := checkSampleSize(len(perm), k); err != nil {
		return nil, err
	}
	size := len(perm) / k
	folds := make(Folds, k)
	for i := range folds {
		folds[i] = perm[i*size : (i+1)*size : (i+1)*size]
	}
	return folds, nil
}

// Union returns every index of every fold in fold order.
func (f Folds) Union() []int {
	var res []int
	for _, fold := range f {
		res = append(res, fold...)
	}
	return res
}

// Train returns the training set of fold i, the union of all folds minus the
// indices held out in fold i.
func (f Folds) Train(i int) []int {
	held := make(map[int]struct{}, len(f[i]))
	for _, index := range f[i] {
		held[index] = struct{}{}
	}
	var res []int
	for _, index := range f.Union() {
		if _, ok := held[index]; !ok {
			res = append(res, index)
		}
	}
	return res
}

// Range returns the smallest and largest index in the partition.
func (f Folds) Range() (lo, hi int) {
	all := f.Union()
	sort.Ints(all)
	return all[0], all[len(all)-1]
}
