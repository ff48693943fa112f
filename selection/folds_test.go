package selection

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestPermutation(t *testing.T) {
	perm, err := Permutation(rand.New(rand.NewSource(1)), 100, 40, 300)
	require.NoError(t, err)
	require.Len(t, perm, 40)
	seen := make(map[int]bool)
	for _, index := range perm {
		assert.GreaterOrEqual(t, index, 300)
		assert.Less(t, index, 400)
		assert.False(t, seen[index], "duplicate index %d", index)
		seen[index] = true
	}

	again, err := Permutation(rand.New(rand.NewSource(1)), 100, 40, 300)
	require.NoError(t, err)
	assert.Equal(t, perm, again)

	_, err = Permutation(rand.New(rand.NewSource(1)), 10, 11, 0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestPartition(t *testing.T) {
	perm, err := Permutation(rand.New(rand.NewSource(7)), 1000, 40, 0)
	require.NoError(t, err)
	folds, err := Partition(perm, 4)
	require.NoError(t, err)
	require.Len(t, folds, 4)
	for _, fold := range folds {
		assert.Len(t, fold, 10)
	}

	union := folds.Union()
	assert.Len(t, union, len(perm))
	counts := make(map[int]int)
	for _, index := range union {
		counts[index]++
	}
	assert.Len(t, counts, len(perm))
	for _, index := range perm {
		assert.Equal(t, 1, counts[index])
	}
}

func TestPartitionNotDivisible(t *testing.T) {
	_, err := Partition(make([]int, 42), 4)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = Partition(make([]int, 40), 0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestFoldTrainIsSetDifference(t *testing.T) {
	perm := []int{9, 3, 7, 1, 5, 0, 2, 8}
	folds, err := Partition(perm, 4)
	require.NoError(t, err)
	for i := range folds {
		train := folds.Train(i)
		assert.Len(t, train, 6)
		for _, held := range folds[i] {
			assert.NotContains(t, train, held)
		}
		all := append(append([]int{}, train...), folds[i]...)
		sort.Ints(all)
		want := append([]int{}, perm...)
		sort.Ints(want)
		assert.Equal(t, want, all)
	}
	assert.Equal(t, []int{9, 3, 5, 0, 2, 8}, folds.Train(1))
}

func TestFoldsRange(t *testing.T) {
	lo, hi := Folds{{4, 9}, {2, 6}}.Range()
	assert.Equal(t, 2, lo)
	assert.Equal(t, 9, hi)
}
