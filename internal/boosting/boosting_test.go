package boosting

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// windowCopy trains a "model" that is simply a copy of its window, so tests
// can check structural equality of the trained sub-models.
func windowCopy(window []int) []int {
	return append([]int(nil), window...)
}

func testBooster(t *testing.T, k int) Booster[int, []int] {
	t.Helper()
	b, err := NewBooster(k, windowCopy)
	require.NoError(t, err)
	return b
}

func ints(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestNewBoosterValidation(t *testing.T) {
	_, err := NewBooster(0, windowCopy)
	assert.Error(t, err)

	_, err = NewBooster(-1, windowCopy)
	assert.Error(t, err)

	_, err = NewBooster[int, []int](1, nil)
	assert.Error(t, err)
}

func TestSinglePoint(t *testing.T) {
	b := testBooster(t, 1)

	e := b.Single(42)
	assert.Equal(t, 1, e.NumPoints)
	assert.Equal(t, []int{42}, e.Data)
	assert.Empty(t, e.Models)
	assert.Empty(t, e.Weights)
}

func TestIdentityElement(t *testing.T) {
	b := testBooster(t, 1)

	a := b.Train(ints(1, 5))
	empty := b.Empty()

	assert.Equal(t, a, b.Combine(empty, a))
	assert.Equal(t, a, b.Combine(a, empty))
	assert.Equal(t, empty, b.Combine(empty, empty))
}

func TestAssociativity(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			b := testBooster(t, k)

			a := b.Train(ints(1, 4))
			c := b.Train(ints(5, 7))
			d := b.Train(ints(8, 10))

			left := b.Combine(b.Combine(a, c), d)
			right := b.Combine(a, b.Combine(c, d))

			assert.Equal(t, left.Data, right.Data)
			assert.Equal(t, left.Models, right.Models)
			assert.Equal(t, left.NumPoints, right.NumPoints)
		})
	}
}

func TestCombineRetrainsOnlyBoundaryWindows(t *testing.T) {
	b := testBooster(t, 1)

	left := b.Train(ints(1, 5))  // windows [1..3] [2..4] [3..5]
	right := b.Train(ints(6, 9)) // windows [6..8] [7..9]

	combined := b.Combine(left, right)

	// The boundary contributes exactly the windows straddling the seam.
	want := [][]int{
		{1, 2, 3}, {2, 3, 4}, {3, 4, 5},
		{4, 5, 6}, {5, 6, 7},
		{6, 7, 8}, {7, 8, 9},
	}
	assert.Equal(t, want, combined.Models)
	assert.Equal(t, ints(1, 9), combined.Data)
	assert.Equal(t, 9, combined.NumPoints)
}

func TestTrainWindowCount(t *testing.T) {
	tests := []struct {
		k      int
		n      int
		models int
	}{
		{k: 1, n: 1, models: 0},
		{k: 1, n: 2, models: 0},
		{k: 1, n: 3, models: 1},
		{k: 1, n: 10, models: 8},
		{k: 2, n: 4, models: 0},
		{k: 2, n: 5, models: 1},
		{k: 2, n: 12, models: 8},
	}

	for _, tt := range tests {
		b := testBooster(t, tt.k)
		e := b.Train(ints(1, tt.n))

		assert.Len(t, e.Models, tt.models, "k=%d n=%d", tt.k, tt.n)
		assert.Equal(t, tt.n, e.NumPoints)

		// Every model covers a contiguous window of width 2k+1.
		width := 2*tt.k + 1
		for i, m := range e.Models {
			assert.Equal(t, ints(i+1, i+width), m)
		}
	}
}

func TestCombineLeavesWeightsEmpty(t *testing.T) {
	b := testBooster(t, 1)

	left := b.Train(ints(1, 6))
	left.Weights = []float64{0.5, 0.25, 0.25}
	right := b.Train(ints(7, 12))

	combined := b.Combine(left, right)
	assert.Empty(t, combined.Weights)
}
