package vecspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenseOperations(t *testing.T) {
	sp := NewDense(3)

	x := []float64{1, 2, 3}
	y := []float64{4, 5, 6}

	assert.Equal(t, []float64{0, 0, 0}, sp.Zero())
	assert.Equal(t, []float64{5, 7, 9}, sp.Add(x, y))
	assert.Equal(t, []float64{2, 4, 6}, sp.Scale(2, x))
	assert.Equal(t, []float64{-1, -2, -3}, sp.Neg(x))
	assert.Equal(t, 32.0, sp.Dot(x, y))
}

func TestDenseDoesNotMutateArguments(t *testing.T) {
	sp := NewDense(2)

	x := []float64{1, 2}
	y := []float64{3, 4}

	sp.Add(x, y)
	sp.Scale(10, x)
	sp.Neg(y)

	assert.Equal(t, []float64{1, 2}, x)
	assert.Equal(t, []float64{3, 4}, y)
}

func TestDenseDotSymmetry(t *testing.T) {
	sp := NewDense(4)

	x := []float64{1, -2, 3, 0.5}
	y := []float64{-4, 0, 2, 8}

	assert.Equal(t, sp.Dot(x, y), sp.Dot(y, x))
}

func TestDensePanicsOnBadDimension(t *testing.T) {
	assert.Panics(t, func() { NewDense(0) })
	assert.Panics(t, func() { NewDense(-1) })
}

func TestSparseOperations(t *testing.T) {
	sp := Sparse{}

	x := map[int]float64{0: 1, 5: 2}
	y := map[int]float64{5: 3, 9: -4}

	assert.Empty(t, sp.Zero())
	assert.Equal(t, map[int]float64{0: 1, 5: 5, 9: -4}, sp.Add(x, y))
	assert.Equal(t, map[int]float64{0: 2, 5: 4}, sp.Scale(2, x))
	assert.Equal(t, map[int]float64{5: -3, 9: 4}, sp.Neg(y))
	assert.Equal(t, 6.0, sp.Dot(x, y))
	assert.Equal(t, sp.Dot(x, y), sp.Dot(y, x))
}

func TestSparseAddDropsExactZeros(t *testing.T) {
	sp := Sparse{}

	x := map[int]float64{2: 1.5}
	y := map[int]float64{2: -1.5, 3: 1}

	sum := sp.Add(x, y)
	assert.Equal(t, map[int]float64{3: 1}, sum)
	_, present := sum[2]
	assert.False(t, present)
}

func TestSparseScaleByZero(t *testing.T) {
	sp := Sparse{}

	assert.Empty(t, sp.Scale(0, map[int]float64{1: 7, 2: -3}))
}
