// Package vecspace defines the inner-product vector space the optimizers
// operate over, together with dense and sparse implementations.
package vecspace

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Space captures the operations of a real vector space with an inner product.
// Implementations must never mutate their arguments: every operation returns
// a fresh value.
type Space[V any] interface {
	// Zero returns the additive identity.
	Zero() V

	// Add returns x + y.
	Add(x, y V) V

	// Scale returns c * x.
	Scale(c float64, x V) V

	// Dot returns the inner product of x and y.
	Dot(x, y V) float64

	// Neg returns -x.
	Neg(x V) V
}

// Dense is the vector space of fixed-dimension dense float64 slices.
type Dense struct {
	dim int
}

// NewDense creates a dense vector space of the given dimension.
func NewDense(dim int) Dense {
	if dim <= 0 {
		panic(fmt.Sprintf("dimension must be positive, got %d", dim))
	}
	return Dense{dim: dim}
}

// Dim returns the dimension of the space.
func (s Dense) Dim() int { return s.dim }

// Zero returns the zero vector.
func (s Dense) Zero() []float64 { return make([]float64, s.dim) }

// Add returns x + y.
func (s Dense) Add(x, y []float64) []float64 {
	out := make([]float64, len(x))
	floats.AddTo(out, x, y)
	return out
}

// Scale returns c * x.
func (s Dense) Scale(c float64, x []float64) []float64 {
	out := append([]float64(nil), x...)
	floats.Scale(c, out)
	return out
}

// Dot returns the inner product of x and y.
func (s Dense) Dot(x, y []float64) float64 { return floats.Dot(x, y) }

// Neg returns -x.
func (s Dense) Neg(x []float64) []float64 { return s.Scale(-1, x) }

// Sparse is the vector space of index-to-coefficient maps. Missing entries
// are zero. Exact zeros produced by addition are dropped so the maps stay
// small.
type Sparse struct{}

// Zero returns the empty map.
func (Sparse) Zero() map[int]float64 { return map[int]float64{} }

// Add returns x + y.
func (Sparse) Add(x, y map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(x)+len(y))
	for i, v := range x {
		out[i] = v
	}
	for i, v := range y {
		sum := out[i] + v
		if sum == 0 {
			delete(out, i)
			continue
		}
		out[i] = sum
	}
	return out
}

// Scale returns c * x.
func (Sparse) Scale(c float64, x map[int]float64) map[int]float64 {
	if c == 0 {
		return map[int]float64{}
	}
	out := make(map[int]float64, len(x))
	for i, v := range x {
		out[i] = c * v
	}
	return out
}

// Dot returns the inner product of x and y, iterating the smaller map.
func (s Sparse) Dot(x, y map[int]float64) float64 {
	if len(y) < len(x) {
		x, y = y, x
	}
	sum := 0.0
	for i, v := range x {
		sum += v * y[i]
	}
	return sum
}

// Neg returns -x.
func (s Sparse) Neg(x map[int]float64) map[int]float64 { return s.Scale(-1, x) }
