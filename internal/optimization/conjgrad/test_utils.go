package conjgrad

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// sphereFunc is a simple quadratic objective for testing
func sphereFunc(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// sphereGrad is the gradient of sphereFunc
func sphereGrad(x []float64) []float64 {
	g := make([]float64, len(x))
	for i, v := range x {
		g[i] = 2 * v
	}
	return g
}

// bowlA and bowlB define the 2-D quadratic f(x) = 0.5*x'Ax - b'x used by the
// reference-comparison tests. Its unique minimizer is (0.6, -0.8).
var (
	bowlA = [2][2]float64{{3, 1}, {1, 2}}
	bowlB = [2]float64{1, -1}
)

func bowlFunc(x []float64) float64 {
	ax0 := bowlA[0][0]*x[0] + bowlA[0][1]*x[1]
	ax1 := bowlA[1][0]*x[0] + bowlA[1][1]*x[1]
	return 0.5*(ax0*x[0]+ax1*x[1]) - (bowlB[0]*x[0] + bowlB[1]*x[1])
}

func bowlGrad(x []float64) []float64 {
	return []float64{
		bowlA[0][0]*x[0] + bowlA[0][1]*x[1] - bowlB[0],
		bowlA[1][0]*x[0] + bowlA[1][1]*x[1] - bowlB[1],
	}
}

// assertFloat64SlicesEqual checks if two float64 slices are approximately equal
func assertFloat64SlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// generateRandomVector generates a random vector with values in [min, max]
func generateRandomVector(size int, min, max float64) *mat.VecDense {
	data := make([]float64, size)
	for i := range data {
		data[i] = min + rand.Float64()*(max-min)
	}
	return mat.NewVecDense(size, data)
}
