package server

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Problem couples a benchmark objective with its analytic gradient.
type Problem struct {
	Name string
	// MinDim is the smallest initial-point dimension the problem accepts.
	// A FixedDim > 0 pins the dimension exactly.
	MinDim   int
	FixedDim int
	Eval     func([]float64) float64
	Grad     func([]float64) []float64
}

// lookupProblem resolves a named benchmark objective and checks the
// dimension of the initial point against it.
func lookupProblem(name string, dim int) (Problem, error) {
	p, ok := problems[name]
	if !ok {
		return Problem{}, fmt.Errorf("unknown objective %q", name)
	}
	if p.FixedDim > 0 && dim != p.FixedDim {
		return Problem{}, fmt.Errorf("objective %q requires dimension %d, got %d", name, p.FixedDim, dim)
	}
	if dim < p.MinDim {
		return Problem{}, fmt.Errorf("objective %q requires dimension >= %d, got %d", name, p.MinDim, dim)
	}
	return p, nil
}

var problems = map[string]Problem{
	"sphere": {
		Name:   "sphere",
		MinDim: 1,
		Eval: func(x []float64) float64 {
			sum := 0.0
			for _, v := range x {
				sum += v * v
			}
			return sum
		},
		Grad: func(x []float64) []float64 {
			g := make([]float64, len(x))
			for i, v := range x {
				g[i] = 2 * v
			}
			return g
		},
	},
	"rosenbrock": {
		Name:   "rosenbrock",
		MinDim: 2,
		Eval: func(x []float64) float64 {
			sum := 0.0
			for i := 0; i+1 < len(x); i++ {
				a := 1 - x[i]
				b := x[i+1] - x[i]*x[i]
				sum += a*a + 100*b*b
			}
			return sum
		},
		Grad: func(x []float64) []float64 {
			g := make([]float64, len(x))
			for i := 0; i+1 < len(x); i++ {
				b := x[i+1] - x[i]*x[i]
				g[i] += -2*(1-x[i]) - 400*x[i]*b
				g[i+1] += 200 * b
			}
			return g
		},
	},
	"quadratic": quadraticBowl(),
}

// quadraticBowl is a mildly ill-conditioned 2-D quadratic
// f(x) = 0.5*x'Ax - b'x with minimizer A^-1 b = (0.6, -0.8).
func quadraticBowl() Problem {
	a := mat.NewSymDense(2, []float64{
		3, 1,
		1, 2,
	})
	b := mat.NewVecDense(2, []float64{1, -1})

	return Problem{
		Name:     "quadratic",
		MinDim:   2,
		FixedDim: 2,
		Eval: func(x []float64) float64 {
			v := mat.NewVecDense(len(x), x)
			var ax mat.VecDense
			ax.MulVec(a, v)
			return 0.5*mat.Dot(&ax, v) - mat.Dot(b, v)
		},
		Grad: func(x []float64) []float64 {
			v := mat.NewVecDense(len(x), x)
			var g mat.VecDense
			g.MulVec(a, v)
			g.SubVec(&g, b)
			return g.RawVector().Data
		},
	}
}
