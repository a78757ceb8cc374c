package conjgrad

import (
	"github.com/solverkit/descent/internal/optimization"
	"github.com/solverkit/descent/internal/optimization/vecspace"
)

// StepMethod selects how the optimizer picks its step size each iteration.
// The set of variants is closed: FixedStep or Backtracking.
type StepMethod interface {
	isStepMethod()
}

// FixedStep uses the same step size every iteration.
type FixedStep struct {
	// Size is the step length applied to every search direction.
	Size float64
}

func (FixedStep) isStepMethod() {}

// Backtracking holds the parameters of the Armijo line search.
type Backtracking struct {
	// Armijo is the sufficient-decrease constant c1.
	Armijo float64

	// Contraction is the factor applied to the trial step on each failed
	// Armijo test.
	Contraction float64

	// Growth is the factor applied to the previous accepted step to form
	// the next iteration's initial trial. Re-expands the step after a
	// small one was needed.
	Growth float64

	// MaxShrinks caps the number of contractions before the search gives
	// up with ErrLineSearchFailed.
	MaxShrinks int
}

func (Backtracking) isStepMethod() {}

// DefaultBacktracking returns the recommended line-search parameters.
func DefaultBacktracking() Backtracking {
	return Backtracking{
		Armijo:      1e-4,
		Contraction: 0.5,
		Growth:      2.1,
		MaxShrinks:  64,
	}
}

// Bracket is one trial step-length evaluation during the backtracking
// search. A new bracket is computed at every shrink; brackets are never
// mutated.
type Bracket[V any] struct {
	// Step is the candidate step length.
	Step float64

	// F is the objective value at BasePoint + Step*Direction.
	F float64

	// Grad is the gradient at the candidate point.
	Grad V

	// Direction is the search direction.
	Direction V

	// BasePoint is the point the search started from.
	BasePoint V

	// BaseF is the objective value at BasePoint.
	BaseF float64

	// BaseGrad is the gradient at BasePoint.
	BaseGrad V
}

// Search backtracks from the trial step until the Armijo condition
//
//	f(x + a*d) <= f(x) + c1 * a * <f'(x), d>
//
// holds, shrinking the step by ls.Contraction on each failure. Exactly one
// objective/gradient evaluation happens per attempt; the accepted bracket
// carries those values so the caller never re-evaluates. If the condition is
// not met within ls.MaxShrinks contractions, Search returns the best bracket
// seen together with ErrLineSearchFailed.
func Search[V any](
	sp vecspace.Space[V],
	f optimization.Objective[V],
	g optimization.Gradient[V],
	ls Backtracking,
	base V,
	baseF float64,
	baseGrad V,
	dir V,
	trial float64,
	tracer optimization.Tracer,
) (Bracket[V], error) {
	slope := sp.Dot(baseGrad, dir)

	var best Bracket[V]
	step := trial
	for attempt := 0; ; attempt++ {
		x := sp.Add(base, sp.Scale(step, dir))
		br := Bracket[V]{
			Step:      step,
			F:         f(x),
			Grad:      g(x),
			Direction: dir,
			BasePoint: base,
			BaseF:     baseF,
			BaseGrad:  baseGrad,
		}
		tracer.Trace(optimization.TraceBracket, br)

		if br.F <= baseF+ls.Armijo*step*slope {
			return br, nil
		}
		if attempt == 0 || br.F < best.F {
			best = br
		}
		if attempt >= ls.MaxShrinks {
			return best, optimization.WrapErrorf(optimization.ErrLineSearchFailed,
				"no sufficient-decrease step within %d contractions", ls.MaxShrinks)
		}
		step *= ls.Contraction
	}
}
