// Package optimization defines the shared contracts for the descent
// optimizers: objective and gradient functions, the per-iteration state
// record, and the tracing collaborator.
package optimization

import "math"

// Objective evaluates the function being minimized at a point.
// It is assumed pure and side-effect free.
type Objective[V any] func(V) float64

// Gradient evaluates the gradient of the objective at a point.
type Gradient[V any] func(V) V

// State is one completed optimizer iteration. States are replaced wholesale
// each iteration, never mutated field by field.
type State[V any] struct {
	// X is the current point.
	X V

	// F is the objective value at X. +Inf means not yet evaluated.
	F float64

	// Grad is the gradient at X.
	Grad V

	// StepSize is the step used to reach X from the previous point.
	StepSize float64

	// PrevGrad is the gradient at the previous point, kept for the
	// conjugacy computations.
	PrevGrad V

	// PrevDir is the previous search direction.
	PrevDir V
}

// Evaluated reports whether the objective value at X has been computed.
func (s State[V]) Evaluated() bool { return !math.IsInf(s.F, 1) }

// Result summarizes a bounded optimization run.
type Result[V any] struct {
	// Final is the last iterate produced.
	Final State[V]

	// Iterations is the number of iterations performed.
	Iterations int

	// Converged reports whether the stopping tolerance was reached
	// before the iteration budget ran out.
	Converged bool
}
