package conjgrad

import (
	"context"
	"math"

	"github.com/solverkit/descent/internal/optimization"
	"github.com/solverkit/descent/internal/optimization/vecspace"
)

// initialStepSize seeds the very first line-search trial.
const initialStepSize = 0.01

// Config assembles the inputs for a conjugate-gradient run.
type Config[V any] struct {
	// Space provides the vector operations.
	Space vecspace.Space[V]

	// Objective is the function being minimized.
	Objective optimization.Objective[V]

	// Gradient is the gradient of the objective.
	Gradient optimization.Gradient[V]

	// Method selects the conjugate-direction update.
	Method Method

	// Step selects the step-size policy. Defaults to DefaultBacktracking.
	Step StepMethod

	// Tracer receives one snapshot per iteration and per line-search
	// bracket. Defaults to NopTracer.
	Tracer optimization.Tracer
}

// Optimizer iterates conjugate gradient descent from an initial point.
// Next produces one completed iteration per call; there is no built-in
// iteration budget, the caller decides when to stop pulling. Abandoning the
// optimizer after any iteration has no side effects beyond the states
// already returned.
type Optimizer[V any] struct {
	cfg   Config[V]
	state optimization.State[V]
	iters int
}

// New validates the configuration and seeds the optimizer state from x0.
// The gradient is evaluated eagerly; the objective value is left unevaluated
// (+Inf sentinel) until the first iteration needs it. PrevGrad is seeded to
// 2*grad(x0) so the first conjugacy check fails and the run starts from
// steepest descent.
func New[V any](cfg Config[V], x0 V) (*Optimizer[V], error) {
	if cfg.Space == nil {
		return nil, optimization.NewError("vector space is required").WithComponent("conjgrad")
	}
	if cfg.Objective == nil {
		return nil, optimization.NewError("objective function is required").WithComponent("conjgrad")
	}
	if cfg.Gradient == nil {
		return nil, optimization.NewError("gradient function is required").WithComponent("conjgrad")
	}
	if cfg.Step == nil {
		cfg.Step = DefaultBacktracking()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = optimization.NopTracer{}
	}

	g0 := cfg.Gradient(x0)
	return &Optimizer[V]{
		cfg: cfg,
		state: optimization.State[V]{
			X:        x0,
			F:        math.Inf(1),
			Grad:     g0,
			StepSize: initialStepSize,
			PrevGrad: cfg.Space.Scale(2, g0),
			PrevDir:  cfg.Space.Zero(),
		},
	}, nil
}

// NewDefault is the recommended entry point: Polak-Ribiere updates with the
// default backtracking line search.
func NewDefault[V any](
	sp vecspace.Space[V],
	f optimization.Objective[V],
	g optimization.Gradient[V],
	x0 V,
) (*Optimizer[V], error) {
	return New(Config[V]{
		Space:     sp,
		Objective: f,
		Gradient:  g,
		Method:    PolakRibiere,
		Step:      DefaultBacktracking(),
	}, x0)
}

// State returns the most recent iterate.
func (o *Optimizer[V]) State() optimization.State[V] { return o.state }

// Iterations returns the number of completed iterations.
func (o *Optimizer[V]) Iterations() int { return o.iters }

// Next advances the optimizer by one iteration and returns the new state.
// On error the optimizer's state is unchanged and the run should be
// considered terminal.
func (o *Optimizer[V]) Next() (optimization.State[V], error) {
	sp := o.cfg.Space
	cur := o.state

	beta := Effective(sp, o.cfg.Method, cur.Grad, cur.PrevGrad, cur.PrevDir)

	// The direction blends the negative gradient with a scaled multiple of
	// the current gradient, not the previous direction:
	// dir = -g1 + (0.1*beta)*g1.
	dir := sp.Add(sp.Neg(cur.Grad), sp.Scale(0.1*beta, cur.Grad))

	var next optimization.State[V]
	switch step := o.cfg.Step.(type) {
	case FixedStep:
		x := sp.Add(cur.X, sp.Scale(step.Size, dir))
		next = optimization.State[V]{
			X:        x,
			F:        o.cfg.Objective(x),
			Grad:     o.cfg.Gradient(x),
			StepSize: step.Size,
			PrevGrad: cur.Grad,
			PrevDir:  dir,
		}
	case Backtracking:
		baseF := cur.F
		if !cur.Evaluated() {
			baseF = o.cfg.Objective(cur.X)
		}
		br, err := Search(sp, o.cfg.Objective, o.cfg.Gradient, step,
			cur.X, baseF, cur.Grad, dir, step.Growth*cur.StepSize, o.cfg.Tracer)
		if err != nil {
			return cur, err
		}
		next = optimization.State[V]{
			X:        sp.Add(cur.X, sp.Scale(br.Step, dir)),
			F:        br.F,
			Grad:     br.Grad,
			StepSize: br.Step,
			PrevGrad: cur.Grad,
			PrevDir:  dir,
		}
	default:
		return cur, optimization.NewErrorf("unsupported step method %T", o.cfg.Step).
			WithComponent("conjgrad")
	}

	if err := checkFinite(sp, next); err != nil {
		return cur, err
	}

	o.state = next
	o.iters++
	o.cfg.Tracer.Trace(optimization.TraceIteration, next)
	return next, nil
}

// Run drives Next until the gradient norm drops to tol, maxIter iterations
// complete, or ctx is cancelled. It signals the tracer when the run ends.
func (o *Optimizer[V]) Run(ctx context.Context, maxIter int, tol float64) (*optimization.Result[V], error) {
	sp := o.cfg.Space
	for i := 0; i < maxIter; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		st, err := o.Next()
		if err != nil {
			return nil, err
		}
		if math.Sqrt(sp.Dot(st.Grad, st.Grad)) <= tol {
			o.cfg.Tracer.Done()
			return &optimization.Result[V]{Final: st, Iterations: i + 1, Converged: true}, nil
		}
	}
	o.cfg.Tracer.Done()
	return &optimization.Result[V]{Final: o.state, Iterations: maxIter, Converged: false}, nil
}

// checkFinite rejects non-finite objective values or gradients. The caller
// must treat such an iterate as terminal rather than silently continuing.
func checkFinite[V any](sp vecspace.Space[V], st optimization.State[V]) error {
	if math.IsNaN(st.F) || math.IsInf(st.F, 0) {
		return optimization.WrapErrorf(optimization.ErrDiverged,
			"objective value is %v", st.F)
	}
	gg := sp.Dot(st.Grad, st.Grad)
	if math.IsNaN(gg) || math.IsInf(gg, 0) {
		return optimization.WrapError(optimization.ErrDiverged,
			"gradient is non-finite")
	}
	return nil
}
