// Package conjgrad implements nonlinear conjugate gradient descent with a
// backtracking Armijo line search over an abstract vector space.
package conjgrad

import (
	"fmt"
	"math"
	"strings"

	"github.com/solverkit/descent/internal/optimization"
	"github.com/solverkit/descent/internal/optimization/vecspace"
)

// Method selects the conjugate-direction update formula.
type Method int

const (
	// None sets beta to zero every iteration, reducing the optimizer to
	// plain steepest descent.
	None Method = iota
	// FletcherReeves uses beta = <g1,g1> / <g0,g0>.
	FletcherReeves
	// PolakRibiere uses beta = <g1, g1-g0> / <g0,g0>.
	PolakRibiere
	// HestenesStiefel uses beta = -<g1, g1-g0> / <d0, g1-g0>.
	HestenesStiefel
)

// String returns the canonical name of the method.
func (m Method) String() string {
	switch m {
	case None:
		return "none"
	case FletcherReeves:
		return "fletcher-reeves"
	case PolakRibiere:
		return "polak-ribiere"
	case HestenesStiefel:
		return "hestenes-stiefel"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod converts a method name to its Method value.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "none", "steepest-descent":
		return None, nil
	case "fletcher-reeves":
		return FletcherReeves, nil
	case "polak-ribiere":
		return PolakRibiere, nil
	case "hestenes-stiefel":
		return HestenesStiefel, nil
	default:
		return None, optimization.NewErrorf("unknown conjugate method %q", s)
	}
}

// conjugacyGamma is the drift threshold from Bertsekas, Nonlinear
// Programming, eq. 1.174.
const conjugacyGamma = 0.2

// betaDenomEps bounds a denominator inner product away from zero.
const betaDenomEps = 1e-12

// ConjugacyLost reports whether successive gradients have drifted too far
// from orthogonality to keep trusting the conjugate recurrence:
// |<g1,g0>| > gamma * <g0,g0>.
func ConjugacyLost[V any](sp vecspace.Space[V], grad, prevGrad V) bool {
	return math.Abs(sp.Dot(grad, prevGrad)) > conjugacyGamma*sp.Dot(prevGrad, prevGrad)
}

// Coefficient computes the raw beta for the given method from the gradient
// history. A zero or near-zero denominator returns ErrDegenerateDirection.
func Coefficient[V any](sp vecspace.Space[V], m Method, grad, prevGrad, prevDir V) (float64, error) {
	switch m {
	case None:
		return 0, nil
	case FletcherReeves:
		den := sp.Dot(prevGrad, prevGrad)
		if math.Abs(den) <= betaDenomEps {
			return 0, optimization.ErrDegenerateDirection
		}
		return sp.Dot(grad, grad) / den, nil
	case PolakRibiere:
		den := sp.Dot(prevGrad, prevGrad)
		if math.Abs(den) <= betaDenomEps {
			return 0, optimization.ErrDegenerateDirection
		}
		dg := sp.Add(grad, sp.Neg(prevGrad))
		return sp.Dot(grad, dg) / den, nil
	case HestenesStiefel:
		dg := sp.Add(grad, sp.Neg(prevGrad))
		den := sp.Dot(prevDir, dg)
		if math.Abs(den) <= betaDenomEps {
			return 0, optimization.ErrDegenerateDirection
		}
		return -sp.Dot(grad, dg) / den, nil
	default:
		return 0, optimization.NewErrorf("unknown conjugate method %d", int(m))
	}
}

// Effective computes the beta actually used for the next direction: zero
// when conjugacy is lost or the formula degenerates, otherwise the raw
// coefficient clamped to be non-negative. A negative beta would reverse the
// direction blend, so it restarts the recurrence instead.
func Effective[V any](sp vecspace.Space[V], m Method, grad, prevGrad, prevDir V) float64 {
	if ConjugacyLost(sp, grad, prevGrad) {
		return 0
	}
	raw, err := Coefficient(sp, m, grad, prevGrad, prevDir)
	if err != nil {
		// Degenerate denominator: restart from steepest descent.
		return 0
	}
	return math.Max(0, raw)
}
