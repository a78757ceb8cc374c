package conjgrad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverkit/descent/internal/optimization"
	"github.com/solverkit/descent/internal/optimization/vecspace"
)

func TestCoefficientFormulas(t *testing.T) {
	sp := vecspace.NewDense(2)

	// grad = (1,2), prevGrad = (3,4), prevDir = (1,0)
	// <g1,g1> = 5, <g0,g0> = 25, dg = (-2,-2), <g1,dg> = -6, <d0,dg> = -2
	grad := []float64{1, 2}
	prevGrad := []float64{3, 4}
	prevDir := []float64{1, 0}

	tests := []struct {
		name   string
		method Method
		want   float64
	}{
		{name: "none", method: None, want: 0},
		{name: "fletcher-reeves", method: FletcherReeves, want: 5.0 / 25.0},
		{name: "polak-ribiere", method: PolakRibiere, want: -6.0 / 25.0},
		{name: "hestenes-stiefel", method: HestenesStiefel, want: -(-6.0) / -2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coefficient(sp, tt.method, grad, prevGrad, prevDir)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCoefficientDegenerateDenominator(t *testing.T) {
	sp := vecspace.NewDense(2)

	grad := []float64{1, 2}
	zero := []float64{0, 0}

	for _, m := range []Method{FletcherReeves, PolakRibiere} {
		t.Run(m.String(), func(t *testing.T) {
			_, err := Coefficient(sp, m, grad, zero, zero)
			assert.ErrorIs(t, err, optimization.ErrDegenerateDirection)
		})
	}

	// Hestenes-Stiefel degenerates when prevDir is orthogonal to the
	// gradient difference.
	t.Run("hestenes-stiefel", func(t *testing.T) {
		prevGrad := []float64{1, 0}
		prevDir := []float64{1, 0}
		grad2 := []float64{1, 2} // dg = (0,2), <d0,dg> = 0
		_, err := Coefficient(sp, HestenesStiefel, grad2, prevGrad, prevDir)
		assert.ErrorIs(t, err, optimization.ErrDegenerateDirection)
	})
}

func TestEffectiveZeroWhenConjugacyLost(t *testing.T) {
	sp := vecspace.NewDense(2)

	// |<g1,g0>| = 11 > 0.2 * <g0,g0> = 5: conjugacy lost.
	grad := []float64{1, 2}
	prevGrad := []float64{3, 4}
	prevDir := []float64{1, 0}

	require.True(t, ConjugacyLost(sp, grad, prevGrad))

	for _, m := range []Method{None, FletcherReeves, PolakRibiere, HestenesStiefel} {
		t.Run(m.String(), func(t *testing.T) {
			assert.Zero(t, Effective(sp, m, grad, prevGrad, prevDir))
		})
	}
}

func TestEffectiveNeverNegative(t *testing.T) {
	sp := vecspace.NewDense(2)

	// |<g1,g0>| = 10 <= 0.2 * <g0,g0> = 20: conjugacy kept.
	// Polak-Ribiere raw beta is <g1,dg>/<g0,g0> = -8/100 < 0 and must be
	// clamped to zero rather than used.
	grad := []float64{1, 1}
	prevGrad := []float64{10, 0}
	prevDir := []float64{0, 1}

	require.False(t, ConjugacyLost(sp, grad, prevGrad))

	raw, err := Coefficient(sp, PolakRibiere, grad, prevGrad, prevDir)
	require.NoError(t, err)
	require.Negative(t, raw)

	for _, m := range []Method{None, FletcherReeves, PolakRibiere, HestenesStiefel} {
		t.Run(m.String(), func(t *testing.T) {
			assert.GreaterOrEqual(t, Effective(sp, m, grad, prevGrad, prevDir), 0.0)
		})
	}
}

func TestEffectiveDegenerateFallsBackToZero(t *testing.T) {
	sp := vecspace.NewDense(2)

	// prevGrad is tiny enough that the conjugacy test passes but the
	// denominator is below the degeneracy bound.
	grad := []float64{0, 0}
	prevGrad := []float64{1e-8, 0}
	prevDir := []float64{0, 0}

	require.False(t, ConjugacyLost(sp, grad, prevGrad))
	assert.Zero(t, Effective(sp, FletcherReeves, grad, prevGrad, prevDir))
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{in: "none", want: None},
		{in: "steepest-descent", want: None},
		{in: "fletcher-reeves", want: FletcherReeves},
		{in: "Polak-Ribiere", want: PolakRibiere},
		{in: "hestenes-stiefel", want: HestenesStiefel},
		{in: "bfgs", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "fletcher-reeves", FletcherReeves.String())
	assert.Equal(t, "polak-ribiere", PolakRibiere.String())
	assert.Equal(t, "hestenes-stiefel", HestenesStiefel.String())
}
