// Package boosting implements an associative ensemble of base models
// trained over sliding windows of a data stream. Two ensembles combine by
// retraining only the windows that straddle the boundary between their data
// sequences, which keeps the combination associative: a window is always
// exactly 2K+1 points wide regardless of how the stream was partitioned.
package boosting

import "github.com/solverkit/descent/internal/errors"

// Trainer fits one base model to a window of datapoints.
type Trainer[P, M any] func(window []P) M

// Ensemble is an ordered data sequence together with the sub-models trained
// over its contiguous windows.
type Ensemble[P, M any] struct {
	// Data is the ordered sequence of datapoints seen so far.
	Data []P

	// Models holds one sub-model per complete window of Data, in stream
	// order.
	Models []M

	// Weights is reserved for per-model weighting. Combine currently
	// leaves it empty.
	Weights []float64

	// NumPoints is the number of datapoints in Data.
	NumPoints int
}

// Booster trains and combines ensembles over windows of width 2K+1.
type Booster[P, M any] struct {
	k     int
	train Trainer[P, M]
}

// NewBooster creates a booster with window half-width k. The window width is
// 2k+1, so k must be at least 1.
func NewBooster[P, M any](k int, train Trainer[P, M]) (Booster[P, M], error) {
	if k < 1 {
		return Booster[P, M]{}, errors.Errorf("window half-width must be at least 1, got %d", k)
	}
	if train == nil {
		return Booster[P, M]{}, errors.New("trainer is required")
	}
	return Booster[P, M]{k: k, train: train}, nil
}

// K returns the window half-width.
func (b Booster[P, M]) K() int { return b.k }

// Empty returns the identity ensemble: no data, no models.
func (b Booster[P, M]) Empty() Ensemble[P, M] { return Ensemble[P, M]{} }

// Single returns the ensemble holding just p. No sub-model is trained until
// enough neighboring points arrive through combination.
func (b Booster[P, M]) Single(p P) Ensemble[P, M] {
	return Ensemble[P, M]{Data: []P{p}, NumPoints: 1}
}

// Combine merges two ensembles, concatenating their data in order and
// retraining sub-models only over the boundary region: the last 2K points of
// the left stream together with the first 2K points of the right, sliding a
// width-2K+1 window one point at a time. Existing sub-models on both sides
// are kept untouched. The weight sequence of the result is always empty.
func (b Booster[P, M]) Combine(left, right Ensemble[P, M]) Ensemble[P, M] {
	if left.NumPoints == 0 {
		return right
	}
	if right.NumPoints == 0 {
		return left
	}

	data := make([]P, 0, len(left.Data)+len(right.Data))
	data = append(data, left.Data...)
	data = append(data, right.Data...)

	lo := len(left.Data) - 2*b.k
	if lo < 0 {
		lo = 0
	}
	hi := len(left.Data) + 2*b.k
	if hi > len(data) {
		hi = len(data)
	}
	region := data[lo:hi]

	width := 2*b.k + 1
	var boundary []M
	for i := 0; i+width <= len(region); i++ {
		boundary = append(boundary, b.train(region[i:i+width]))
	}

	models := make([]M, 0, len(left.Models)+len(boundary)+len(right.Models))
	models = append(models, left.Models...)
	models = append(models, boundary...)
	models = append(models, right.Models...)

	return Ensemble[P, M]{
		Data:      data,
		Models:    models,
		NumPoints: left.NumPoints + right.NumPoints,
	}
}

// Train folds a stream of datapoints into one ensemble, point by point.
func (b Booster[P, M]) Train(points []P) Ensemble[P, M] {
	out := b.Empty()
	for _, p := range points {
		out = b.Combine(out, b.Single(p))
	}
	return out
}
