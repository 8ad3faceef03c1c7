// Package model turns feature values into forecasts.
package model

import (
	"errors"

	"github.com/moznion/go-optional"
)

// ErrInsufficientHistory is returned when a prediction is requested before
// the backing feature has produced a value.
var ErrInsufficientHistory = errors.New("model: insufficient history for prediction")

// Predictor maps an optional feature value to a forecast. Implementations
// are stateless and safe for concurrent use.
type Predictor interface {
	Predict(feature optional.Option[float64]) (float64, error)
}

var _ Predictor = Linear{}

// Linear is a single-feature linear model: forecast = feature*Weight + Bias.
type Linear struct {
	Weight float64
	Bias   float64
}

// NewLinear builds a linear predictor with fixed coefficients.
func NewLinear(weight, bias float64) Linear {
	return Linear{Weight: weight, Bias: bias}
}

// Predict evaluates the model. An absent feature returns
// ErrInsufficientHistory rather than a forecast of zero.
func (m Linear) Predict(feature optional.Option[float64]) (float64, error) {
	if feature.IsNone() {
		return 0, ErrInsufficientHistory
	}
	return feature.Unwrap()*m.Weight + m.Bias, nil
}
