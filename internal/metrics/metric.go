package metrics

import "github.com/san-kum/gravsim/internal/body"

// Metric accumulates a scalar over the frames of a run.
type Metric interface {
	Name() string
	Observe(bodies []body.Body, t float64)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every run.
func Defaults() []Metric {
	return []Metric{NewEnergyDrift(), NewMomentum()}
}
