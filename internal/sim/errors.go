package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a body position or velocity became NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates run parameters that cannot be executed.
	ErrInvalidConfig = errors.New("sim: invalid run configuration")
)

// SimulationError wraps an error with the tick it happened on.
type SimulationError struct {
	Step    int
	Time    float64
	BodyID  int
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.BodyID > 0 {
		return fmt.Sprintf("step %d (t=%.4f) body %d: %v", e.Step, e.Time, e.BodyID, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
