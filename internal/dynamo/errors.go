package dynamo

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a run configuration that cannot be executed.
	ErrInvalidConfig = errors.New("dynamo: invalid run configuration")

	// ErrNonFinite indicates the state diverged to NaN or Inf, which only
	// happens when two bodies coincide.
	ErrNonFinite = errors.New("dynamo: non-finite energy (bodies collided)")
)

// ComputeError reports a run whose final energy is not a finite number.
type ComputeError struct {
	Steps  int
	Energy float64
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("%s after %d steps (energy=%v)", ErrNonFinite.Error(), e.Steps, e.Energy)
}

func (e *ComputeError) Unwrap() error {
	return ErrNonFinite
}

// CheckFinite returns a *ComputeError when energy is NaN or infinite.
func CheckFinite(steps int, energy float64) error {
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return &ComputeError{Steps: steps, Energy: energy}
	}
	return nil
}
