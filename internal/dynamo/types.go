package dynamo

import (
	"fmt"

	"github.com/san-kum/nbody/internal/physics"
)

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(sys *physics.System, step int)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(sys *physics.System, step int)
}

type Config struct {
	Steps int
	Dt    float64
	// SampleEvery records the energy every n steps; 0 disables sampling.
	SampleEvery int
}

func DefaultConfig() Config {
	return Config{
		Steps: 1000,
		Dt:    0.01,
	}
}

func (c Config) Validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("%w: sample interval must be non-negative, got %d", ErrInvalidConfig, c.SampleEvery)
	}
	return nil
}

type Sample struct {
	Step   int     `json:"step"`
	Time   float64 `json:"time"`
	Energy float64 `json:"energy"`
}

type Result struct {
	InitialEnergy float64
	FinalEnergy   float64
	EnergyDrift   float64
	StepsTaken    int
	Samples       []Sample
	Metrics       map[string]float64
}
