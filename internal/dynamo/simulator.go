package dynamo

import (
	"math"

	"github.com/san-kum/nbody/internal/physics"
)

type Simulator struct {
	metrics   []Metric
	observers []Observer
}

func New() *Simulator {
	return &Simulator{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances sys exactly cfg.Steps times. Non-finite states do not stop
// the run; callers decide whether to treat them as errors.
func (s *Simulator) Run(sys *physics.System, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Metrics: make(map[string]float64),
	}
	if cfg.SampleEvery > 0 {
		result.Samples = make([]Sample, 0, cfg.Steps/cfg.SampleEvery+2)
	}

	for _, m := range s.metrics {
		m.Reset()
		m.Observe(sys, 0)
	}

	result.InitialEnergy = sys.Energy()
	if cfg.SampleEvery > 0 {
		result.Samples = append(result.Samples, Sample{Step: 0, Energy: result.InitialEnergy})
	}

	instrumented := len(s.metrics) > 0 || len(s.observers) > 0

	for i := 1; i <= cfg.Steps; i++ {
		sys.Advance(cfg.Dt)
		result.StepsTaken++

		if instrumented {
			for _, m := range s.metrics {
				m.Observe(sys, i)
			}
			for _, obs := range s.observers {
				obs.OnStep(sys, i)
			}
		}

		if cfg.SampleEvery > 0 && (i%cfg.SampleEvery == 0 || i == cfg.Steps) {
			result.Samples = append(result.Samples, Sample{
				Step:   i,
				Time:   float64(i) * cfg.Dt,
				Energy: sys.Energy(),
			})
		}
	}

	result.FinalEnergy = sys.Energy()
	if result.InitialEnergy != 0 {
		result.EnergyDrift = math.Abs(result.FinalEnergy-result.InitialEnergy) / math.Abs(result.InitialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}
