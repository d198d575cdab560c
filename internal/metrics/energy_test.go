package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/physics"
)

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()
	sys := physics.NewSystem()

	m.Observe(sys, 0)
	if m.Value() != 0 {
		t.Errorf("expected zero drift on first sample, got %e", m.Value())
	}

	for i := 1; i <= 1000; i++ {
		sys.Advance(0.01)
		m.Observe(sys, i)
	}

	if m.Value() <= 0 {
		t.Error("expected non-zero drift after 1000 steps")
	}
	if m.Value() > 1e-3 {
		t.Errorf("drift too large: %e", m.Value())
	}
}

func TestEnergyDriftReset(t *testing.T) {
	m := NewEnergyDrift()
	sys := physics.NewSystem()

	m.Observe(sys, 0)
	sys.Advance(0.01)
	m.Observe(sys, 1)

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestMomentumNorm(t *testing.T) {
	m := NewMomentumNorm()
	sys := physics.NewSystem()

	for i := 0; i < 100; i++ {
		m.Observe(sys, i)
		sys.Advance(0.01)
	}

	if m.Value() > 1e-12 {
		t.Errorf("momentum should stay ~0, got %e", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestDefaultWithSimulator(t *testing.T) {
	sim := dynamo.New()
	for _, m := range Default() {
		sim.AddMetric(m)
	}

	result, err := sim.Run(physics.NewSystem(), dynamo.Config{Steps: 200, Dt: 0.01})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, name := range []string{"energy_drift", "momentum", "energy_period"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("metric %q missing", name)
		}
	}
	if result.Metrics["energy_drift"] < result.EnergyDrift {
		t.Errorf("max drift %e below final drift %e", result.Metrics["energy_drift"], result.EnergyDrift)
	}
}

func TestDominantPeriod(t *testing.T) {
	tests := []struct {
		name   string
		period float64
		n      int
	}{
		{"64 samples", 64, 512},
		{"16 samples", 16, 1024},
		{"non power of two length", 50, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := make([]float64, tt.n)
			for i := range series {
				series[i] = -0.169 + 1e-6*math.Sin(2*math.Pi*float64(i)/tt.period)
			}
			if got := dominantPeriod(series); math.Abs(got-tt.period) > 1e-9 {
				t.Errorf("period = %f, want %f", got, tt.period)
			}
		})
	}
}

func TestDominantPeriod_Degenerate(t *testing.T) {
	if got := dominantPeriod([]float64{1, 2, 3}); got != 0 {
		t.Errorf("short series: got %f", got)
	}
	nan := make([]float64, 16)
	nan[3] = math.NaN()
	if got := dominantPeriod(nan); got != 0 {
		t.Errorf("non-finite series: got %f", got)
	}
}

func TestEnergyPeriod_Decimates(t *testing.T) {
	m := NewEnergyPeriod()
	sys := physics.NewSystem()

	for i := 0; i < 5000; i++ {
		m.Observe(sys, i)
	}

	if m.stride != 2 {
		t.Errorf("expected stride 2, got %d", m.stride)
	}
	if len(m.series) != 2500 {
		t.Errorf("expected 2500 samples, got %d", len(m.series))
	}

	m.Reset()
	if m.Value() != 0 || m.stride != 1 || m.seen != 0 {
		t.Error("expected empty metric after reset")
	}
}

func TestEnergyPeriod_System(t *testing.T) {
	m := NewEnergyPeriod()
	sys := physics.NewSystem()

	const steps = 20000
	for i := 0; i < steps; i++ {
		m.Observe(sys, i)
		sys.Advance(0.01)
	}

	p := m.Value()
	if p <= 0 || p > steps || math.IsNaN(p) {
		t.Errorf("period %f outside (0, %d]", p, steps)
	}
}
