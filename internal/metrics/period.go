package metrics

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/nbody/internal/physics"
)

// periodCapacity bounds the stored energy series. When it fills, every other
// sample is dropped and the sampling stride doubles.
const periodCapacity = 4096

// EnergyPeriod estimates the dominant period, in steps, of the energy
// oscillation. It expects one observation per step.
type EnergyPeriod struct {
	name   string
	series []float64
	stride int
	seen   int
}

func NewEnergyPeriod() *EnergyPeriod {
	return &EnergyPeriod{name: "energy_period", stride: 1}
}

func (e *EnergyPeriod) Name() string { return e.name }

func (e *EnergyPeriod) Observe(sys *physics.System, step int) {
	if e.seen%e.stride == 0 {
		if len(e.series) == periodCapacity {
			for i := 0; i < periodCapacity/2; i++ {
				e.series[i] = e.series[2*i]
			}
			e.series = e.series[:periodCapacity/2]
			e.stride *= 2
		}
		e.series = append(e.series, sys.Energy())
	}
	e.seen++
}

// Value returns the period in steps, or 0 when the series is too short,
// flat or not finite.
func (e *EnergyPeriod) Value() float64 {
	return dominantPeriod(e.series) * float64(e.stride)
}

func (e *EnergyPeriod) Reset() {
	e.series = e.series[:0]
	e.stride = 1
	e.seen = 0
}

// dominantPeriod returns the period, in samples, of the strongest non-zero
// frequency in series.
func dominantPeriod(series []float64) float64 {
	n := len(series)
	if n < 8 {
		return 0
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	centred := make([]float64, n)
	for i, v := range series {
		centred[i] = v - mean
	}

	spectrum := fft.FFTReal(centred)

	peak, best := 0, 0.0
	for k := 1; k <= n/2; k++ {
		if p := cmplx.Abs(spectrum[k]); p > best {
			peak, best = k, p
		}
	}
	if peak == 0 || math.IsNaN(best) || math.IsInf(best, 0) {
		return 0
	}
	return float64(n) / float64(peak)
}
