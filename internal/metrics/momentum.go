package metrics

import (
	"math"

	"github.com/san-kum/nbody/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// MomentumNorm records the largest |Σ m·v| seen during a run.
type MomentumNorm struct {
	name    string
	maxNorm float64
}

func NewMomentumNorm() *MomentumNorm {
	return &MomentumNorm{name: "momentum"}
}

func (m *MomentumNorm) Name() string { return m.name }

func (m *MomentumNorm) Observe(sys *physics.System, step int) {
	m.maxNorm = math.Max(m.maxNorm, r3.Norm(sys.Momentum()))
}

func (m *MomentumNorm) Value() float64 { return m.maxNorm }

func (m *MomentumNorm) Reset() { m.maxNorm = 0 }
