package physics

import "gonum.org/v1/gonum/spatial/r3"

const (
	Pi          = 3.141592653589793
	DaysPerYear = 365.24
)

// Scale factors are float64 variables rather than constants so that products
// such as 4*π*π round the way IEEE doubles do, not as exact constant folding.
var (
	pi          float64 = Pi
	daysPerYear float64 = DaysPerYear
	solarMass           = 4 * pi * pi
)

// SolarMass returns one solar mass in the scaled unit system (4π²).
func SolarMass() float64 { return solarMass }

// Body is a point mass. Positions are in AU, velocities in AU per year.
type Body struct {
	Pos  r3.Vec
	Vel  r3.Vec
	Mass float64
}

func NewBody(x, y, z, vx, vy, vz, mass float64) Body {
	return Body{
		Pos:  r3.Vec{X: x, Y: y, Z: z},
		Vel:  r3.Vec{X: vx, Y: vy, Z: vz},
		Mass: mass,
	}
}

// offsetMomentum sets the velocity that cancels total momentum p.
func (b *Body) offsetMomentum(p r3.Vec) {
	b.Vel.X = -p.X / solarMass
	b.Vel.Y = -p.Y / solarMass
	b.Vel.Z = -p.Z / solarMass
}

// Momentum returns m·v.
func (b Body) Momentum() r3.Vec {
	return r3.Scale(b.Mass, b.Vel)
}
