package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Names labels the canonical bodies in construction order.
var Names = [...]string{"sun", "jupiter", "saturn", "uranus", "neptune"}

// System is a fixed, ordered set of bodies. The construction order
// determines the pairwise interaction order and must not change.
type System struct {
	bodies []Body
}

// NewSystem returns the Jovian planets and the Sun with zero net momentum.
func NewSystem() *System {
	return newSystem([]Body{
		NewBody(0, 0, 0, 0, 0, 0, solarMass),
		NewBody(
			4.84143144246472090e+00,
			-1.16032004402742839e+00,
			-1.03622044471123109e-01,
			1.66007664274403694e-03*daysPerYear,
			7.69901118419740425e-03*daysPerYear,
			-6.90460016972063023e-05*daysPerYear,
			9.54791938424326609e-04*solarMass,
		),
		NewBody(
			8.34336671824457987e+00,
			4.12479856412430479e+00,
			-4.03523417114321381e-01,
			-2.76742510726862411e-03*daysPerYear,
			4.99852801234917238e-03*daysPerYear,
			2.30417297573763929e-05*daysPerYear,
			2.85885980666130812e-04*solarMass,
		),
		NewBody(
			1.28943695621391310e+01,
			-1.51111514016986312e+01,
			-2.23307578892655734e-01,
			2.96460137564761618e-03*daysPerYear,
			2.37847173959480950e-03*daysPerYear,
			-2.96589568540237556e-05*daysPerYear,
			4.36624404335156298e-05*solarMass,
		),
		NewBody(
			1.53796971148509165e+01,
			-2.59193146099879641e+01,
			1.79258772950371181e-01,
			2.68067772490389322e-03*daysPerYear,
			1.62824170038242295e-03*daysPerYear,
			-9.51592254519715870e-05*daysPerYear,
			5.15138902046611451e-05*solarMass,
		),
	})
}

// newSystem takes ownership of bodies and cancels their total momentum
// through bodies[0].
func newSystem(bodies []Body) *System {
	s := &System{bodies: bodies}
	s.bodies[0].offsetMomentum(s.Momentum())
	return s
}

// Advance performs one symplectic Euler step of size dt. All velocities are
// updated from start-of-step positions before any position moves.
// Coincident bodies produce non-finite values, which are propagated.
func (s *System) Advance(dt float64) {
	bodies := s.bodies
	n := len(bodies)

	for i := 0; i < n; i++ {
		bi := &bodies[i]
		for j := i + 1; j < n; j++ {
			bj := &bodies[j]

			d := r3.Sub(bi.Pos, bj.Pos)
			d2 := r3.Dot(d, d)
			dist := math.Sqrt(d2)
			mag := dt / (d2 * dist)

			bi.Vel.X -= d.X * bj.Mass * mag
			bi.Vel.Y -= d.Y * bj.Mass * mag
			bi.Vel.Z -= d.Z * bj.Mass * mag

			bj.Vel.X += d.X * bi.Mass * mag
			bj.Vel.Y += d.Y * bi.Mass * mag
			bj.Vel.Z += d.Z * bi.Mass * mag
		}
	}

	for i := range bodies {
		bodies[i].Pos = r3.Add(bodies[i].Pos, r3.Scale(dt, bodies[i].Vel))
	}
}

// Energy returns kinetic plus gravitational potential energy.
func (s *System) Energy() float64 {
	bodies := s.bodies
	e := 0.0

	for i := range bodies {
		bi := &bodies[i]
		e += 0.5 * bi.Mass * r3.Dot(bi.Vel, bi.Vel)

		for j := i + 1; j < len(bodies); j++ {
			bj := &bodies[j]
			d := r3.Sub(bi.Pos, bj.Pos)
			dist := math.Sqrt(r3.Dot(d, d))
			e -= (bi.Mass * bj.Mass) / dist
		}
	}

	return e
}

// Momentum returns the total linear momentum Σ m·v.
func (s *System) Momentum() r3.Vec {
	var p r3.Vec
	for i := range s.bodies {
		p = r3.Add(p, s.bodies[i].Momentum())
	}
	return p
}

func (s *System) Len() int { return len(s.bodies) }

// Bodies returns a copy of the current body states.
func (s *System) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

// Finite reports whether every position and velocity is finite.
func (s *System) Finite() bool {
	for _, b := range s.bodies {
		for _, v := range [...]float64{b.Pos.X, b.Pos.Y, b.Pos.Z, b.Vel.X, b.Vel.Y, b.Vel.Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
