// Package physics implements the Jovian-planet n-body system.
//
// A [System] holds the Sun and the four outer planets as value-typed
// [Body] records. Units are astronomical units and years, with one solar
// mass equal to 4π² so that G = 1.
//
//	sys := physics.NewSystem()
//	for i := 0; i < 1000; i++ {
//	    sys.Advance(0.01)
//	}
//	fmt.Printf("%.9f\n", sys.Energy())
//
// # Thread Safety
//
// System holds no locks. Each goroutine must own its own instance.
package physics
