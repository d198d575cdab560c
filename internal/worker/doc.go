// Package worker runs simulations off the caller's goroutine.
//
// A [Pool] accepts a [Job] and answers on a channel with at most one
// preview [Event], carrying the energy of a freshly built system, followed by
// exactly one final event carrying either the energy after the requested
// number of steps or an error. Every job advances its own private
// [physics.System], so previews and background runs never share state.
//
// Jobs cannot be canceled and have no timeout.
package worker
