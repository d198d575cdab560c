// Package viz renders n-body runs in the terminal.
//
// [Model] is a Bubble Tea program that advances a [physics.System] every
// frame and draws a top-down view of the orbits on a braille [Canvas],
// next to live energy diagnostics. [PlotEnergy] renders stored energy
// samples as an ASCII chart.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to the initial system
//	+/-   - Double/halve steps per frame
//	Q     - Quit
package viz
