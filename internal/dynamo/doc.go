// Package dynamo drives runs of a [physics.System].
//
// The package defines the run loop and the hooks around it:
//
//   - [Config]: step count, timestep and energy sampling interval
//   - [Simulator]: advances a system and collects a [Result]
//   - [Metric]: scalar diagnostics accumulated per step
//   - [Observer]: per-step callbacks
//
// # Example
//
//	s := dynamo.New()
//	s.AddMetric(metrics.NewEnergyDrift())
//	result, _ := s.Run(physics.NewSystem(), dynamo.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe, and neither is the System they
// advance. Concurrent runs go through the worker package, which gives each
// job its own System.
package dynamo
