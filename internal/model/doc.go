// Package model provides reaction-diffusion systems discretized on a
// 2D grid by the method of lines.
//
// Each system implements the [sim.System] interface, writing its
// derivative into a caller-provided buffer:
//
//   - [Brusselator]: two-species oscillating reaction-diffusion system
//   - [Diffusion]: pure heat equation, used as a conservation reference
//
// Both also implement [sim.Seeder] for canonical initial fields,
// [sim.MassTotaler] for mass-drift tracking, and [sim.Configurable] for
// runtime parameter adjustment.
package model
