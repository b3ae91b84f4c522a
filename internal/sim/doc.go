// Package sim provides the core primitives for integrating spatially
// discretized PDE systems in time.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: flat vector holding all field values
//   - [System]: right-hand side of dX/dt = f(X, t), evaluated in place
//   - [Stepper]: numerical time-stepper interface
//   - [Forcing]: spatiotemporal source term
//   - [Simulator]: owns the step loop and snapshot sampling
//
// # Example
//
//	sys := model.NewBrusselator(g, grid.Clamped)
//	st := integrators.NewRK4()
//	drv := sim.New(sys, st)
//	traj, _ := drv.Run(ctx, sys.InitialState(), cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel runs use
// [Ensemble], which gives every run its own stepper. Systems evaluate
// their derivative into a caller-provided buffer and may therefore be
// shared across runs.
package sim
