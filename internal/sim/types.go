package sim

import "math"

// State is a flat vector of field values. Grid-based systems pack their
// fields plane by plane (u first, then v) so steppers stay agnostic of
// the spatial layout.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is a spatially discretized ODE system dX/dt = f(X, t).
// Derive writes the derivative into dst, which the caller owns; it must
// not retain dst or x, and must not allocate per cell. Two calls with
// identical inputs produce bit-identical output. Concurrent calls are
// safe only with distinct dst buffers.
type System interface {
	Derive(dst State, x State, t float64)
	StateDim() int
}

// Forcing is a spatiotemporal source term evaluated at physical
// coordinates, injected into reaction-diffusion systems.
type Forcing interface {
	At(x, y, t float64) float64
}

// Stepper advances a state by one timestep.
type Stepper interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveStepper additionally controls its own step size. StepAdaptive
// may retry internally with smaller steps until the local error estimate
// meets tol; it returns the new state, the step size actually integrated,
// and the proposed size for the next step.
type AdaptiveStepper interface {
	Stepper
	StepAdaptive(sys System, x State, t, dt, tol float64) (next State, used, dtNext float64, err error)
}

// MassTotaler reports the total field mass of a state; the driver uses
// it to track drift over a run.
type MassTotaler interface {
	TotalMass(x State) float64
}

// Seeder provides a system's canonical initial state.
type Seeder interface {
	InitialState() State
}

// Configurable systems expose named parameters for runtime adjustment.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

// Config controls one run. Randomness (initial-state noise, ensemble
// seeds) is owned by the callers that introduce it; the driver itself is
// deterministic.
type Config struct {
	Dt            float64
	Duration      float64
	SampleEvery   float64
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.001,
		Duration:      11.5,
		SampleEvery:   0.1,
		Tolerance:     1e-6,
		MaxDt:         0.05,
		MinDt:         1e-9,
		Adaptive:      false,
		ValidateState: true,
	}
}

// Trajectory is the recorded output of one run: sampled snapshots plus
// aggregate metrics. Snapshots are clones and immutable after the run.
type Trajectory struct {
	Times      []float64
	States     []State
	Metrics    map[string]float64
	MassDrift  float64
	StepsTaken int
	Errors     []error
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// At returns the i-th sampled (time, state) pair.
func (tr *Trajectory) At(i int) (float64, State) {
	return tr.Times[i], tr.States[i]
}

// Final returns the last recorded state, or nil for an empty trajectory.
func (tr *Trajectory) Final() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}
