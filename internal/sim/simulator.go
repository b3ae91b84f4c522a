package sim

import (
	"context"
	"fmt"
	"math"
)

// Simulator drives a System through time with a chosen Stepper and
// records sampled snapshots. It owns no numerics of its own beyond the
// step loop; all derivative logic lives in the System, all step logic
// in the Stepper. Instances are not safe for concurrent use; see
// Ensemble for parallel runs.
type Simulator struct {
	sys       System
	stepper   Stepper
	metrics   []Metric
	observers []Observer
}

func New(sys System, stepper Stepper) *Simulator {
	return &Simulator{
		sys:       sys,
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// timeSlack absorbs float accumulation when comparing simulation times.
const timeSlack = 1e-12

func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Trajectory, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	samples := steps + 1
	if cfg.SampleEvery > 0 {
		samples = int(cfg.Duration/cfg.SampleEvery) + 2
	}

	traj := &Trajectory{
		Times:   make([]float64, 0, samples),
		States:  make([]State, 0, samples),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt
	sinceSample := 0.0

	traj.Times = append(traj.Times, t)
	traj.States = append(traj.States, x.Clone())
	s.observe(x, t)

	initialMass := s.totalMass(x)

	// Fixed-step mode runs a predetermined number of steps; adaptive
	// mode walks the time axis with whatever step sizes the controller
	// accepts, clamping the last step onto the requested duration.
	for step := 0; ; step++ {
		if cfg.Adaptive {
			if cfg.Duration-t <= timeSlack {
				break
			}
		} else if step >= steps {
			break
		}

		select {
		case <-ctx.Done():
			return traj, ctx.Err()
		default:
		}

		var newX State
		var stepErr error
		used := dt

		if cfg.Adaptive {
			if t+dt > cfg.Duration {
				dt = cfg.Duration - t
			}
			newX, used, dt, stepErr = s.adaptiveStep(x, t, dt, cfg)
		} else {
			newX = s.stepper.Step(s.sys, x, t, dt)
		}

		if stepErr != nil {
			traj.Errors = append(traj.Errors, &StepError{Step: step, Time: t, Wrapped: stepErr})
			break
		}

		if cfg.ValidateState && !newX.IsValid() {
			traj.Errors = append(traj.Errors, &StepError{Step: step, Time: t, Wrapped: ErrInvalidState})
			break
		}

		x = newX
		t += used
		sinceSample += used
		traj.StepsTaken++
		s.observe(x, t)

		if cfg.SampleEvery <= 0 || sinceSample >= cfg.SampleEvery-timeSlack {
			traj.Times = append(traj.Times, t)
			traj.States = append(traj.States, x.Clone())
			sinceSample = 0
		}
	}

	// The final state is always part of the trajectory.
	if last := traj.Times[len(traj.Times)-1]; last != t {
		traj.Times = append(traj.Times, t)
		traj.States = append(traj.States, x.Clone())
	}

	if initialMass != 0 {
		finalMass := s.totalMass(x)
		traj.MassDrift = math.Abs(finalMass-initialMass) / math.Abs(initialMass)
	}

	for _, m := range s.metrics {
		traj.Metrics[m.Name()] = m.Value()
	}

	return traj, nil
}

// RunWithCallback steps without recording; the callback sees every step
// and returns false to stop early. Used by the live view.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(x State, t float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	t := 0.0

	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(x, t) {
			return nil
		}

		x = s.stepper.Step(s.sys, x, t, cfg.Dt)
		t += cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return &StepError{Time: t, Wrapped: ErrInvalidState}
		}
	}

	return nil
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %f", cfg.SampleEvery)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if len(x0) != s.sys.StateDim() {
		return fmt.Errorf("%w: state has %d entries, system wants %d",
			ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}
	return nil
}

func (s *Simulator) totalMass(x State) float64 {
	if mt, ok := s.sys.(MassTotaler); ok {
		return mt.TotalMass(x)
	}
	return 0
}

func (s *Simulator) observe(x State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

// adaptiveStep advances one accepted step and returns the new state, the
// step size actually integrated, and the (clamped) proposal for the next
// step.
func (s *Simulator) adaptiveStep(x State, t, dt float64, cfg Config) (State, float64, float64, error) {
	if adaptive, ok := s.stepper.(AdaptiveStepper); ok {
		newX, used, dtNext, err := adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
		if err != nil {
			return nil, 0, dt, err
		}
		if cfg.MaxDt > 0 && dtNext > cfg.MaxDt {
			dtNext = cfg.MaxDt
		}
		if cfg.MinDt > 0 && dtNext < cfg.MinDt {
			dtNext = cfg.MinDt
		}
		return newX, used, dtNext, nil
	}

	// Step-doubling fallback for fixed-step steppers: one full step
	// against two half steps.
	x1 := s.stepper.Step(s.sys, x, t, dt)
	xHalf := s.stepper.Step(s.sys, x, t, dt/2)
	x2 := s.stepper.Step(s.sys, xHalf, t+dt/2, dt/2)

	errEst := x1.Sub(x2).Norm()

	if errEst > cfg.Tolerance {
		if cfg.MinDt > 0 && dt/2 < cfg.MinDt {
			return nil, 0, dt, ErrStepTooSmall
		}
		return s.adaptiveStep(x, t, dt/2, cfg)
	}

	next := dt
	if errEst < cfg.Tolerance/10 {
		next = dt * 2
	}
	if cfg.MaxDt > 0 && next > cfg.MaxDt {
		next = cfg.MaxDt
	}
	return x2, dt, next, nil
}
