package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/brusim/internal/forcing"
	"github.com/san-kum/brusim/internal/grid"
	"github.com/san-kum/brusim/internal/integrators"
	"github.com/san-kum/brusim/internal/metrics"
	"github.com/san-kum/brusim/internal/model"
	"github.com/san-kum/brusim/internal/sim"
)

// Registry resolves model, stepper and forcing names from configuration
// into concrete instances.
type Registry struct {
	models   map[string]func(g *grid.Grid, b grid.Boundary) sim.System
	steppers map[string]func() sim.Stepper
	forcings map[string]func(params map[string]float64) sim.Forcing
}

func NewRegistry() *Registry {
	r := &Registry{
		models:   make(map[string]func(g *grid.Grid, b grid.Boundary) sim.System),
		steppers: make(map[string]func() sim.Stepper),
		forcings: make(map[string]func(map[string]float64) sim.Forcing),
	}

	r.models["brusselator"] = func(g *grid.Grid, b grid.Boundary) sim.System {
		return model.NewBrusselator(g, b)
	}
	r.models["diffusion"] = func(g *grid.Grid, b grid.Boundary) sim.System {
		return model.NewDiffusion(g, b)
	}

	r.steppers["euler"] = func() sim.Stepper { return integrators.NewEuler() }
	r.steppers["rk4"] = func() sim.Stepper { return integrators.NewRK4() }
	r.steppers["rk45"] = func() sim.Stepper { return integrators.NewRK45() }

	r.forcings["none"] = func(params map[string]float64) sim.Forcing {
		return forcing.NewNone()
	}
	r.forcings["pulse"] = func(params map[string]float64) sim.Forcing {
		p := forcing.NewPulse()
		if v, ok := params["amp"]; ok {
			p.Amp = v
		}
		if v, ok := params["x"]; ok {
			p.CX = v
		}
		if v, ok := params["y"]; ok {
			p.CY = v
		}
		if v, ok := params["radius2"]; ok {
			p.R2 = v
		}
		if v, ok := params["onset"]; ok {
			p.Onset = v
		}
		return p
	}

	return r
}

func (r *Registry) GetModel(name string, g *grid.Grid, b grid.Boundary) (sim.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(g, b), nil
}

func (r *Registry) GetStepper(name string) (sim.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown stepper: %s", name)
	}
	return fn(), nil
}

// StepperFactory returns a constructor for ensemble runs, where every
// run needs its own stepper instance.
func (r *Registry) StepperFactory(name string) (func() sim.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown stepper: %s", name)
	}
	return fn, nil
}

func (r *Registry) GetForcing(name string, params map[string]float64) (sim.Forcing, error) {
	fn, ok := r.forcings[name]
	if !ok {
		return nil, fmt.Errorf("unknown forcing: %s", name)
	}
	return fn(params), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(sys sim.System) []sim.Metric {
	ms := []sim.Metric{
		metrics.NewPeak(),
		metrics.NewStability(1e4),
	}
	if mt, ok := sys.(sim.MassTotaler); ok {
		ms = append(ms, metrics.NewMass(mt), metrics.NewMassDrift(mt))
	}
	return ms
}
