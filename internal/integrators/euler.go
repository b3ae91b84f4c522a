package integrators

import "github.com/san-kum/brusim/internal/sim"

type Euler struct {
	dx sim.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys sim.System, x sim.State, t, dt float64) sim.State {
	n := len(x)
	if len(e.dx) != n {
		e.dx = make(sim.State, n)
	}

	sys.Derive(e.dx, x, t)

	result := make(sim.State, n)
	for i := range x {
		result[i] = x[i] + dt*e.dx[i]
	}
	return result
}
