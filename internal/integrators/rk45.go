package integrators

import (
	"math"

	"github.com/san-kum/brusim/internal/sim"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is a Dormand-Prince embedded pair with step-size control. Stage
// buffers are reused across steps.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	k1, k2, k3, k4, k5, k6, k7 sim.State
	stage                      sim.State
}

// maxShrinks bounds the reject-and-retry loop; minScale^maxShrinks
// shrinks dt by ~14 orders of magnitude before giving up.
const maxShrinks = 20

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(sim.State, n)
		r.k2 = make(sim.State, n)
		r.k3 = make(sim.State, n)
		r.k4 = make(sim.State, n)
		r.k5 = make(sim.State, n)
		r.k6 = make(sim.State, n)
		r.k7 = make(sim.State, n)
		r.stage = make(sim.State, n)
	}
}

func (r *RK45) Step(sys sim.System, x sim.State, t, dt float64) sim.State {
	newX, _, _, _ := r.StepAdaptive(sys, x, t, dt, 1e-6)
	return newX
}

// StepAdaptive attempts a step at dt, shrinking and retrying while the
// local error estimate exceeds tol. It returns the accepted state, the
// step size actually integrated, and the controller's proposal for the
// next step.
func (r *RK45) StepAdaptive(sys sim.System, x sim.State, t, dt, tol float64) (sim.State, float64, float64, error) {
	for i := 0; i < maxShrinks; i++ {
		xNew, errRatio := r.attempt(sys, x, t, dt, tol)
		if errRatio <= 1 {
			var dtNext float64
			if errRatio > 0 {
				dtNext = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			} else {
				dtNext = dt * r.maxScale
			}
			return xNew, dt, dtNext, nil
		}
		dt *= math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	}
	return nil, 0, dt, sim.ErrStepTooSmall
}

// attempt runs one Dormand-Prince step and returns the candidate state
// with its error-to-tolerance ratio.
func (r *RK45) attempt(sys sim.System, x sim.State, t, dt, tol float64) (sim.State, float64) {
	n := len(x)
	r.ensureScratch(n)

	sys.Derive(r.k1, x, t)

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*b21*r.k1[i]
	}
	sys.Derive(r.k2, r.stage, t+a2*dt)

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*(b31*r.k1[i]+b32*r.k2[i])
	}
	sys.Derive(r.k3, r.stage, t+a3*dt)

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*(b41*r.k1[i]+b42*r.k2[i]+b43*r.k3[i])
	}
	sys.Derive(r.k4, r.stage, t+a4*dt)

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*(b51*r.k1[i]+b52*r.k2[i]+b53*r.k3[i]+b54*r.k4[i])
	}
	sys.Derive(r.k5, r.stage, t+a5*dt)

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*(b61*r.k1[i]+b62*r.k2[i]+b63*r.k3[i]+b64*r.k4[i]+b65*r.k5[i])
	}
	sys.Derive(r.k6, r.stage, t+dt)

	xNew := make(sim.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*r.k1[i]+c3*r.k3[i]+c4*r.k4[i]+c5*r.k5[i]+c6*r.k6[i])
	}

	sys.Derive(r.k7, xNew, t+dt)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*r.k1[i] + dc3*r.k3[i] + dc4*r.k4[i] + dc5*r.k5[i] + dc6*r.k6[i] + dc7*r.k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*r.k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return xNew, errMax / tol
}
