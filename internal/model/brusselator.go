package model

import (
	"fmt"

	"github.com/san-kum/brusim/internal/forcing"
	"github.com/san-kum/brusim/internal/grid"
	"github.com/san-kum/brusim/internal/sim"
)

// Brusselator is the two-species reaction-diffusion system
//
//	du/dt = α ∇²u + A + v·u² − (B+1)·u + f(x, y, t)
//	dv/dt = α ∇²v + B·u − v·u²
//
// discretized on an N×N grid with a five-point Laplacian stencil. The
// state packs the u plane followed by the v plane. Neighbor access at
// the edges follows the grid's explicit boundary policy.
type Brusselator struct {
	Grid  *grid.Grid
	Bound grid.Boundary
	Alpha float64
	A     float64
	B     float64
	Force sim.Forcing

	// Workers > 1 splits the row loop across that many goroutines.
	// Every worker reads the same pre-step snapshot and writes disjoint
	// rows of the derivative buffer (Jacobi, never Gauss-Seidel).
	Workers int
}

func NewBrusselator(g *grid.Grid, b grid.Boundary) *Brusselator {
	return &Brusselator{
		Grid:  g,
		Bound: b,
		Alpha: 10.0,
		A:     1.0,
		B:     3.4,
		Force: forcing.NewNone(),
	}
}

func (br *Brusselator) StateDim() int { return 2 * br.Grid.Cells() }

// SetForcing swaps the source term; nil restores zero forcing.
func (br *Brusselator) SetForcing(f sim.Forcing) {
	if f == nil {
		f = forcing.NewNone()
	}
	br.Force = f
}

func (br *Brusselator) SetWorkers(n int) { br.Workers = n }

func (br *Brusselator) Derive(dst sim.State, x sim.State, t float64) {
	n := br.Grid.N
	cells := n * n
	if len(x) < 2*cells || len(dst) < 2*cells {
		panic(fmt.Sprintf("model: brusselator wants %d state values, got %d (dst %d)",
			2*cells, len(x), len(dst)))
	}

	u, v := x[:cells], x[cells:2*cells]
	du, dv := dst[:cells], dst[cells:2*cells]

	if br.Workers > 1 {
		sim.ParallelFor(n, br.Workers, 8, func(start, end int) {
			br.deriveRows(du, dv, u, v, t, start, end)
		})
		return
	}
	br.deriveRows(du, dv, u, v, t, 0, n)
}

func (br *Brusselator) deriveRows(du, dv, u, v []float64, t float64, rowStart, rowEnd int) {
	g := br.Grid
	n := g.N
	invDx2 := 1.0 / (g.Dx * g.Dx)
	invDy2 := 1.0 / (g.Dy * g.Dy)
	alpha, a, b1 := br.Alpha, br.A, br.B+1

	for i := rowStart; i < rowEnd; i++ {
		up := br.Bound.Index(i-1, n) * n
		down := br.Bound.Index(i+1, n) * n
		row := i * n
		y := g.Y[i]

		for j := 0; j < n; j++ {
			left := row + br.Bound.Index(j-1, n)
			right := row + br.Bound.Index(j+1, n)
			idx := row + j

			uc, vc := u[idx], v[idx]
			lapU := (u[left]-2*uc+u[right])*invDx2 + (u[up+j]-2*uc+u[down+j])*invDy2
			lapV := (v[left]-2*vc+v[right])*invDx2 + (v[up+j]-2*vc+v[down+j])*invDy2

			reaction := vc * uc * uc
			du[idx] = alpha*lapU + a + reaction - b1*uc + br.Force.At(g.X[j], y, t)
			dv[idx] = alpha*lapV + br.B*uc - reaction
		}
	}
}

// InitialState seeds u with a profile varying along y and v with one
// varying along x, evaluated at each cell's physical coordinates.
func (br *Brusselator) InitialState() sim.State {
	g := br.Grid
	n := g.N
	cells := n * n
	s := make(sim.State, 2*cells)
	for i := 0; i < n; i++ {
		y := g.Y[i]
		for j := 0; j < n; j++ {
			x := g.X[j]
			s[i*n+j] = 22 * y * (1 - y)
			s[cells+i*n+j] = 27 * x * (1 - x)
		}
	}
	return s
}

func (br *Brusselator) TotalMass(x sim.State) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum
}

func (br *Brusselator) GetParams() map[string]float64 {
	return map[string]float64{"alpha": br.Alpha, "a": br.A, "b": br.B}
}

func (br *Brusselator) SetParam(name string, value float64) error {
	switch name {
	case "alpha":
		br.Alpha = value
	case "a":
		br.A = value
	case "b":
		br.B = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}
