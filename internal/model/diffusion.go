package model

import (
	"fmt"
	"math"

	"github.com/san-kum/brusim/internal/grid"
	"github.com/san-kum/brusim/internal/sim"
)

// Diffusion is the pure heat equation du/dt = α ∇²u applied to both
// field planes, with no reaction and no forcing. Under periodic
// boundaries total mass is conserved, which makes it the reference
// system for conservation checks.
type Diffusion struct {
	Grid    *grid.Grid
	Bound   grid.Boundary
	Alpha   float64
	Workers int
}

func NewDiffusion(g *grid.Grid, b grid.Boundary) *Diffusion {
	return &Diffusion{Grid: g, Bound: b, Alpha: 1.0}
}

func (d *Diffusion) StateDim() int { return 2 * d.Grid.Cells() }

func (d *Diffusion) SetWorkers(n int) { d.Workers = n }

func (d *Diffusion) Derive(dst sim.State, x sim.State, t float64) {
	n := d.Grid.N
	cells := n * n
	if len(x) < 2*cells || len(dst) < 2*cells {
		panic(fmt.Sprintf("model: diffusion wants %d state values, got %d (dst %d)",
			2*cells, len(x), len(dst)))
	}

	u, v := x[:cells], x[cells:2*cells]
	du, dv := dst[:cells], dst[cells:2*cells]

	if d.Workers > 1 {
		sim.ParallelFor(n, d.Workers, 8, func(start, end int) {
			d.deriveRows(du, dv, u, v, start, end)
		})
		return
	}
	d.deriveRows(du, dv, u, v, 0, n)
}

func (d *Diffusion) deriveRows(du, dv, u, v []float64, rowStart, rowEnd int) {
	g := d.Grid
	n := g.N
	invDx2 := 1.0 / (g.Dx * g.Dx)
	invDy2 := 1.0 / (g.Dy * g.Dy)

	for i := rowStart; i < rowEnd; i++ {
		up := d.Bound.Index(i-1, n) * n
		down := d.Bound.Index(i+1, n) * n
		row := i * n

		for j := 0; j < n; j++ {
			left := row + d.Bound.Index(j-1, n)
			right := row + d.Bound.Index(j+1, n)
			idx := row + j

			uc, vc := u[idx], v[idx]
			du[idx] = d.Alpha * ((u[left]-2*uc+u[right])*invDx2 + (u[up+j]-2*uc+u[down+j])*invDy2)
			dv[idx] = d.Alpha * ((v[left]-2*vc+v[right])*invDx2 + (v[up+j]-2*vc+v[down+j])*invDy2)
		}
	}
}

// InitialState places a Gaussian bump of u at the domain center and
// leaves v empty.
func (d *Diffusion) InitialState() sim.State {
	g := d.Grid
	n := g.N
	cells := n * n
	cx := (g.XMin + g.XMax) / 2
	cy := (g.YMin + g.YMax) / 2
	width := (g.XMax - g.XMin) * 0.1

	s := make(sim.State, 2*cells)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dx := g.X[j] - cx
			dy := g.Y[i] - cy
			s[i*n+j] = math.Exp(-(dx*dx + dy*dy) / (2 * width * width))
		}
	}
	return s
}

func (d *Diffusion) TotalMass(x sim.State) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum
}

func (d *Diffusion) GetParams() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha}
}

func (d *Diffusion) SetParam(name string, value float64) error {
	if name != "alpha" {
		return fmt.Errorf("unknown parameter: %s", name)
	}
	d.Alpha = value
	return nil
}
