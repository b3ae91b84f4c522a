package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/brusim/internal/forcing"
	"github.com/san-kum/brusim/internal/grid"
	"github.com/san-kum/brusim/internal/model"
	"github.com/san-kum/brusim/internal/sim"
)

var _ = Describe("Brusselator", func() {
	newUnitGrid := func(n int) *grid.Grid {
		g, err := grid.Unit(n)
		Expect(err).NotTo(HaveOccurred())
		return g
	}

	Describe("InitialState", func() {
		It("seeds u along y and v along x", func() {
			g := newUnitGrid(4)
			br := model.NewBrusselator(g, grid.Clamped)
			s := br.InitialState()

			Expect(s).To(HaveLen(2 * 16))

			cells := 16
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					y, x := g.Y[i], g.X[j]
					Expect(s[i*4+j]).To(BeNumerically("~", 22*y*(1-y), 1e-12))
					Expect(s[cells+i*4+j]).To(BeNumerically("~", 27*x*(1-x), 1e-12))
				}
			}
		})

		It("is zero along the domain edges", func() {
			g := newUnitGrid(5)
			s := model.NewBrusselator(g, grid.Clamped).InitialState()

			// u vanishes at y=0 and y=1, v at x=0 and x=1.
			cells := 25
			for j := 0; j < 5; j++ {
				Expect(s[j]).To(BeZero())
				Expect(s[4*5+j]).To(BeZero())
				Expect(s[cells+j*5]).To(BeZero())
				Expect(s[cells+j*5+4]).To(BeZero())
			}
		})
	})

	Describe("Derive", func() {
		It("produces a spatially uniform derivative for a flat field", func() {
			g := newUnitGrid(8)
			br := model.NewBrusselator(g, grid.Clamped)

			x := make(sim.State, br.StateDim())
			for i := 0; i < 64; i++ {
				x[i] = 1.7
				x[64+i] = 0.9
			}

			dst := make(sim.State, br.StateDim())
			br.Derive(dst, x, 0)

			// Laplacian of a flat field is exactly zero, so every cell
			// sees only the (uniform) reaction term.
			for i := 1; i < 64; i++ {
				Expect(dst[i]).To(Equal(dst[0]))
				Expect(dst[64+i]).To(Equal(dst[64]))
			}

			u, v := 1.7, 0.9
			Expect(dst[0]).To(BeNumerically("~", 1+v*u*u-4.4*u, 1e-12))
			Expect(dst[64]).To(BeNumerically("~", 3.4*u-v*u*u, 1e-12))
		})

		It("matches hand-computed values on a 4x4 clamped grid", func() {
			g := newUnitGrid(4)
			br := model.NewBrusselator(g, grid.Clamped)
			// dx = dy = 1/3, so 1/dx² = 9.

			x := br.InitialState()
			dst := make(sim.State, br.StateDim())
			br.Derive(dst, x, 0)

			cells := 16
			uMid := 22.0 / 3 * (2.0 / 3) // u at y=1/3: 44/9
			vMid := 27.0 / 3 * (2.0 / 3) // v at x=1/3: 6

			// Corner (0,0): u=v=0. One-sided differences under clamping
			// leave only the interior neighbors: lapU = 9·u(y=1/3) = 44,
			// lapV = 9·v(x=1/3) = 54.
			Expect(dst[0]).To(BeNumerically("~", 10*9*uMid+1, 1e-9))
			Expect(dst[cells]).To(BeNumerically("~", 10*9*vMid, 1e-9))

			// Interior (1,1): u=44/9, v=6. u varies only along y
			// (neighbors 0 and 44/9), v only along x (neighbors 0 and 6).
			lapU := 9 * (0 - 2*uMid + uMid)
			lapV := 9 * (0 - 2*vMid + vMid)
			idx := 1*4 + 1
			Expect(dst[idx]).To(BeNumerically("~", 10*lapU+1+vMid*uMid*uMid-4.4*uMid, 1e-9))
			Expect(dst[cells+idx]).To(BeNumerically("~", 10*lapV+3.4*uMid-vMid*uMid*uMid, 1e-9))
		})

		It("is idempotent: identical inputs give bit-identical output", func() {
			g := newUnitGrid(6)
			br := model.NewBrusselator(g, grid.Periodic)
			br.Force = forcing.NewPulse()

			x := br.InitialState()
			a := make(sim.State, br.StateDim())
			b := make(sim.State, br.StateDim())

			br.Derive(a, x, 2.0)
			br.Derive(b, x, 2.0)

			for i := range a {
				Expect(b[i]).To(Equal(a[i]))
			}
		})

		It("computes the same derivative with parallel workers", func() {
			g := newUnitGrid(16)
			serial := model.NewBrusselator(g, grid.Clamped)
			parallel := model.NewBrusselator(g, grid.Clamped)
			parallel.SetWorkers(4)

			x := serial.InitialState()
			a := make(sim.State, serial.StateDim())
			b := make(sim.State, parallel.StateDim())

			serial.Derive(a, x, 0.5)
			parallel.Derive(b, x, 0.5)

			for i := range a {
				Expect(b[i]).To(Equal(a[i]))
			}
		})

		It("panics when the state buffer is too short", func() {
			g := newUnitGrid(4)
			br := model.NewBrusselator(g, grid.Clamped)

			short := make(sim.State, br.StateDim()-1)
			dst := make(sim.State, br.StateDim())
			Expect(func() { br.Derive(dst, short, 0) }).To(Panic())
			Expect(func() { br.Derive(dst[:3], br.InitialState(), 0) }).To(Panic())
		})

		It("applies the forcing pulse only inside its disk and after onset", func() {
			g := newUnitGrid(4)
			br := model.NewBrusselator(g, grid.Clamped)
			br.SetForcing(forcing.NewPulse())

			x := br.InitialState()
			before := make(sim.State, br.StateDim())
			after := make(sim.State, br.StateDim())

			br.Derive(before, x, 1.0)
			br.Derive(after, x, 1.2)

			// Cell (2,1) sits at (1/3, 2/3), inside the pulse disk
			// around (0.3, 0.6); it is the only forced cell on this grid.
			forced := 2*4 + 1
			cells := 16
			for i := 0; i < cells; i++ {
				diff := after[i] - before[i]
				if i == forced {
					Expect(diff).To(BeNumerically("~", 5.0, 1e-12))
				} else {
					Expect(diff).To(BeZero())
				}
				// The v equation carries no forcing term.
				Expect(after[cells+i]).To(Equal(before[cells+i]))
			}
		})
	})

	Describe("Parameters", func() {
		It("exposes and updates alpha, a and b", func() {
			g := newUnitGrid(4)
			br := model.NewBrusselator(g, grid.Clamped)

			params := br.GetParams()
			Expect(params).To(HaveKeyWithValue("alpha", 10.0))
			Expect(params).To(HaveKeyWithValue("a", 1.0))
			Expect(params).To(HaveKeyWithValue("b", 3.4))

			Expect(br.SetParam("alpha", 2.5)).To(Succeed())
			Expect(br.Alpha).To(Equal(2.5))
			Expect(br.SetParam("gamma", 1.0)).NotTo(Succeed())
		})
	})
})

var _ = Describe("Diffusion", func() {
	It("has zero Laplacian sum under periodic boundaries", func() {
		g, err := grid.Unit(8)
		Expect(err).NotTo(HaveOccurred())
		d := model.NewDiffusion(g, grid.Periodic)

		x := d.InitialState()
		dst := make(sim.State, d.StateDim())
		d.Derive(dst, x, 0)

		// Every discrete flux cancels against its neighbor's reverse
		// flux, so the grid sum of the diffusion term vanishes.
		sum := 0.0
		for i := 0; i < 64; i++ {
			sum += dst[i]
		}
		Expect(sum).To(BeNumerically("~", 0, 1e-9))
	})

	It("leaves a flat field unchanged", func() {
		g, err := grid.Unit(6)
		Expect(err).NotTo(HaveOccurred())
		d := model.NewDiffusion(g, grid.Clamped)

		x := make(sim.State, d.StateDim())
		for i := range x {
			x[i] = 3.25
		}

		dst := make(sim.State, d.StateDim())
		d.Derive(dst, x, 0)

		for i := range dst {
			Expect(dst[i]).To(BeZero())
		}
	})

	It("panics when the state buffer is too short", func() {
		g, err := grid.Unit(4)
		Expect(err).NotTo(HaveOccurred())
		d := model.NewDiffusion(g, grid.Periodic)

		dst := make(sim.State, d.StateDim())
		Expect(func() { d.Derive(dst, dst[:5], 0) }).To(Panic())
	})

	It("conserves mass through a short periodic run", func() {
		g, err := grid.Unit(8)
		Expect(err).NotTo(HaveOccurred())
		d := model.NewDiffusion(g, grid.Periodic)

		x := d.InitialState()
		initial := d.TotalMass(x)

		// Forward Euler, small steps; mass should be conserved to
		// rounding regardless of the step error in the profile.
		dst := make(sim.State, d.StateDim())
		dt := 1e-4
		for step := 0; step < 100; step++ {
			d.Derive(dst, x, float64(step)*dt)
			for i := range x {
				x[i] += dt * dst[i]
			}
		}

		Expect(d.TotalMass(x)).To(BeNumerically("~", initial, 1e-9))
	})
})
