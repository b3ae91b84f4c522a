package grid

import "fmt"

// Grid describes a square N×N lattice over a rectangular domain.
// Spacing is derived from the bounds so that grid line 0 sits on the
// lower bound and grid line N-1 on the upper bound.
type Grid struct {
	N                      int
	XMin, XMax, YMin, YMax float64
	Dx, Dy                 float64
	X, Y                   []float64
}

func New(n int, xMin, xMax, yMin, yMax float64) (*Grid, error) {
	if n <= 1 {
		return nil, fmt.Errorf("grid size must be at least 2, got %d", n)
	}
	if xMin >= xMax {
		return nil, fmt.Errorf("x bounds must increase: [%f, %f]", xMin, xMax)
	}
	if yMin >= yMax {
		return nil, fmt.Errorf("y bounds must increase: [%f, %f]", yMin, yMax)
	}

	g := &Grid{
		N:    n,
		XMin: xMin, XMax: xMax,
		YMin: yMin, YMax: yMax,
		Dx: (xMax - xMin) / float64(n-1),
		Dy: (yMax - yMin) / float64(n-1),
		X:  make([]float64, n),
		Y:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		g.X[i] = xMin + float64(i)*g.Dx
		g.Y[i] = yMin + float64(i)*g.Dy
	}
	return g, nil
}

// Unit returns an n×n grid over the unit square.
func Unit(n int) (*Grid, error) {
	return New(n, 0, 1, 0, 1)
}

// Cells is the number of lattice points.
func (g *Grid) Cells() int { return g.N * g.N }

// Index maps a (row, col) pair to the flat offset within one field plane.
func (g *Grid) Index(i, j int) int { return i*g.N + j }
