package metrics

import (
	"math"

	"github.com/san-kum/brusim/internal/sim"
)

// Peak records the largest absolute field value seen during the run.
type Peak struct {
	name string
	max  float64
}

func NewPeak() *Peak {
	return &Peak{name: "peak"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x sim.State, t float64) {
	for _, v := range x {
		if abs := math.Abs(v); abs > p.max {
			p.max = abs
		}
	}
}

func (p *Peak) Value() float64 { return p.max }

func (p *Peak) Reset() { p.max = 0 }
