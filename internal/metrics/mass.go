package metrics

import (
	"math"

	"github.com/san-kum/brusim/internal/sim"
)

// Mass averages the total field mass over the run.
type Mass struct {
	name    string
	sys     sim.MassTotaler
	sum     float64
	samples int
}

func NewMass(sys sim.MassTotaler) *Mass {
	return &Mass{name: "mass", sys: sys}
}

func (m *Mass) Name() string { return m.name }

func (m *Mass) Observe(x sim.State, t float64) {
	if m.sys == nil {
		return
	}
	m.sum += m.sys.TotalMass(x)
	m.samples++
}

func (m *Mass) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Mass) Reset() {
	m.sum = 0
	m.samples = 0
}

// MassDrift tracks the largest relative deviation of total mass from
// its initial value.
type MassDrift struct {
	name     string
	sys      sim.MassTotaler
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassDrift(sys sim.MassTotaler) *MassDrift {
	return &MassDrift{name: "mass_drift", sys: sys}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(x sim.State, t float64) {
	if m.sys == nil {
		return
	}
	mass := m.sys.TotalMass(x)

	if m.samples == 0 {
		m.initial = mass
	}
	m.samples++

	if m.initial != 0 {
		drift := math.Abs(mass-m.initial) / math.Abs(m.initial)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}
