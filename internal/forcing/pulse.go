package forcing

// Pulse is a localized source that switches on at a fixed time: it
// contributes Amp inside the disk of squared radius R2 around (CX, CY)
// once t reaches Onset, and nothing elsewhere. Coordinates are physical,
// so the forced region is independent of grid resolution.
type Pulse struct {
	Amp   float64
	CX    float64
	CY    float64
	R2    float64
	Onset float64
}

// NewPulse returns the standard forcing pulse: amplitude 5 inside a
// radius-0.1 disk at (0.3, 0.6), gated on at t=1.1.
func NewPulse() *Pulse {
	return &Pulse{Amp: 5, CX: 0.3, CY: 0.6, R2: 0.01, Onset: 1.1}
}

func (p *Pulse) At(x, y, t float64) float64 {
	if t < p.Onset {
		return 0
	}
	dx := x - p.CX
	dy := y - p.CY
	if dx*dx+dy*dy > p.R2 {
		return 0
	}
	return p.Amp
}
