package export

import (
	"fmt"
	"math"
	"strings"
)

// HeatmapSVG renders one N×N field plane as an SVG grid of cells,
// mapping values linearly from the field's own min/max onto a
// blue-to-red ramp. cell is the rendered size of one lattice cell in
// SVG units.
func HeatmapSVG(field []float64, n int, cell float64) string {
	if n <= 0 || len(field) < n*n {
		return ""
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n*n; i++ {
		lo = math.Min(lo, field[i])
		hi = math.Max(hi, field[i])
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	size := float64(n) * cell

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size))

	for i := 0; i < n; i++ {
		// Row 0 is the bottom of the physical domain; SVG y grows downward.
		y := float64(n-1-i) * cell
		for j := 0; j < n; j++ {
			frac := (field[i*n+j] - lo) / span
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(j)*cell, y, cell, cell, rampColor(frac)))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// rampColor maps [0,1] onto a cold-to-hot hex color.
func rampColor(frac float64) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	r := int(255 * frac)
	b := int(255 * (1 - frac))
	g := int(64 * (1 - math.Abs(2*frac-1)))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
