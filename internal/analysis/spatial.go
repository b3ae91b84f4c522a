package analysis

// Spatial statistics over one field plane of a snapshot.

func Total(field []float64) float64 {
	sum := 0.0
	for _, v := range field {
		sum += v
	}
	return sum
}

func Mean(field []float64) float64 {
	if len(field) == 0 {
		return 0
	}
	return Total(field) / float64(len(field))
}

func Variance(field []float64) float64 {
	if len(field) == 0 {
		return 0
	}
	mean := Mean(field)
	sum := 0.0
	for _, v := range field {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(field))
}

// Probe extracts the time series of one flat state index across
// snapshots, e.g. the u value of a single cell over a whole run.
func Probe(states [][]float64, idx int) []float64 {
	series := make([]float64, 0, len(states))
	for _, s := range states {
		if idx < len(s) {
			series = append(series, s[idx])
		}
	}
	return series
}
