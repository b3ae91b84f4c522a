package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/brusim/internal/experiment"
)

// Sweep evaluates every combination of the given parameter values and
// reports the combination with the best value of a named metric.
type Sweep struct {
	paramNames []string
	values     [][]float64
	Maximize   bool
}

func NewSweep(params []string, values [][]float64) (*Sweep, error) {
	if len(params) != len(values) {
		return nil, fmt.Errorf("got %d parameter names but %d value lists", len(params), len(values))
	}
	for i, vs := range values {
		if len(vs) == 0 {
			return nil, fmt.Errorf("no values for parameter %s", params[i])
		}
	}
	return &Sweep{paramNames: params, values: values}, nil
}

// Point is one evaluated parameter combination.
type Point struct {
	Params map[string]float64
	Value  float64
}

// Run walks the parameter lattice. build receives one combination and
// returns a ready-to-run experiment; combinations whose build or run
// fails are skipped. Returns the best point and all evaluated points.
func (s *Sweep) Run(
	ctx context.Context,
	build func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (*Point, []Point, error) {

	best := Point{Value: math.Inf(1)}
	if s.Maximize {
		best.Value = math.Inf(-1)
	}
	found := false

	points := make([]Point, 0)

	// Odometer over the value lists.
	idx := make([]int, len(s.paramNames))
	for {
		select {
		case <-ctx.Done():
			return nil, points, ctx.Err()
		default:
		}

		params := make(map[string]float64, len(s.paramNames))
		for i, name := range s.paramNames {
			params[name] = s.values[i][idx[i]]
		}

		if val, ok := s.evaluate(ctx, build, params, metricName); ok {
			points = append(points, Point{Params: params, Value: val})
			if s.better(val, best.Value) {
				best = Point{Params: params, Value: val}
				found = true
			}
		}

		if !advance(idx, s.values) {
			break
		}
	}

	if !found {
		return nil, points, fmt.Errorf("no parameter combination produced metric %q", metricName)
	}
	return &best, points, nil
}

func (s *Sweep) evaluate(
	ctx context.Context,
	build func(map[string]float64) (*experiment.Experiment, error),
	params map[string]float64,
	metricName string,
) (float64, bool) {
	exp, err := build(params)
	if err != nil {
		return 0, false
	}
	traj, err := exp.Run(ctx)
	if err != nil {
		return 0, false
	}
	val, ok := traj.Metrics[metricName]
	return val, ok
}

func (s *Sweep) better(val, best float64) bool {
	if s.Maximize {
		return val > best
	}
	return val < best
}

func advance(idx []int, values [][]float64) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < len(values[i]) {
			return true
		}
		idx[i] = 0
	}
	return false
}
