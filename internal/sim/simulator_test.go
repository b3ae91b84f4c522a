package sim

import (
	"context"
	"math"
	"sync"
	"testing"
)

// zeroSystem has a constant-zero right-hand side.
type zeroSystem struct{ dim int }

func (z *zeroSystem) Derive(dst State, x State, t float64) {
	for i := range dst {
		dst[i] = 0
	}
}
func (z *zeroSystem) StateDim() int { return z.dim }

// decaySystem is dx/dt = -x, with known solution x0·exp(-t).
type decaySystem struct{}

func (d *decaySystem) Derive(dst State, x State, t float64) {
	for i := range x {
		dst[i] = -x[i]
	}
}
func (d *decaySystem) StateDim() int { return 1 }

// eulerStepper is a minimal inline stepper for driver tests.
type eulerStepper struct{}

func (e *eulerStepper) Step(sys System, x State, t, dt float64) State {
	dx := make(State, len(x))
	sys.Derive(dx, x, t)
	result := make(State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

func TestRun_ZeroSystemPreservesState(t *testing.T) {
	sys := &zeroSystem{dim: 6}
	drv := New(sys, &eulerStepper{})

	x0 := State{1.5, -2.25, 0, 42, 1e-9, 3.14}
	cfg := Config{Dt: 0.1, Duration: 1.0}

	traj, err := drv.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for k, snapshot := range traj.States {
		for i := range x0 {
			if snapshot[i] != x0[i] {
				t.Fatalf("snapshot %d differs from initial state at %d: %v != %v",
					k, i, snapshot[i], x0[i])
			}
		}
	}
}

func TestRun_Decay(t *testing.T) {
	drv := New(&decaySystem{}, &eulerStepper{})

	cfg := Config{Dt: 0.001, Duration: 1.0}
	traj, err := drv.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	final := traj.Final()[0]
	expected := math.Exp(-1.0)
	if math.Abs(final-expected) > 1e-3 {
		t.Errorf("expected final state ~%.6f, got %.6f", expected, final)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	drv := New(&zeroSystem{dim: 1}, &eulerStepper{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"negative sample interval", Config{Dt: 0.1, Duration: 1.0, SampleEvery: -0.5}},
		{"adaptive without tolerance", Config{Dt: 0.1, Duration: 1.0, Adaptive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := drv.Run(context.Background(), State{1.0}, tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRun_DimensionMismatch(t *testing.T) {
	drv := New(&zeroSystem{dim: 4}, &eulerStepper{})

	_, err := drv.Run(context.Background(), State{1, 2}, Config{Dt: 0.1, Duration: 1.0})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRun_Sampling(t *testing.T) {
	drv := New(&zeroSystem{dim: 1}, &eulerStepper{})

	cfg := Config{Dt: 0.1, Duration: 1.0, SampleEvery: 0.2}
	traj, err := drv.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// t=0 plus one snapshot every 0.2 over [0, 1].
	if traj.Len() != 6 {
		t.Errorf("expected 6 snapshots, got %d", traj.Len())
	}
	if traj.Times[0] != 0 {
		t.Errorf("first snapshot should be t=0, got %f", traj.Times[0])
	}
	if math.Abs(traj.Times[traj.Len()-1]-1.0) > 1e-9 {
		t.Errorf("last snapshot should be t=1.0, got %f", traj.Times[traj.Len()-1])
	}
}

func TestRun_SampleEveryZeroRecordsAllSteps(t *testing.T) {
	drv := New(&zeroSystem{dim: 1}, &eulerStepper{})

	traj, err := drv.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if traj.Len() != 11 {
		t.Errorf("expected 11 snapshots, got %d", traj.Len())
	}
}

// blowupSystem diverges to NaN immediately.
type blowupSystem struct{}

func (b *blowupSystem) Derive(dst State, x State, t float64) {
	for i := range dst {
		dst[i] = math.NaN()
	}
}
func (b *blowupSystem) StateDim() int { return 1 }

func TestRun_ValidateStateStopsOnNaN(t *testing.T) {
	drv := New(&blowupSystem{}, &eulerStepper{})

	cfg := Config{Dt: 0.1, Duration: 1.0, ValidateState: true}
	traj, err := drv.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(traj.Errors) == 0 {
		t.Fatal("expected a recorded step error")
	}
	if traj.StepsTaken != 0 {
		t.Errorf("expected run to stop at the first invalid step, took %d", traj.StepsTaken)
	}
}

type countMetric struct {
	count int
	sum   float64
}

func (c *countMetric) Name() string { return "count" }
func (c *countMetric) Observe(x State, t float64) {
	c.count++
	c.sum += x[0]
}
func (c *countMetric) Value() float64 { return float64(c.count) }
func (c *countMetric) Reset()         { c.count = 0; c.sum = 0 }

func TestRun_Metrics(t *testing.T) {
	drv := New(&zeroSystem{dim: 1}, &eulerStepper{})

	metric := &countMetric{}
	drv.AddMetric(metric)

	traj, err := drv.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := traj.Metrics["count"]; !ok {
		t.Error("metric not found in trajectory")
	}
	// Initial state plus every stepped state, final included.
	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

// lastTimeMetric remembers the time of its latest observation.
type lastTimeMetric struct{ last float64 }

func (l *lastTimeMetric) Name() string               { return "last_time" }
func (l *lastTimeMetric) Observe(x State, t float64) { l.last = t }
func (l *lastTimeMetric) Value() float64             { return l.last }
func (l *lastTimeMetric) Reset()                     { l.last = 0 }

func TestRun_MetricsSeeFinalState(t *testing.T) {
	drv := New(&zeroSystem{dim: 1}, &eulerStepper{})

	metric := &lastTimeMetric{}
	drv.AddMetric(metric)

	_, err := drv.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if math.Abs(metric.last-1.0) > 1e-9 {
		t.Errorf("last observation at t=%f, want the final state at t=1.0", metric.last)
	}
}

// doublingStepper is an adaptive stepper that accepts every step and
// proposes double the size for the next one.
type doublingStepper struct{}

func (d *doublingStepper) Step(sys System, x State, t, dt float64) State {
	dx := make(State, len(x))
	sys.Derive(dx, x, t)
	result := make(State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

func (d *doublingStepper) StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, float64, error) {
	return d.Step(sys, x, t, dt), dt, dt * 2, nil
}

func TestRun_AdaptiveEndsAtDuration(t *testing.T) {
	drv := New(&zeroSystem{dim: 1}, &doublingStepper{})

	cfg := Config{Dt: 0.1, Duration: 1.0, Adaptive: true, Tolerance: 1e-6, MaxDt: 0.2, MinDt: 1e-9}
	traj, err := drv.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	last := traj.Times[traj.Len()-1]
	if math.Abs(last-1.0) > 1e-9 {
		t.Errorf("final time = %f, want 1.0", last)
	}

	// dt grows 0.1 -> 0.2 (MaxDt cap), then the last step is clamped
	// onto the duration: 0.1 + 4*0.2 + 0.1.
	if traj.StepsTaken != 6 {
		t.Errorf("expected 6 accepted steps, got %d", traj.StepsTaken)
	}
}

func TestRun_AdaptiveFallbackEndsAtDuration(t *testing.T) {
	// eulerStepper is not an AdaptiveStepper, so the driver uses its
	// step-doubling fallback.
	drv := New(&zeroSystem{dim: 1}, &eulerStepper{})

	cfg := Config{Dt: 0.001, Duration: 1.0, Adaptive: true, Tolerance: 1e-6, MaxDt: 0.05, MinDt: 1e-9}
	traj, err := drv.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	last := traj.Times[traj.Len()-1]
	if math.Abs(last-1.0) > 1e-9 {
		t.Errorf("final time = %f, want 1.0", last)
	}
	if traj.StepsTaken >= 1000 {
		t.Errorf("step count %d did not benefit from dt growth", traj.StepsTaken)
	}
	for _, snapErr := range traj.Errors {
		t.Errorf("unexpected step error: %v", snapErr)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	drv := New(&zeroSystem{dim: 1}, &eulerStepper{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := drv.Run(ctx, State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err == nil {
		t.Error("expected context error, got nil")
	}
}

func TestEnsemble(t *testing.T) {
	sys := &decaySystem{}
	ens := NewEnsemble(sys, func() Stepper { return &eulerStepper{} }, 4, 100)

	results, err := ens.Run(context.Background(), State{1.0}, Config{Dt: 0.01, Duration: 0.5})
	if err != nil {
		t.Fatalf("ensemble run failed: %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("expected 4 trajectories, got %d", len(results))
	}
	for i, traj := range results {
		if traj == nil || traj.Len() == 0 {
			t.Errorf("trajectory %d is empty", i)
		}
	}
}

func TestEnsemble_NoisePerturbsMembers(t *testing.T) {
	sys := &decaySystem{}
	ens := NewEnsemble(sys, func() Stepper { return &eulerStepper{} }, 4, 7)
	ens.Noise = 0.1

	results, err := ens.Run(context.Background(), State{1.0}, Config{Dt: 0.01, Duration: 0.5})
	if err != nil {
		t.Fatalf("ensemble run failed: %v", err)
	}

	distinct := false
	first := results[0].Final()[0]
	for _, traj := range results[1:] {
		if traj.Final()[0] != first {
			distinct = true
		}
	}
	if !distinct {
		t.Error("members with distinct seeds should diverge under noise")
	}
}

func TestEnsemble_SeedReproducible(t *testing.T) {
	run := func() []*Trajectory {
		ens := NewEnsemble(&decaySystem{}, func() Stepper { return &eulerStepper{} }, 3, 42)
		ens.Noise = 0.05
		results, err := ens.Run(context.Background(), State{1.0}, Config{Dt: 0.01, Duration: 0.5})
		if err != nil {
			t.Fatalf("ensemble run failed: %v", err)
		}
		return results
	}

	a, b := run(), run()
	for i := range a {
		if a[i].Final()[0] != b[i].Final()[0] {
			t.Errorf("member %d not reproducible from its seed", i)
		}
	}
}

func TestEnsemble_ZeroNoiseIdentical(t *testing.T) {
	ens := NewEnsemble(&decaySystem{}, func() Stepper { return &eulerStepper{} }, 3, 42)

	results, err := ens.Run(context.Background(), State{1.0}, Config{Dt: 0.01, Duration: 0.5})
	if err != nil {
		t.Fatalf("ensemble run failed: %v", err)
	}
	first := results[0].Final()[0]
	for i, traj := range results {
		if traj.Final()[0] != first {
			t.Errorf("member %d differs without noise", i)
		}
	}
}

func TestParallelFor_CoversRange(t *testing.T) {
	const n = 1000
	hits := make([]int32, n)

	ParallelFor(n, 0, 10, func(start, end int) {
		for i := start; i < end; i++ {
			hits[i]++
		}
	})

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}

func TestParallelFor_WorkerCount(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	ParallelFor(100, 4, 10, func(start, end int) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if calls != 4 {
		t.Errorf("expected 4 chunks for 4 workers, got %d", calls)
	}

	calls = 0
	ParallelFor(100, 2, 10, func(start, end int) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if calls != 2 {
		t.Errorf("expected 2 chunks for 2 workers, got %d", calls)
	}

	calls = 0
	ParallelFor(100, 1, 10, func(start, end int) {
		calls++
	})
	if calls != 1 {
		t.Errorf("expected a single inline call for 1 worker, got %d", calls)
	}
}

func TestParallelFor_SmallRangeInline(t *testing.T) {
	hits := 0
	ParallelFor(3, 0, 10, func(start, end int) {
		hits += end - start
	})
	if hits != 3 {
		t.Errorf("expected 3 visits, got %d", hits)
	}
}
