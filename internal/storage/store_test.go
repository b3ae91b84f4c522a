package storage

import (
	"math"
	"testing"

	"github.com/san-kum/brusim/internal/sim"
)

func testTrajectory() *sim.Trajectory {
	return &sim.Trajectory{
		Times: []float64{0, 0.1, 0.2},
		States: []sim.State{
			{1, 2, 3, 4},
			{1.5, 2.5, 3.5, 4.5},
			{2, 3, 4, 5},
		},
		Metrics:    map[string]float64{"peak": 5.0, "mass_drift": 0.01},
		StepsTaken: 200,
	}
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	info := RunInfo{
		Model:    "brusselator",
		Boundary: "clamped",
		Stepper:  "rk4",
		Forcing:  "pulse",
		N:        2,
		Alpha:    10,
		Dt:       0.001,
		Duration: 0.2,
		Seed:     42,
	}

	runID, err := store.Save(info, testTrajectory())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "brusselator" || meta.Boundary != "clamped" {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.N != 2 || meta.Alpha != 10 || meta.Seed != 42 {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Metrics["peak"] != 5.0 {
		t.Errorf("metrics not persisted: %v", meta.Metrics)
	}

	states, times, err := store.LoadSnapshots(runID)
	if err != nil {
		t.Fatalf("load snapshots failed: %v", err)
	}
	if len(states) != 3 || len(times) != 3 {
		t.Fatalf("got %d states, %d times, want 3 each", len(states), len(times))
	}
	if math.Abs(times[1]-0.1) > 1e-9 {
		t.Errorf("times[1] = %f, want 0.1", times[1])
	}
	for i, want := range []float64{1.5, 2.5, 3.5, 4.5} {
		if states[1][i] != want {
			t.Errorf("states[1][%d] = %v, want %v", i, states[1][i], want)
		}
	}
}

func TestStore_List(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Save(RunInfo{Model: "diffusion", Boundary: "periodic"}, testTrajectory()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Model != "diffusion" {
		t.Errorf("model = %q", runs[0].Model)
	}
}

func TestStore_ListEmptyBaseDir(t *testing.T) {
	store := New("/nonexistent/brusim-test")

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list on missing dir failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want 0", len(runs))
	}
}

func TestStore_LoadUnknownRun(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Load("brusselator_0"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestStore_SaveEmptyTrajectory(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := store.Save(RunInfo{Model: "brusselator"}, &sim.Trajectory{})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	states, times, err := store.LoadSnapshots(runID)
	if err != nil {
		t.Fatalf("load snapshots failed: %v", err)
	}
	if len(states) != 0 || len(times) != 0 {
		t.Errorf("expected empty snapshots, got %d states", len(states))
	}
}
