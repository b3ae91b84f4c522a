package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/brusim/internal/analysis"
	"github.com/san-kum/brusim/internal/config"
	"github.com/san-kum/brusim/internal/experiment"
	"github.com/san-kum/brusim/internal/export"
	"github.com/san-kum/brusim/internal/grid"
	"github.com/san-kum/brusim/internal/optim"
	"github.com/san-kum/brusim/internal/sim"
	"github.com/san-kum/brusim/internal/storage"
	"github.com/san-kum/brusim/internal/viz"
)

var (
	dataDir      string
	gridN        int
	alpha        float64
	paramA       float64
	paramB       float64
	boundary     string
	stepperName  string
	forcingName  string
	dt           float64
	duration     float64
	sampleEvery  float64
	seed         int64
	noise        float64
	workers      int
	configFile   string
	preset       string
	frameRate    int
	snapshotIdx  int
	probeRow     int
	probeCol     int
	sweepMetric  string
	sweepMax     bool
	ensembleRuns int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "brusim",
		Short: "reaction-diffusion simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".brusim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot probe-cell traces of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&probeRow, "row", -1, "probe row (default: center)")
	plotCmd.Flags().IntVar(&probeCol, "col", -1, "probe col (default: center)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a probe cell",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&probeRow, "row", -1, "probe row (default: center)")
	analyzeCmd.Flags().IntVar(&probeCol, "col", -1, "probe col (default: center)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write run snapshots to stdout as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write run trajectory to stdout as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	renderCmd := &cobra.Command{
		Use:   "render [run_id] [out.svg]",
		Short: "render one snapshot's u field as an SVG heatmap",
		Args:  cobra.ExactArgs(2),
		RunE:  renderSnapshot,
	}
	renderCmd.Flags().IntVar(&snapshotIdx, "snapshot", -1, "snapshot index (default: last)")

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "benchmark a model across grid sizes and timesteps",
		Args:  cobra.ExactArgs(1),
		RunE:  benchModel,
	}
	benchCmd.Flags().StringVar(&boundary, "boundary", "clamped", "boundary policy")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "derivative workers")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [stepper1] [stepper2] ...",
		Short: "compare steppers on the same model",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareSteppers,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", 0.001, "timestep")
	compareCmd.Flags().Float64Var(&duration, "time", 2.0, "duration")
	compareCmd.Flags().IntVar(&gridN, "n", 16, "grid size")
	compareCmd.Flags().StringVar(&boundary, "boundary", "clamped", "boundary policy")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model] [param] [values]",
		Short: "sweep a model parameter, e.g. sweep brusselator alpha 2,5,10",
		Args:  cobra.ExactArgs(3),
		RunE:  sweepParam,
	}
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "peak", "metric to optimize")
	sweepCmd.Flags().BoolVar(&sweepMax, "max", false, "maximize instead of minimize")
	sweepCmd.Flags().Float64Var(&dt, "dt", 0.001, "timestep")
	sweepCmd.Flags().Float64Var(&duration, "time", 2.0, "duration")
	sweepCmd.Flags().IntVar(&gridN, "n", 16, "grid size")
	sweepCmd.Flags().StringVar(&boundary, "boundary", "clamped", "boundary policy")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [model]",
		Short: "run an ensemble of perturbed initial states",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	addRunFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&ensembleRuns, "runs", 8, "ensemble members")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run with live terminal heatmap",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportCSVCmd,
		exportJSONCmd, renderCmd, benchCmd, compareCmd, sweepCmd, presetsCmd,
		ensembleCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&gridN, "n", config.DefaultN, "grid size (NxN)")
	cmd.Flags().Float64Var(&alpha, "alpha", config.DefaultAlpha, "diffusion coefficient")
	cmd.Flags().Float64Var(&paramA, "a", config.DefaultA, "reaction parameter A")
	cmd.Flags().Float64Var(&paramB, "b", config.DefaultB, "reaction parameter B")
	cmd.Flags().StringVar(&boundary, "boundary", "clamped", "boundary policy (clamped|periodic)")
	cmd.Flags().StringVar(&stepperName, "stepper", "rk4", "time stepper")
	cmd.Flags().StringVar(&forcingName, "forcing", "none", "forcing term (none|pulse)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&sampleEvery, "sample", config.DefaultSampleEvery, "snapshot interval")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().Float64Var(&noise, "noise", 0, "initial-state noise amplitude")
	cmd.Flags().IntVar(&workers, "workers", 0, "derivative workers (0 = serial)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig merges precedence: defaults < preset < config file < flags.
func resolveConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		cfg.Model = model
	}

	flagOverrides := []struct {
		name  string
		apply func()
	}{
		{"n", func() { cfg.Grid.N = gridN }},
		{"alpha", func() { cfg.Params.Alpha = alpha }},
		{"a", func() { cfg.Params.A = paramA }},
		{"b", func() { cfg.Params.B = paramB }},
		{"boundary", func() { cfg.Boundary = boundary }},
		{"stepper", func() { cfg.Stepper = stepperName }},
		{"forcing", func() { cfg.Forcing = forcingName }},
		{"dt", func() { cfg.Dt = dt }},
		{"time", func() { cfg.Duration = duration }},
		{"sample", func() { cfg.SampleEvery = sampleEvery }},
		{"seed", func() { cfg.Seed = seed }},
		{"noise", func() { cfg.Noise = noise }},
		{"workers", func() { cfg.Workers = workers }},
	}
	for _, o := range flagOverrides {
		if cmd.Flags().Changed(o.name) {
			o.apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildRun turns a validated config into a ready system + stepper pair.
func buildRun(cfg *config.Config) (sim.System, sim.Stepper, *grid.Grid, error) {
	g, err := cfg.BuildGrid()
	if err != nil {
		return nil, nil, nil, err
	}
	bound, err := grid.ParseBoundary(cfg.Boundary)
	if err != nil {
		return nil, nil, nil, err
	}

	registry := experiment.NewRegistry()

	sys, err := registry.GetModel(cfg.Model, g, bound)
	if err != nil {
		return nil, nil, nil, err
	}

	if c, ok := sys.(sim.Configurable); ok {
		for name, val := range map[string]float64{
			"alpha": cfg.Params.Alpha, "a": cfg.Params.A, "b": cfg.Params.B,
		} {
			_ = c.SetParam(name, val) // models ignore params they don't have
		}
	}

	force, err := registry.GetForcing(cfg.Forcing, map[string]float64{
		"amp": cfg.Pulse.Amp, "x": cfg.Pulse.X, "y": cfg.Pulse.Y,
		"radius2": cfg.Pulse.Radius2, "onset": cfg.Pulse.Onset,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if fs, ok := sys.(interface{ SetForcing(sim.Forcing) }); ok {
		fs.SetForcing(force)
	}
	if ws, ok := sys.(interface{ SetWorkers(int) }); ok {
		ws.SetWorkers(cfg.Workers)
	}

	stepper, err := registry.GetStepper(cfg.Stepper)
	if err != nil {
		return nil, nil, nil, err
	}

	return sys, stepper, g, nil
}

func initialState(sys sim.System) (sim.State, error) {
	seeder, ok := sys.(sim.Seeder)
	if !ok {
		return nil, fmt.Errorf("model provides no initial state")
	}
	return seeder.InitialState(), nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	sys, stepper, _, err := buildRun(cfg)
	if err != nil {
		return err
	}

	x0, err := initialState(sys)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(experiment.Config{
		Model:       cfg.Model,
		Stepper:     cfg.Stepper,
		Forcing:     cfg.Forcing,
		Boundary:    cfg.Boundary,
		InitState:   x0,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		SampleEvery: cfg.SampleEvery,
		Seed:        cfg.Seed,
		Noise:       cfg.Noise,
	})
	if err := exp.Setup(sys, stepper, registry.DefaultMetrics(sys)); err != nil {
		return err
	}

	fmt.Printf("running %s (%s, %d×%d, %s boundaries)...\n",
		cfg.Model, cfg.Stepper, cfg.Grid.N, cfg.Grid.N, cfg.Boundary)
	start := time.Now()

	traj, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, stepErr := range traj.Errors {
		fmt.Printf("warning: %v\n", stepErr)
	}

	runID, err := st.Save(storage.RunInfo{
		Model:    cfg.Model,
		Boundary: cfg.Boundary,
		Stepper:  cfg.Stepper,
		Forcing:  cfg.Forcing,
		N:        cfg.Grid.N,
		Alpha:    cfg.Params.Alpha,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Seed:     cfg.Seed,
	}, traj)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, snapshots: %d\n", traj.StepsTaken, traj.Len())
	fmt.Printf("mass drift: %.3e\n", traj.MassDrift)
	fmt.Println("\nmetrics:")
	for name, val := range traj.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tGRID\tBOUNDARY\tTIME\tDURATION\tDT\tSTEPPER\tFORCING")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%s\t%.2fs\t%.4gs\t%s\t%s\n",
			run.ID,
			run.Model,
			run.N, run.N,
			run.Boundary,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Stepper,
			run.Forcing,
		)
	}

	return w.Flush()
}

func probeIndex(meta *storage.RunMetadata) int {
	row, col := probeRow, probeCol
	if row < 0 || row >= meta.N {
		row = meta.N / 2
	}
	if col < 0 || col >= meta.N {
		col = meta.N / 2
	}
	return row*meta.N + col
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	idx := probeIndex(meta)
	cells := meta.N * meta.N

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (%s boundaries)\n", meta.Model, meta.Boundary)
	fmt.Printf("samples: %d, probe cell: (%d, %d)\n\n", len(states), idx/meta.N, idx%meta.N)

	uSeries := analysis.Probe(states, idx)
	vSeries := analysis.Probe(states, cells+idx)

	fmt.Println(asciigraph.Plot(uSeries,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("u at probe cell"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(vSeries,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("v at probe cell"),
	))
	fmt.Println()

	means := make([]float64, len(states))
	for i, s := range states {
		means[i] = analysis.Mean(s[:cells])
	}
	fmt.Println(asciigraph.Plot(means,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("spatial mean of u"),
	))

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, times, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}
	if len(states) < 4 || len(times) < 2 {
		return fmt.Errorf("not enough data to analyze")
	}

	idx := probeIndex(meta)
	series := analysis.Probe(states, idx)
	sampleDt := times[1] - times[0]

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("model: %s, probe cell: (%d, %d)\n\n", meta.Model, idx/meta.N, idx%meta.N)

	ps := analysis.PowerSpectrum(series)
	plotData := ps[:len(ps)/4]

	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum, u at probe"),
	))
	fmt.Println()

	freq := analysis.DominantFrequency(series, sampleDt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	states, times, err := st.LoadSnapshots(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	cells := len(states[0]) / 2
	header := []string{"time"}
	for i := 0; i < cells; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	for i := 0; i < cells; i++ {
		header = append(header, fmt.Sprintf("v%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'g', 17, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	states, times, err := st.LoadSnapshots(args[0])
	if err != nil {
		return err
	}

	traj := &sim.Trajectory{
		Times:   times,
		States:  make([]sim.State, len(states)),
		Metrics: meta.Metrics,
	}
	for i, s := range states {
		traj.States[i] = s
	}

	data := export.NewTrajectoryData(meta.Model, meta.Boundary, meta.Stepper, meta.Forcing,
		meta.N, meta.Dt, meta.Duration, traj)
	return export.WriteJSON(os.Stdout, data)
}

func renderSnapshot(cmd *cobra.Command, args []string) error {
	runID, outPath := args[0], args[1]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no snapshots to render")
	}

	idx := snapshotIdx
	if idx < 0 || idx >= len(states) {
		idx = len(states) - 1
	}

	cells := meta.N * meta.N
	svg := export.HeatmapSVG(states[idx][:cells], meta.N, 8)
	if svg == "" {
		return fmt.Errorf("snapshot does not match grid size %d", meta.N)
	}

	if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
		return err
	}

	fmt.Printf("wrote %s (snapshot %d of %d)\n", outPath, idx, len(states))
	return nil
}

func benchModel(cmd *cobra.Command, args []string) error {
	model := args[0]

	registry := experiment.NewRegistry()
	bound, err := grid.ParseBoundary(boundary)
	if err != nil {
		return err
	}

	sizes := []int{16, 32, 64}
	dts := []float64{0.0005, 0.001}

	fmt.Printf("benchmarking %s\n\n", model)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		for _, benchDt := range dts {
			g, err := grid.Unit(n)
			if err != nil {
				return err
			}
			sys, err := registry.GetModel(model, g, bound)
			if err != nil {
				return err
			}
			if ws, ok := sys.(interface{ SetWorkers(int) }); ok {
				ws.SetWorkers(workers)
			}
			x0, err := initialState(sys)
			if err != nil {
				return err
			}
			stepper, err := registry.GetStepper("rk4")
			if err != nil {
				return err
			}

			drv := sim.New(sys, stepper)
			cfg := sim.Config{Dt: benchDt, Duration: 0.5, SampleEvery: 0.1, ValidateState: true}

			start := time.Now()
			traj, err := drv.Run(context.Background(), x0, cfg)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(traj.StepsTaken) / elapsed.Seconds()
			fmt.Fprintf(w, "%dx%d\t%.4gs\t%d\t%v\t%.0f\n",
				n, n, benchDt, traj.StepsTaken, elapsed.Round(time.Millisecond), stepsPerSec)
		}
	}

	return w.Flush()
}

func compareSteppers(cmd *cobra.Command, args []string) error {
	model := args[0]
	steppers := args[1:]

	registry := experiment.NewRegistry()
	bound, err := grid.ParseBoundary(boundary)
	if err != nil {
		return err
	}
	g, err := grid.Unit(gridN)
	if err != nil {
		return err
	}

	fmt.Printf("comparing steppers for %s (n=%d, dt=%.4g, duration=%.1fs)\n\n", model, gridN, dt, duration)
	fmt.Printf("%-10s  %-14s  %-12s  %-12s\n", "stepper", "final_center_u", "mass_drift", "time_ms")
	fmt.Println(strings.Repeat("-", 56))

	for _, name := range steppers {
		sys, err := registry.GetModel(model, g, bound)
		if err != nil {
			return err
		}
		x0, err := initialState(sys)
		if err != nil {
			return err
		}
		stepper, err := registry.GetStepper(name)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		drv := sim.New(sys, stepper)
		cfg := sim.Config{Dt: dt, Duration: duration, SampleEvery: duration, ValidateState: true}

		start := time.Now()
		traj, err := drv.Run(context.Background(), x0, cfg)
		elapsed := time.Since(start)

		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		center := 0.0
		if final := traj.Final(); final != nil {
			center = final[(gridN/2)*gridN+gridN/2]
		}

		fmt.Printf("%-10s  %14.6f  %12.2e  %12.2f\n",
			name, center, traj.MassDrift, float64(elapsed.Microseconds())/1000)
	}

	return nil
}

func sweepParam(cmd *cobra.Command, args []string) error {
	model, param := args[0], args[1]

	var values []float64
	for _, tok := range strings.Split(args[2], ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return fmt.Errorf("bad sweep value %q: %w", tok, err)
		}
		values = append(values, v)
	}

	registry := experiment.NewRegistry()
	bound, err := grid.ParseBoundary(boundary)
	if err != nil {
		return err
	}
	g, err := grid.Unit(gridN)
	if err != nil {
		return err
	}

	sweep, err := optim.NewSweep([]string{param}, [][]float64{values})
	if err != nil {
		return err
	}
	sweep.Maximize = sweepMax

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		sys, err := registry.GetModel(model, g, bound)
		if err != nil {
			return nil, err
		}
		c, ok := sys.(sim.Configurable)
		if !ok {
			return nil, fmt.Errorf("model %s has no adjustable parameters", model)
		}
		for name, val := range params {
			if err := c.SetParam(name, val); err != nil {
				return nil, err
			}
		}
		x0, err := initialState(sys)
		if err != nil {
			return nil, err
		}
		stepper, err := registry.GetStepper("rk4")
		if err != nil {
			return nil, err
		}

		exp := experiment.New(experiment.Config{
			Model: model, Stepper: "rk4", Boundary: boundary,
			InitState: x0, Dt: dt, Duration: duration, SampleEvery: duration,
		})
		if err := exp.Setup(sys, stepper, registry.DefaultMetrics(sys)); err != nil {
			return nil, err
		}
		return exp, nil
	}

	best, points, err := sweep.Run(context.Background(), build, sweepMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(param), strings.ToUpper(sweepMetric))
	for _, p := range points {
		fmt.Fprintf(w, "%.4g\t%.6f\n", p.Params[param], p.Value)
	}
	w.Flush()

	fmt.Printf("\nbest: %s=%.4g (%s=%.6f)\n", param, best.Params[param], sweepMetric, best.Value)
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	sys, _, g, err := buildRun(cfg)
	if err != nil {
		return err
	}

	x0, err := initialState(sys)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	factory, err := registry.StepperFactory(cfg.Stepper)
	if err != nil {
		return err
	}

	ens := sim.NewEnsemble(sys, factory, ensembleRuns, cfg.Seed)
	ens.Noise = cfg.Noise
	if !cmd.Flags().Changed("noise") {
		ens.Noise = 0.01
	}

	fmt.Printf("running %d-member ensemble of %s (%s, %d×%d, noise %.3g, seeds %d..%d)...\n",
		ensembleRuns, cfg.Model, cfg.Stepper, cfg.Grid.N, cfg.Grid.N,
		ens.Noise, cfg.Seed, cfg.Seed+int64(ensembleRuns)-1)
	start := time.Now()

	trajs, err := ens.Run(context.Background(), x0, sim.Config{
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		SampleEvery:   cfg.SampleEvery,
		ValidateState: true,
	})
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	center := (g.N/2)*g.N + g.N/2
	finals := make([]float64, len(trajs))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tSEED\tSTEPS\tMASS_DRIFT\tFINAL_CENTER_U")
	for i, traj := range trajs {
		finals[i] = traj.Final()[center]
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3e\t%.6f\n",
			i, cfg.Seed+int64(i), traj.StepsTaken, traj.MassDrift, finals[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nensemble spread: mean %.6f, variance %.3e at center cell\n",
		analysis.Mean(finals), analysis.Variance(finals))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	sys, stepper, g, err := buildRun(cfg)
	if err != nil {
		return err
	}

	x0, err := initialState(sys)
	if err != nil {
		return err
	}

	m := viz.NewModel(sys, stepper, x0, g.N, cfg.Dt, cfg.Model, frameRate)

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
