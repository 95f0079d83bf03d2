package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/config"
	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/experiment"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/physics"
	"github.com/san-kum/chaoslab/internal/sim"
	"github.com/san-kum/chaoslab/internal/storage"
	"github.com/san-kum/chaoslab/internal/viz"
)

// sweepIterations is the trajectory length used per r when plotting the
// exponent against r.
const sweepIterations = 5000

func lyapunovRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tEXPONENT")

	if sys, ok := exp.System().(*physics.LogisticMap); ok {
		m, x0 := logisticStart(cmd, sys, exp.InitState())
		n := cfg.Lyapunov.Iterations
		est := logisticExponents(m, x0, n)

		fmt.Printf("logistic map r=%g x0=%g\n\n", m.R, x0)
		fmt.Fprintf(w, "trajectory\t%d\t%.6f\n", n, est.trajectory)
		fmt.Fprintf(w, "orbit\t%d\t%.6f\n", n, est.orbit)
		fmt.Fprintf(w, "derivative\t%d\t%.6f\n", n, est.derivative)
		if m.R == 4 {
			fmt.Fprintf(w, "exact (ln 2)\t-\t%.6f\n", math.Ln2)
		}
		return w.Flush()
	}

	start := time.Now()
	lambda, err := exp.Lyapunov()
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s, dt=%g) in %v\n\n", cfg.System, exp.Stepper().Name(), cfg.Dt, time.Since(start))
	steps := cfg.Lyapunov.Steps
	if dynamo.IsMap(exp.System()) {
		steps = cfg.Lyapunov.Iterations
	}
	fmt.Fprintf(w, "renormalized pair\t%d\t%.6f\n", steps, lambda)
	if err := w.Flush(); err != nil {
		return err
	}

	switch {
	case lambda > 0.01:
		fmt.Println(viz.StatusError.Render("\nchaotic: nearby trajectories diverge"))
	case lambda < -0.01:
		fmt.Println(viz.StatusRunning.Render("\nstable: trajectories converge"))
	default:
		fmt.Println(viz.StatusPaused.Render("\nmarginal"))
	}
	return nil
}

// logisticStart is the map and starting value the scalar estimators use: the
// configured system and its initial state, overridden by --r and --x0.
func logisticStart(cmd *cobra.Command, sys *physics.LogisticMap, init dynamo.State) (*physics.LogisticMap, float64) {
	m := &physics.LogisticMap{R: sys.R}
	x0 := init[0]
	if cmd.Flags().Changed("r") {
		m.R = mapR
	}
	if cmd.Flags().Changed("x0") {
		x0 = mapX0
	}
	return m, x0
}

type scalarExponents struct {
	trajectory, orbit, derivative float64
}

func logisticExponents(m *physics.LogisticMap, x0 float64, n int) scalarExponents {
	orbit := m.Orbit(x0, n)
	rate := func(t float64, _ dynamo.State) dynamo.State {
		return dynamo.State{m.Slope(orbit[int(t)])}
	}
	return scalarExponents{
		trajectory: analysis.LyapunovByTrajectory(x0, n, m.Map),
		orbit:      analysis.LyapunovAlongOrbit(x0, n, m.Map, m.Slope),
		derivative: analysis.LyapunovByDerivative(len(orbit), rate),
	}
}

func bifurcationConfig(cmd *cobra.Command) (analysis.BifurcationConfig, error) {
	bc := analysis.DefaultBifurcationConfig()
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return bc, fmt.Errorf("failed to load config: %w", err)
		}
		b := cfg.Bifurcation
		bc = analysis.BifurcationConfig{
			RMin:      b.RMin,
			RMax:      b.RMax,
			RStep:     b.RStep,
			X0:        b.X0,
			Transient: b.Transient,
			Keep:      b.Keep,
		}
	}

	flags := cmd.Flags()
	if flags.Changed("r-min") || configFile == "" {
		bc.RMin = rMin
	}
	if flags.Changed("r-max") || configFile == "" {
		bc.RMax = rMax
	}
	if flags.Changed("r-step") || configFile == "" {
		bc.RStep = rStep
	}
	if flags.Changed("x0") || configFile == "" {
		bc.X0 = mapX0
	}
	if flags.Changed("transient") || configFile == "" {
		bc.Transient = transient
	}
	if flags.Changed("keep") || configFile == "" {
		bc.Keep = keep
	}

	if bc.RMax < bc.RMin {
		return bc, fmt.Errorf("r-max %g below r-min %g", bc.RMax, bc.RMin)
	}
	if bc.RStep <= 0 {
		return bc, fmt.Errorf("r-step must be positive, got %g", bc.RStep)
	}
	if bc.Keep <= 0 || bc.Transient < 0 {
		return bc, fmt.Errorf("keep must be positive and transient non-negative")
	}
	return bc, nil
}

func bifurcationRun(cmd *cobra.Command, args []string) error {
	bc, err := bifurcationConfig(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	points := analysis.LogisticBifurcation(bc)
	log.WithField("rs", len(points)).Debugf("bifurcation sweep took %v", time.Since(start))

	fmt.Printf("logistic bifurcation r=[%g, %g] step=%g\n\n", bc.RMin, bc.RMax, bc.RStep)
	canvas := viz.BifurcationScatter(points, width, height)
	fmt.Printf("1 ┌%s┐\n", strings.Repeat("─", width))
	for _, row := range strings.Split(strings.TrimRight(canvas.String(), "\n"), "\n") {
		fmt.Printf("  │%s│\n", row)
	}
	fmt.Printf("0 └%s┘\n", strings.Repeat("─", width))
	fmt.Printf("  %-*g%*g\n", width/2, bc.RMin, width-width/2+2, bc.RMax)

	if sweep {
		fmt.Println()
		fmt.Println(viz.SweepPlot(analysis.LyapunovSweep(bc, sweepIterations), viz.DefaultWidth, viz.DefaultHeight))
	}

	if output != "" {
		if err := viz.SaveBifurcationPNG(output, points); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", output)
	}
	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := storage.WriteBifurcationCSV(f, points); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvOut)
	}
	return nil
}

func ensembleRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %d %s members (noise=%g)...\n", cfg.Runs, cfg.System, cfg.Noise)
	start := time.Now()
	traces, err := exp.RunEnsemble(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	spread := sim.FinalSpread(traces)
	header := dynamo.Header(exp.System())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tMEAN\tSTDDEV")
	for i := range spread.Mean {
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\n", axisName(header, i), spread.Mean[i], spread.StdDev[i])
	}
	return w.Flush()
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}

	series := trace.Column(column)
	if len(series) < 2 {
		return fmt.Errorf("need at least 2 samples of column %d, have %d", column, len(series))
	}

	ps := analysis.PowerSpectrum(series)
	freq := analysis.DominantFrequency(series, meta.Dt)

	fmt.Printf("spectrum of %s in %s\n\n", axisName(trace.Header, column), meta.ID)
	shown := ps
	if len(shown) > width {
		shown = shown[:width]
	}
	fmt.Println(viz.SeriesPlot(shown, "power by bin", width, height))
	fmt.Println()
	fmt.Println(viz.Summary("spectrum", map[string]float64{
		"dominant frequency": freq,
		"period":             safeInverse(freq),
	}))
	return nil
}

func safeInverse(v float64) float64 {
	if v == 0 {
		return math.Inf(1)
	}
	return 1 / v
}

func compareSteppers(cmd *cobra.Command, args []string) error {
	system := args[0]
	names := args[1:]

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing steppers on %s\n", system)
	fmt.Printf("dt=%.4f, duration=%.1f\n\n", dt, duration)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPPER\tTIME\tSTEPS\tENERGY DRIFT\tFINAL STATE")

	for _, name := range names {
		cfg := config.DefaultConfig()
		cfg.System = system
		cfg.Stepper = name
		cfg.Dt = dt
		cfg.Duration = duration

		exp, err := experiment.New(cfg, log)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", name, err)
			continue
		}

		start := time.Now()
		trace, err := exp.Run(ctx)
		if err != nil {
			return err
		}

		drift := "-"
		if _, ok := exp.System().(dynamo.Hamiltonian); ok {
			drift = fmt.Sprintf("%.2e", trace.EnergyDrift)
		}
		fmt.Fprintf(w, "%s\t%v\t%d\t%s\t%s\n",
			exp.Stepper().Name(),
			time.Since(start).Round(time.Microsecond),
			trace.Steps,
			drift,
			formatState(trace.Final()),
		)
	}

	return w.Flush()
}

func formatState(x dynamo.State) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func benchSystem(cmd *cobra.Command, args []string) error {
	sys, err := physics.New(args[0])
	if err != nil {
		return err
	}
	x0 := physics.DefaultState(sys)

	const (
		steps   = 100000
		benchDt = 0.001
	)

	fmt.Printf("benchmarking %s (%d steps)\n\n", args[0], steps)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPPER\tTIME\tSTEPS/SEC")

	for _, name := range integrators.Names() {
		stepper, err := integrators.New(name)
		if err != nil {
			return err
		}
		if name == "map" && !dynamo.IsMap(sys) {
			continue
		}

		session, err := sim.NewSession(sys, stepper, x0, benchDt)
		if err != nil {
			return err
		}

		start := time.Now()
		for i := 0; i < steps; i++ {
			if err := session.Tick(); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%s\t%v\t%.0f\n", name, elapsed.Round(time.Microsecond), float64(steps)/elapsed.Seconds())
	}

	return w.Flush()
}
