package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/config"
	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/experiment"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/physics"
	"github.com/san-kum/chaoslab/internal/storage"
	"github.com/san-kum/chaoslab/internal/tui"
	"github.com/san-kum/chaoslab/internal/viz"
)

// Maps without an explicit dt or duration iterate once per time unit.
const (
	mapDt       = 1.0
	mapDuration = 200.0
)

var (
	dataDir  string
	logLevel string

	dt         float64
	duration   float64
	seed       int64
	stepper    string
	params     []string
	initState  string
	noise      float64
	runs       int
	configFile string
	preset     string
	withLyap   bool

	// plot / phase / png
	column int
	width  int
	height int
	xAxis  int
	yAxis  int
	output string
	asLine bool

	// lyapunov / bifurcation
	lyapSteps int
	mapR      float64
	mapX0     float64
	rMin      float64
	rMax      float64
	rStep     float64
	transient int
	keep      int
	csvOut    string
	sweep     bool

	frameRate int

	// scan
	ranges    []string
	objective string
	maximize  bool
)

var log = logrus.New()

func main() {
	rootCmd := &cobra.Command{
		Use:           "chaoslab",
		Short:         "dynamical systems and chaos lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
	}

	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".chaoslab", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "run simulation and store the trace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&withLyap, "lyapunov", false, "also estimate the largest lyapunov exponent")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&column, "column", -1, "state component to plot (-1 for all)")
	addSizeFlags(plotCmd, viz.DefaultWidth, viz.DefaultHeight)

	pngCmd := &cobra.Command{
		Use:   "png [run_id]",
		Short: "render run to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE:  pngRun,
	}
	pngCmd.Flags().StringVarP(&output, "out", "o", "", "output file (default <data>/<run>/trace.png)")
	pngCmd.Flags().BoolVar(&asLine, "phase", false, "draw the phase portrait instead of the time series")
	pngCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	pngCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().BoolVar(&asLine, "lines", false, "join consecutive points")
	addSizeFlags(phaseCmd, 60, 15)

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}
	spectrumCmd.Flags().IntVar(&column, "column", 0, "state component to analyze")
	addSizeFlags(spectrumCmd, viz.DefaultWidth, 15)

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [system]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  lyapunovRun,
	}
	addLyapunovFlags(lyapunovCmd)

	bifurcationCmd := &cobra.Command{
		Use:   "bifurcation",
		Short: "logistic map bifurcation diagram",
		Args:  cobra.NoArgs,
		RunE:  bifurcationRun,
	}
	bifurcationCmd.Flags().Float64Var(&rMin, "r-min", 2.5, "first r")
	bifurcationCmd.Flags().Float64Var(&rMax, "r-max", 4.0, "last r")
	bifurcationCmd.Flags().Float64Var(&rStep, "r-step", 0.005, "r increment")
	bifurcationCmd.Flags().Float64Var(&mapX0, "x0", config.DefaultBifurcationX0, "initial x")
	bifurcationCmd.Flags().IntVar(&transient, "transient", config.DefaultTransientIters, "iterations discarded per r")
	bifurcationCmd.Flags().IntVar(&keep, "keep", config.DefaultKeptIters, "iterations kept per r")
	bifurcationCmd.Flags().StringVarP(&output, "out", "o", "", "write a PNG diagram to this file")
	bifurcationCmd.Flags().StringVar(&csvOut, "csv", "", "write r,x samples to this CSV file")
	bifurcationCmd.Flags().BoolVar(&sweep, "sweep", false, "plot the lyapunov exponent against r")
	bifurcationCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	addSizeFlags(bifurcationCmd, viz.DefaultWidth/2, 20)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [system]",
		Short: "run noisy siblings and report the spread of final states",
		Args:  cobra.MaximumNArgs(1),
		RunE:  ensembleRun,
	}
	addRunFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", config.DefaultRuns, "number of ensemble members")

	compareCmd := &cobra.Command{
		Use:   "compare [system] [stepper1] [stepper2] ...",
		Short: "compare steppers on the same system",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareSteppers,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	compareCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")

	benchCmd := &cobra.Command{
		Use:   "bench [system]",
		Short: "benchmark steppers on a system",
		Args:  cobra.ExactArgs(1),
		RunE:  benchSystem,
	}

	liveCmd := &cobra.Command{
		Use:   "live [system]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 60, "frame rate")

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list systems and steppers",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("systems:  %s\n", strings.Join(physics.Names(), ", "))
			fmt.Printf("steppers: %s\n", strings.Join(integrators.Names(), ", "))
			return nil
		},
	}

	scanCmd := &cobra.Command{
		Use:   "scan [system]",
		Short: "grid search over system parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  scanParams,
	}
	addRunFlags(scanCmd)
	scanCmd.Flags().StringArrayVar(&ranges, "range", nil, "parameter range as name=min:max:count (repeatable)")
	scanCmd.Flags().StringVar(&objective, "objective", "lyapunov", "lyapunov or a run metric name")
	scanCmd.Flags().BoolVar(&maximize, "maximize", false, "pick the largest score instead of the smallest")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a YAML scenario and store the traces",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, pngCmd, exportCSVCmd, exportJSONCmd,
		phaseCmd, spectrumCmd, lyapunovCmd, bifurcationCmd, ensembleCmd, compareCmd, benchCmd,
		scanCmd, scenarioCmd, liveCmd, presetsCmd, systemsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().StringVar(&stepper, "stepper", config.DefaultStepper, "stepper ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().StringArrayVar(&params, "param", nil, "system parameter as name=value (repeatable)")
	cmd.Flags().StringVar(&initState, "init", "", "initial state as comma separated values")
	cmd.Flags().Float64Var(&noise, "noise", 0, "parameter noise level")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func addLyapunovFlags(cmd *cobra.Command) {
	addRunFlags(cmd)
	cmd.Flags().IntVar(&lyapSteps, "steps", 0, "steps or iterations (default from config)")
	cmd.Flags().Float64Var(&mapR, "r", 0, "logistic r for the scalar methods (default: the system's r)")
	cmd.Flags().Float64Var(&mapX0, "x0", 0, "logistic start for the scalar methods (default: the initial state)")
}

func addSizeFlags(cmd *cobra.Command, w, h int) {
	cmd.Flags().IntVar(&width, "width", w, "plot width")
	cmd.Flags().IntVar(&height, "height", h, "plot height")
}

// resolveConfig layers defaults, preset, config file and explicit flags, in
// that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.System = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.System, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.System))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.System = args[0]
		}
	}

	flags := cmd.Flags()
	if preset == "" && configFile == "" {
		if sys, err := physics.New(cfg.System); err == nil && dynamo.IsMap(sys) {
			cfg.Dt, cfg.Duration = mapDt, mapDuration
		}
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("stepper") {
		cfg.Stepper = stepper
	}
	if flags.Changed("noise") {
		cfg.Noise = noise
	}
	if flags.Changed("runs") {
		cfg.Runs = runs
	}
	if flags.Changed("steps") {
		cfg.Lyapunov.Steps = lyapSteps
		cfg.Lyapunov.Iterations = lyapSteps
	}
	if len(params) > 0 {
		parsed, err := parseParams(params)
		if err != nil {
			return nil, err
		}
		if cfg.Params == nil {
			cfg.Params = map[string]float64{}
		}
		for k, v := range parsed {
			cfg.Params[k] = v
		}
	}
	if initState != "" {
		x, err := parseState(initState)
		if err != nil {
			return nil, err
		}
		cfg.Init = x
	}

	return cfg, cfg.Validate()
}

func parseParams(kvs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(kvs))
	for _, kv := range kvs {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q, want name=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --param %q: %w", kv, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

func parseState(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	x := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --init %q: %w", s, err)
		}
		x = append(x, v)
	}
	return x, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("running %s simulation...\n", cfg.System)
	start := time.Now()

	trace, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := exp.Metadata()
	if withLyap {
		lambda, err := exp.Lyapunov()
		if err != nil {
			return err
		}
		meta.Metrics = map[string]float64{"lyapunov": lambda}
	}

	st := storage.New(dataDir)
	runID, err := st.Save(meta, trace)
	if err != nil {
		return err
	}
	log.WithField("run", runID).Info("run saved")

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", trace.Steps)
	for _, e := range trace.Errors {
		fmt.Println(viz.StatusError.Render("stopped: " + e.Error()))
	}

	summary := map[string]float64{}
	for k, v := range trace.Metrics {
		summary[k] = v
	}
	for k, v := range meta.Metrics {
		summary[k] = v
	}
	final := trace.Final()
	for i, name := range trace.Header {
		if i < len(final) {
			summary["final "+name] = final[i]
		}
	}
	fmt.Println(viz.Summary("metrics", summary))
	return nil
}

func loadRun(st *storage.Store, runID string) (*storage.RunMetadata, error) {
	if runID == "latest" {
		return st.Latest()
	}
	return st.Load(runID)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	all, err := st.List()
	if err != nil {
		return err
	}

	if len(all) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tDURATION\tDT\tSTEPPER\tSTEPS")

	for _, run := range all {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.4f\t%s\t%d\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Stepper,
			run.Steps,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}
	if len(trace.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s (%s, dt=%g)", meta.ID, meta.Stepper, meta.Dt)))
	fmt.Println()

	columns := []int{column}
	if column < 0 {
		columns = columns[:0]
		for i := range trace.States[0] {
			columns = append(columns, i)
		}
	}

	for _, c := range columns {
		graph, err := viz.TracePlot(trace, c, width, height)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func pngRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}

	path := output
	if asLine {
		if path == "" {
			path = fmt.Sprintf("%s/%s/phase.png", st.Dir(), meta.ID)
		}
		portrait, err := analysis.Project(trace.States, xAxis, yAxis)
		if err != nil {
			return err
		}
		if err := viz.SavePhasePNG(path, portrait, meta.ID, axisName(trace.Header, xAxis), axisName(trace.Header, yAxis)); err != nil {
			return err
		}
	} else {
		if path == "" {
			path = fmt.Sprintf("%s/%s/trace.png", st.Dir(), meta.ID)
		}
		if err := viz.SaveTracePNG(path, trace, meta.ID, nil); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

func axisName(header []string, i int) string {
	if i >= 0 && i < len(header) {
		return header[i]
	}
	return fmt.Sprintf("x%d", i)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}
	if len(trace.States) == 0 {
		return fmt.Errorf("no data to export")
	}

	return storage.WriteCSV(os.Stdout, trace)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta, trace)
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}
	if len(trace.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	portrait, err := analysis.Project(trace.States, xAxis, yAxis)
	if err != nil {
		return err
	}

	xName, yName := axisName(trace.Header, xAxis), axisName(trace.Header, yAxis)
	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", xName, yName)

	minX, maxX, minY, maxY := portrait.Bounds()
	canvas := viz.Scatter(portrait, width, height, asLine)

	fmt.Printf("%10.3f ┌%s┐\n", maxY, strings.Repeat("─", width))
	for _, row := range strings.Split(strings.TrimRight(canvas.String(), "\n"), "\n") {
		fmt.Printf("%10s │%s│\n", "", row)
	}
	fmt.Printf("%10.3f └%s┘\n", minY, strings.Repeat("─", width))
	fmt.Printf("%10s  %-*.3f%*.3f\n", "", width/2, minX, width-width/2, maxX)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}

	frame := time.Second / 60
	if frameRate > 0 {
		frame = time.Second / time.Duration(frameRate)
	}

	sys := exp.System()
	if n, ok := sys.(dynamo.Noisy); ok && cfg.Noise > 0 {
		sys = n.WithNoise(cfg.Noise, rand.New(rand.NewSource(cfg.Seed)))
	}

	return tui.Run(tui.Options{
		Name:     cfg.System,
		System:   sys,
		Stepper:  exp.Stepper(),
		Init:     exp.InitState(),
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Frame:    frame,
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	systems := physics.Names()
	if len(args) > 0 {
		systems = args[:1]
	}

	for _, system := range systems {
		presets := config.ListPresets(system)
		if len(presets) == 0 {
			fmt.Printf("no presets for system: %s\n", system)
			continue
		}
		fmt.Printf("presets for %s:\n", system)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, name := range presets {
			p := config.GetPreset(system, name)
			fmt.Fprintf(w, "  %s\tdt=%g\ttime=%g\tparams=%v\tinit=%v\n", name, p.Dt, p.Duration, p.Params, p.Init)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
