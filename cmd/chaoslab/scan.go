package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/chaoslab/internal/automation"
	"github.com/san-kum/chaoslab/internal/experiment"
	"github.com/san-kum/chaoslab/internal/optim"
	"github.com/san-kum/chaoslab/internal/storage"
	"github.com/san-kum/chaoslab/internal/viz"
)

func scanParams(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(ranges) == 0 {
		return fmt.Errorf("at least one --range is required")
	}

	names := make([]string, 0, len(ranges))
	values := make([][]float64, 0, len(ranges))
	for _, r := range ranges {
		name, vals, err := optim.ParseRange(r)
		if err != nil {
			return err
		}
		names = append(names, name)
		values = append(values, vals)
	}

	grid, err := optim.NewGridSearch(names, values)
	if err != nil {
		return err
	}

	var score optim.Objective = optim.LyapunovObjective
	if objective != "lyapunov" {
		score = optim.MetricObjective(objective)
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := cfg.Clone()
		if c.Params == nil {
			c.Params = map[string]float64{}
		}
		maps.Copy(c.Params, params)
		return experiment.New(c, log)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scanning %d points of %s by %s\n\n", grid.Size(), cfg.System, objective)
	start := time.Now()
	best, samples, err := grid.Search(ctx, build, score, maximize)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t", name)
	}
	fmt.Fprintln(w, "SCORE")
	for _, s := range samples {
		for _, name := range names {
			fmt.Fprintf(w, "%.4f\t", s.Params[name])
		}
		fmt.Fprintf(w, "%.6f\n", s.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = s.Value
	}
	if len(scores) > 1 {
		fmt.Println()
		fmt.Println(viz.Sparkline(scores, min(len(scores), viz.DefaultWidth)))
	}

	fmt.Printf("\ncompleted in %v\n", time.Since(start))
	summary := map[string]float64{objective: best.Value}
	for _, k := range slices.Sorted(maps.Keys(best.Params)) {
		summary[k] = best.Params[k]
	}
	fmt.Println(viz.Summary("best", summary))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}

	outcomes, err := automation.RunScenario(ctx, sc, storage.New(dataDir), log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tSTEPS\tERRORS")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", o.Step, o.RunID, o.Trace.Steps, len(o.Trace.Errors))
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}
