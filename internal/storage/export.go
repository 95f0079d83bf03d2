package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/sim"
)

type ExportData struct {
	System   string             `json:"system"`
	Params   map[string]float64 `json:"params,omitempty"`
	Stepper  string             `json:"stepper"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Header   []string           `json:"header"`
	Times    []float64          `json:"times"`
	States   [][]float64        `json:"states"`
	Metrics  map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, trace *sim.Trace) error {
	data := ExportData{
		System:   meta.System,
		Params:   meta.Params,
		Stepper:  meta.Stepper,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    trace.Steps,
		Header:   trace.Header,
		Times:    trace.Times,
		States:   make([][]float64, len(trace.States)),
		Metrics:  finiteMetrics(meta.Metrics),
	}

	for i, s := range trace.States {
		data.States[i] = s
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteBifurcationCSV writes one "r,x" row per recorded attractor value.
func WriteBifurcationCSV(w io.Writer, points []analysis.BifurcationPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"r", "x"}); err != nil {
		return err
	}
	for _, p := range points {
		r := formatSample(p.R)
		for _, v := range p.Values {
			if err := cw.Write([]string{r, formatSample(v)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatSample rounds to six decimals; attractor samples carry no more
// meaningful digits than the plot resolution.
func formatSample(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
