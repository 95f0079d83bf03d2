package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"

	// finalDriftMetric holds sim.Trace.EnergyDrift next to the worst-case
	// energy_drift metric.
	finalDriftMetric = "energy_drift_final"
)

// ErrRunNotFound is returned when a run id has no metadata on disk.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	System    string             `json:"system"`
	Params    map[string]float64 `json:"params,omitempty"`
	Stepper   string             `json:"stepper"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Header    []string           `json:"header"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes meta and trace under a fresh run directory and returns its id.
// ID, Timestamp, Steps and Header are filled in from the trace.
func (s *Store) Save(meta RunMetadata, trace *sim.Trace) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	meta.Timestamp = time.Now()
	runID, runDir, err := s.allocate(meta.System, meta.Timestamp)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Steps = trace.Steps
	meta.Header = trace.Header

	metrics := make(map[string]float64, len(meta.Metrics)+len(trace.Metrics)+1)
	maps.Copy(metrics, meta.Metrics)
	maps.Copy(metrics, trace.Metrics)
	if _, ok := trace.Metrics["energy_drift"]; ok {
		metrics[finalDriftMetric] = trace.EnergyDrift
	}
	meta.Metrics = finiteMetrics(metrics)

	if err := writeRun(runDir, &meta, trace); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir string, meta *RunMetadata, trace *sim.Trace) error {
	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, trace); err != nil {
		return err
	}
	return csvFile.Sync()
}

// finiteMetrics drops NaN and Inf values, which JSON cannot carry.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// allocate creates the run directory. Runs saved within the same second get
// a numeric suffix.
func (s *Store) allocate(system string, now time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%d", system, now.Unix())
	for n := 1; ; n++ {
		runID := base
		if n > 1 {
			runID = fmt.Sprintf("%s_%d", base, n)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// Latest returns the most recently saved run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	trace, err := s.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	return trace.States, trace.Times, nil
}

// LoadTrace reads states.csv back into a trace. Metrics come from metadata.
func (s *Store) LoadTrace(runID string) (*sim.Trace, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	trace, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	if meta, err := s.Load(runID); err == nil {
		trace.Metrics = meta.Metrics
	}
	return trace, nil
}

// WriteCSV writes the trace as "time,<header...>" followed by one row per tick.
func WriteCSV(w io.Writer, trace *sim.Trace) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, trace.Header...)
	if len(trace.Header) == 0 && len(trace.States) > 0 {
		for i := range trace.States[0] {
			header = append(header, "x"+strconv.Itoa(i))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range trace.States {
		row := make([]string, 0, len(trace.States[i])+1)
		row = append(row, formatFloat(trace.Times[i]))
		for _, val := range trace.States[i] {
			row = append(row, formatFloat(val))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the output of WriteCSV. Unparseable cells are skipped.
func ReadCSV(r io.Reader) (*sim.Trace, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	trace := &sim.Trace{Times: []float64{}, States: []dynamo.State{}}
	if len(records) == 0 {
		return trace, nil
	}
	if len(records[0]) > 1 {
		trace.Header = append([]string(nil), records[0][1:]...)
	}

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		trace.Times = append(trace.Times, t)

		state := make(dynamo.State, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		trace.States = append(trace.States, state)
	}

	if n := len(trace.States); n > 0 {
		trace.Steps = n - 1
	}
	return trace, nil
}

// formatFloat writes the shortest representation that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
