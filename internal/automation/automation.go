package automation

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/chaoslab/internal/config"
	"github.com/san-kum/chaoslab/internal/experiment"
	"github.com/san-kum/chaoslab/internal/sim"
	"github.com/san-kum/chaoslab/internal/storage"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string
	Description string
	Steps       []Step
}

// Step is one run of a scenario. Its Config starts from the named preset, or
// the defaults, with the step's own keys layered on top.
type Step struct {
	Name   string
	Preset string
	Config *config.Config
}

type scenarioFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []yaml.Node `yaml:"steps"`
}

type stepHeader struct {
	Name   string `yaml:"name"`
	Preset string `yaml:"preset"`
	System string `yaml:"system"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", file.Name)
	}

	sc := &Scenario{Name: file.Name, Description: file.Description}
	for i := range file.Steps {
		node := &file.Steps[i]

		var h stepHeader
		if err := node.Decode(&h); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		cfg := config.DefaultConfig()
		if h.Preset != "" {
			system := h.System
			if system == "" {
				system = cfg.System
			}
			cfg = config.GetPreset(system, h.Preset)
			if cfg == nil {
				return nil, fmt.Errorf("step %d: unknown preset %s for %s", i+1, h.Preset, system)
			}
		}
		if err := node.Decode(cfg); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		name := h.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		sc.Steps = append(sc.Steps, Step{Name: name, Preset: h.Preset, Config: cfg})
	}
	return sc, nil
}

// Outcome records what a scenario step produced.
type Outcome struct {
	Step  string
	RunID string
	Trace *sim.Trace
}

// RunScenario executes all steps in order and saves each trace to st when st
// is non-nil. It stops at the first failing step.
func RunScenario(ctx context.Context, sc *Scenario, st *storage.Store, log logrus.FieldLogger) ([]Outcome, error) {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}

	outcomes := make([]Outcome, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		stepLog := log.WithFields(logrus.Fields{
			"scenario": sc.Name,
			"step":     step.Name,
		})
		stepLog.Infof("running step %d/%d", i+1, len(sc.Steps))

		exp, err := experiment.New(step.Config, stepLog)
		if err != nil {
			return outcomes, fmt.Errorf("step %s setup: %w", step.Name, err)
		}

		trace, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("step %s run: %w", step.Name, err)
		}

		out := Outcome{Step: step.Name, Trace: trace}
		if st != nil {
			out.RunID, err = st.Save(exp.Metadata(), trace)
			if err != nil {
				return outcomes, fmt.Errorf("step %s save: %w", step.Name, err)
			}
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}
