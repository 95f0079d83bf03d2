package experiment

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/config"
	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/metrics"
	"github.com/san-kum/chaoslab/internal/sim"
	"github.com/san-kum/chaoslab/internal/storage"
)

// StabilityBound is the component magnitude past which the stability metric
// counts a state as escaped.
const StabilityBound = 1e3

// Experiment binds a validated configuration to a ready simulator.
type Experiment struct {
	cfg       *config.Config
	sys       dynamo.System
	stepper   integrators.Stepper
	x0        dynamo.State
	simulator *sim.Simulator
	log       logrus.FieldLogger
}

func New(cfg *config.Config, log logrus.FieldLogger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}

	sys, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	x0, err := cfg.InitState(sys)
	if err != nil {
		return nil, err
	}

	if cfg.Stepper == "map" && !dynamo.IsMap(sys) {
		return nil, fmt.Errorf("stepper map needs a discrete system, %s is continuous", cfg.System)
	}
	stepper, err := integrators.ForSystem(sys, cfg.Stepper)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(logrus.Fields{
		"system":  cfg.System,
		"stepper": stepper.Name(),
	})

	e := &Experiment{
		cfg:     cfg.Clone(),
		sys:     sys,
		stepper: stepper,
		x0:      x0,
		log:     logger,
	}

	e.simulator = sim.New(sys, stepper)
	e.simulator.SetLogger(e.log)
	for _, m := range DefaultMetrics(sys) {
		e.simulator.AddMetric(m)
	}
	return e, nil
}

// DefaultMetrics are attached to every run.
func DefaultMetrics(sys dynamo.System) []sim.Metric {
	ms := []sim.Metric{metrics.NewStability(StabilityBound)}
	if _, ok := sys.(dynamo.Hamiltonian); ok {
		ms = append(ms, metrics.NewEnergyDrift(sys))
	}
	return ms
}

func (e *Experiment) System() dynamo.System        { return e.sys }
func (e *Experiment) Stepper() integrators.Stepper { return e.stepper }
func (e *Experiment) InitState() dynamo.State      { return e.x0.Clone() }
func (e *Experiment) Config() *config.Config       { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) simConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Seed:          e.cfg.Seed,
		ValidateState: true,
	}
}

// Run performs one run. A positive noise level first replaces the system with
// a sibling drawn from the configured seed.
func (e *Experiment) Run(ctx context.Context) (*sim.Trace, error) {
	s := e.simulator
	if n, ok := e.sys.(dynamo.Noisy); ok && e.cfg.Noise > 0 {
		rng := rand.New(rand.NewSource(e.cfg.Seed))
		s = sim.New(n.WithNoise(e.cfg.Noise, rng), e.stepper)
		s.SetLogger(e.log)
		for _, m := range DefaultMetrics(s.System()) {
			s.AddMetric(m)
		}
		e.log.WithField("noise", e.cfg.Noise).Debug("perturbed system parameters")
	}

	e.log.WithFields(logrus.Fields{
		"dt":       e.cfg.Dt,
		"duration": e.cfg.Duration,
	}).Info("running simulation")

	trace, err := s.Run(ctx, e.x0, e.simConfig())
	if err != nil {
		return trace, err
	}
	for _, err := range trace.Errors {
		e.log.WithError(err).Warn("run stopped early")
	}
	return trace, nil
}

// RunEnsemble runs cfg.Runs noisy siblings one after another.
func (e *Experiment) RunEnsemble(ctx context.Context) ([]*sim.Trace, error) {
	e.log.WithFields(logrus.Fields{
		"runs":  e.cfg.Runs,
		"noise": e.cfg.Noise,
	}).Info("running ensemble")

	ens := sim.NewEnsemble(e.simulator, e.cfg.Runs, e.cfg.Seed, e.cfg.Noise)
	return ens.Run(ctx, e.x0, e.simConfig())
}

// Lyapunov estimates the largest exponent from the configured initial state
// using a fresh stepper of the same kind.
func (e *Experiment) Lyapunov() (float64, error) {
	stepper, err := integrators.ForSystem(e.sys, e.stepper.Name())
	if err != nil {
		return 0, err
	}
	steps := e.cfg.Lyapunov.Steps
	if dynamo.IsMap(e.sys) {
		steps = e.cfg.Lyapunov.Iterations
	}

	lambda, err := analysis.LyapunovOfSystem(e.sys, stepper, e.x0, e.cfg.Dt, steps)
	if err != nil {
		return 0, err
	}
	e.log.WithFields(logrus.Fields{"steps": steps, "lambda": lambda}).Debug("lyapunov estimate")
	return lambda, nil
}

// Metadata describes this experiment for the run store.
func (e *Experiment) Metadata() storage.RunMetadata {
	params := map[string]float64{}
	if c, ok := e.sys.(dynamo.Configurable); ok {
		params = c.Params()
	}
	return storage.RunMetadata{
		System:   e.cfg.System,
		Params:   params,
		Stepper:  e.stepper.Name(),
		Seed:     e.cfg.Seed,
		Dt:       e.cfg.Dt,
		Duration: e.cfg.Duration,
	}
}
