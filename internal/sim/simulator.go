package sim

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
)

type Simulator struct {
	dyn       dynamo.System
	stepper   integrators.Stepper
	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

func New(dyn dynamo.System, stepper integrators.Stepper) *Simulator {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	return &Simulator{
		dyn:       dyn,
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       quiet,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		s.log = l
	}
}

func (s *Simulator) System() dynamo.System { return s.dyn }

func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Trace, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	session, err := NewSession(s.dyn, s.stepper, x0, cfg.Dt)
	if err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	log := s.log.WithFields(logrus.Fields{
		"stepper": s.stepper.Name(),
		"dt":      cfg.Dt,
		"steps":   steps,
	})
	log.Debug("run started")

	trace := &Trace{
		Times:   make([]float64, 0, steps+1),
		States:  make([]dynamo.State, 0, steps+1),
		Header:  dynamo.Header(s.dyn),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := session.State()
	trace.States = append(trace.States, x.Clone())
	trace.Times = append(trace.Times, 0)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return trace, ctx.Err()
		default:
		}

		t := session.Time()
		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(i, t, x)
		}

		if err := session.Tick(); err != nil {
			return trace, fmt.Errorf("step %d: %w", i, err)
		}

		if cfg.ValidateState && !x.IsValid() {
			err := dynamo.SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			trace.Errors = append(trace.Errors, err)
			log.WithField("step", i).Warn("state left the valid range; stopping")
			break
		}

		trace.Steps++
		trace.States = append(trace.States, x.Clone())
		trace.Times = append(trace.Times, session.Time())
	}

	// x may be the rejected non-finite state; drift is measured up to the
	// last recorded one.
	if h, ok := s.dyn.(dynamo.Hamiltonian); ok {
		trace.EnergyDrift = dynamo.EnergyDrift(h.Energy(trace.States[0]), h.Energy(trace.Final()))
	}

	for _, m := range s.metrics {
		trace.Metrics[m.Name()] = m.Value()
	}

	log.WithField("taken", trace.Steps).Debug("run finished")
	return trace, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Steps() == 0 {
		return fmt.Errorf("duration %f is shorter than one step of %f", cfg.Duration, cfg.Dt)
	}
	return nil
}
