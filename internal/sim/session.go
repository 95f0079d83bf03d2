package sim

import (
	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
)

// Session is an open-ended tick loop. It owns its state vector and advances
// it in place, one stepper call per Tick. Front ends that render while they
// step (the live view) drive a Session directly; Simulator.Run drives one to
// completion.
type Session struct {
	dyn     dynamo.System
	stepper integrators.Stepper
	x       dynamo.State
	dt      float64
	step    int
}

func NewSession(dyn dynamo.System, stepper integrators.Stepper, x0 dynamo.State, dt float64) (*Session, error) {
	if err := dynamo.CheckDimension(dyn, x0); err != nil {
		return nil, err
	}
	return &Session{dyn: dyn, stepper: stepper, x: x0.Clone(), dt: dt}, nil
}

func (s *Session) Tick() error {
	if err := s.stepper.Step(s.dyn, s.x, s.Time(), s.dt); err != nil {
		return err
	}
	s.step++
	return nil
}

// Replace swaps the system between ticks. The new system must keep the
// dimension of the running state.
func (s *Session) Replace(dyn dynamo.System) error {
	if err := dynamo.CheckDimension(dyn, s.x); err != nil {
		return err
	}
	s.dyn = dyn
	return nil
}

func (s *Session) System() dynamo.System { return s.dyn }
func (s *Session) State() dynamo.State   { return s.x }
func (s *Session) Steps() int            { return s.step }
func (s *Session) Time() float64         { return float64(s.step) * s.dt }
