package physics

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/chaoslab/internal/dynamo"
)

const (
	Gravity       = 9.81
	DefaultMass   = 1.0
	DefaultLength = 1.0

	// SingularityTolerance is the |denominator| below which an angular
	// acceleration is reported as 0.
	SingularityTolerance = 1e-6
)

// DoublePendulum is the planar point-mass double pendulum with state
// [theta1, theta2, omega1, omega2].
//
// Both accelerations share the denominator l_i*(2*m1 + m2 - m2*cos(2*(theta1-theta2))),
// which vanishes on a coordinate configuration of this reduction. When its
// magnitude drops below SingularityTolerance the acceleration is replaced by
// exactly 0. This is a stability fallback, not physics: it suppresses the
// dynamics locally and callers cannot tell it apart from a genuine zero.
type DoublePendulum struct {
	M1, M2 float64
	L1, L2 float64
}

func NewDoublePendulum() *DoublePendulum {
	return &DoublePendulum{
		M1: DefaultMass, M2: DefaultMass,
		L1: DefaultLength, L2: DefaultLength,
	}
}

func (d *DoublePendulum) Dimension() int { return 4 }
func (d *DoublePendulum) Header() []string {
	return []string{"theta1", "theta2", "omega1", "omega2"}
}
func (d *DoublePendulum) DefaultState() dynamo.State {
	return dynamo.State{math.Pi / 2, math.Pi / 2, 0, 0}
}

func (d *DoublePendulum) RHS(_ float64, x dynamo.State) dynamo.State {
	theta1, theta2, omega1, omega2 := x[0], x[1], x[2], x[3]
	m1, m2, l1, l2, g := d.M1, d.M2, d.L1, d.L2, Gravity

	delta := theta1 - theta2
	sinD, cosD := math.Sin(delta), math.Cos(delta)
	common := 2*m1 + m2 - m2*math.Cos(2*delta)

	num1 := -g*(2*m1+m2)*math.Sin(theta1) -
		m2*g*math.Sin(theta1-2*theta2) -
		2*m2*sinD*(omega2*omega2*l2+omega1*omega1*l1*cosD)

	num2 := 2 * sinD * (omega1*omega1*l1*(m1+m2) +
		g*(m1+m2)*math.Cos(theta1) +
		omega2*omega2*l2*m2*cosD)

	return dynamo.State{omega1, omega2, guardedDiv(num1, l1*common), guardedDiv(num2, l2*common)}
}

func guardedDiv(num, den float64) float64 {
	if math.Abs(den) < SingularityTolerance {
		return 0.0
	}
	return num / den
}

// Energy is the total mechanical energy with potential energy measured from
// the hanging rest position, so the rest state has zero energy.
func (d *DoublePendulum) Energy(x dynamo.State) float64 {
	theta1, theta2, omega1, omega2 := x[0], x[1], x[2], x[3]
	m1, m2, l1, l2, g := d.M1, d.M2, d.L1, d.L2, Gravity

	v1sq := l1 * l1 * omega1 * omega1
	v2sq := l1*l1*omega1*omega1 + l2*l2*omega2*omega2 +
		2*l1*l2*omega1*omega2*math.Cos(theta1-theta2)

	ke := 0.5*m1*v1sq + 0.5*m2*v2sq
	// heights above the hanging rest position
	h1 := l1 * (1 - math.Cos(theta1))
	h2 := h1 + l2*(1-math.Cos(theta2))
	pe := m1*g*h1 + m2*g*h2

	return ke + pe
}

// Positions returns the cartesian bob positions with the pivot at the origin
// and y pointing up.
func (d *DoublePendulum) Positions(x dynamo.State) (x1, y1, x2, y2 float64) {
	x1 = d.L1 * math.Sin(x[0])
	y1 = -d.L1 * math.Cos(x[0])
	x2 = x1 + d.L2*math.Sin(x[1])
	y2 = y1 - d.L2*math.Cos(x[1])
	return
}

func (d *DoublePendulum) WithNoise(level float64, rng *rand.Rand) dynamo.System {
	return &DoublePendulum{
		M1: dynamo.Perturb(d.M1, level, rng),
		M2: dynamo.Perturb(d.M2, level, rng),
		L1: dynamo.Perturb(d.L1, level, rng),
		L2: dynamo.Perturb(d.L2, level, rng),
	}
}

func (d *DoublePendulum) Params() map[string]float64 {
	return map[string]float64{"m1": d.M1, "m2": d.M2, "l1": d.L1, "l2": d.L2}
}

func (d *DoublePendulum) SetParam(name string, value float64) error {
	switch name {
	case "m1":
		d.M1 = value
	case "m2":
		d.M2 = value
	case "l1":
		d.L1 = value
	case "l2":
		d.L2 = value
	default:
		return fmt.Errorf("double_pendulum %q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}
