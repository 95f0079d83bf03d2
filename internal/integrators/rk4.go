package integrators

import "github.com/san-kum/chaoslab/internal/dynamo"

// RK4Step advances x in place by one classical fourth-order Runge-Kutta step.
// The four stages are evaluated on temporaries; x is written only once all
// stages are known.
func RK4Step[S dynamo.System](sys S, x dynamo.State, t, dt float64) error {
	if err := dynamo.CheckDimension(sys, x); err != nil {
		return err
	}
	rk4(sys, x, make(dynamo.State, len(x)), t, dt)
	return nil
}

// rk4 performs the step using scratch as the stage input buffer. Every
// product is rounded with an explicit conversion so the compiler cannot fuse
// it into an FMA and results stay bit-identical across architectures.
func rk4[S dynamo.System](sys S, x, scratch dynamo.State, t, dt float64) {
	n := len(x)
	half := dt * 0.5

	k1 := sys.RHS(t, x)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + float64(half*k1[i])
	}
	k2 := sys.RHS(t+half, scratch)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + float64(half*k2[i])
	}
	k3 := sys.RHS(t+half, scratch)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + float64(dt*k3[i])
	}
	k4 := sys.RHS(t+dt, scratch)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		sum := k1[i] + float64(2*k2[i]) + float64(2*k3[i]) + k4[i]
		x[i] += float64(dt6 * sum)
	}
}

// RK4 reuses its scratch buffer across steps. Not safe for concurrent use;
// give each simulation its own.
type RK4 struct {
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) != n {
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) error {
	if err := dynamo.CheckDimension(dyn, x); err != nil {
		return err
	}
	r.ensureScratch(len(x))
	rk4(dyn, x, r.scratch, t, dt)
	return nil
}
