// Package dynamo provides the core contract shared by every dynamical system.
//
// The package defines the fundamental types for fixed-step simulation of
// ordinary differential equations and discrete maps:
//
//   - [State]: fixed-length vector describing a system's instantaneous condition
//   - [System]: the contract (dimension + right-hand side) every model implements
//   - [Noisy], [Configurable], [Hamiltonian], [Discrete], [Labeled]: optional
//     capabilities a model may add without widening [System]
//
// # Example
//
//	sys := physics.NewLorenz()
//	x := sys.DefaultState()
//	for i := 0; i < 1000; i++ {
//	    if err := integrators.RK4Step(sys, x, float64(i)*dt, dt); err != nil {
//	        return err
//	    }
//	}
//
// # Thread Safety
//
// Nothing in this package holds process-wide mutable state. A State is owned by
// exactly one caller; independent simulations may run on separate goroutines as
// long as each owns its State and System.
package dynamo
