// Package physics provides the concrete dynamical systems.
//
// Each model implements the [dynamo.System] interface:
//
//   - [Lorenz]: three-state butterfly attractor
//   - [DoublePendulum]: chaotic coupled pendulum with a guarded singular denominator
//   - [LogisticMap]: one-state discrete map, r*x*(1-x)
//
// All models also implement [dynamo.Configurable] for runtime parameter
// adjustment, [dynamo.Noisy] for perturbed siblings used in ensembles, and
// [dynamo.Labeled] for CSV headers. The double pendulum implements
// [dynamo.Hamiltonian] so drift can be monitored:
//
//	dyn := physics.NewDoublePendulum()
//	if h, ok := dyn.(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(state)
//	}
package physics
