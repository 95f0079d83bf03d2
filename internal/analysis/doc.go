// Package analysis provides chaos and dynamics analysis tools.
//
// The package includes tools for characterizing dynamical systems:
//
//   - [LyapunovByTrajectory]: largest exponent of a scalar map via two renormalized orbits
//   - [LyapunovByDerivative]: mean log of a rate function evaluated at a fixed state
//   - [LyapunovAlongOrbit]: mean log|f'| along an orbit
//   - [LyapunovOfSystem]: largest exponent of an N-dimensional system
//   - [LogisticBifurcation]: parameter sweep of the logistic map
//   - [GeneratePhasePortrait]: 2D phase space trajectories
//
// The two exponent estimators take different inputs and are deliberately not
// unified.
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	m := &physics.LogisticMap{R: 4}
//	lambda := analysis.LyapunovByTrajectory(0.9, 100000, m.Map)
//	if lambda > 0 {
//	    // System is chaotic (here lambda is close to ln 2)
//	}
package analysis
