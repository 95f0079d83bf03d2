package analysis_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/physics"
)

var _ = Describe("LyapunovByTrajectory", func() {
	It("finds ln 2 for the fully chaotic logistic map", func() {
		f := func(x float64) float64 { return 4.0 * x * (1.0 - x) }

		lambda := analysis.LyapunovByTrajectory(0.9, 100000, f)
		Expect(lambda).To(BeNumerically("~", math.Ln2, 0.01))
	})

	It("is negative for a contracting map", func() {
		lambda := analysis.LyapunovByTrajectory(0.9, 100000, func(x float64) float64 { return 0.5 * x })
		Expect(lambda).To(BeNumerically("<", 0))
		Expect(lambda).To(BeNumerically("~", -math.Ln2, 1e-6))
	})

	It("is negative inside a periodic window", func() {
		m := &physics.LogisticMap{R: 3.2}
		Expect(analysis.LyapunovByTrajectory(0.2, 100000, m.Map)).To(BeNumerically("<", 0))
	})

	It("skips iterations where the orbits coincide", func() {
		lambda := analysis.LyapunovByTrajectory(0.3, 1000, func(float64) float64 { return 0.5 })
		Expect(lambda).To(Equal(0.0))
	})

	It("returns 0 for no iterations", func() {
		Expect(analysis.LyapunovByTrajectory(0.3, 0, math.Sin)).To(Equal(0.0))
	})

	It("stays finite for out-of-domain starts", func() {
		m := &physics.LogisticMap{R: 4}
		lambda := analysis.LyapunovByTrajectory(1.5, 200, m.Map)
		Expect(math.IsNaN(lambda)).To(BeFalse())
	})
})

var _ = Describe("LyapunovByDerivative", func() {
	It("averages the log of a constant rate", func() {
		rate := func(float64, dynamo.State) dynamo.State { return dynamo.State{2} }
		Expect(analysis.LyapunovByDerivative(1000, rate)).To(BeNumerically("~", math.Ln2, 1e-12))
	})

	It("uses the absolute value of the rate", func() {
		rate := func(float64, dynamo.State) dynamo.State { return dynamo.State{-0.5} }
		Expect(analysis.LyapunovByDerivative(10, rate)).To(BeNumerically("~", -math.Ln2, 1e-12))
	})

	It("passes the step index and the degenerate state", func() {
		var seen []float64
		rate := func(t float64, x dynamo.State) dynamo.State {
			Expect(x).To(Equal(analysis.DegenerateState))
			seen = append(seen, t)
			return dynamo.State{1}
		}
		Expect(analysis.LyapunovByDerivative(3, rate)).To(Equal(0.0))
		Expect(seen).To(Equal([]float64{0, 1, 2}))
	})

	It("skips zero rates instead of returning -Inf", func() {
		rate := func(t float64, _ dynamo.State) dynamo.State {
			if int(t)%2 == 0 {
				return dynamo.State{0}
			}
			return dynamo.State{math.E}
		}
		Expect(analysis.LyapunovByDerivative(100, rate)).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("matches the orbit method when fed orbit slopes", func() {
		m := &physics.LogisticMap{R: 4}
		orbit := m.Orbit(0.9, 50000)
		rate := func(t float64, _ dynamo.State) dynamo.State {
			return dynamo.State{m.Slope(orbit[int(t)])}
		}

		byDerivative := analysis.LyapunovByDerivative(len(orbit), rate)
		alongOrbit := analysis.LyapunovAlongOrbit(0.9, len(orbit), m.Map, m.Slope)
		Expect(byDerivative).To(BeNumerically("~", alongOrbit, 1e-12))
	})
})

var _ = Describe("LyapunovAlongOrbit", func() {
	It("agrees with the trajectory method for r = 4", func() {
		m := &physics.LogisticMap{R: 4}
		orbit := analysis.LyapunovAlongOrbit(0.9, 100000, m.Map, m.Slope)
		trajectory := analysis.LyapunovByTrajectory(0.9, 100000, m.Map)

		Expect(orbit).To(BeNumerically("~", math.Ln2, 0.01))
		Expect(orbit).To(BeNumerically("~", trajectory, 0.01))
	})
})

var _ = Describe("LyapunovOfSystem", func() {
	It("reports a positive exponent for the Lorenz attractor", func() {
		sys := physics.NewLorenz()
		lambda, err := analysis.LyapunovOfSystem(sys, integrators.NewRK4(), sys.DefaultState(), 0.01, 20000)

		Expect(err).NotTo(HaveOccurred())
		Expect(lambda).To(BeNumerically(">", 0.5))
		Expect(lambda).To(BeNumerically("<", 1.2))
	})

	It("reports per-iteration exponents for maps", func() {
		sys := &physics.LogisticMap{R: 4}
		lambda, err := analysis.LyapunovOfSystem(sys, integrators.NewMap(), dynamo.State{0.9}, 1, 100000)

		Expect(err).NotTo(HaveOccurred())
		Expect(lambda).To(BeNumerically("~", math.Ln2, 0.01))
	})

	It("does not touch the caller's state", func() {
		sys := physics.NewDoublePendulum()
		x0 := dynamo.State{0.5, 0.5, 0, 0}
		_, err := analysis.LyapunovOfSystem(sys, integrators.NewRK4(), x0, 0.01, 100)

		Expect(err).NotTo(HaveOccurred())
		Expect(x0).To(Equal(dynamo.State{0.5, 0.5, 0, 0}))
	})

	It("rejects a mismatched initial state", func() {
		_, err := analysis.LyapunovOfSystem(physics.NewLorenz(), integrators.NewRK4(), dynamo.State{1}, 0.01, 10)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})
})
