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

var _ = Describe("LogisticBifurcation", func() {
	var cfg analysis.BifurcationConfig

	BeforeEach(func() {
		cfg = analysis.DefaultBifurcationConfig()
		cfg.Transient = 2000
	})

	It("builds r from the index", func() {
		cfg.RMin, cfg.RMax, cfg.RStep = 2.5, 4.0, 0.5
		Expect(cfg.Rs()).To(Equal([]float64{2.5, 3.0, 3.5, 4.0}))
	})

	DescribeTable("detects the period-doubling cascade",
		func(r float64, period int) {
			cfg.RMin, cfg.RMax = r, r
			points := analysis.LogisticBifurcation(cfg)

			Expect(points).To(HaveLen(1))
			Expect(points[0].R).To(Equal(r))
			Expect(points[0].Values).To(HaveLen(cfg.Keep))
			Expect(analysis.Period(points[0].Values, 1e-6)).To(Equal(period))
		},
		Entry("fixed point", 2.8, 1),
		Entry("period two", 3.2, 2),
		Entry("period four", 3.5, 4),
	)

	It("sweeps exponents across the chaos onset", func() {
		cfg.RMin, cfg.RMax, cfg.RStep = 3.2, 4.0, 0.8
		sweep := analysis.LyapunovSweep(cfg, 20000)

		Expect(sweep).To(HaveLen(2))
		Expect(sweep[0].Exponent).To(BeNumerically("<", 0))
		Expect(sweep[1].Exponent).To(BeNumerically(">", 0.6))
	})

	It("counts nothing in an empty sample", func() {
		Expect(analysis.Period(nil, 1e-6)).To(Equal(0))
	})
})

var _ = Describe("PowerSpectrum", func() {
	It("finds the frequency of a sampled sine", func() {
		dt := 0.01
		data := make([]float64, 1000)
		for i := range data {
			data[i] = 3 + math.Sin(2*math.Pi*2.0*float64(i)*dt)
		}

		Expect(analysis.DominantFrequency(data, dt)).To(BeNumerically("~", 2.0, 1e-9))
		Expect(analysis.PowerSpectrum(data)).To(HaveLen(500))
	})

	It("handles short input", func() {
		Expect(analysis.PowerSpectrum([]float64{1})).To(BeNil())
		Expect(analysis.DominantFrequency(nil, 0.1)).To(Equal(0.0))
	})
})

var _ = Describe("Phase portraits", func() {
	It("records one point per step", func() {
		sys := physics.NewLorenz()
		portrait, err := analysis.GeneratePhasePortrait(sys, integrators.NewRK4(), sys.DefaultState(), 0, 2, 0.01, 100)

		Expect(err).NotTo(HaveOccurred())
		Expect(portrait.Points).To(HaveLen(100))
		minX, maxX, _, _ := portrait.Bounds()
		Expect(maxX).To(BeNumerically(">", minX))
	})

	It("projects recorded states", func() {
		states := []dynamo.State{{1, 2, 3}, {4, 5, 6}}
		portrait, err := analysis.Project(states, 2, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(portrait.Points).To(Equal([]analysis.Point{{X: 3, Y: 1}, {X: 6, Y: 4}}))

		_, err = analysis.Project(states, 3, 0)
		Expect(err).To(HaveOccurred())
	})
})
