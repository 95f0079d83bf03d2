package metrics

import (
	"math"

	"github.com/san-kum/chaoslab/internal/dynamo"
)

// Stability is the fraction of observed states lying inside the box
// |x_i| <= Bound. NaN and Inf components are outside.
type Stability struct {
	Bound float64

	inside int
	total  int
}

func NewStability(bound float64) *Stability { return &Stability{Bound: bound} }

func (*Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, _ float64) {
	s.total++
	if s.contains(x) {
		s.inside++
	}
}

func (s *Stability) contains(x dynamo.State) bool {
	for _, v := range x {
		if !(math.Abs(v) <= s.Bound) {
			return false
		}
	}
	return true
}

// Value is 1 before anything has been observed.
func (s *Stability) Value() float64 {
	if s.total == 0 {
		return 1
	}
	return float64(s.inside) / float64(s.total)
}

func (s *Stability) Reset() { s.inside, s.total = 0, 0 }
