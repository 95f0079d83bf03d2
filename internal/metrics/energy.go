package metrics

import "github.com/san-kum/chaoslab/internal/dynamo"

// EnergyDrift reports the worst dynamo.EnergyDrift between the first
// observed state and any later one. Systems without an Energy method and
// non-finite states contribute nothing.
type EnergyDrift struct {
	h     dynamo.Hamiltonian
	e0    float64
	worst float64
	seen  bool
}

func NewEnergyDrift(sys dynamo.System) *EnergyDrift {
	h, _ := sys.(dynamo.Hamiltonian)
	return &EnergyDrift{h: h}
}

func (*EnergyDrift) Name() string { return "energy_drift" }

func (m *EnergyDrift) Observe(x dynamo.State, _ float64) {
	if m.h == nil || !x.IsValid() {
		return
	}

	e := m.h.Energy(x)
	if !m.seen {
		m.e0, m.seen = e, true
		return
	}
	if d := dynamo.EnergyDrift(m.e0, e); d > m.worst {
		m.worst = d
	}
}

func (m *EnergyDrift) Value() float64 { return m.worst }

func (m *EnergyDrift) Reset() { *m = EnergyDrift{h: m.h} }
