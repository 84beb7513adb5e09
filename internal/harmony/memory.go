package harmony

import (
	"github.com/claude/fitharmony/internal/schedule"
)

// Member is a harmony held in memory together with its score.
type Member struct {
	Harmony  schedule.Harmony
	Fitness  float64
	Feasible bool
}

// Memory is a fixed-capacity set of harmonies ordered by fitness, best first.
// All genes live in one arena of capacity*days entries; slots are reused on
// eviction and never reallocated.
type Memory struct {
	capacity int
	days     int
	genes    []schedule.Gene
	fitness  []float64
	feasible []bool
	order    []int // slot indices, best first
}

// NewMemory allocates a memory for capacity harmonies of days genes each.
func NewMemory(capacity, days int) *Memory {
	return &Memory{
		capacity: capacity,
		days:     days,
		genes:    make([]schedule.Gene, capacity*days),
		fitness:  make([]float64, capacity),
		feasible: make([]bool, capacity),
		order:    make([]int, 0, capacity),
	}
}

// Len returns the number of stored harmonies.
func (m *Memory) Len() int { return len(m.order) }

// Cap returns the capacity.
func (m *Memory) Cap() int { return m.capacity }

// Offer inserts h if the memory has room or h is strictly better than the
// worst member, which is then evicted. Equal fitness keeps the incumbent.
// The harmony is copied; the caller keeps ownership of h.
func (m *Memory) Offer(h schedule.Harmony, fitness float64, feasible bool) bool {
	var slot int
	if len(m.order) < m.capacity {
		slot = len(m.order)
	} else {
		worst := m.order[len(m.order)-1]
		if fitness <= m.fitness[worst] {
			return false
		}
		slot = worst
		m.order = m.order[:len(m.order)-1]
	}

	copy(m.genes[slot*m.days:(slot+1)*m.days], h)
	m.fitness[slot] = fitness
	m.feasible[slot] = feasible

	// New entries go after existing ones of equal fitness.
	pos := len(m.order)
	for i, s := range m.order {
		if m.fitness[s] < fitness {
			pos = i
			break
		}
	}
	m.order = append(m.order, 0)
	copy(m.order[pos+1:], m.order[pos:])
	m.order[pos] = slot
	return true
}

// gene returns day d of the harmony in slot s without copying.
func (m *Memory) gene(s, d int) schedule.Gene {
	return m.genes[s*m.days+d]
}

// At returns the member at rank i, 0 being the best. The harmony is a copy.
func (m *Memory) At(i int) Member {
	s := m.order[i]
	return Member{
		Harmony:  schedule.Harmony(m.genes[s*m.days : (s+1)*m.days]).Clone(),
		Fitness:  m.fitness[s],
		Feasible: m.feasible[s],
	}
}

// BestFitness returns the fitness of the best member.
func (m *Memory) BestFitness() (float64, bool) {
	if len(m.order) == 0 {
		return 0, false
	}
	return m.fitness[m.order[0]], true
}

// WorstFitness returns the fitness of the worst member.
func (m *Memory) WorstFitness() (float64, bool) {
	if len(m.order) == 0 {
		return 0, false
	}
	return m.fitness[m.order[len(m.order)-1]], true
}

// HasFeasible reports whether any member is feasible.
func (m *Memory) HasFeasible() bool {
	for _, s := range m.order {
		if m.feasible[s] {
			return true
		}
	}
	return false
}

// Members returns copies of all members, best first.
func (m *Memory) Members() []Member {
	out := make([]Member, len(m.order))
	for i := range m.order {
		out[i] = m.At(i)
	}
	return out
}
