package harmony

import "errors"

// ErrNoFeasibleSchedule is returned when memory holds no feasible harmony.
var ErrNoFeasibleSchedule = errors.New("no feasible schedule found")

// SelectBest returns the highest-fitness feasible member of mem.
func SelectBest(mem *Memory) (Member, error) {
	if mem == nil {
		return Member{}, ErrNoFeasibleSchedule
	}
	for i, s := range mem.order {
		if mem.feasible[s] {
			return mem.At(i), nil
		}
	}
	return Member{}, ErrNoFeasibleSchedule
}
