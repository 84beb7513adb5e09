// Package harmony implements Harmony Search over day-indexed schedules: a
// bounded memory of the best harmonies found so far and an engine that
// improvises new ones from it.
package harmony

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidParams is returned for out-of-range engine parameters.
var ErrInvalidParams = errors.New("invalid search parameters")

// Params are the algorithm parameters of one run.
type Params struct {
	MemorySize    int           `yaml:"memory_size" json:"memory_size"`
	HMCR          float64       `yaml:"hmcr" json:"hmcr"`
	PAR           float64       `yaml:"par" json:"par"`
	Bandwidth     int           `yaml:"bandwidth" json:"bandwidth"`
	MaxIterations int           `yaml:"max_iterations" json:"max_iterations"`
	Patience      int           `yaml:"patience" json:"patience"` // 0 disables
	Deadline      time.Duration `yaml:"deadline" json:"deadline"` // 0 means none
	Seed          uint64        `yaml:"-" json:"seed"`
}

// DefaultParams returns the stock parameters with the given seed.
func DefaultParams(seed uint64) Params {
	return Params{
		MemorySize:    20,
		HMCR:          0.9,
		PAR:           0.3,
		Bandwidth:     1,
		MaxIterations: 5000,
		Patience:      1000,
		Seed:          seed,
	}
}

// Validate checks every parameter against its allowed range.
func (p Params) Validate() error {
	switch {
	case p.MemorySize < 1:
		return fmt.Errorf("%w: memory_size must be >= 1, got %d", ErrInvalidParams, p.MemorySize)
	case p.HMCR < 0 || p.HMCR > 1:
		return fmt.Errorf("%w: hmcr must be in [0,1], got %g", ErrInvalidParams, p.HMCR)
	case p.PAR < 0 || p.PAR > 1:
		return fmt.Errorf("%w: par must be in [0,1], got %g", ErrInvalidParams, p.PAR)
	case p.Bandwidth < 1:
		return fmt.Errorf("%w: bandwidth must be >= 1, got %d", ErrInvalidParams, p.Bandwidth)
	case p.MaxIterations < 1:
		return fmt.Errorf("%w: max_iterations must be >= 1, got %d", ErrInvalidParams, p.MaxIterations)
	case p.Patience < 0:
		return fmt.Errorf("%w: patience must be >= 0, got %d", ErrInvalidParams, p.Patience)
	case p.Deadline < 0:
		return fmt.Errorf("%w: deadline must be >= 0, got %s", ErrInvalidParams, p.Deadline)
	}
	return nil
}
