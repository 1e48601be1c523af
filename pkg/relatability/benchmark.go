// Package relatability turns raw casualty magnitudes into comparisons with
// familiar real-world quantities such as stadium capacities or school rolls.
package relatability

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
)

// Sentinel errors for catalogue decoding.
var (
	ErrInvalidCatalogue = errors.New("invalid benchmark catalogue")
	ErrMissingID        = errors.New("benchmark id is empty")
	ErrNonPositive      = errors.New("benchmark value must be positive")
)

// Benchmark is a reference quantity used for magnitude comparison.
type Benchmark struct {
	ID       string      `json:"id" yaml:"id"`
	Label    locale.Text `json:"label" yaml:"label"`
	Value    float64     `json:"value" yaml:"value"`
	Unit     string      `json:"unit,omitempty" yaml:"unit,omitempty"`
	Category string      `json:"category,omitempty" yaml:"category,omitempty"`
	Context  locale.Text `json:"context,omitzero" yaml:"context,omitempty"`
}

// ParseBenchmarks decodes a benchmark catalogue. Catalogue order is kept,
// because it breaks ties during matching.
func ParseBenchmarks(data []byte) ([]Benchmark, error) {
	var benchmarks []Benchmark

	err := json.Unmarshal(data, &benchmarks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalogue, err)
	}

	for i, b := range benchmarks {
		if b.ID == "" {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidCatalogue, i, ErrMissingID)
		}

		if b.Value <= 0 {
			return nil, fmt.Errorf("%w: entry %d (%s): %w", ErrInvalidCatalogue, i, b.ID, ErrNonPositive)
		}
	}

	return benchmarks, nil
}
