package dataset

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
)

// ErrInvalidAnnotations is returned when the annotation list cannot be decoded.
var ErrInvalidAnnotations = errors.New("invalid annotation list")

// Annotation is a note pinned to one report date.
type Annotation struct {
	Date string      `json:"date" yaml:"date"`
	Text locale.Text `json:"text" yaml:"text"`
}

// Annotations indexes annotations by their ISO date string.
type Annotations struct {
	list   []Annotation
	byDate map[string][]Annotation
}

// NewAnnotations indexes list, keeping its order within each date.
func NewAnnotations(list []Annotation) *Annotations {
	a := &Annotations{list: list, byDate: make(map[string][]Annotation, len(list))}
	for _, ann := range list {
		a.byDate[ann.Date] = append(a.byDate[ann.Date], ann)
	}

	return a
}

// ParseAnnotations decodes and indexes an annotation list. Dates must be ISO
// calendar dates.
func ParseAnnotations(data []byte) (*Annotations, error) {
	var list []Annotation

	err := json.Unmarshal(data, &list)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAnnotations, err)
	}

	for i, ann := range list {
		_, dateErr := casualty.ParseDate(ann.Date)
		if dateErr != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidAnnotations, i, dateErr)
		}
	}

	return NewAnnotations(list), nil
}

// Lookup returns the annotations for an exact ISO date string.
func (a *Annotations) Lookup(date string) []Annotation {
	if a == nil {
		return nil
	}

	return a.byDate[date]
}

// All returns every annotation in input order.
func (a *Annotations) All() []Annotation {
	if a == nil {
		return nil
	}

	return a.list
}

// Len returns the number of annotations.
func (a *Annotations) Len() int {
	if a == nil {
		return 0
	}

	return len(a.list)
}
