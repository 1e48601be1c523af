package calendar

import (
	"fmt"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/tallymark/pkg/alg/stats"
)

// Colour scale bounds.
const (
	IntensityMin = 0.1
	IntensityMax = 0.8
)

// GridStatistics anchors the colour scale of one grid.
type GridStatistics struct {
	MinPositive  float64
	P95          float64
	PresentCount int
}

// ComputeStatistics collects every present, positive value of the grid and
// returns its minimum and the value at rank floor(0.95*n). PresentCount is
// the number of values collected. A grid without positive values yields the
// zero GridStatistics.
func ComputeStatistics(grid *Grid) GridStatistics {
	var values []float64

	for _, row := range grid.Rows {
		for _, cell := range row {
			if cell.Kind == CellPresent && cell.Value > 0 {
				values = append(values, float64(cell.Value))
			}
		}
	}

	if len(values) == 0 {
		return GridStatistics{}
	}

	slices.Sort(values)

	return GridStatistics{
		MinPositive:  values[0],
		P95:          stats.RankPercentile(values, stats.PercentileP95),
		PresentCount: len(values),
	}
}

// Intensity maps a positive value onto [IntensityMin, IntensityMax] by
// interpolating its square root between the square roots of MinPositive and
// P95. Values at or below the minimum get IntensityMin, values at or above
// P95 get IntensityMax.
func Intensity(value float64, gs GridStatistics) float64 {
	root := math.Sqrt(value)
	lo := math.Sqrt(gs.MinPositive)
	hi := math.Sqrt(gs.P95)

	if root <= lo {
		return IntensityMin
	}

	if root >= hi {
		return IntensityMax
	}

	frac := (root - lo) / (hi - lo)

	return stats.Clamp(IntensityMin+frac*(IntensityMax-IntensityMin), IntensityMin, IntensityMax)
}

// Palette holds the colours used to paint cells.
type Palette struct {
	// Red, Green, Blue is the base colour whose alpha carries the intensity.
	Red, Green, Blue int
	// Zero paints present cells whose value is zero.
	Zero string
	// Missing paints days with no record.
	Missing string
}

// DefaultPalette is the memorial red used on the site.
func DefaultPalette() Palette {
	return Palette{
		Red:     185,
		Green:   28,
		Blue:    28,
		Zero:    "#fdfcfb",
		Missing: "#d6d3d1",
	}
}

// CellColor returns the CSS colour of a cell. Nonexistent cells are not
// painted and return an empty string.
func CellColor(cell Cell, gs GridStatistics, palette Palette) string {
	switch cell.Kind {
	case CellNonexistent:
		return ""
	case CellMissing:
		return palette.Missing
	case CellPresent:
		if cell.Value <= 0 {
			return palette.Zero
		}

		return fmt.Sprintf("rgba(%d, %d, %d, %.2f)",
			palette.Red, palette.Green, palette.Blue, Intensity(float64(cell.Value), gs))
	default:
		return ""
	}
}
