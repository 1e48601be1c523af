// Package fixture builds a small, fully known dataset bundle for tests of the
// presentation layers.
package fixture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/dataset"
	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
)

// Fixture facts.
const (
	Days          = 14
	Total         = 10900
	ChildrenDaily = 40
	PeakDate      = "2023-10-20"
	PeakValue     = 1800
	AnnotatedDate = "2023-10-09"
)

// Start is the first report date.
var Start = time.Date(2023, 10, 7, 0, 0, 0, 0, time.UTC)

// Daily returns the killed counts, one per day from Start:
// 100, 200, ..., 1300 and then 1800.
func Daily() []int {
	out := make([]int, Days)
	for i := range Days - 1 {
		out[i] = 100 * (i + 1)
	}

	out[Days-1] = PeakValue

	return out
}

// Benchmarks returns a stadium, a school and a bus, in that order.
func Benchmarks() []relatability.Benchmark {
	return []relatability.Benchmark{
		{
			ID:    "stadium",
			Label: locale.Text{EN: "a stadium", AR: "ملعب"},
			Value: 50000,
			Unit:  "seats",
		},
		{
			ID:       "school",
			Label:    locale.Text{EN: "a school", AR: "مدرسة"},
			Value:    900,
			Unit:     "children",
			Category: "education",
		},
		{
			ID:       "bus",
			Label:    locale.Plain("a bus"),
			Value:    50,
			Unit:     "passengers",
			Category: "transport",
		},
	}
}

// Records returns the raw series. Every record carries an explicit daily
// count and a children running total growing by ChildrenDaily.
func Records() []casualty.DailyRecord {
	daily := Daily()
	records := make([]casualty.DailyRecord, len(daily))

	for i, n := range daily {
		records[i] = casualty.DailyRecord{
			Date:       Start.AddDate(0, 0, i),
			Killed:     casualty.ExplicitDaily{Daily: n},
			Cumulative: map[casualty.Category]int{casualty.CategoryChildren: ChildrenDaily * (i + 1)},
		}
	}

	return records
}

func annotations() []dataset.Annotation {
	return []dataset.Annotation{
		{Date: AnnotatedDate, Text: locale.Text{EN: "Siege declared", AR: "إعلان الحصار"}},
	}
}

// Bundle reconstructs the fixture series into a bundle.
func Bundle(tb testing.TB) *dataset.Bundle {
	tb.Helper()

	records := Records()

	deltas, err := casualty.Reconstruct(records)
	if err != nil {
		tb.Fatalf("reconstruct fixture: %v", err)
	}

	return &dataset.Bundle{
		Records:     records,
		Deltas:      deltas,
		Benchmarks:  Benchmarks(),
		Annotations: dataset.NewAnnotations(annotations()),
		LoadedAt:    Start,
	}
}

// Files are the fixture datasets written to disk by WriteFiles.
type Files struct {
	Casualties  string
	Benchmarks  string
	Annotations string
}

// WriteFiles writes the fixture as the three published JSON documents under
// dir. Loading them yields the same bundle as Bundle.
func WriteFiles(tb testing.TB, dir string) Files {
	tb.Helper()

	type rawDay struct {
		ReportDate  string `json:"report_date"`
		Killed      int    `json:"killed"`
		ChildrenCum int    `json:"killed_children_cum"`
	}

	days := make([]rawDay, Days)
	for i, n := range Daily() {
		days[i] = rawDay{
			ReportDate:  casualty.FormatDate(Start.AddDate(0, 0, i)),
			Killed:      n,
			ChildrenCum: ChildrenDaily * (i + 1),
		}
	}

	files := Files{
		Casualties:  filepath.Join(dir, "casualties_daily.json"),
		Benchmarks:  filepath.Join(dir, "benchmarks.json"),
		Annotations: filepath.Join(dir, "annotations.json"),
	}

	writeJSON(tb, files.Casualties, days)
	writeJSON(tb, files.Benchmarks, Benchmarks())
	writeJSON(tb, files.Annotations, annotations())

	return files
}

func writeJSON(tb testing.TB, path string, value any) {
	tb.Helper()

	data, err := json.Marshal(value)
	if err != nil {
		tb.Fatalf("encode %s: %v", path, err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}
