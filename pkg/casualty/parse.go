package casualty

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date layout used by every dataset.
const DateLayout = time.DateOnly

// JSON field names of the daily series.
const (
	fieldReportDate = "report_date"
	fieldKilled     = "killed"
	fieldKilledCum  = "killed_cum"
)

// categoryFields maps each category to its cumulative JSON field.
var categoryFields = map[Category]string{
	CategoryChildren:     "killed_children_cum",
	CategoryWomen:        "killed_women_cum",
	CategoryMedical:      "med_killed_cum",
	CategoryPress:        "press_killed_cum",
	CategoryCivilDefence: "civdef_killed_cum",
	CategoryInjured:      "injured_cum",
}

// CategoryField returns the cumulative JSON field that feeds c.
func CategoryField(c Category) string {
	return categoryFields[c]
}

// rawRecord mirrors one element of the published JSON array.
type rawRecord struct {
	ReportDate      string `json:"report_date"`
	Killed          *int   `json:"killed"`
	KilledCum       *int   `json:"killed_cum"`
	ChildrenCum     *int   `json:"killed_children_cum"`
	WomenCum        *int   `json:"killed_women_cum"`
	MedicalCum      *int   `json:"med_killed_cum"`
	PressCum        *int   `json:"press_killed_cum"`
	CivilDefenceCum *int   `json:"civdef_killed_cum"`
	InjuredCum      *int   `json:"injured_cum"`
}

func (r rawRecord) categoryValues() map[Category]*int {
	return map[Category]*int{
		CategoryChildren:     r.ChildrenCum,
		CategoryWomen:        r.WomenCum,
		CategoryMedical:      r.MedicalCum,
		CategoryPress:        r.PressCum,
		CategoryCivilDefence: r.CivilDefenceCum,
		CategoryInjured:      r.InjuredCum,
	}
}

// ParseDailyRecords decodes the daily casualty series. The result keeps the
// input order; ordering is checked later by Reconstruct.
func ParseDailyRecords(data []byte) ([]DailyRecord, error) {
	var raw []rawRecord

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrDataFormat, ErrInvalidJSON, err)
	}

	records := make([]DailyRecord, 0, len(raw))

	for i, rr := range raw {
		rec, convErr := convertRecord(i, rr)
		if convErr != nil {
			return nil, convErr
		}

		records = append(records, rec)
	}

	return records, nil
}

func convertRecord(index int, rr rawRecord) (DailyRecord, error) {
	if rr.ReportDate == "" {
		return DailyRecord{}, formatErr(index, fieldReportDate, ErrMissingDate)
	}

	date, err := ParseDate(rr.ReportDate)
	if err != nil {
		return DailyRecord{}, formatErr(index, fieldReportDate, err)
	}

	if isNegative(rr.Killed) {
		return DailyRecord{}, formatErr(index, fieldKilled, ErrNegativeCount)
	}

	if isNegative(rr.KilledCum) {
		return DailyRecord{}, formatErr(index, fieldKilledCum, ErrNegativeCount)
	}

	var killed KilledCount = CumulativeOnly{Cumulative: rr.KilledCum}
	if rr.Killed != nil {
		killed = ExplicitDaily{Daily: *rr.Killed, Cumulative: rr.KilledCum}
	}

	cumulative := make(map[Category]int)

	for cat, val := range rr.categoryValues() {
		if val == nil {
			continue
		}

		if *val < 0 {
			return DailyRecord{}, formatErr(index, categoryFields[cat], ErrNegativeCount)
		}

		cumulative[cat] = *val
	}

	return DailyRecord{Date: date, Killed: killed, Cumulative: cumulative}, nil
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD) in UTC.
func ParseDate(s string) (time.Time, error) {
	date, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return date, nil
}

// FormatDate renders a date with DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func isNegative(v *int) bool {
	return v != nil && *v < 0
}
