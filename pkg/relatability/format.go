package relatability

import (
	"fmt"
	"math"
	"strings"

	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
)

// UnitClass groups benchmark units that share a sentence template.
type UnitClass string

// Unit classes.
const (
	UnitChildren   UnitClass = "children"
	UnitPeople     UnitClass = "people"
	UnitPassengers UnitClass = "passengers"
	UnitSeats      UnitClass = "seats"
	UnitDeaths     UnitClass = "deaths"
	UnitGeneric    UnitClass = "generic"
)

var unitAliases = map[string]UnitClass{
	"children":    UnitChildren,
	"students":    UnitChildren,
	"pupils":      UnitChildren,
	"people":      UnitPeople,
	"residents":   UnitPeople,
	"population":  UnitPeople,
	"inhabitants": UnitPeople,
	"passengers":  UnitPassengers,
	"seats":       UnitSeats,
	"capacity":    UnitSeats,
	"spectators":  UnitSeats,
	"deaths":      UnitDeaths,
	"fatalities":  UnitDeaths,
	"killed":      UnitDeaths,
	"victims":     UnitDeaths,
}

// ClassifyUnit maps a free-form benchmark unit onto its template class.
func ClassifyUnit(unit string) UnitClass {
	if class, ok := unitAliases[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return class
	}

	return UnitGeneric
}

// sentenceKey selects one sentence template.
type sentenceKey struct {
	class UnitClass
	kind  Kind
	lang  locale.Lang
}

// sentences holds one template per unit class, kind and language.
// Verbs: %[1]s magnitude, %[2]s display magnitude, %[3]s benchmark label.
var sentences = map[sentenceKey]string{
	{UnitChildren, KindMultiple, locale.English}:   "%[1]s killed is %[2]s times the number of children in %[3]s.",
	{UnitPeople, KindMultiple, locale.English}:     "%[1]s killed is %[2]s times the population of %[3]s.",
	{UnitPassengers, KindMultiple, locale.English}: "%[1]s killed would fill %[3]s %[2]s times over.",
	{UnitSeats, KindMultiple, locale.English}:      "%[1]s killed would fill every seat in %[3]s %[2]s times over.",
	{UnitDeaths, KindMultiple, locale.English}:     "%[1]s killed is %[2]s times the death toll of %[3]s.",
	{UnitGeneric, KindMultiple, locale.English}:    "%[1]s killed is %[2]s times %[3]s.",

	{UnitChildren, KindPercentage, locale.English}:   "%[1]s killed is %[2]s of the children in %[3]s.",
	{UnitPeople, KindPercentage, locale.English}:     "%[1]s killed is %[2]s of the population of %[3]s.",
	{UnitPassengers, KindPercentage, locale.English}: "%[1]s killed would fill %[2]s of %[3]s.",
	{UnitSeats, KindPercentage, locale.English}:      "%[1]s killed would fill %[2]s of the seats in %[3]s.",
	{UnitDeaths, KindPercentage, locale.English}:     "%[1]s killed is %[2]s of the death toll of %[3]s.",
	{UnitGeneric, KindPercentage, locale.English}:    "%[1]s killed is %[2]s of %[3]s.",

	{UnitChildren, KindMultiple, locale.Arabic}:   "%[1]s شهيدًا يعادل %[2]s أضعاف عدد الأطفال في %[3]s.",
	{UnitPeople, KindMultiple, locale.Arabic}:     "%[1]s شهيدًا يعادل %[2]s أضعاف عدد سكان %[3]s.",
	{UnitPassengers, KindMultiple, locale.Arabic}: "%[1]s شهيدًا يملؤون %[3]s %[2]s مرات.",
	{UnitSeats, KindMultiple, locale.Arabic}:      "%[1]s شهيدًا يملؤون كل مقاعد %[3]s %[2]s مرات.",
	{UnitDeaths, KindMultiple, locale.Arabic}:     "%[1]s شهيدًا يعادل %[2]s أضعاف حصيلة ضحايا %[3]s.",
	{UnitGeneric, KindMultiple, locale.Arabic}:    "%[1]s شهيدًا يعادل %[2]s أضعاف %[3]s.",

	{UnitChildren, KindPercentage, locale.Arabic}:   "%[1]s شهيدًا يعادل %[2]s من الأطفال في %[3]s.",
	{UnitPeople, KindPercentage, locale.Arabic}:     "%[1]s شهيدًا يعادل %[2]s من سكان %[3]s.",
	{UnitPassengers, KindPercentage, locale.Arabic}: "%[1]s شهيدًا يملؤون %[2]s من %[3]s.",
	{UnitSeats, KindPercentage, locale.Arabic}:      "%[1]s شهيدًا يملؤون %[2]s من مقاعد %[3]s.",
	{UnitDeaths, KindPercentage, locale.Arabic}:     "%[1]s شهيدًا يعادل %[2]s من حصيلة ضحايا %[3]s.",
	{UnitGeneric, KindPercentage, locale.Arabic}:    "%[1]s شهيدًا يعادل %[2]s من %[3]s.",
}

// FormatComparison renders c as a sentence in lang, keyed by the unit class
// of its benchmark. Unsupported languages render in English.
func FormatComparison(c Comparison, magnitude float64, lang locale.Lang) string {
	if lang != locale.Arabic {
		lang = locale.English
	}

	template := sentences[sentenceKey{ClassifyUnit(c.Benchmark.Unit), c.Kind, lang}]

	display := locale.FormatInt(lang, int64(c.DisplayMagnitude))
	if c.Kind == KindPercentage {
		display = locale.FormatPercent(lang, int64(c.DisplayMagnitude))
	}

	return fmt.Sprintf(template,
		locale.FormatInt(lang, int64(math.Round(magnitude))),
		display,
		c.Benchmark.Label.In(lang),
	)
}
