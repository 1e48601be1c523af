package casualty

// Reconstruct turns a date-ascending series into per-day deltas.
//
// Explicit daily counts are taken as published and move the running baseline
// to the record's cumulative value when one is present. Cumulative-only records
// yield max(0, cumulative - baseline) and are flagged as reconstructed; a
// downward revision of the running total therefore produces a zero day rather
// than a negative one. A cumulative-only record without any cumulative value
// yields 0 and leaves the baseline untouched.
//
// Category deltas follow the cumulative rule with one baseline per category.
// The output has exactly one DeltaRecord per input record, in input order.
func Reconstruct(records []DailyRecord) ([]DeltaRecord, error) {
	deltas := make([]DeltaRecord, 0, len(records))

	var previous int

	categoryBaselines := make(map[Category]int, len(categoryFields))

	for i, rec := range records {
		if rec.Date.IsZero() {
			return nil, formatErr(i, fieldReportDate, ErrMissingDate)
		}

		if i > 0 && rec.Date.Before(records[i-1].Date) {
			return nil, formatErr(i, fieldReportDate, ErrDateOrder)
		}

		delta := DeltaRecord{
			Date:           rec.Date,
			CategoryDeltas: make(map[Category]int, len(rec.Cumulative)),
		}

		switch killed := rec.Killed.(type) {
		case ExplicitDaily:
			if killed.Daily < 0 {
				return nil, formatErr(i, fieldKilled, ErrNegativeCount)
			}

			delta.Killed = killed.Daily

			if cum, ok := killed.CumulativeValue(); ok {
				previous = cum
			}
		case CumulativeOnly:
			delta.WasReconstructed = true

			if cum, ok := killed.CumulativeValue(); ok {
				delta.Killed = max(0, cum-previous)
				previous = cum
			}
		default:
			return nil, formatErr(i, fieldKilled, ErrUnknownVariant)
		}

		for _, cat := range Categories() {
			cum, ok := rec.Cumulative[cat]
			if !ok {
				continue
			}

			delta.CategoryDeltas[cat] = max(0, cum-categoryBaselines[cat])
			categoryBaselines[cat] = cum
		}

		deltas = append(deltas, delta)
	}

	return deltas, nil
}

// AsExplicit converts reconstructed deltas back into explicit daily records.
// Feeding the result to Reconstruct reproduces the killed values unchanged.
func AsExplicit(deltas []DeltaRecord) []DailyRecord {
	records := make([]DailyRecord, len(deltas))

	for i, d := range deltas {
		records[i] = DailyRecord{Date: d.Date, Killed: ExplicitDaily{Daily: d.Killed}}
	}

	return records
}
