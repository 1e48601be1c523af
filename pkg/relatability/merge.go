package relatability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// UnknownCategory labels benchmarks that carry no category.
const UnknownCategory = "unknown"

// Entry is one catalogue element kept byte for byte. Only the id and the
// category are decoded, so a merge never drops or rewrites other fields.
type Entry struct {
	ID       string
	Category string
	Raw      json.RawMessage
}

// MarshalJSON emits the entry unchanged.
func (e Entry) MarshalJSON() ([]byte, error) {
	return e.Raw, nil
}

// MarshalYAML emits the decoded entry.
func (e Entry) MarshalYAML() (any, error) {
	return decodeAny(e.Raw)
}

// ParseEntries splits a catalogue into raw entries. Each element must be an
// object with a non-empty string id. Nothing else is checked.
func ParseEntries(data []byte) ([]Entry, error) {
	var raw []json.RawMessage

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalogue, err)
	}

	entries := make([]Entry, 0, len(raw))

	for i, r := range raw {
		var head struct {
			ID       string `json:"id"`
			Category any    `json:"category"`
		}

		err = json.Unmarshal(r, &head)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidCatalogue, i, err)
		}

		if head.ID == "" {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidCatalogue, i, ErrMissingID)
		}

		category, _ := head.Category.(string)
		entries = append(entries, Entry{ID: head.ID, Category: category, Raw: r})
	}

	return entries, nil
}

// WriteEntries writes entries as an indented JSON array with HTML escaping
// off, keeping every entry's fields and key order.
func WriteEntries(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	err := enc.Encode(entries)
	if err != nil {
		return fmt.Errorf("encode catalogue: %w", err)
	}

	return nil
}

// Duplicate records an entry dropped during a merge because its id was
// already taken by an earlier catalogue.
type Duplicate struct {
	ID      string `json:"id" yaml:"id"`
	Source  int    `json:"source" yaml:"source"`
	Kept    Entry  `json:"kept" yaml:"kept"`
	Skipped Entry  `json:"skipped" yaml:"skipped"`
}

// Conflicting reports whether the skipped entry differs in value from the
// kept one. Key order and whitespace do not count.
func (d Duplicate) Conflicting() bool {
	kept, keptErr := decodeAny(d.Kept.Raw)
	skipped, skippedErr := decodeAny(d.Skipped.Raw)

	if keptErr != nil || skippedErr != nil {
		return !bytes.Equal(d.Kept.Raw, d.Skipped.Raw)
	}

	return !reflect.DeepEqual(kept, skipped)
}

// Diff renders a line diff between the kept and skipped entries as indented
// JSON, prefixing removed lines with "-" and added lines with "+". It is
// empty when the two entries do not conflict.
func (d Duplicate) Diff() string {
	if !d.Conflicting() {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToChars(indentJSON(d.Kept.Raw), indentJSON(d.Skipped.Raw))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lines)

	var sb strings.Builder

	for _, edit := range diffs {
		prefix := "  "

		switch edit.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.Lines(edit.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}

	return sb.String()
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer

	err := json.Indent(&buf, raw, "", "  ")
	if err != nil {
		return string(raw) + "\n"
	}

	buf.WriteByte('\n')

	return buf.String()
}

func decodeAny(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any

	err := dec.Decode(&v)
	if err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}

	return v, nil
}

// MergeResult is the outcome of merging several catalogues.
type MergeResult struct {
	Benchmarks []Entry     `json:"benchmarks" yaml:"benchmarks"`
	Duplicates []Duplicate `json:"duplicates" yaml:"duplicates"`
	// Loaded holds the entry count of each input catalogue.
	Loaded []int `json:"loaded" yaml:"loaded"`
}

// Merge concatenates catalogues in argument order, keeping the first entry
// for every id.
func Merge(catalogues ...[]Entry) MergeResult {
	result := MergeResult{Loaded: make([]int, len(catalogues))}
	seen := make(map[string]int)

	for source, catalogue := range catalogues {
		result.Loaded[source] = len(catalogue)

		for _, e := range catalogue {
			if idx, ok := seen[e.ID]; ok {
				result.Duplicates = append(result.Duplicates, Duplicate{
					ID:      e.ID,
					Source:  source,
					Kept:    result.Benchmarks[idx],
					Skipped: e,
				})

				continue
			}

			seen[e.ID] = len(result.Benchmarks)
			result.Benchmarks = append(result.Benchmarks, e)
		}
	}

	return result
}

// CategoryCount is one row of a category distribution.
type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// CategoryDistribution counts entries per category, sorted by category name.
func CategoryDistribution(entries []Entry) []CategoryCount {
	counts := make(map[string]int)

	for _, e := range entries {
		category := e.Category
		if category == "" {
			category = UnknownCategory
		}

		counts[category]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for _, category := range slices.Sorted(maps.Keys(counts)) {
		out = append(out, CategoryCount{Category: category, Count: counts[category]})
	}

	return out
}
