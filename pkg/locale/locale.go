// Package locale carries the two display languages of the site: localized
// text values, language negotiation, and localized number rendering.
package locale

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
)

// Lang is a supported display language.
type Lang string

// Supported languages.
const (
	English Lang = "en"
	Arabic  Lang = "ar"
)

// ErrInvalidText is returned when a localized text value is neither a string nor an object.
var ErrInvalidText = errors.New("localized text must be a string or an object of language codes")

var (
	supportedTags = []language.Tag{language.English, language.Arabic}
	supportedLang = []Lang{English, Arabic}
	matcher       = language.NewMatcher(supportedTags)
)

// Parse negotiates a Lang from a BCP 47 tag or Accept-Language value such as
// "ar-PS" or "en-GB,en;q=0.8". Anything unrecognised falls back to English.
func Parse(s string) Lang {
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return English
	}

	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return English
	}

	return supportedLang[idx]
}

// IsRTL reports whether the language is written right to left.
func (l Lang) IsRTL() bool {
	return l == Arabic
}

// Text is a value with one rendering per language. In JSON it is either a
// plain string (used for every language) or an object keyed by language code.
type Text struct {
	EN string `json:"en,omitempty" yaml:"en,omitempty"`
	AR string `json:"ar,omitempty" yaml:"ar,omitempty"`
}

// Plain returns a Text that renders s in every language.
func Plain(s string) Text {
	return Text{EN: s, AR: s}
}

// In returns the rendering for lang, falling back to English.
func (t Text) In(lang Lang) string {
	if lang == Arabic && t.AR != "" {
		return t.AR
	}

	return t.EN
}

// IsZero reports whether no language has a rendering.
func (t Text) IsZero() bool {
	return t.EN == "" && t.AR == ""
}

// UnmarshalJSON accepts a string or an {"en","ar"} object.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = Text{}

		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string

		err := json.Unmarshal(data, &s)
		if err != nil {
			return fmt.Errorf("decode text: %w", err)
		}

		*t = Plain(s)

		return nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		return ErrInvalidText
	}

	type plain Text

	var obj plain

	err := json.Unmarshal(data, &obj)
	if err != nil {
		return fmt.Errorf("decode text: %w", err)
	}

	*t = Text(obj)

	return nil
}

// arabicDigits maps ASCII digits and the grouping comma onto Arabic-Indic forms.
var arabicDigits = strings.NewReplacer(
	"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
	"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
	",", "٬",
)

// FormatInt renders n with thousands grouping in the digits of lang.
func FormatInt(lang Lang, n int64) string {
	grouped := humanize.Comma(n)
	if lang == Arabic {
		return arabicDigits.Replace(grouped)
	}

	return grouped
}

// FormatPercent renders a whole percentage in the digits of lang.
func FormatPercent(lang Lang, pct int64) string {
	if lang == Arabic {
		return FormatInt(lang, pct) + "٪"
	}

	return FormatInt(lang, pct) + "%"
}
