package retrieval

import (
	"strings"
	"unicode"
)

// monthTable holds one language's calendar-month expansion rules: the base
// (nominative-like) form mapped to the inflected form used inside dates,
// plus an optional marker token appended with a final inflected form.
type monthTable struct {
	alternate map[string]string
	marker    string
}

// monthTables is keyed by language code. New languages are additive entries
// here; no code changes are needed to support one.
var monthTables = map[string]monthTable{
	// Russian: nominative -> genitive. Documents store dates in genitive
	// ("8 октября 2025") while users query in nominative ("за октябрь");
	// the keyword branch needs exact token matches, so both forms must be
	// present in the query.
	"ru": {
		alternate: map[string]string{
			"январь":   "января",
			"февраль":  "февраля",
			"март":     "марта",
			"апрель":   "апреля",
			"май":      "мая",
			"июнь":     "июня",
			"июль":     "июля",
			"август":   "августа",
			"сентябрь": "сентября",
			"октябрь":  "октября",
			"ноябрь":   "ноября",
			"декабрь":  "декабря",
		},
		marker: "дат",
	},
	// English: full name -> abbreviation.
	"en": {
		alternate: map[string]string{
			"january":   "jan",
			"february":  "feb",
			"march":     "mar",
			"april":     "apr",
			"may":       "may",
			"june":      "jun",
			"july":      "jul",
			"august":    "aug",
			"september": "sep",
			"october":   "oct",
			"november":  "nov",
			"december":  "dec",
		},
	},
}

// ExpandTemporal rewrites each calendar-month base form found in the query
// into "base alt 1 alt 2 alt" (plus "marker alt" for languages that define a
// marker token). The expansion is additive: all original text is preserved,
// matching is case-insensitive on whole words, and multiple months are each
// expanded independently. Unknown languages and queries without month names
// pass through unchanged; this function never fails.
func ExpandTemporal(query, language string) string {
	table, ok := monthTables[strings.ToLower(language)]
	if !ok {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))

	rest := query
	for len(rest) > 0 {
		word, sep := nextWord(rest)
		if alt, ok := table.alternate[strings.ToLower(word)]; ok && word != "" {
			b.WriteString(word)
			b.WriteString(" " + alt + " 1 " + alt + " 2 " + alt)
			if table.marker != "" {
				b.WriteString(" " + table.marker + " " + alt)
			}
		} else {
			b.WriteString(word)
		}
		b.WriteString(sep)
		rest = rest[len(word)+len(sep):]
	}

	return b.String()
}

// nextWord splits off the leading letter run and the non-letter run that
// follows it. Either part may be empty, but not both for non-empty input.
func nextWord(s string) (word, sep string) {
	i := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			break
		}
		i += len(string(r))
	}
	j := i
	for _, r := range s[i:] {
		if unicode.IsLetter(r) {
			break
		}
		j += len(string(r))
	}
	return s[:i], s[i:j]
}
