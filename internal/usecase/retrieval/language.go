package retrieval

import (
	"strings"
	"unicode"

	"retrieval-orchestrator/internal/domain"
)

// LanguageAll disables language validation for a request.
const LanguageAll = "all"

// classifyRune maps a rune to a language code by script family, or "" when
// the rune carries no language signal (digits, punctuation, whitespace).
func classifyRune(r rune) string {
	switch {
	case unicode.Is(unicode.Cyrillic, r):
		return "ru"
	case (r >= '\u3040' && r <= '\u309f') || // Hiragana
		(r >= '\u30a0' && r <= '\u30ff') || // Katakana
		(r >= '\u4e00' && r <= '\u9faf'): // Kanji
		return "ja"
	case unicode.Is(unicode.Latin, r):
		return "en"
	}
	return ""
}

// classifyToken assigns a whole token the language with the most characters
// in it. Tokens with no classifiable characters, or with a perfect tie,
// return "".
func classifyToken(token string) string {
	counts := map[string]int{}
	for _, r := range token {
		if lang := classifyRune(r); lang != "" {
			counts[lang]++
		}
	}
	best, bestCount, tied := "", 0, false
	for lang, n := range counts {
		switch {
		case n > bestCount:
			best, bestCount, tied = lang, n, false
		case n == bestCount && lang != best:
			tied = true
		}
	}
	if tied || bestCount == 0 {
		return ""
	}
	return best
}

// DetectLanguage returns per-language token counts for a query. Purely
// numeric or punctuation queries yield an empty map.
func DetectLanguage(query string) map[string]int {
	counts := map[string]int{}
	for _, token := range strings.Fields(query) {
		if lang := classifyToken(token); lang != "" {
			counts[lang]++
		}
	}
	return counts
}

// ValidateLanguage checks that the query's language does not conflict with
// the corpus's expected language. A mismatch is reported only when a
// non-expected language holds strictly more than half of the classifiable
// tokens; mixed queries where the expected language keeps plurality pass, as
// do queries with no classifiable tokens. A perfect tie passes (benefit of
// the doubt). expected == LanguageAll skips validation entirely.
func ValidateLanguage(query, expected string) error {
	if expected == "" || expected == LanguageAll {
		return nil
	}

	counts := DetectLanguage(query)
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil
	}

	// Dominant foreign language, ties broken by code for determinism.
	foreign, foreignCount := "", 0
	for lang, n := range counts {
		if lang == expected {
			continue
		}
		if n > foreignCount || (n == foreignCount && lang < foreign) {
			foreign, foreignCount = lang, n
		}
	}
	if foreignCount*2 <= total {
		return nil
	}

	detected := foreign
	if counts[expected] > 0 {
		detected = "mixed_" + foreign
	}
	return &domain.LanguageMismatchError{Detected: detected, Expected: expected}
}
