package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTemporal_RussianMonth(t *testing.T) {
	got := ExpandTemporal("документы за август", "ru")

	assert.Equal(t, "документы за август августа 1 августа 2 августа дат августа", got)
}

func TestExpandTemporal_CaseInsensitive(t *testing.T) {
	got := ExpandTemporal("Август 2025", "ru")

	assert.Equal(t, "Август августа 1 августа 2 августа дат августа 2025", got)
}

func TestExpandTemporal_MultipleMonths(t *testing.T) {
	got := ExpandTemporal("сравни июль и август", "ru")

	assert.Equal(t,
		"сравни июль июля 1 июля 2 июля дат июля и август августа 1 августа 2 августа дат августа",
		got)
}

func TestExpandTemporal_EnglishNoMarker(t *testing.T) {
	got := ExpandTemporal("documents from october", "en")

	assert.Equal(t, "documents from october oct 1 oct 2 oct", got)
}

func TestExpandTemporal_NoMonth_Identity(t *testing.T) {
	query := "квартальный отчёт по продажам"

	assert.Equal(t, query, ExpandTemporal(query, "ru"))
}

func TestExpandTemporal_UnknownLanguage_Identity(t *testing.T) {
	query := "документы за август"

	assert.Equal(t, query, ExpandTemporal(query, "fi"))
	assert.Equal(t, query, ExpandTemporal(query, ""))
}

func TestExpandTemporal_DoesNotExpandSubstrings(t *testing.T) {
	// "августовский" contains a month name but is a different word.
	query := "августовский отчёт"

	assert.Equal(t, query, ExpandTemporal(query, "ru"))
}

func TestExpandTemporal_PreservesPunctuation(t *testing.T) {
	got := ExpandTemporal("что было в августе? (август)", "ru")

	// The inflected form in the query is untouched; only the base form inside
	// the parentheses expands.
	assert.Equal(t, "что было в августе? (август августа 1 августа 2 августа дат августа)", got)
}

func TestExpandTemporal_SecondPassOnlyAddsDuplicateTokens(t *testing.T) {
	once := ExpandTemporal("документы за август", "ru")
	twice := ExpandTemporal(once, "ru")

	// Re-expansion is harmless: it duplicates tokens but never corrupts the
	// query or drops the original text.
	assert.Contains(t, twice, "документы за август")
	for _, token := range strings.Fields(once) {
		assert.Contains(t, twice, token)
	}
}

func TestExpandTemporal_MayIsItsOwnAbbreviation(t *testing.T) {
	got := ExpandTemporal("events in may", "en")

	assert.Equal(t, "events in may may 1 may 2 may", got)
}
