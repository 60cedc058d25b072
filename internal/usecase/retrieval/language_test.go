package retrieval

import (
	"errors"
	"testing"

	"retrieval-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLanguage_PureEnglishAgainstRussianCorpus(t *testing.T) {
	err := ValidateLanguage("documents from october", "ru")

	require.Error(t, err)
	var mismatch *domain.LanguageMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "en", mismatch.Detected)
	assert.Equal(t, "ru", mismatch.Expected)
}

func TestValidateLanguage_MixedQueryWithExpectedPlurality_Passes(t *testing.T) {
	// Two Russian tokens, two English tokens: the foreign language does not
	// hold a strict majority, so the query passes.
	err := ValidateLanguage("документы про machine learning", "ru")

	assert.NoError(t, err)
}

func TestValidateLanguage_RussianQueryAgainstRussianCorpus_Passes(t *testing.T) {
	err := ValidateLanguage("какие документы были за август", "ru")

	assert.NoError(t, err)
}

func TestValidateLanguage_MostlyForeignWithSomeExpected_DetectsMixed(t *testing.T) {
	err := ValidateLanguage("please find the документ", "ru")

	require.Error(t, err)
	var mismatch *domain.LanguageMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "mixed_en", mismatch.Detected)
}

func TestValidateLanguage_JapaneseAgainstRussianCorpus(t *testing.T) {
	err := ValidateLanguage("東京の ドキュメント を探す", "ru")

	require.Error(t, err)
	var mismatch *domain.LanguageMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "ja", mismatch.Detected)
}

func TestValidateLanguage_NoClassifiableTokens_Passes(t *testing.T) {
	assert.NoError(t, ValidateLanguage("2025 12 31", "ru"))
	assert.NoError(t, ValidateLanguage("... !!! ???", "ru"))
}

func TestValidateLanguage_AllSkipsValidation(t *testing.T) {
	assert.NoError(t, ValidateLanguage("documents from october", LanguageAll))
	assert.NoError(t, ValidateLanguage("documents from october", ""))
}

func TestValidateLanguage_ExactTie_Passes(t *testing.T) {
	// One token each: a 50/50 split is not a strict majority.
	err := ValidateLanguage("документы documents", "ru")

	assert.NoError(t, err)
}

func TestDetectLanguage_TokenCounts(t *testing.T) {
	counts := DetectLanguage("документы про machine learning")

	assert.Equal(t, 2, counts["ru"])
	assert.Equal(t, 2, counts["en"])
}

func TestDetectLanguage_EmptyForNumericQuery(t *testing.T) {
	counts := DetectLanguage("123 456")

	assert.Empty(t, counts)
}

func TestClassifyToken_MajorityScriptWins(t *testing.T) {
	assert.Equal(t, "ru", classifyToken("августа"))
	assert.Equal(t, "en", classifyToken("october"))
	assert.Equal(t, "ja", classifyToken("東京"))
	assert.Equal(t, "", classifyToken("2025"))
}
