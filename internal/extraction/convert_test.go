package extraction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docingest/internal/llm"
	"github.com/rezonia/docingest/internal/model"
	"github.com/rezonia/docingest/internal/offsets"
)

func TestRecordFromLLM_TrimsWhitespaceAndConvertsChildren(t *testing.T) {
	lb := llmBorrower{
		Name:  "  Jane Doe  ",
		SSN:   " 123-45-6789 ",
		Phone: " 415-555-0100 ",
		Address: &llmAddress{
			Street: "1 Main St",
			City:   "Springfield",
			State:  "IL",
			Zip:    "62704",
		},
		IncomeHistory: []llmIncome{
			{Amount: "$85,000", Period: "annual", Year: 2024, SourceType: "employment", Employer: "Acme Corp"},
		},
		AccountNumbers: []llmAccount{
			{Number: "ACCT-1", Type: "BANK"},
		},
	}

	rec := recordFromLLM(lb)

	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, "123-45-6789", rec.SSN)
	assert.Equal(t, "415-555-0100", rec.Phone)
	require.NotNil(t, rec.Address)
	assert.Equal(t, "Springfield", rec.Address.City)
	require.Len(t, rec.IncomeHistory, 1)
	assert.True(t, rec.IncomeHistory[0].Amount.Equal(decimal.NewFromInt(85000)))
	require.Len(t, rec.AccountNumbers, 1)
	assert.Equal(t, model.AccountBank, rec.AccountNumbers[0].Type)
	assert.NotEqual(t, uuid.Nil, rec.ID)
}

func TestToAddress_NilForMissingOrZeroValueAddress(t *testing.T) {
	assert.Nil(t, toAddress(nil))
	assert.Nil(t, toAddress(&llmAddress{}))

	got := toAddress(&llmAddress{City: "Springfield"})
	require.NotNil(t, got)
	assert.Equal(t, "Springfield", got.City)
}

func TestToAccountNumbers_UnknownTypeDefaultsToBank(t *testing.T) {
	out := toAccountNumbers([]llmAccount{
		{Number: "A1", Type: "loan"},
		{Number: "A2", Type: "savings"},
		{Number: "A3", Type: ""},
	})

	require.Len(t, out, 3)
	assert.Equal(t, model.AccountLoan, out[0].Type)
	assert.Equal(t, model.AccountBank, out[1].Type)
	assert.Equal(t, model.AccountBank, out[2].Type)
}

func TestParseDecimal_HandlesCurrencyFormatting(t *testing.T) {
	assert.True(t, parseDecimal("$85,000.00").Equal(decimal.NewFromFloat(85000.00)))
	assert.True(t, parseDecimal("1200").Equal(decimal.NewFromInt(1200)))
	assert.True(t, parseDecimal("not a number").IsZero())
	assert.True(t, parseDecimal("").IsZero())
}

func TestEstimatePage_InterpolatesAcrossDocumentLength(t *testing.T) {
	assert.Equal(t, 1, estimatePage(0, 1000, 1))
	assert.Equal(t, 1, estimatePage(0, 1000, 10))
	assert.Equal(t, 10, estimatePage(999, 1000, 10))
	assert.Equal(t, 1, estimatePage(0, 0, 10), "zero-length text clamps to page 1")
}

func TestDoclingSources_DefaultsToUnspecifiedSection(t *testing.T) {
	docID := uuid.New()
	lb := llmBorrower{}

	out := doclingSources(docID, 3, lb)
	require.Len(t, out, 1)
	assert.Equal(t, "unspecified", out[0].Section)
	assert.Equal(t, 3, out[0].Page)
}

func TestDoclingSources_MapsEachLLMSourceWithPage(t *testing.T) {
	docID := uuid.New()
	lb := llmBorrower{Sources: []llmSource{
		{Section: "pay stub", Snippet: "Gross pay: 5000"},
		{Section: "header", Snippet: "Jane Doe"},
	}}

	out := doclingSources(docID, 2, lb)
	require.Len(t, out, 2)
	for _, s := range out {
		assert.Equal(t, 2, s.Page)
		assert.Equal(t, docID, s.DocumentID)
	}
	assert.Equal(t, "pay stub", out[0].Section)
}

func TestModelForComplexity_PicksProClassForComplexAndFlashOtherwise(t *testing.T) {
	assert.Equal(t, llm.ModelProClass, modelForComplexity(model.ComplexityComplex))
	assert.Equal(t, llm.ModelFlashClass, modelForComplexity(model.ComplexityStandard))
}

func TestNormalizeMarkdown_TrimsTrailingWhitespaceAndCollapsesBlankRuns(t *testing.T) {
	raw := "Line one   \nLine two\t\n\n\n\nLine three"
	got := normalizeMarkdown(raw)

	assert.Equal(t, "Line one\nLine two\n\nLine three", got)
}

func TestLocateSpan_FindsFirstOccurrence(t *testing.T) {
	start, end, found := locateSpan("the quick brown fox", "quick brown")
	require.True(t, found)
	assert.Equal(t, "quick brown", "the quick brown fox"[start:end])

	_, _, found = locateSpan("the quick brown fox", "slow turtle")
	assert.False(t, found)
}

func TestLangExtractSources_TranslatesVerifiableSpanOntoRawOffsets(t *testing.T) {
	raw := "Name: Jane Doe, SSN: 123-45-6789"
	markdown := normalizeMarkdown(raw)
	translator := offsets.New(raw, markdown)

	chunk := model.Chunk{StartChar: 0, EndChar: len(markdown), Text: markdown}
	lb := llmBorrower{
		Sources: []llmSource{
			{Section: "ssn", Snippet: "123-45-6789", ExtractionText: "123-45-6789"},
		},
	}

	out := langExtractSources(uuid.New(), 1, translator, chunk, lb)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].CharStart)
	require.NotNil(t, out[0].CharEnd)
	assert.Equal(t, "123-45-6789", raw[*out[0].CharStart:*out[0].CharEnd])
	assert.Equal(t, 1, out[0].Page)
}

func TestLangExtractSources_FallsBackWhenSpanNotFound(t *testing.T) {
	raw := "Name: Jane Doe"
	markdown := normalizeMarkdown(raw)
	translator := offsets.New(raw, markdown)

	chunk := model.Chunk{StartChar: 0, EndChar: len(markdown), Text: markdown}
	lb := llmBorrower{
		Sources: []llmSource{
			{Section: "ssn", Snippet: "nope", ExtractionText: "not present in the chunk"},
		},
	}

	out := langExtractSources(uuid.New(), 1, translator, chunk, lb)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].CharStart)
	assert.Nil(t, out[0].CharEnd)
	assert.Equal(t, 1, out[0].Page)
}

func TestLangExtractSources_DefaultsToUnspecifiedWhenNoSources(t *testing.T) {
	translator := offsets.New("text", "text")
	chunk := model.Chunk{StartChar: 0, EndChar: 4, Text: "text"}

	out := langExtractSources(uuid.New(), 2, translator, chunk, llmBorrower{})
	require.Len(t, out, 1)
	assert.Equal(t, "unspecified", out[0].Section)
	assert.Equal(t, 2, out[0].Page)
}

func TestNormalizeAndValidate_NormalizesValidFieldsAndReportsInvalidOnes(t *testing.T) {
	rec := &model.BorrowerRecord{
		Name:    "Jane Doe",
		SSN:     "123 45 6789",
		Phone:   "bad-phone",
		Address: &model.Address{Zip: "94107"},
		IncomeHistory: []model.IncomeRecord{
			{Year: 1900},
		},
	}

	errs := normalizeAndValidate(rec)

	assert.Equal(t, "123-45-6789", rec.SSN)
	assert.Equal(t, "94107", rec.Address.Zip)
	assert.Len(t, errs, 2, "expected phone and income year to be flagged")
}

func TestFinalizeBorrowers_RunsDedupeScoreAndConsistency(t *testing.T) {
	a := model.BorrowerRecord{ID: uuid.New(), Name: "Jane Doe", SSN: "123-45-6789"}
	b := model.BorrowerRecord{ID: uuid.New(), Name: "Jane Doe", SSN: "123456789"}

	final, errs, warnings := finalizeBorrowers([]model.BorrowerRecord{a, b})

	require.Len(t, final, 1, "exact SSN match should dedupe to one borrower")
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
	assert.Greater(t, final[0].Confidence, 0.0)
}
