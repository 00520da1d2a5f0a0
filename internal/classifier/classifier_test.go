package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/docingest/internal/classifier"
	"github.com/rezonia/docingest/internal/model"
)

func TestClassify_PlainSinglePageTextIsStandard(t *testing.T) {
	got := classifier.Classify("Borrower Name: Jane Doe\nIncome: 85000", 1)

	assert.Equal(t, model.ComplexityStandard, got.Level)
	assert.Equal(t, 1, got.EstimatedBorrowers)
	assert.False(t, got.HasHandwritten)
	assert.False(t, got.HasPoorQuality)
}

func TestClassify_CoBorrowerTokenMarksComplexAndIncrementsEstimate(t *testing.T) {
	got := classifier.Classify("Applicant: Jane Doe\nCo-Borrower: John Doe", 1)

	assert.Equal(t, model.ComplexityComplex, got.Level)
	assert.Equal(t, 2, got.EstimatedBorrowers)
}

func TestClassify_MultipleMultiBorrowerTokensAccumulate(t *testing.T) {
	text := "Co-Borrower: John Doe\nSpouse: Mary Doe\nSecond Borrower: Joe Roe"
	got := classifier.Classify(text, 1)

	assert.Equal(t, model.ComplexityComplex, got.Level)
	assert.Equal(t, 4, got.EstimatedBorrowers)
}

func TestClassify_PageCountOverTenIsComplex(t *testing.T) {
	got := classifier.Classify("a short document", 11)
	assert.Equal(t, model.ComplexityComplex, got.Level)

	got = classifier.Classify("a short document", 10)
	assert.Equal(t, model.ComplexityStandard, got.Level)
}

func TestClassify_QuestionRunMarksPoorQuality(t *testing.T) {
	got := classifier.Classify("Income: ???unreadable", 1)

	assert.True(t, got.HasPoorQuality)
	assert.Equal(t, model.ComplexityComplex, got.Level)
}

func TestClassify_ScanMarkerTokensMarkPoorQuality(t *testing.T) {
	got := classifier.Classify("Name: [illegible]", 1)
	assert.True(t, got.HasPoorQuality)

	got = classifier.Classify("Name: [unclear]", 1)
	assert.True(t, got.HasPoorQuality)
}

func TestClassify_HandwrittenMarkersAreDetected(t *testing.T) {
	for _, text := range []string{"[handwritten] note in margin", "Signature: Jane Doe", "Signed: Jane Doe"} {
		got := classifier.Classify(text, 1)
		assert.True(t, got.HasHandwritten, "expected %q to be flagged handwritten", text)
		assert.Equal(t, model.ComplexityComplex, got.Level)
	}
}

func TestClassify_IsCaseInsensitive(t *testing.T) {
	got := classifier.Classify("CO-BORROWER: John Doe", 1)
	assert.Equal(t, 2, got.EstimatedBorrowers)
}
