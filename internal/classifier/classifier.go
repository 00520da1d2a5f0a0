// Package classifier implements the Complexity Classifier: a pure function over document text and inferred page count.
package classifier

import (
	"regexp"
	"strings"

	"github.com/rezonia/docingest/internal/model"
)

var multiBorrowerTokens = []string{
	"co-borrower",
	"joint applicant",
	"spouse",
	"borrower 2",
	"second borrower",
}

var poorScanMarkers = []string{
	"[illegible]",
	"[unclear]",
}

var handwrittenMarkers = []string{
	"[handwritten]",
	"signature:",
	"signed:",
}

var questionRun = regexp.MustCompile(`\?{3,}`)

// Classify returns the ComplexityAssessment for the given normalized text
// and inferred page count.
func Classify(text string, pageCount int) model.ComplexityAssessment {
	lower := strings.ToLower(text)

	multiCount := 0
	for _, tok := range multiBorrowerTokens {
		if strings.Contains(lower, tok) {
			multiCount++
		}
	}

	poorQuality := questionRun.MatchString(text)
	for _, tok := range poorScanMarkers {
		if strings.Contains(lower, tok) {
			poorQuality = true
		}
	}

	handwritten := false
	for _, tok := range handwrittenMarkers {
		if strings.Contains(lower, tok) {
			handwritten = true
		}
	}

	complex := multiCount > 0 || pageCount > 10 || poorQuality || handwritten

	level := model.ComplexityStandard
	if complex {
		level = model.ComplexityComplex
	}

	return model.ComplexityAssessment{
		Level:              level,
		EstimatedBorrowers: multiCount + 1,
		HasHandwritten:     handwritten,
		HasPoorQuality:     poorQuality,
	}
}
