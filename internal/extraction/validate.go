package extraction

import (
	"fmt"

	"github.com/rezonia/docingest/internal/confidence"
	"github.com/rezonia/docingest/internal/consistency"
	"github.com/rezonia/docingest/internal/dedup"
	"github.com/rezonia/docingest/internal/model"
	"github.com/rezonia/docingest/internal/validator"
)

// normalizeAndValidate runs the Field Validator over a record's SSN, phone,
// ZIP, and income years, normalizing valid values in place and returning a
// human-readable message for every field that fails validation. An invalid
// field is never dropped: it stays on the record and only lowers its
// confidence score.
func normalizeAndValidate(rec *model.BorrowerRecord) []string {
	var errs []string

	if rec.SSN != "" {
		if res := validator.ValidateSSN(rec.SSN); res.OK {
			rec.SSN = res.Normalized
		} else {
			errs = append(errs, fmt.Sprintf("borrower %q: ssn: %s", rec.Name, res.Reason))
		}
	}

	if rec.Phone != "" {
		if res := validator.ValidatePhone(rec.Phone); res.OK {
			rec.Phone = res.Normalized
		} else {
			errs = append(errs, fmt.Sprintf("borrower %q: phone: %s", rec.Name, res.Reason))
		}
	}

	if rec.Address != nil && rec.Address.Zip != "" {
		if res := validator.ValidateZIP(rec.Address.Zip); res.OK {
			rec.Address.Zip = res.Normalized
		} else {
			errs = append(errs, fmt.Sprintf("borrower %q: zip: %s", rec.Name, res.Reason))
		}
	}

	for i, inc := range rec.IncomeHistory {
		if res := validator.ValidateYearInt(inc.Year); !res.OK {
			errs = append(errs, fmt.Sprintf("borrower %q: income_history[%d].year: %s", rec.Name, i, res.Reason))
		}
	}

	return errs
}

// finalizeBorrowers runs dedup -> validate -> score -> consistency over a
// strategy's raw per-chunk records, the fixed post-processing pipeline every
// extraction method shares.
func finalizeBorrowers(records []model.BorrowerRecord) (final []model.BorrowerRecord, validationErrors []string, warnings []model.ConsistencyWarning) {
	deduped := dedup.Dedupe(records)

	for i := range deduped {
		validationErrors = append(validationErrors, normalizeAndValidate(&deduped[i])...)
	}

	for i := range deduped {
		score, needsReview := confidence.Score(deduped[i])
		deduped[i].Confidence = score
		deduped[i].NeedsReview = needsReview
	}

	warnings = consistency.Check(deduped)
	byBorrower := make(map[string][]model.ConsistencyWarning, len(warnings))
	for _, w := range warnings {
		byBorrower[w.BorrowerID.String()] = append(byBorrower[w.BorrowerID.String()], w)
	}
	for i := range deduped {
		deduped[i].ConsistencyWarnings = byBorrower[deduped[i].ID.String()]
	}

	return deduped, validationErrors, warnings
}
