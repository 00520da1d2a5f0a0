// Package confidence implements the Confidence Scorer:
// a deterministic, pure function over a BorrowerRecord.
package confidence

import (
	"github.com/rezonia/docingest/internal/model"
	"github.com/rezonia/docingest/internal/validator"
)

const (
	base                 = 0.50
	requiredFieldBonus   = 0.10
	requiredFieldCap     = 0.20
	optionalFieldBonus   = 0.05
	optionalFieldCap     = 0.15
	multiSourceBonus     = 0.10
	formatValidationBonus = 0.15
	needsReviewThreshold = 0.70
)

// Score computes the [0,1] confidence score for rec and reports whether
// rec.NeedsReview should be set. It does not mutate rec.
func Score(rec model.BorrowerRecord) (score float64, needsReview bool) {
	score = base

	required := 0.0
	if rec.Name != "" {
		required += requiredFieldBonus
	}
	if rec.Address != nil && !rec.Address.IsZero() {
		required += requiredFieldBonus
	}
	if required > requiredFieldCap {
		required = requiredFieldCap
	}
	score += required

	optional := 0.0
	if len(rec.IncomeHistory) > 0 {
		optional += optionalFieldBonus
	}
	if hasAccountType(rec.AccountNumbers, model.AccountBank) {
		optional += optionalFieldBonus
	}
	if hasAccountType(rec.AccountNumbers, model.AccountLoan) {
		optional += optionalFieldBonus
	}
	if optional > optionalFieldCap {
		optional = optionalFieldCap
	}
	score += optional

	if len(rec.Sources) >= 2 {
		score += multiSourceBonus
	}

	if allFieldsValid(rec) {
		score += formatValidationBonus
	}

	score = model.ClampConfidence(score)
	return score, score < needsReviewThreshold
}

func hasAccountType(accounts []model.AccountNumber, t model.AccountType) bool {
	for _, a := range accounts {
		if a.Type == t {
			return true
		}
	}
	return false
}

func allFieldsValid(rec model.BorrowerRecord) bool {
	if rec.SSN == "" || !validator.ValidateSSN(rec.SSN).OK {
		return false
	}
	if rec.Phone != "" && !validator.ValidatePhone(rec.Phone).OK {
		return false
	}
	if rec.Address != nil && rec.Address.Zip != "" && !validator.ValidateZIP(rec.Address.Zip).OK {
		return false
	}
	for _, inc := range rec.IncomeHistory {
		if !validator.ValidateYearInt(inc.Year).OK {
			return false
		}
	}
	return true
}
