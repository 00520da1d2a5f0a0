package extraction

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rezonia/docingest/internal/model"
)

// recordFromLLM builds a BorrowerRecord's identity and child entities from a
// single chunk-level LLM borrower, minting a fresh ID. Sources are filled in
// separately by each strategy: docling attaches page numbers, langextract
// attaches translated character offsets.
func recordFromLLM(lb llmBorrower) model.BorrowerRecord {
	return model.BorrowerRecord{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(lb.Name),
		SSN:            strings.TrimSpace(lb.SSN),
		Phone:          strings.TrimSpace(lb.Phone),
		Address:        toAddress(lb.Address),
		IncomeHistory:  toIncomeHistory(lb.IncomeHistory),
		AccountNumbers: toAccountNumbers(lb.AccountNumbers),
	}
}

func toAddress(a *llmAddress) *model.Address {
	if a == nil {
		return nil
	}
	addr := model.Address{Street: a.Street, City: a.City, State: a.State, Zip: a.Zip}
	if addr.IsZero() {
		return nil
	}
	return &addr
}

func toIncomeHistory(items []llmIncome) []model.IncomeRecord {
	out := make([]model.IncomeRecord, 0, len(items))
	for _, it := range items {
		out = append(out, model.IncomeRecord{
			Amount:     parseDecimal(it.Amount),
			Period:     model.NormalizeIncomePeriod(it.Period),
			Year:       it.Year,
			SourceType: strings.TrimSpace(it.SourceType),
			Employer:   strings.TrimSpace(it.Employer),
		})
	}
	return out
}

func toAccountNumbers(items []llmAccount) []model.AccountNumber {
	out := make([]model.AccountNumber, 0, len(items))
	for _, it := range items {
		t := model.AccountType(strings.ToLower(strings.TrimSpace(it.Type)))
		if t != model.AccountBank && t != model.AccountLoan {
			t = model.AccountBank
		}
		out = append(out, model.AccountNumber{Number: strings.TrimSpace(it.Number), Type: t})
	}
	return out
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
