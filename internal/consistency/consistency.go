// Package consistency implements the Consistency Checker. It runs after deduplication and only emits warnings; it never
// mutates records.
package consistency

import (
	"fmt"
	"sort"

	"github.com/rezonia/docingest/internal/decimal"
	"github.com/rezonia/docingest/internal/model"
)

const (
	incomeDropRatio  = 0.5
	incomeSpikeRatio = 3.0
)

// Check runs all consistency rules over an already-deduplicated batch of
// borrowers (from one document) and returns the accumulated warnings.
func Check(borrowers []model.BorrowerRecord) []model.ConsistencyWarning {
	var warnings []model.ConsistencyWarning

	for _, b := range borrowers {
		warnings = append(warnings, addressConflict(b)...)
		warnings = append(warnings, incomeTrend(b)...)
	}

	warnings = append(warnings, crossDocumentMismatch(borrowers)...)
	return warnings
}

func addressConflict(b model.BorrowerRecord) []model.ConsistencyWarning {
	if len(b.Sources) > 1 && b.Address != nil && !b.Address.IsZero() {
		return []model.ConsistencyWarning{{
			Kind:       "ADDRESS_CONFLICT",
			BorrowerID: b.ID,
			Field:      "address",
			Message:    fmt.Sprintf("borrower %q has an address set but was assembled from %d sources; address may reflect a partial view", b.Name, len(b.Sources)),
			Details:    map[string]string{"source_count": fmt.Sprintf("%d", len(b.Sources))},
		}}
	}
	return nil
}

func incomeTrend(b model.BorrowerRecord) []model.ConsistencyWarning {
	if len(b.IncomeHistory) < 2 {
		return nil
	}

	sorted := append([]model.IncomeRecord{}, b.IncomeHistory...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	var warnings []model.ConsistencyWarning
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		prevAnnual := decimal.AnnualizedAmount(prev.Amount, prev.Period)
		currAnnual := decimal.AnnualizedAmount(curr.Amount, curr.Period)
		if prevAnnual.IsZero() {
			continue
		}
		ratio, _ := currAnnual.Div(prevAnnual).Float64()

		details := map[string]string{
			"year_from":   fmt.Sprintf("%d", prev.Year),
			"year_to":     fmt.Sprintf("%d", curr.Year),
			"amount_from": prev.Amount.String(),
			"amount_to":   curr.Amount.String(),
		}

		switch {
		case ratio < incomeDropRatio:
			warnings = append(warnings, model.ConsistencyWarning{
				Kind:       "INCOME_DROP",
				BorrowerID: b.ID,
				Field:      "income_history",
				Message:    fmt.Sprintf("income dropped more than 50%% between %d and %d", prev.Year, curr.Year),
				Details:    details,
			})
		case ratio > incomeSpikeRatio:
			warnings = append(warnings, model.ConsistencyWarning{
				Kind:       "INCOME_SPIKE",
				BorrowerID: b.ID,
				Field:      "income_history",
				Message:    fmt.Sprintf("income increased more than 300%% between %d and %d", prev.Year, curr.Year),
				Details:    details,
			})
		}
	}
	return warnings
}

func crossDocumentMismatch(borrowers []model.BorrowerRecord) []model.ConsistencyWarning {
	type entry struct {
		id    model.BorrowerRecord
		last4 string
	}

	byName := make(map[string][]entry)
	for _, b := range borrowers {
		name := model.NormalizedName(b.Name)
		if name == "" {
			continue
		}
		byName[name] = append(byName[name], entry{id: b, last4: model.SSNLast4(b.SSN)})
	}

	var warnings []model.ConsistencyWarning
	for name, entries := range byName {
		if len(entries) < 2 {
			continue
		}
		for i := 0; i < len(entries); i++ {
			for j := i + 1; j < len(entries); j++ {
				a, b := entries[i], entries[j]
				if a.last4 == "" || b.last4 == "" || a.last4 == b.last4 {
					continue
				}
				warnings = append(warnings, model.ConsistencyWarning{
					Kind:       "CROSS_DOC_MISMATCH",
					BorrowerID: a.id.ID,
					Field:      "ssn",
					Message:    fmt.Sprintf("borrowers named %q have differing SSN last-4 digits", name),
					Details:    map[string]string{"other_borrower_id": b.id.ID.String()},
				})
			}
		}
	}
	return warnings
}
