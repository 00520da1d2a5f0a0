package dedup_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docingest/internal/dedup"
	"github.com/rezonia/docingest/internal/model"
)

func record(name, ssn string, confidence float64) model.BorrowerRecord {
	return model.BorrowerRecord{
		ID:         uuid.New(),
		Name:       name,
		SSN:        ssn,
		Confidence: confidence,
	}
}

func idSet(records []model.BorrowerRecord) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(records))
	for _, r := range records {
		set[r.ID] = struct{}{}
	}
	return set
}

func TestDedupe_EmptyAndSingleRecordPassThrough(t *testing.T) {
	assert.Empty(t, dedup.Dedupe(nil))

	only := []model.BorrowerRecord{record("Jane Doe", "123-45-6789", 0.9)}
	out := dedup.Dedupe(only)
	require.Len(t, out, 1)
	assert.Equal(t, only[0].ID, out[0].ID)
}

func TestDedupe_ExactSSNMatchMerges(t *testing.T) {
	a := record("Jane Doe", "123-45-6789", 0.6)
	b := record("Jane Doe", "123456789", 0.9)

	out := dedup.Dedupe([]model.BorrowerRecord{a, b})
	require.Len(t, out, 1)
	// Higher-confidence member becomes the base.
	assert.Equal(t, b.ID, out[0].ID)
}

func TestDedupe_SharedAccountNumberMerges(t *testing.T) {
	a := record("Jane Doe", "", 0.5)
	a.AccountNumbers = []model.AccountNumber{{Number: "ACCT-1", Type: model.AccountLoan}}
	b := record("J Doe", "", 0.5)
	b.AccountNumbers = []model.AccountNumber{{Number: "ACCT-1", Type: model.AccountLoan}}

	out := dedup.Dedupe([]model.BorrowerRecord{a, b})
	require.Len(t, out, 1)
}

func TestDedupe_NameAndZipMatchMerges(t *testing.T) {
	a := record("Jonathan Smith", "", 0.5)
	a.Address = &model.Address{Zip: "94107"}
	b := record("Jonathan Smith", "", 0.5)
	b.Address = &model.Address{Zip: "94107-1234"}

	out := dedup.Dedupe([]model.BorrowerRecord{a, b})
	require.Len(t, out, 1)
}

func TestDedupe_StrongNameMatchAloneMerges(t *testing.T) {
	a := record("Jonathan Smith", "", 0.5)
	b := record("Jonathan Smith", "", 0.5)

	out := dedup.Dedupe([]model.BorrowerRecord{a, b})
	require.Len(t, out, 1)
}

func TestDedupe_NameAndSSNLast4Merges(t *testing.T) {
	a := record("Jonathan Smith", "111-22-6789", 0.5)
	b := record("Jonathan Smithe", "999-88-6789", 0.5)

	out := dedup.Dedupe([]model.BorrowerRecord{a, b})
	require.Len(t, out, 1)
}

func TestDedupe_UnrelatedRecordsStaySeparate(t *testing.T) {
	a := record("Jonathan Smith", "111-22-3333", 0.5)
	b := record("Maria Garcia", "444-55-6666", 0.5)

	out := dedup.Dedupe([]model.BorrowerRecord{a, b})
	assert.Len(t, out, 2)
}

func TestDedupe_TransitiveChainCollapsesIntoOneRecord(t *testing.T) {
	a := record("Jonathan Smith", "111-22-3333", 0.4)
	b := record("Jonathan Smith", "", 0.5) // matches a on strong name only
	b.AccountNumbers = []model.AccountNumber{{Number: "ACCT-9", Type: model.AccountBank}}
	c := record("J. Smith Jr", "", 0.6) // matches b on shared account number only
	c.AccountNumbers = []model.AccountNumber{{Number: "ACCT-9", Type: model.AccountBank}}

	out := dedup.Dedupe([]model.BorrowerRecord{a, b, c})
	require.Len(t, out, 1)
	assert.Equal(t, c.ID, out[0].ID, "highest-confidence member becomes the merge base")
}

func TestDedupe_IsIdempotent(t *testing.T) {
	a := record("Jonathan Smith", "111-22-3333", 0.4)
	b := record("Jonathan Smith", "111223333", 0.9)
	c := record("Maria Garcia", "444-55-6666", 0.7)

	once := dedup.Dedupe([]model.BorrowerRecord{a, b, c})
	twice := dedup.Dedupe(once)

	assert.Equal(t, idSet(once), idSet(twice))
	assert.Len(t, twice, len(once))
}

func TestDedupe_IsCommutativeUnderInputPermutation(t *testing.T) {
	a := record("Jonathan Smith", "111-22-3333", 0.4)
	b := record("Jonathan Smith", "111223333", 0.9)
	c := record("Maria Garcia", "444-55-6666", 0.7)
	d := record("Maria Garcia", "444556666", 0.3)

	forward := dedup.Dedupe([]model.BorrowerRecord{a, b, c, d})
	reversed := dedup.Dedupe([]model.BorrowerRecord{d, c, b, a})
	shuffled := dedup.Dedupe([]model.BorrowerRecord{c, a, d, b})

	assert.Equal(t, idSet(forward), idSet(reversed))
	assert.Equal(t, idSet(forward), idSet(shuffled))
	assert.Len(t, forward, 2)
}

func TestDedupe_MergedRecordUnionsIncomeAndAccounts(t *testing.T) {
	a := record("Jonathan Smith", "111-22-3333", 0.5)
	a.IncomeHistory = []model.IncomeRecord{{Year: 2024, Amount: decimal.NewFromInt(1000)}}
	a.AccountNumbers = []model.AccountNumber{{Number: "ACCT-1", Type: model.AccountBank}}

	b := record("Jonathan Smith", "111223333", 0.5)
	b.IncomeHistory = []model.IncomeRecord{{Year: 2025, Amount: decimal.NewFromInt(2000)}}
	b.AccountNumbers = []model.AccountNumber{{Number: "ACCT-2", Type: model.AccountLoan}}

	out := dedup.Dedupe([]model.BorrowerRecord{a, b})
	require.Len(t, out, 1)
	assert.Len(t, out[0].IncomeHistory, 2)
	assert.Len(t, out[0].AccountNumbers, 2)
}
