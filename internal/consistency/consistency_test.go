package consistency_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docingest/internal/consistency"
	"github.com/rezonia/docingest/internal/model"
)

func warningKinds(warnings []model.ConsistencyWarning) []string {
	kinds := make([]string, len(warnings))
	for i, w := range warnings {
		kinds[i] = w.Kind
	}
	return kinds
}

func TestCheck_NoWarningsForCleanSingleSourceBorrower(t *testing.T) {
	b := model.BorrowerRecord{
		ID:      uuid.New(),
		Name:    "Jane Doe",
		Sources: []model.SourceReference{{Section: "page1"}},
	}

	warnings := consistency.Check([]model.BorrowerRecord{b})
	assert.Empty(t, warnings)
}

func TestCheck_AddressConflictWhenMultiSourceWithAddress(t *testing.T) {
	b := model.BorrowerRecord{
		ID:      uuid.New(),
		Name:    "Jane Doe",
		Address: &model.Address{Street: "1 Main St"},
		Sources: []model.SourceReference{{Section: "page1"}, {Section: "page2"}},
	}

	warnings := consistency.Check([]model.BorrowerRecord{b})
	require.Len(t, warnings, 1)
	assert.Equal(t, "ADDRESS_CONFLICT", warnings[0].Kind)
	assert.Equal(t, b.ID, warnings[0].BorrowerID)
}

func TestCheck_NoAddressConflictWhenAddressMissingOrSingleSource(t *testing.T) {
	withoutAddress := model.BorrowerRecord{
		ID:      uuid.New(),
		Sources: []model.SourceReference{{Section: "p1"}, {Section: "p2"}},
	}
	singleSource := model.BorrowerRecord{
		ID:      uuid.New(),
		Address: &model.Address{Street: "1 Main St"},
		Sources: []model.SourceReference{{Section: "p1"}},
	}

	assert.Empty(t, consistency.Check([]model.BorrowerRecord{withoutAddress}))
	assert.Empty(t, consistency.Check([]model.BorrowerRecord{singleSource}))
}

func TestCheck_IncomeDropBelowHalfIsFlagged(t *testing.T) {
	b := model.BorrowerRecord{
		ID: uuid.New(),
		IncomeHistory: []model.IncomeRecord{
			{Year: 2023, Amount: decimal.NewFromInt(100000), Period: model.PeriodAnnual},
			{Year: 2024, Amount: decimal.NewFromInt(40000), Period: model.PeriodAnnual},
		},
	}

	warnings := consistency.Check([]model.BorrowerRecord{b})
	require.Len(t, warnings, 1)
	assert.Equal(t, "INCOME_DROP", warnings[0].Kind)
}

func TestCheck_IncomeSpikeAboveThreeXIsFlagged(t *testing.T) {
	b := model.BorrowerRecord{
		ID: uuid.New(),
		IncomeHistory: []model.IncomeRecord{
			{Year: 2023, Amount: decimal.NewFromInt(50000), Period: model.PeriodAnnual},
			{Year: 2024, Amount: decimal.NewFromInt(200000), Period: model.PeriodAnnual},
		},
	}

	warnings := consistency.Check([]model.BorrowerRecord{b})
	require.Len(t, warnings, 1)
	assert.Equal(t, "INCOME_SPIKE", warnings[0].Kind)
}

func TestCheck_StableIncomeIsNotFlagged(t *testing.T) {
	b := model.BorrowerRecord{
		ID: uuid.New(),
		IncomeHistory: []model.IncomeRecord{
			{Year: 2023, Amount: decimal.NewFromInt(90000), Period: model.PeriodAnnual},
			{Year: 2024, Amount: decimal.NewFromInt(95000), Period: model.PeriodAnnual},
		},
	}

	assert.Empty(t, consistency.Check([]model.BorrowerRecord{b}))
}

func TestCheck_IncomeTrendComparesAnnualizedAmountsAcrossPeriods(t *testing.T) {
	// Monthly 10,000 annualizes to 120,000; a drop to an annual 40,000 is a
	// real drop once both are placed on the same yearly basis.
	b := model.BorrowerRecord{
		ID: uuid.New(),
		IncomeHistory: []model.IncomeRecord{
			{Year: 2023, Amount: decimal.NewFromInt(10000), Period: model.PeriodMonthly},
			{Year: 2024, Amount: decimal.NewFromInt(40000), Period: model.PeriodAnnual},
		},
	}

	warnings := consistency.Check([]model.BorrowerRecord{b})
	require.Len(t, warnings, 1)
	assert.Equal(t, "INCOME_DROP", warnings[0].Kind)
}

func TestCheck_CrossDocumentMismatchForSameNameDifferentSSNLast4(t *testing.T) {
	a := model.BorrowerRecord{ID: uuid.New(), Name: "Jane Doe", SSN: "123-45-6789"}
	b := model.BorrowerRecord{ID: uuid.New(), Name: "Jane Doe", SSN: "987-65-4321"}

	warnings := consistency.Check([]model.BorrowerRecord{a, b})
	require.Len(t, warnings, 1)
	assert.Equal(t, "CROSS_DOC_MISMATCH", warnings[0].Kind)
}

func TestCheck_NoCrossDocumentMismatchWhenSSNLast4Matches(t *testing.T) {
	a := model.BorrowerRecord{ID: uuid.New(), Name: "Jane Doe", SSN: "123-45-6789"}
	b := model.BorrowerRecord{ID: uuid.New(), Name: "Jane Doe", SSN: "987-65-6789"}

	assert.Empty(t, consistency.Check([]model.BorrowerRecord{a, b}))
}

func TestCheck_NoCrossDocumentMismatchWhenSSNMissing(t *testing.T) {
	a := model.BorrowerRecord{ID: uuid.New(), Name: "Jane Doe"}
	b := model.BorrowerRecord{ID: uuid.New(), Name: "Jane Doe"}

	assert.Empty(t, consistency.Check([]model.BorrowerRecord{a, b}))
}

func TestCheck_NeverMutatesInputRecords(t *testing.T) {
	b := model.BorrowerRecord{
		ID:      uuid.New(),
		Name:    "Jane Doe",
		Address: &model.Address{Street: "1 Main St"},
		Sources: []model.SourceReference{{Section: "p1"}, {Section: "p2"}},
	}
	before := b

	_ = consistency.Check([]model.BorrowerRecord{b})

	assert.Equal(t, before.Name, b.Name)
	assert.Equal(t, before.Address, b.Address)
	assert.Len(t, b.ConsistencyWarnings, 0, "Check returns warnings, it does not attach them to the record")
}

func TestCheck_AccumulatesWarningsAcrossMultipleBorrowers(t *testing.T) {
	withAddress := model.BorrowerRecord{
		ID:      uuid.New(),
		Name:    "Jane Doe",
		Address: &model.Address{Street: "1 Main St"},
		Sources: []model.SourceReference{{Section: "p1"}, {Section: "p2"}},
	}
	withIncomeDrop := model.BorrowerRecord{
		ID:   uuid.New(),
		Name: "John Roe",
		IncomeHistory: []model.IncomeRecord{
			{Year: 2023, Amount: decimal.NewFromInt(100000), Period: model.PeriodAnnual},
			{Year: 2024, Amount: decimal.NewFromInt(30000), Period: model.PeriodAnnual},
		},
	}

	warnings := consistency.Check([]model.BorrowerRecord{withAddress, withIncomeDrop})
	assert.ElementsMatch(t, []string{"ADDRESS_CONFLICT", "INCOME_DROP"}, warningKinds(warnings))
}
