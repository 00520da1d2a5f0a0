package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomePeriod is the normalized income cadence.
type IncomePeriod string

const (
	PeriodAnnual   IncomePeriod = "annual"
	PeriodMonthly  IncomePeriod = "monthly"
	PeriodWeekly   IncomePeriod = "weekly"
	PeriodBiweekly IncomePeriod = "biweekly"
)

func NormalizeIncomePeriod(s string) IncomePeriod {
	return IncomePeriod(strings.ToLower(strings.TrimSpace(s)))
}

func (p IncomePeriod) Valid() bool {
	switch p {
	case PeriodAnnual, PeriodMonthly, PeriodWeekly, PeriodBiweekly:
		return true
	default:
		return false
	}
}

// IncomeRecord is owned by a Borrower.
type IncomeRecord struct {
	Amount     decimal.Decimal
	Period     IncomePeriod
	Year       int
	SourceType string // "employment", "self-employment", "other"
	Employer   string
}

// dedupKey identifies an IncomeRecord for the dedup union: records are
// de-duplicated by (year, amount, source_type, employer).
func (r IncomeRecord) dedupKey() string {
	return fmt.Sprintf("%d|%s|%s|%s", r.Year, r.Amount.String(), r.SourceType, r.Employer)
}

// AccountType distinguishes bank accounts from loan accounts in the
// AccountNumber entity.
type AccountType string

const (
	AccountBank AccountType = "bank"
	AccountLoan AccountType = "loan"
)

// AccountNumber is owned by a Borrower.
type AccountNumber struct {
	Number string
	Type   AccountType
}

// Address is the structured shape a BorrowerRecord carries during the
// pipeline; Borrower persists it as an optional serialized string instead.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

// Serialize renders the address as the single string persisted on Borrower.
func (a Address) Serialize() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.Zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

func (a Address) IsZero() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.Zip == ""
}

// NormalizedZip strips the optional "+4" suffix for comparison purposes.
func NormalizedZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if i := strings.IndexAny(zip, "-"); i >= 0 {
		return zip[:i]
	}
	if len(zip) > 5 {
		return zip[:5]
	}
	return zip
}

// SourceReference is a per-field provenance record. CharStart/CharEnd are
// either both present or both absent, and are raw-text offsets.
type SourceReference struct {
	DocumentID uuid.UUID
	Page       int
	Section    string
	Snippet    string
	CharStart  *int
	CharEnd    *int
}

// ConsistencyWarning is emitted by the Consistency Checker. It never mutates records, only flags them for human review.
type ConsistencyWarning struct {
	Kind       string // ADDRESS_CONFLICT, INCOME_DROP, INCOME_SPIKE, CROSS_DOC_MISMATCH
	BorrowerID uuid.UUID
	Field      string
	Message    string
	Details    map[string]string
}

// BorrowerRecord is the canonical extracted-borrower shape that flows
// through dedup -> validate -> score -> consistency before persistence. A
// stable ID is minted at creation time (by the extraction strategy) so that
// later stages can reference "this borrower" before any DB round trip.
type BorrowerRecord struct {
	ID                  uuid.UUID
	Name                string
	SSN                 string // as extracted (XXX-XX-XXXX once validated); only its hash reaches Borrower
	Phone               string
	Address             *Address
	IncomeHistory       []IncomeRecord
	AccountNumbers      []AccountNumber
	Sources             []SourceReference
	Confidence          float64
	NeedsReview         bool
	ConsistencyWarnings []ConsistencyWarning
}

// mergeIncome unions two income-history slices, de-duplicating by
// (year, amount, source_type, employer).
func mergeIncome(a, b []IncomeRecord) []IncomeRecord {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]IncomeRecord, 0, len(a)+len(b))
	for _, r := range append(append([]IncomeRecord{}, a...), b...) {
		k := r.dedupKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// mergeAccounts unions account numbers by exact (number, type) match.
func mergeAccounts(a, b []AccountNumber) []AccountNumber {
	seen := make(map[AccountNumber]struct{}, len(a)+len(b))
	out := make([]AccountNumber, 0, len(a)+len(b))
	for _, acc := range append(append([]AccountNumber{}, a...), b...) {
		if _, ok := seen[acc]; ok {
			continue
		}
		seen[acc] = struct{}{}
		out = append(out, acc)
	}
	return out
}

// Merge combines other into a clone of b, keeping b's identity fields but
// unioning children. Caller picks which of the cluster is the "base" (b)
// before calling Merge.
func (b BorrowerRecord) Merge(other BorrowerRecord) BorrowerRecord {
	merged := b
	merged.IncomeHistory = mergeIncome(b.IncomeHistory, other.IncomeHistory)
	merged.AccountNumbers = mergeAccounts(b.AccountNumbers, other.AccountNumbers)
	merged.Sources = append(append([]SourceReference{}, b.Sources...), other.Sources...)

	if merged.Address == nil {
		merged.Address = other.Address
	}
	if merged.SSN == "" {
		merged.SSN = other.SSN
	}
	if merged.Confidence < other.Confidence {
		merged.Confidence = other.Confidence
	}
	return merged
}

// NormalizedName collapses whitespace and lowercases for fuzzy comparisons.
func NormalizedName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, " ")
}

// FuzzyRatio is a Levenshtein-ratio similarity in [0,1]: (lenSum - distance)
// / lenSum. Shared by the Deduplicator (name matching) and the Offset
// Translator (post-translation verification).
func FuzzyRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	dist := levenshteinDistance(a, b)
	lenSum := len(a) + len(b)
	if lenSum == 0 {
		return 1
	}
	return float64(lenSum-dist) / float64(lenSum)
}

func levenshteinDistance(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// SSNLast4 returns the last four digits of a normalized SSN, or "" if too short.
func SSNLast4(ssn string) string {
	digits := onlyDigits(ssn)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Borrower is the persistent record produced from a successful extraction.
// Core identity fields are immutable once created; re-extraction of the
// same document yields new Borrower rows, never an update in place.
type Borrower struct {
	ID              uuid.UUID
	DocumentID      uuid.UUID
	Name            string
	SSNHash         *string // sha256 hex, 64 chars; raw SSN never persisted
	Address         *string
	ConfidenceScore float64
	CreatedAt       time.Time
	IncomeRecords   []IncomeRecord
	AccountNumbers  []AccountNumber
	Sources         []SourceReference
}

// ClampConfidence enforces the [0,1] invariant on Borrower.ConfidenceScore.
func ClampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
