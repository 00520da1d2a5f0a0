// Package dedup implements the Deduplicator: it merges
// BorrowerRecords that refer to the same person, possibly extracted from
// multiple overlapping chunks of the same document.
package dedup

import (
	"github.com/rezonia/docingest/internal/model"
)

const (
	zipSimilarityThreshold    = 0.90
	strongNameThreshold       = 0.95
	ssnLast4SimilarityThreshold = 0.80
)

// Dedupe merges records referring to the same borrower and returns the
// merged list. Matching is transitive: if A matches B and B matches C, all
// three collapse into one record. The result is idempotent:
// Dedupe(Dedupe(xs)) == Dedupe(xs).
func Dedupe(records []model.BorrowerRecord) []model.BorrowerRecord {
	n := len(records)
	if n <= 1 {
		return append([]model.BorrowerRecord{}, records...)
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if matches(records[i], records[j]) {
				uf.union(i, j)
			}
		}
	}

	clusters := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		clusters[root] = append(clusters[root], i)
	}

	// Stable order: iterate clusters by the lowest original index they
	// contain, so output order doesn't depend on map iteration order.
	roots := make([]int, 0, len(clusters))
	for root := range clusters {
		roots = append(roots, root)
	}
	sortByFirstMember(roots, clusters)

	merged := make([]model.BorrowerRecord, 0, len(roots))
	for _, root := range roots {
		members := clusters[root]
		merged = append(merged, mergeCluster(records, members))
	}
	return merged
}

// matches applies the five priority-ordered match predicates; the first
// predicate that both records satisfy wins.
func matches(a, b model.BorrowerRecord) bool {
	// 1. normalized SSN equal
	if a.SSN != "" && b.SSN != "" {
		if normalizedSSN(a.SSN) == normalizedSSN(b.SSN) {
			return true
		}
	}

	// 2. shared account number (bank or loan)
	if sharesAccountNumber(a.AccountNumbers, b.AccountNumbers) {
		return true
	}

	nameSim := nameSimilarity(a.Name, b.Name)

	// 3. name >= 90% and zip match
	if nameSim >= zipSimilarityThreshold && zipsMatch(a.Address, b.Address) {
		return true
	}

	// 4. name >= 95%
	if nameSim >= strongNameThreshold {
		return true
	}

	// 5. name >= 80% and SSN last-4 match
	if nameSim >= ssnLast4SimilarityThreshold {
		la, lb := model.SSNLast4(a.SSN), model.SSNLast4(b.SSN)
		if la != "" && lb != "" && la == lb {
			return true
		}
	}

	return false
}

func normalizedSSN(ssn string) string {
	digits := make([]byte, 0, len(ssn))
	for i := 0; i < len(ssn); i++ {
		if ssn[i] >= '0' && ssn[i] <= '9' {
			digits = append(digits, ssn[i])
		}
	}
	return string(digits)
}

func sharesAccountNumber(a, b []model.AccountNumber) bool {
	set := make(map[string]struct{}, len(a))
	for _, acc := range a {
		set[acc.Number] = struct{}{}
	}
	for _, acc := range b {
		if _, ok := set[acc.Number]; ok {
			return true
		}
	}
	return false
}

func zipsMatch(a, b *model.Address) bool {
	if a == nil || b == nil {
		return false
	}
	za, zb := model.NormalizedZip(a.Zip), model.NormalizedZip(b.Zip)
	if za == "" || zb == "" {
		return false
	}
	return za == zb
}

func nameSimilarity(a, b string) float64 {
	na, nb := model.NormalizedName(a), model.NormalizedName(b)
	if na == "" || nb == "" {
		return 0
	}
	return model.FuzzyRatio(na, nb)
}

// mergeCluster picks the member with the highest confidence as the base and
// folds in the rest.
func mergeCluster(records []model.BorrowerRecord, members []int) model.BorrowerRecord {
	baseIdx := members[0]
	for _, idx := range members[1:] {
		if records[idx].Confidence > records[baseIdx].Confidence {
			baseIdx = idx
		}
	}

	merged := records[baseIdx]
	for _, idx := range members {
		if idx == baseIdx {
			continue
		}
		merged = merged.Merge(records[idx])
	}
	return merged
}

func sortByFirstMember(roots []int, clusters map[int][]int) {
	// simple insertion sort: the number of clusters is small relative to a
	// single document's extraction batch.
	min := func(s []int) int {
		m := s[0]
		for _, v := range s[1:] {
			if v < m {
				m = v
			}
		}
		return m
	}
	for i := 1; i < len(roots); i++ {
		for j := i; j > 0 && min(clusters[roots[j-1]]) > min(clusters[roots[j]]); j-- {
			roots[j-1], roots[j] = roots[j], roots[j-1]
		}
	}
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
