// Package validator implements the Field Validator:
// pure normalize-and-validate functions for SSN, phone, ZIP, and year.
package validator

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of validating a single field.
type Result struct {
	OK         bool
	Normalized string
	Reason     string
}

func fail(reason string) Result {
	return Result{OK: false, Reason: reason}
}

func ok(normalized string) Result {
	return Result{OK: true, Normalized: normalized}
}

var ssnDigitsRe = regexp.MustCompile(`^\d{9}$`)

// ValidateSSN accepts 9 digits, optionally separated by "-" or spaces, and
// normalizes to XXX-XX-XXXX. Rejects all-equal digits and invalid area
// numbers (000, 666, 9xx).
func ValidateSSN(raw string) Result {
	s := strings.TrimSpace(raw)
	digits := strings.NewReplacer("-", "", " ", "").Replace(s)
	if !ssnDigitsRe.MatchString(digits) {
		return fail("must be 9 digits, optionally separated by - or spaces")
	}

	allSame := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fail("all digits equal is not a valid SSN")
	}

	area := digits[0:3]
	if area == "000" || area == "666" || area[0] == '9' {
		return fail("invalid SSN area number")
	}

	normalized := digits[0:3] + "-" + digits[3:5] + "-" + digits[5:9]
	return ok(normalized)
}

var phoneDigitsRe = regexp.MustCompile(`^\d{10,11}$`)

// ValidatePhone accepts 10 digits optionally prefixed with a leading "1"
// country code, normalizing to (XXX) XXX-XXXX.
func ValidatePhone(raw string) Result {
	s := strings.TrimSpace(raw)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)

	if !phoneDigitsRe.MatchString(digits) {
		return fail("must be 10 digits, optionally country-code-prefixed by 1")
	}
	if len(digits) == 11 {
		if digits[0] != '1' {
			return fail("11-digit phone must be prefixed with country code 1")
		}
		digits = digits[1:]
	}

	normalized := "(" + digits[0:3] + ") " + digits[3:6] + "-" + digits[6:10]
	return ok(normalized)
}

var zipRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// ValidateZIP accepts DDDDD or DDDDD-DDDD, normalizing by stripping internal
// whitespace.
func ValidateZIP(raw string) Result {
	s := strings.TrimSpace(raw)
	stripped := strings.ReplaceAll(s, " ", "")
	if !zipRe.MatchString(stripped) {
		return fail("must be DDDDD or DDDDD-DDDD")
	}
	return ok(stripped)
}

// ValidateYear accepts an integer in [1950, current_year+1].
func ValidateYear(raw string) Result {
	s := strings.TrimSpace(raw)
	year, err := strconv.Atoi(s)
	if err != nil {
		return fail("must be an integer year")
	}
	return ValidateYearInt(year)
}

// ValidateYearInt is the integer-typed counterpart of ValidateYear, used
// when the caller already has a parsed year (e.g. an IncomeRecord.Year).
func ValidateYearInt(year int) Result {
	max := time.Now().Year() + 1
	if year < 1950 || year > max {
		return fail("year out of range")
	}
	return ok(strconv.Itoa(year))
}
