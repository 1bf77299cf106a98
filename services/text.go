// Package services turns extracted document text into structured benefit
// fields. Every extractor is a proximity search over normalized lines.
package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"planscape/models"
)

var (
	// moneyRegexp captures the first dollar amount, with optional thousands
	// separators and cents.
	moneyRegexp = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+)(\.\d{1,2})?`)

	periodPatterns = []struct {
		period models.Period
		re     *regexp.Regexp
	}{
		{models.PeriodMonth, regexp.MustCompile(`(?i)\b(per|a|each|every)\s+month\b|\bmonthly\b|/\s?(month|mo)\b`)},
		{models.PeriodQuarter, regexp.MustCompile(`(?i)\b(per|a|each|every)\s+quarter\b|\bquarterly\b|\bevery\s+(3|three)\s+months\b|/\s?(quarter|qtr)\b`)},
		{models.PeriodYear, regexp.MustCompile(`(?i)\b(per|a|each|every)\s+(calendar\s+|plan\s+)?year\b|\b(annually|yearly|annual)\b|/\s?(year|yr)\b`)},
		{models.PeriodWeek, regexp.MustCompile(`(?i)\b(per|a|each|every)\s+week\b|\bweekly\b|/\s?(week|wk)\b`)},
	}

	notCoveredRegexp = regexp.MustCompile(`(?i)\bnot\s+(a\s+)?covered\b|\bno\s+coverage\b|\bnot\s+included\b`)
	coveredRegexp    = regexp.MustCompile(`(?i)\bno\s+charge\b|\$0(?:\.00)?(?:$|[^\d.,]|[.,](?:\D|$))|\bzero\b|\bcovered\b`)
)

// Normalized holds document text as non-blank, whitespace-collapsed lines,
// with a lowercased copy for matching.
type Normalized struct {
	Lines []string
	Lower []string
}

// Normalize strips carriage returns, collapses whitespace runs within each
// line and drops blank lines.
func Normalize(text string) Normalized {
	text = strings.ReplaceAll(text, "\r", "")
	var n Normalized
	for _, line := range strings.Split(text, "\n") {
		line = normaliseText(line)
		if line == "" {
			continue
		}
		n.Lines = append(n.Lines, line)
		n.Lower = append(n.Lower, strings.ToLower(line))
	}
	return n
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// FindNearby returns the first line matching re joined with up to radius lines
// on either side. Each line is tried lowercased and then as written, so a
// lowercase or (?i) pattern matches regardless of the document's casing.
func FindNearby(n Normalized, re *regexp.Regexp, radius int) (string, bool) {
	i := firstMatch(n, re)
	if i < 0 {
		return "", false
	}
	return window(n, i-radius, i+radius), true
}

// findAfter is FindNearby restricted to the matched line and the lines after
// it, where a label's value is printed most of the time.
func findAfter(n Normalized, re *regexp.Regexp, radius int) (string, bool) {
	i := firstMatch(n, re)
	if i < 0 {
		return "", false
	}
	return window(n, i, i+radius), true
}

func firstMatch(n Normalized, re *regexp.Regexp) int {
	for i, l := range n.Lower {
		if re.MatchString(l) || re.MatchString(n.Lines[i]) {
			return i
		}
	}
	return -1
}

func window(n Normalized, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(n.Lines)-1 {
		to = len(n.Lines) - 1
	}
	return strings.Join(n.Lines[from:to+1], " ")
}

// MoneyFrom parses the first dollar amount in s.
// Examples:
//
//	"Copay: $45.00 per visit" → 45
//	"up to $1,250 each year"  → 1250
func MoneyFrom(s string) *float64 {
	m := moneyRegexp.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "")+m[2], 64)
	if err != nil {
		return nil
	}
	return &v
}

// PeriodFrom classifies the billing cadence in s. When several cadences are
// mentioned, month beats quarter beats year beats week.
func PeriodFrom(s string) *models.Period {
	for _, p := range periodPatterns {
		if p.re.MatchString(s) {
			period := p.period
			return &period
		}
	}
	return nil
}

// HasCoveredWord classifies a snippet as covered (true), explicitly not
// covered (false) or undetermined (nil). Negative phrases are checked first
// since "not covered" contains "covered".
func HasCoveredWord(s string) *bool {
	var v bool
	switch {
	case notCoveredRegexp.MatchString(s):
		v = false
	case coveredRegexp.MatchString(s):
		v = true
	default:
		return nil
	}
	return &v
}
