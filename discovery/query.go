package discovery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"planscape/models"
)

// MarkerPhrase names the document class being looked for.
const MarkerPhrase = "Summary of Benefits"

var markerRegexp = regexp.MustCompile(`(?i)summary\s+of\s+benefits`)

// Combo is the contract and plan identifier pair as printed on plan
// documents, e.g. "H1234-001".
func Combo(p models.PlanDescriptor) string {
	return p.ContractID + "-" + p.PlanID
}

// BuildQueries returns search queries for p, most specific first.
func BuildQueries(p models.PlanDescriptor) []string {
	suffix := fmt.Sprintf(`%d "%s"`, p.Year, MarkerPhrase)
	combo := `"` + Combo(p) + `"`

	queries := []string{combo + " " + suffix}
	if p.OrgName != "" {
		queries = append(queries, combo+" "+p.OrgName+" "+suffix)
	}
	if p.MarketingName != "" {
		queries = append(queries, `"`+p.MarketingName+`" `+suffix)
	}
	return queries
}

// Matcher decides whether extracted document text belongs to one plan.
type Matcher struct {
	combo *regexp.Regexp
	year  *regexp.Regexp
}

// NewMatcher compiles the acceptance patterns for p.
func NewMatcher(p models.PlanDescriptor) *Matcher {
	plan := strings.TrimLeft(p.PlanID, "0")
	if plan == "" {
		plan = "0"
	}
	combo := `(?i)\b` + regexp.QuoteMeta(p.ContractID) + `[\s\-_/]*0*` + regexp.QuoteMeta(plan) + `\b`
	return &Matcher{
		combo: regexp.MustCompile(combo),
		year:  regexp.MustCompile(`\b` + strconv.Itoa(p.Year) + `\b`),
	}
}

// Accepts reports whether text carries the plan's identifier, the target
// year and the marker phrase. All three are required.
func (m *Matcher) Accepts(text string) bool {
	return m.combo.MatchString(text) && m.year.MatchString(text) && markerRegexp.MatchString(text)
}
