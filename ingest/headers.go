package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMissingColumn is returned when a load-bearing column has no alias in
// the header row.
var ErrMissingColumn = errors.New("ingest: missing required column")

// Field is a logical landscape column.
type Field string

const (
	FieldYear       Field = "year"
	FieldContractID Field = "contractId"
	FieldPlanID     Field = "planId"
	FieldSegmentID  Field = "segmentId"
	FieldFips       Field = "fips"
	FieldState      Field = "state"
	FieldCountyName Field = "countyName"
	FieldOrgName    Field = "orgName"
	FieldPlanName   Field = "planName"
	FieldPlanType   Field = "planType"
	FieldSNPType    Field = "snpType"
)

// headerAliases lists accepted spellings per field, most preferred first.
// Spellings are compared after normalizeHeader.
var headerAliases = []struct {
	field   Field
	aliases []string
}{
	{FieldYear, []string{"contract year", "year", "plan year", "benefit year"}},
	{FieldContractID, []string{"contract id", "contract number", "contract", "h number"}},
	{FieldPlanID, []string{"plan id", "plan number", "pbp id", "pbp number", "pbp"}},
	{FieldSegmentID, []string{"segment id", "segment number", "segment"}},
	{FieldFips, []string{"county fips", "county fips code", "fips", "fips code", "fips county code", "ssa/fips"}},
	{FieldState, []string{"state territory abbreviation", "state abbreviation", "state abbr", "state code", "state", "st"}},
	{FieldCountyName, []string{"county name", "county"}},
	{FieldOrgName, []string{"organization marketing name", "organization name", "parent organization name", "org name", "organization"}},
	{FieldPlanName, []string{"plan name", "plan marketing name", "marketing name"}},
	{FieldPlanType, []string{"plan type", "organization type"}},
	{FieldSNPType, []string{"special needs plan type", "snp type", "snp indicator"}},
}

var headerSpaceRegexp = regexp.MustCompile(`[\s_\-]+`)

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.TrimSpace(headerSpaceRegexp.ReplaceAllString(h, " "))
}

// FieldMap records the column index resolved for each field.
type FieldMap map[Field]int

// Has reports whether f was resolved.
func (m FieldMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Get returns the trimmed cell for f, or "" if the field or cell is absent.
func (m FieldMap) Get(row []string, f Field) string {
	i, ok := m[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// matchAliases resolves every field it can without judging completeness.
func matchAliases(header []string) FieldMap {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, dup := pos[n]; !dup {
			pos[n] = i
		}
	}
	fields := make(FieldMap)
	for _, fa := range headerAliases {
		for _, alias := range fa.aliases {
			if i, ok := pos[alias]; ok {
				fields[fa.field] = i
				break
			}
		}
	}
	return fields
}

// ResolveHeaderAliases maps a header row to column indices. Year, contract
// and plan columns are load-bearing; their absence is an error.
func ResolveHeaderAliases(header []string) (FieldMap, error) {
	fields := matchAliases(header)
	var missing []string
	for _, f := range []Field{FieldYear, FieldContractID, FieldPlanID} {
		if !fields.Has(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return fields, nil
}

// qualifies reports whether header can serve as the landscape table: year,
// contract, plan and some county identity must all be present.
func qualifies(header []string) (FieldMap, bool) {
	fields, err := ResolveHeaderAliases(header)
	if err != nil {
		return nil, false
	}
	if !fields.Has(FieldCountyName) && !fields.Has(FieldFips) {
		return nil, false
	}
	return fields, true
}
