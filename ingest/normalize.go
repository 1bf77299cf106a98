package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"planscape/geo"
	"planscape/models"
)

// CountyResolver places a (state, county name) pair on a FIPS code.
type CountyResolver interface {
	ResolveCountyFips(state, countyName string) (string, bool)
}

// CountyNamer is implemented by resolvers that can name a county from its
// FIPS code. It fills the name when the table only carries codes.
type CountyNamer interface {
	CountyName(fips string) (string, bool)
}

// DropReason explains why a row produced no record.
type DropReason string

const (
	DropNone     DropReason = ""
	DropYear     DropReason = "year"
	DropIdentity DropReason = "identity"
	DropPrefix   DropReason = "contract_prefix"
	DropCounty   DropReason = "county"
)

var (
	yearRegexp         = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	embeddedFipsRegexp = regexp.MustCompile(`\(?\b(\d{5})\b\)?`)
	numericIDRegexp    = regexp.MustCompile(`^(\d+)\.0+$`)
	spaceRunRegexp     = regexp.MustCompile(`\s+`)
)

// maPrefixes are the contract prefixes kept: H (local MA and cost plans) and
// R (regional PPO). Drug-only and employer contracts are filtered out.
var maPrefixes = []string{"H", "R"}

// NormalizeRow turns one table row into a PlanRecord. The record is only
// usable when the returned reason is DropNone.
func NormalizeRow(row []string, fields FieldMap, resolver CountyResolver) (models.PlanRecord, DropReason) {
	year, ok := extractYear(fields.Get(row, FieldYear))
	if !ok {
		return models.PlanRecord{}, DropYear
	}

	contract := strings.ToUpper(cleanID(fields.Get(row, FieldContractID)))
	plan := cleanID(fields.Get(row, FieldPlanID))
	if contract == "" || plan == "" {
		return models.PlanRecord{}, DropIdentity
	}
	if !hasMAPrefix(contract) {
		return models.PlanRecord{}, DropPrefix
	}

	segment := cleanID(fields.Get(row, FieldSegmentID))
	if segment == "" {
		segment = models.DefaultSegmentID
	}

	state := strings.ToUpper(fields.Get(row, FieldState))
	countyCell := collapse(fields.Get(row, FieldCountyName))

	fips, countyName := resolveFips(fields.Get(row, FieldFips), countyCell, state, resolver)
	if fips == "" {
		return models.PlanRecord{}, DropCounty
	}
	if countyName == "" {
		if namer, ok := resolver.(CountyNamer); ok {
			countyName, _ = namer.CountyName(fips)
		}
	}

	rec := models.PlanRecord{
		Year:          year,
		ContractID:    contract,
		PlanID:        models.PadID(plan, 3),
		SegmentID:     models.PadID(segment, 3),
		OrgName:       collapse(fields.Get(row, FieldOrgName)),
		MarketingName: collapse(fields.Get(row, FieldPlanName)),
		PlanType:      collapse(fields.Get(row, FieldPlanType)),
		SNPType:       snpType(fields.Get(row, FieldSNPType)),
		CountyFips:    fips,
		State:         state,
		CountyName:    countyName,
	}
	if !rec.Valid() {
		return models.PlanRecord{}, DropIdentity
	}
	return rec, DropNone
}

// resolveFips tries, in order: the FIPS cell, a 5-digit code embedded in the
// county cell, and a gazetteer lookup by state and name.
func resolveFips(fipsCell, countyCell, state string, resolver CountyResolver) (fips, countyName string) {
	countyName = countyCell
	if m := embeddedFipsRegexp.FindStringSubmatchIndex(countyCell); m != nil {
		countyName = collapse(countyCell[:m[0]] + countyCell[m[1]:])
	}

	if d := digits(fipsCell); d != "" && len(d) <= 5 && strings.Trim(d, "0") != "" {
		return geo.PadFips(d), countyName
	}
	if m := embeddedFipsRegexp.FindStringSubmatch(countyCell); m != nil {
		return m[1], countyName
	}
	if resolver != nil && state != "" {
		if f, ok := resolver.ResolveCountyFips(state, countyName); ok {
			return f, countyName
		}
	}
	return "", countyName
}

func extractYear(cell string) (int, bool) {
	m := yearRegexp.FindString(cell)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	return y, err == nil
}

func hasMAPrefix(contract string) bool {
	for _, p := range maPrefixes {
		if strings.HasPrefix(contract, p) {
			return true
		}
	}
	return false
}

// cleanID trims an identifier and undoes spreadsheet float rendering ("1.0").
func cleanID(s string) string {
	s = strings.TrimSpace(s)
	if m := numericIDRegexp.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func snpType(s string) *string {
	s = collapse(s)
	switch strings.ToLower(s) {
	case "", "n/a", "na", "none", "no", "non-snp", "not applicable":
		return nil
	}
	return &s
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRunRegexp.ReplaceAllString(s, " "))
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
