package services

import (
	"fmt"
	"sort"
	"strings"

	"planscape/models"
	"planscape/utils"
)

// topOTCCount bounds CoverageReport.TopOTC.
const topOTCCount = 5

// InsightService builds the end-of-run coverage report for extracted plans.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarizes records. sources is the number of plans attempted.
func (s *InsightService) Generate(year, sources int, records []*models.BenefitRecord) *models.CoverageReport {
	report := &models.CoverageReport{
		Year:        year,
		Sources:     sources,
		Extracted:   len(records),
		Failed:      sources - len(records),
		FieldsFound: make(map[string]int),
		TopOTC:      []models.AllowanceEntry{},
	}
	if len(records) == 0 {
		return report
	}

	var pcpTotal float64
	var pcpCount int
	for _, r := range records {
		for name, found := range presentFields(r) {
			if found {
				report.FieldsFound[name]++
			}
		}

		if v := r.Medical.PrimaryCareCopay; v != nil {
			pcpTotal += *v
			pcpCount++
		}
		if v := r.Medical.MaxOutOfPocket; v != nil {
			if report.MinMaxOutOfPocket == nil || *v < *report.MinMaxOutOfPocket {
				report.MinMaxOutOfPocket = float64Ptr(*v)
			}
			if report.MaxMaxOutOfPocket == nil || *v > *report.MaxMaxOutOfPocket {
				report.MaxMaxOutOfPocket = float64Ptr(*v)
			}
		}
		if annual, ok := Annualize(r.Supplemental.OTCAmount, r.Supplemental.OTCPeriod); ok {
			name := ""
			if r.PlanMeta.MarketingName != nil {
				name = *r.PlanMeta.MarketingName
			}
			report.TopOTC = append(report.TopOTC, models.AllowanceEntry{
				CMSPlanKey: r.CMSPlanKey, MarketingName: name, Annual: annual,
			})
		}
	}

	if pcpCount > 0 {
		report.AvgPrimaryCareCopay = float64Ptr(round2(pcpTotal / float64(pcpCount)))
	}

	sort.SliceStable(report.TopOTC, func(i, j int) bool {
		if report.TopOTC[i].Annual != report.TopOTC[j].Annual {
			return report.TopOTC[i].Annual > report.TopOTC[j].Annual
		}
		return report.TopOTC[i].CMSPlanKey < report.TopOTC[j].CMSPlanKey
	})
	if len(report.TopOTC) > topOTCCount {
		report.TopOTC = report.TopOTC[:topOTCCount]
	}
	return report
}

// presentFields reports, per output field, whether the record carries a value.
func presentFields(r *models.BenefitRecord) map[string]bool {
	m, n, sp := r.Medical, r.Nutrition, r.Supplemental
	return map[string]bool{
		"primaryCareCopay": m.PrimaryCareCopay != nil,
		"specialistCopay":  m.SpecialistCopay != nil,
		"urgentCareCopay":  m.UrgentCareCopay != nil,
		"emergencyCopay":   m.EmergencyCopay != nil,
		"maxOutOfPocket":   m.MaxOutOfPocket != nil,
		"monthlyPremium":   m.MonthlyPremium != nil,
		"mntCovered":       n.MNTCovered != nil,
		"mealsCovered":     n.MealsCovered != nil,
		"otcAmount":        sp.OTCAmount != nil,
		"flexCardAmount":   sp.FlexCardAmount != nil,
		"fitnessProgram":   sp.FitnessProgram != nil,
		"dentalAllowance":  sp.DentalAllowance != nil,
	}
}

// Annualize scales an allowance to a yearly amount. An unknown period is
// taken as yearly.
func Annualize(amount *float64, period *models.Period) (float64, bool) {
	if amount == nil {
		return 0, false
	}
	factor := 1.0
	if period != nil {
		switch *period {
		case models.PeriodMonth:
			factor = 12
		case models.PeriodQuarter:
			factor = 4
		case models.PeriodWeek:
			factor = 52
		}
	}
	return round2(*amount * factor), true
}

func (s *InsightService) Print(r *models.CoverageReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  BENEFIT EXTRACTION COVERAGE %d\033[0m\n", r.Year)
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Sources attempted : \033[1m%d\033[0m\n", r.Sources)
	fmt.Printf("  Plans extracted   : \033[1m%d\033[0m\n", r.Extracted)
	fmt.Printf("  Plans failed      : \033[1m%d\033[0m\n", r.Failed)
	fmt.Println()

	fmt.Printf("\033[1;33m  Medical\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AvgPrimaryCareCopay != nil {
		fmt.Printf("  Average PCP copay : \033[1;32m$%.2f\033[0m\n", *r.AvgPrimaryCareCopay)
	} else {
		fmt.Printf("  No primary care copays found\n")
	}
	if r.MinMaxOutOfPocket != nil {
		fmt.Printf("  MOOP range        : \033[1;32m$%.0f - $%.0f\033[0m\n", *r.MinMaxOutOfPocket, *r.MaxMaxOutOfPocket)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Field coverage\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.Extracted == 0 {
		fmt.Printf("  No plans extracted\n")
	} else {
		names := make([]string, 0, len(r.FieldsFound))
		for name := range r.FieldsFound {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cnt := r.FieldsFound[name]
			bar := strings.Repeat("█", cnt*20/r.Extracted)
			fmt.Printf("  %-18s %-20s %d/%d\n", name, bar, cnt, r.Extracted)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top OTC allowances (annual)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopOTC) == 0 {
		fmt.Printf("  No OTC allowances found\n")
	} else {
		for i, e := range r.TopOTC {
			fmt.Printf("  \033[1m%d.\033[0m %-32s \033[1;32m$%.2f\033[0m\n", i+1, truncate(e.MarketingName, 30), e.Annual)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func float64Ptr(v float64) *float64 { return &v }

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
