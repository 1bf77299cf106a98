package models

import "time"

// Period is a billing cadence for an allowance.
type Period string

const (
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
	PeriodWeek    Period = "week"
)

// Every extracted field is a pointer so a missing value marshals as null
// instead of being omitted. A nil *bool means undetermined, which is
// distinct from false.

// PlanMeta echoes the identity of the plan a document was extracted for.
type PlanMeta struct {
	Year          int     `json:"year"`
	ContractID    string  `json:"contractId"`
	PlanID        string  `json:"planId"`
	SegmentID     string  `json:"segmentId"`
	OrgName       *string `json:"orgName"`
	MarketingName *string `json:"marketingName"`
	LineCount     int     `json:"lineCount"`
}

type MedicalBenefits struct {
	PrimaryCareCopay *float64 `json:"primaryCareCopay"`
	SpecialistCopay  *float64 `json:"specialistCopay"`
	UrgentCareCopay  *float64 `json:"urgentCareCopay"`
	EmergencyCopay   *float64 `json:"emergencyCopay"`
	MaxOutOfPocket   *float64 `json:"maxOutOfPocket"`
	MonthlyPremium   *float64 `json:"monthlyPremium"`
}

type NutritionBenefits struct {
	MNTCovered   *bool   `json:"mntCovered"`
	MNTSnippet   *string `json:"mntSnippet"`
	MealsCovered *bool   `json:"mealsCovered"`
	MealsSnippet *string `json:"mealsSnippet"`
}

type SupplementalBenefits struct {
	OTCAmount       *float64 `json:"otcAmount"`
	OTCPeriod       *Period  `json:"otcPeriod"`
	FlexCardAmount  *float64 `json:"flexCardAmount"`
	FlexCardPeriod  *Period  `json:"flexCardPeriod"`
	FitnessProgram  *string  `json:"fitnessProgram"`
	DentalAllowance *float64 `json:"dentalAllowance"`
}

// BenefitRecord is the structured extraction result for one plan.
type BenefitRecord struct {
	CMSPlanKey   string               `json:"cmsPlanKey"`
	SourcePDFURL string               `json:"sourcePdfUrl"`
	ExtractedAt  time.Time            `json:"extractedAt"`
	PlanMeta     PlanMeta             `json:"planMeta"`
	Medical      MedicalBenefits      `json:"medical"`
	Nutrition    NutritionBenefits    `json:"nutrition"`
	Supplemental SupplementalBenefits `json:"supplemental"`
}

// BenefitIndexEntry summarizes one successfully processed plan.
type BenefitIndexEntry struct {
	CMSPlanKey   string    `json:"cmsPlanKey"`
	SourcePDFURL string    `json:"sourcePdfUrl"`
	ExtractedAt  time.Time `json:"extractedAt"`
}

// BenefitIndex is the per-year plan index.
type BenefitIndex struct {
	Year        int                 `json:"year"`
	RunID       string              `json:"runId"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Plans       []BenefitIndexEntry `json:"plans"`
}
