package services

import (
	"regexp"
	"strings"

	"planscape/models"
)

// snippetRadius is the number of lines on each side of a label searched for
// its value.
const snippetRadius = 2

var (
	primaryCareRegexp = regexp.MustCompile(`primary care|\bpcp\b`)
	specialistRegexp  = regexp.MustCompile(`specialist`)
	urgentCareRegexp  = regexp.MustCompile(`urgent(ly)?\s+(care|needed)`)
	emergencyRegexp   = regexp.MustCompile(`emergency\s+(room|care|services|department)`)
	moopRegexp        = regexp.MustCompile(`maximum\s+out[\s-]of[\s-]pocket|out[\s-]of[\s-]pocket\s+(maximum|limit)|\bmoop\b`)
	premiumRegexp     = regexp.MustCompile(`monthly\s+(plan\s+)?premium|plan\s+premium`)

	mntRegexp   = regexp.MustCompile(`medical\s+nutrition\s+therapy`)
	mealsRegexp = regexp.MustCompile(`meals?\s+(benefit\s+)?(after|following|post)[\s-]*(discharge|hospital|inpatient)|post[\s-]*discharge\s+meals?|home[\s-]*delivered\s+meals?|meal\s+benefit`)

	otcRegexp     = regexp.MustCompile(`over[\s-]the[\s-]counter|\botc\b`)
	flexRegexp    = regexp.MustCompile(`flex(ible)?\s+(card|benefit|spending|allowance)|spending\s+card|benefit\s+card`)
	dentalRegexp  = regexp.MustCompile(`dental\s+(allowance|benefit|services|coverage)|comprehensive\s+dental|preventive\s+dental`)
	fitnessRegexp = regexp.MustCompile(`silver\s?sneakers|renew\s+active|silver\s?(&|and)\s?fit|active\s?&\s?fit|one\s?pass|nifty\s?after\s?fifty|fitness\s+(program|benefit|membership)`)
	fitnessBrand  = regexp.MustCompile(`(?i)silver\s?sneakers|renew\s+active|silver\s?(&|and)\s?fit|active\s?&\s?fit|one\s?pass|nifty\s?after\s?fifty`)
)

// fitnessNames maps a brand, lowercased with spaces and "and" removed, to its
// display name.
var fitnessNames = map[string]string{
	"silversneakers":  "SilverSneakers",
	"renewactive":     "Renew Active",
	"silver&fit":      "Silver&Fit",
	"silverfit":       "Silver&Fit",
	"silverandfit":    "Silver&Fit",
	"active&fit":      "Active&Fit",
	"onepass":         "One Pass",
	"niftyafterfifty": "Nifty After Fifty",
}

// amountNear returns the first dollar amount after the label, falling back to
// the full window around it.
func amountNear(n Normalized, re *regexp.Regexp) *float64 {
	if s, ok := findAfter(n, re, snippetRadius); ok {
		if v := MoneyFrom(s); v != nil {
			return v
		}
	}
	if s, ok := FindNearby(n, re, snippetRadius); ok {
		return MoneyFrom(s)
	}
	return nil
}

// ExtractMedical reads core cost-sharing fields.
func ExtractMedical(n Normalized) models.MedicalBenefits {
	return models.MedicalBenefits{
		PrimaryCareCopay: amountNear(n, primaryCareRegexp),
		SpecialistCopay:  amountNear(n, specialistRegexp),
		UrgentCareCopay:  amountNear(n, urgentCareRegexp),
		EmergencyCopay:   amountNear(n, emergencyRegexp),
		MaxOutOfPocket:   amountNear(n, moopRegexp),
		MonthlyPremium:   amountNear(n, premiumRegexp),
	}
}

// ExtractNutrition reads medical nutrition therapy and post-discharge meal
// coverage. Snippets start at the label and are kept as evidence for the
// coverage call.
func ExtractNutrition(n Normalized) models.NutritionBenefits {
	var out models.NutritionBenefits
	if s, ok := findAfter(n, mntRegexp, snippetRadius); ok {
		out.MNTCovered = HasCoveredWord(s)
		out.MNTSnippet = &s
	}
	if s, ok := findAfter(n, mealsRegexp, snippetRadius); ok {
		out.MealsCovered = HasCoveredWord(s)
		out.MealsSnippet = &s
	}
	return out
}

// ExtractSupplemental reads allowance-style benefits.
func ExtractSupplemental(n Normalized) models.SupplementalBenefits {
	var out models.SupplementalBenefits
	if s, ok := findAfter(n, otcRegexp, snippetRadius); ok {
		out.OTCAmount = MoneyFrom(s)
		out.OTCPeriod = PeriodFrom(s)
	}
	if s, ok := findAfter(n, flexRegexp, snippetRadius); ok {
		out.FlexCardAmount = MoneyFrom(s)
		out.FlexCardPeriod = PeriodFrom(s)
	}
	out.DentalAllowance = amountNear(n, dentalRegexp)
	out.FitnessProgram = fitnessProgram(n)
	return out
}

func fitnessProgram(n Normalized) *string {
	s, ok := FindNearby(n, fitnessRegexp, snippetRadius)
	if !ok {
		return nil
	}
	brand := fitnessBrand.FindString(s)
	if brand == "" {
		return nil
	}
	key := strings.ToLower(brand)
	key = strings.ReplaceAll(key, " and ", "")
	key = strings.ReplaceAll(key, " ", "")
	if name, ok := fitnessNames[key]; ok {
		return &name
	}
	brand = normaliseText(brand)
	return &brand
}

// Extraction is the full set of fields read from one document.
type Extraction struct {
	Medical      models.MedicalBenefits
	Nutrition    models.NutritionBenefits
	Supplemental models.SupplementalBenefits
	Lines        int
}

// Extract normalizes text and runs every extractor over it.
func Extract(text string) Extraction {
	n := Normalize(text)
	return Extraction{
		Medical:      ExtractMedical(n),
		Nutrition:    ExtractNutrition(n),
		Supplemental: ExtractSupplemental(n),
		Lines:        len(n.Lines),
	}
}
