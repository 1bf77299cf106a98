package models

// CoverageReport summarizes how much of each benefit field a run recovered.
type CoverageReport struct {
	Year      int `json:"year"`
	Sources   int `json:"sources"`
	Extracted int `json:"extracted"`
	Failed    int `json:"failed"`

	// FieldsFound counts, per field name, the plans with a non-null value.
	FieldsFound map[string]int `json:"fieldsFound"`

	AvgPrimaryCareCopay *float64 `json:"avgPrimaryCareCopay"`
	MinMaxOutOfPocket   *float64 `json:"minMaxOutOfPocket"`
	MaxMaxOutOfPocket   *float64 `json:"maxMaxOutOfPocket"`

	// TopOTC lists the largest over-the-counter allowances, annualized.
	TopOTC []AllowanceEntry `json:"topOtc"`
}

// AllowanceEntry is one plan's allowance scaled to a yearly amount.
type AllowanceEntry struct {
	CMSPlanKey    string  `json:"cmsPlanKey"`
	MarketingName string  `json:"marketingName"`
	Annual        float64 `json:"annual"`
}
