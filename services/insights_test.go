package services

import (
	"io"
	"testing"

	"planscape/models"
	"planscape/utils"
)

func period(p models.Period) *models.Period { return &p }
func str(s string) *string                  { return &s }

func sampleRecords() []*models.BenefitRecord {
	return []*models.BenefitRecord{
		{CMSPlanKey: "2025-H0001-001-000", PlanMeta: models.PlanMeta{MarketingName: str("Alpha")},
			Medical:      models.MedicalBenefits{PrimaryCareCopay: f(0), MaxOutOfPocket: f(3400)},
			Supplemental: models.SupplementalBenefits{OTCAmount: f(50), OTCPeriod: period(models.PeriodMonth)}},
		{CMSPlanKey: "2025-H0002-001-000", PlanMeta: models.PlanMeta{MarketingName: str("Beta")},
			Medical:      models.MedicalBenefits{PrimaryCareCopay: f(15), MaxOutOfPocket: f(8850)},
			Supplemental: models.SupplementalBenefits{OTCAmount: f(150), OTCPeriod: period(models.PeriodQuarter)}},
		{CMSPlanKey: "2025-H0003-001-000",
			Medical:      models.MedicalBenefits{PrimaryCareCopay: f(10)},
			Supplemental: models.SupplementalBenefits{OTCAmount: f(700)}},
		{CMSPlanKey: "2025-H0004-001-000"},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewLoggerTo(io.Discard, io.Discard, utils.LevelError))
	r := svc.Generate(2025, 6, sampleRecords())
	if r.Extracted != 4 || r.Failed != 2 {
		t.Errorf("Extracted/Failed: got %d/%d, want 4/2", r.Extracted, r.Failed)
	}
	if r.FieldsFound["primaryCareCopay"] != 3 {
		t.Errorf("primaryCareCopay found: got %d, want 3", r.FieldsFound["primaryCareCopay"])
	}
	if r.FieldsFound["otcAmount"] != 3 {
		t.Errorf("otcAmount found: got %d, want 3", r.FieldsFound["otcAmount"])
	}
	if _, ok := r.FieldsFound["fitnessProgram"]; ok {
		t.Error("fields never found should not be counted")
	}
}

func TestInsightCosts(t *testing.T) {
	svc := NewInsightService(utils.NewLoggerTo(io.Discard, io.Discard, utils.LevelError))
	r := svc.Generate(2025, 4, sampleRecords())
	if r.AvgPrimaryCareCopay == nil || *r.AvgPrimaryCareCopay != 8.33 {
		t.Errorf("AvgPrimaryCareCopay: got %v, want 8.33", deref(r.AvgPrimaryCareCopay))
	}
	if !floatEq(r.MinMaxOutOfPocket, f(3400)) || !floatEq(r.MaxMaxOutOfPocket, f(8850)) {
		t.Errorf("MOOP range: got %v - %v", deref(r.MinMaxOutOfPocket), deref(r.MaxMaxOutOfPocket))
	}
}

func TestInsightTopOTC(t *testing.T) {
	svc := NewInsightService(utils.NewLoggerTo(io.Discard, io.Discard, utils.LevelError))
	r := svc.Generate(2025, 4, sampleRecords())
	if len(r.TopOTC) != 3 {
		t.Fatalf("TopOTC len: got %d, want 3", len(r.TopOTC))
	}
	// 150/quarter = 600, 50/month = 600, 700 with no period = 700.
	if r.TopOTC[0].CMSPlanKey != "2025-H0003-001-000" || r.TopOTC[0].Annual != 700 {
		t.Errorf("TopOTC[0]: %+v", r.TopOTC[0])
	}
	if r.TopOTC[1].CMSPlanKey != "2025-H0001-001-000" || r.TopOTC[2].CMSPlanKey != "2025-H0002-001-000" {
		t.Errorf("ties should order by plan key: %+v", r.TopOTC)
	}
}

func TestInsightEmpty(t *testing.T) {
	svc := NewInsightService(utils.NewLoggerTo(io.Discard, io.Discard, utils.LevelError))
	r := svc.Generate(2025, 0, nil)
	if r.Extracted != 0 || r.AvgPrimaryCareCopay != nil || len(r.TopOTC) != 0 {
		t.Errorf("empty report: %+v", r)
	}
}

func TestAnnualize(t *testing.T) {
	tests := []struct {
		amount *float64
		period *models.Period
		want   float64
		ok     bool
	}{
		{f(25), period(models.PeriodWeek), 1300, true},
		{f(100), period(models.PeriodYear), 100, true},
		{f(100), nil, 100, true},
		{nil, period(models.PeriodMonth), 0, false},
	}
	for _, tt := range tests {
		got, ok := Annualize(tt.amount, tt.period)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Annualize(%v, %v) = %v, %v; want %v, %v", deref(tt.amount), tt.period, got, ok, tt.want, tt.ok)
		}
	}
}
