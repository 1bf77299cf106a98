package models

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestPlanKey(t *testing.T) {
	tests := []struct {
		year                int
		contract, plan, seg string
		want                string
	}{
		{2025, "h2458", "2", "", "2025-H2458-002-000"},
		{2025, "H2458", "002", "1", "2025-H2458-002-001"},
		{2026, " r7444 ", "15", "000", "2026-R7444-015-000"},
		{2025, "H0001", "1234", "0", "2025-H0001-1234-000"},
	}
	for _, tt := range tests {
		got := PlanKey(tt.year, tt.contract, tt.plan, tt.seg)
		if got != tt.want {
			t.Errorf("PlanKey(%d, %q, %q, %q) = %q; want %q",
				tt.year, tt.contract, tt.plan, tt.seg, got, tt.want)
		}
	}
}

func TestPlanRecordValid(t *testing.T) {
	ok := PlanRecord{ContractID: "H1", PlanID: "1", CountyFips: "01001"}
	if !ok.Valid() {
		t.Error("complete record should be valid")
	}
	for name, r := range map[string]PlanRecord{
		"no contract": {PlanID: "1", CountyFips: "01001"},
		"no plan":     {ContractID: "H1", CountyFips: "01001"},
		"no county":   {ContractID: "H1", PlanID: "1"},
	} {
		if r.Valid() {
			t.Errorf("%s: record should be invalid", name)
		}
	}
}

func TestCarrierKeyFallsBackToContract(t *testing.T) {
	r := PlanRecord{ContractID: "h1234"}
	if got := r.CarrierKey(); got != "H1234" {
		t.Errorf("CarrierKey() = %q; want %q", got, "H1234")
	}
	r.OrgName = "Acme Health"
	if got := r.CarrierKey(); got != "Acme Health" {
		t.Errorf("CarrierKey() = %q; want %q", got, "Acme Health")
	}
}

func TestCarrierCapsPlans(t *testing.T) {
	c := NewCarrier("Acme Health")
	added := 0
	for i := 1; i <= 25; i++ {
		p := PlanRecord{Year: 2025, ContractID: "H1234", PlanID: fmt.Sprint(i), CountyFips: "01001"}
		if c.Add(p.Summary()) {
			added++
		}
	}
	if added != MaxPlansPerCarrier || len(c.Plans) != MaxPlansPerCarrier {
		t.Errorf("plans: added %d, kept %d; want %d", added, len(c.Plans), MaxPlansPerCarrier)
	}
	if c.Plans[19].PlanID != "020" {
		t.Errorf("last kept plan: got %s, want 020", c.Plans[19].PlanID)
	}
	if len(c.ContractIDs) != 1 {
		t.Errorf("contractIds: got %v, want one entry", c.ContractIDs)
	}
}

func TestCountyShareJSONPair(t *testing.T) {
	b, err := json.Marshal(ZipCandidate{Zip: "35004", Counties: []CountyShare{{"01115", 0.75}, {"01073", 0.25}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"zip":"35004","counties":[["01115",0.75],["01073",0.25]]}`
	if string(b) != want {
		t.Errorf("json = %s; want %s", b, want)
	}

	var back ZipCandidate
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Counties[1].Fips != "01073" || back.Counties[1].Share != 0.25 {
		t.Errorf("round trip: got %+v", back.Counties[1])
	}
}

func TestParsePlanKey(t *testing.T) {
	year, contract, plan, seg, ok := ParsePlanKey(PlanKey(2025, "h2458", "2", ""))
	if !ok || year != 2025 || contract != "H2458" || plan != "002" || seg != "000" {
		t.Errorf("ParsePlanKey round trip = %d %s %s %s %v", year, contract, plan, seg, ok)
	}
	for _, bad := range []string{"", "2025-H2458-002", "YYYY-H2458-002-000", "2025--002-000"} {
		if _, _, _, _, ok := ParsePlanKey(bad); ok {
			t.Errorf("ParsePlanKey(%q) accepted", bad)
		}
	}
}
