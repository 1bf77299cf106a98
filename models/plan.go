package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxPlansPerCarrier bounds the plan list of one carrier within one county.
// Plans past the cap are dropped in source order.
const MaxPlansPerCarrier = 20

// DefaultSegmentID is used when a row carries no segment identifier.
const DefaultSegmentID = "000"

// PlanRecord is a single landscape row normalized for aggregation.
type PlanRecord struct {
	Year          int
	ContractID    string
	PlanID        string
	SegmentID     string
	OrgName       string
	MarketingName string
	PlanType      string
	SNPType       *string
	CountyFips    string
	State         string
	CountyName    string
}

// Valid reports whether the record can be placed: contract, plan and a
// resolved county are all required.
func (r PlanRecord) Valid() bool {
	return strings.TrimSpace(r.ContractID) != "" &&
		strings.TrimSpace(r.PlanID) != "" &&
		len(r.CountyFips) == 5
}

// Key returns the record's canonical plan key.
func (r PlanRecord) Key() string {
	return PlanKey(r.Year, r.ContractID, r.PlanID, r.SegmentID)
}

// CarrierKey groups records by organization, falling back to the contract.
func (r PlanRecord) CarrierKey() string {
	if name := strings.TrimSpace(r.OrgName); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(r.ContractID))
}

// PlanKey builds {year}-{CONTRACT}-{plan:03}-{segment:03}.
func PlanKey(year int, contractID, planID, segmentID string) string {
	if strings.TrimSpace(segmentID) == "" {
		segmentID = DefaultSegmentID
	}
	return fmt.Sprintf("%d-%s-%s-%s",
		year,
		strings.ToUpper(strings.TrimSpace(contractID)),
		PadID(planID, 3),
		PadID(segmentID, 3))
}

// PadID left-pads an identifier with zeros to width. Longer values are kept.
func PadID(id string, width int) string {
	id = strings.TrimSpace(id)
	if len(id) >= width {
		return id
	}
	return strings.Repeat("0", width-len(id)) + id
}

// PlanSummary is one plan as listed under a carrier in a county artifact.
type PlanSummary struct {
	CMSPlanKey    string  `json:"cmsPlanKey"`
	ContractID    string  `json:"contractId"`
	PlanID        string  `json:"planId"`
	SegmentID     string  `json:"segmentId"`
	OrgName       string  `json:"orgName"`
	MarketingName string  `json:"marketingName"`
	PlanType      string  `json:"planType"`
	SNPType       *string `json:"snpType"`
}

// Summary converts a record into the form stored under its carrier.
func (r PlanRecord) Summary() PlanSummary {
	return PlanSummary{
		CMSPlanKey:    r.Key(),
		ContractID:    strings.ToUpper(strings.TrimSpace(r.ContractID)),
		PlanID:        PadID(r.PlanID, 3),
		SegmentID:     PadID(segmentOrDefault(r.SegmentID), 3),
		OrgName:       r.OrgName,
		MarketingName: r.MarketingName,
		PlanType:      r.PlanType,
		SNPType:       r.SNPType,
	}
}

func segmentOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return DefaultSegmentID
	}
	return s
}

// ParsePlanKey splits a key built by PlanKey. ok is false for anything not
// of the form {year}-{contract}-{plan}-{segment}.
func ParsePlanKey(key string) (year int, contractID, planID, segmentID string, ok bool) {
	parts := strings.Split(strings.TrimSpace(key), "-")
	if len(parts) != 4 {
		return 0, "", "", "", false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || parts[1] == "" || parts[2] == "" || parts[3] == "" {
		return 0, "", "", "", false
	}
	return year, parts[1], parts[2], parts[3], true
}
