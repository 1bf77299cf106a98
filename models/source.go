package models

// PlanDescriptor identifies one distinct plan for discovery.
type PlanDescriptor struct {
	CMSPlanKey    string `json:"cmsPlanKey"`
	Year          int    `json:"year"`
	ContractID    string `json:"contractId"`
	PlanID        string `json:"planId"`
	SegmentID     string `json:"segmentId"`
	OrgName       string `json:"orgName"`
	MarketingName string `json:"marketingName"`
}

// SourceRecord is a verified or manually supplied document location.
type SourceRecord struct {
	CMSPlanKey    string
	OrgName       string
	MarketingName string
	URL           string
}

// SourceTableHeader is the header row of every source table.
var SourceTableHeader = []string{"cmsPlanKey", "orgName", "marketingName", "url"}
