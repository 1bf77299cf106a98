package discovery

import (
	"fmt"
	"path/filepath"
	"sort"

	"planscape/models"
	"planscape/storage"
)

// CollectDistinctPlans scans every county artifact in dir and returns one
// descriptor per plan key. Files are read in name order and the first
// occurrence of a key supplies its names.
func CollectDistinctPlans(dir string) ([]models.PlanDescriptor, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("discovery: list %s: %w", dir, err)
	}
	sort.Strings(files)

	seen := make(map[string]bool)
	var plans []models.PlanDescriptor
	for _, path := range files {
		var art models.CountyArtifact
		if err := storage.ReadJSON(path, &art); err != nil {
			return nil, fmt.Errorf("discovery: %w", err)
		}
		for _, c := range art.Carriers {
			for _, p := range c.Plans {
				if seen[p.CMSPlanKey] {
					continue
				}
				seen[p.CMSPlanKey] = true
				orgName := p.OrgName
				if orgName == "" {
					orgName = c.Name
				}
				plans = append(plans, models.PlanDescriptor{
					CMSPlanKey:    p.CMSPlanKey,
					Year:          art.Year,
					ContractID:    p.ContractID,
					PlanID:        p.PlanID,
					SegmentID:     p.SegmentID,
					OrgName:       orgName,
					MarketingName: p.MarketingName,
				})
			}
		}
	}
	return plans, nil
}
