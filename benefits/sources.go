package benefits

import (
	"fmt"
	"path/filepath"
	"strconv"

	"planscape/discovery"
	"planscape/models"
	"planscape/storage"
)

// ManualSourcesPath is the curated source table for year.
func ManualSourcesPath(manualDir string, year int) string {
	return filepath.Join(manualDir, strconv.Itoa(year)+".csv")
}

// LoadSources merges the manual and discovered source tables for year. The
// manual table is read first and the first record seen for a key wins.
// Either table may be absent.
func LoadSources(manualDir, outDir string, year int) ([]models.SourceRecord, error) {
	manual, err := storage.ReadSourceTable(ManualSourcesPath(manualDir, year))
	if err != nil {
		return nil, fmt.Errorf("benefits: manual sources: %w", err)
	}
	auto, err := storage.ReadSourceTable(discovery.SourcesPath(outDir, year))
	if err != nil {
		return nil, fmt.Errorf("benefits: discovered sources: %w", err)
	}

	seen := make(map[string]bool, len(manual)+len(auto))
	merged := make([]models.SourceRecord, 0, len(manual)+len(auto))
	for _, group := range [][]models.SourceRecord{manual, auto} {
		for _, s := range group {
			if seen[s.CMSPlanKey] {
				continue
			}
			seen[s.CMSPlanKey] = true
			merged = append(merged, s)
		}
	}
	return merged, nil
}
