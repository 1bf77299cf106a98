package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"planscape/models"
)

// WriteSourceTable writes records sorted by plan key under the standard
// header, truncating any previous table.
func WriteSourceTable(path string, records []models.SourceRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	sorted := append([]models.SourceRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CMSPlanKey < sorted[j].CMSPlanKey })

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.SourceTableHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range sorted {
		if err := w.Write([]string{r.CMSPlanKey, r.OrgName, r.MarketingName, r.URL}); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadSourceTable reads a source table. A missing file yields no records and
// no error; rows without a plan key or URL are skipped.
func ReadSourceTable(path string) ([]models.SourceRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header of %q: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	keyIdx, okKey := col["cmsplankey"]
	urlIdx, okURL := col["url"]
	if !okKey || !okURL {
		return nil, fmt.Errorf("csv: %q: header must include cmsPlanKey and url", path)
	}
	get := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var out []models.SourceRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read %q: %w", path, err)
		}
		if keyIdx >= len(row) || urlIdx >= len(row) {
			continue
		}
		rec := models.SourceRecord{
			CMSPlanKey:    strings.TrimSpace(row[keyIdx]),
			OrgName:       get(row, "orgname"),
			MarketingName: get(row, "marketingname"),
			URL:           strings.TrimSpace(row[urlIdx]),
		}
		if rec.CMSPlanKey == "" || rec.URL == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
