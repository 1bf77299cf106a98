package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"planscape/models"
	"planscape/storage"
)

// Paths under the output root.
func YearDir(outDir string, year int) string {
	return filepath.Join(outDir, strconv.Itoa(year))
}

func CountiesDir(outDir string, year int) string {
	return filepath.Join(YearDir(outDir, year), "counties")
}

func CountyIndexPath(outDir string, year int) string {
	return filepath.Join(YearDir(outDir, year), "county_index.json")
}

func ZipIndexPath(outDir string) string {
	return filepath.Join(outDir, "geo", "zip_index.json")
}

// EmitStats counts what Emit wrote.
type EmitStats struct {
	Counties int
	Plans    int
}

// Emit writes the county artifacts and county index for one year. The
// year's county directory is cleared first so the output set is exactly this
// run's buckets.
func Emit(w storage.ArtifactWriter, outDir string, yb *YearBuckets) (EmitStats, error) {
	var stats EmitStats
	dir := CountiesDir(outDir, yb.Year)
	if err := w.ResetDir(dir); err != nil {
		return stats, fmt.Errorf("ingest: reset %s: %w", dir, err)
	}

	index := make([]models.CountyIndexEntry, 0, yb.Len())
	for _, b := range yb.Buckets() {
		art := b.Artifact(yb.Year)
		if err := w.Write(filepath.Join(dir, b.Fips+".json"), art); err != nil {
			return stats, err
		}
		for _, c := range art.Carriers {
			stats.Plans += len(c.Plans)
		}
		stats.Counties++
		index = append(index, models.CountyIndexEntry{Fips: b.Fips, State: b.State, Name: b.CountyName})
	}

	if err := w.Write(CountyIndexPath(outDir, yb.Year), index); err != nil {
		return stats, err
	}
	return stats, nil
}

// EmitZipIndex writes the ZIP index verbatim.
func EmitZipIndex(w storage.ArtifactWriter, outDir string, zips []models.ZipCandidate) error {
	if zips == nil {
		zips = []models.ZipCandidate{}
	}
	return w.Write(ZipIndexPath(outDir), zips)
}

// EmittedYears lists the years under outDir that have a county directory,
// ascending. A missing outDir yields none.
func EmittedYears(outDir string) ([]int, error) {
	entries, err := os.ReadDir(outDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: list %s: %w", outDir, err)
	}
	var years []int
	for _, e := range entries {
		y, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}
		if info, err := os.Stat(CountiesDir(outDir, y)); err == nil && info.IsDir() {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years, nil
}
