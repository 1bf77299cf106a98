package geo

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"planscape/models"
)

// BuildZipIndex parses the national ZCTA-to-county relationship table and
// returns, per ZCTA, the counties it overlaps weighted by relationship count.
// Lines that cannot be parsed are skipped; only an unreadable file or a
// header without ZCTA and county columns is an error.
func BuildZipIndex(path string) ([]models.ZipCandidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geo: open crosswalk %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("geo: read crosswalk %s: %w", path, err)
		}
		return nil, fmt.Errorf("geo: crosswalk %s is empty", path)
	}

	header := strings.TrimPrefix(sc.Text(), "\ufeff")
	delim := sniffDelimiter(header)
	zipIdx, countyIdx := crosswalkColumns(splitTrim(header, delim))
	if zipIdx < 0 || countyIdx < 0 {
		return nil, fmt.Errorf("geo: crosswalk %s: no ZCTA/county GEOID columns in header", path)
	}

	counts := make(map[string]map[string]int)
	for sc.Scan() {
		fields := splitTrim(sc.Text(), delim)
		if len(fields) <= max(zipIdx, countyIdx) {
			continue
		}
		zip := digitsOnly(fields[zipIdx])
		county := digitsOnly(fields[countyIdx])
		if len(zip) != 5 || county == "" || len(county) > 5 {
			continue
		}
		county = PadFips(county)
		byCounty, ok := counts[zip]
		if !ok {
			byCounty = make(map[string]int)
			counts[zip] = byCounty
		}
		byCounty[county]++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("geo: read crosswalk %s: %w", path, err)
	}

	out := make([]models.ZipCandidate, 0, len(counts))
	for zip, byCounty := range counts {
		out = append(out, models.ZipCandidate{Zip: zip, Counties: shares(byCounty)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zip < out[j].Zip })
	return out, nil
}

// shares converts per-county counts into proportions rounded to 3 decimals,
// ordered share descending and FIPS ascending on ties.
func shares(byCounty map[string]int) []models.CountyShare {
	total := 0
	for _, n := range byCounty {
		total += n
	}
	out := make([]models.CountyShare, 0, len(byCounty))
	for fips, n := range byCounty {
		share := math.Round(float64(n)/float64(total)*1000) / 1000
		out = append(out, models.CountyShare{Fips: fips, Share: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share > out[j].Share
		}
		return out[i].Fips < out[j].Fips
	})
	return out
}

func crosswalkColumns(cols []string) (zipIdx, countyIdx int) {
	zipIdx, countyIdx = -1, -1
	for i, c := range cols {
		u := strings.ToUpper(c)
		switch {
		case zipIdx < 0 && (strings.HasPrefix(u, "GEOID_ZCTA5") || u == "ZCTA5" || u == "ZCTA"):
			zipIdx = i
		case countyIdx < 0 && (strings.HasPrefix(u, "GEOID_COUNTY") || u == "COUNTY_FIPS" || u == "GEOID"):
			countyIdx = i
		}
	}
	return zipIdx, countyIdx
}
