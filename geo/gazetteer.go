// Package geo resolves county identity: a county-name to FIPS gazetteer built
// from per-region files, and a ZIP-proxy to county-share index.
package geo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNoGazetteer is returned when the gazetteer directory holds no usable file.
var ErrNoGazetteer = errors.New("geo: no gazetteer files found")

// Longest suffixes first so "city and borough" wins over "borough".
var countySuffixes = []string{
	"city and borough",
	"independent city",
	"census area",
	"municipality",
	"borough",
	"parish",
	"county",
}

var (
	punctRegexp = regexp.MustCompile(`[.'’,]`)
	spaceRegexp = regexp.MustCompile(`\s+`)
)

// Gazetteer maps (state, normalized county name) to a 5-digit county FIPS.
// It is immutable once loaded.
type Gazetteer struct {
	byKey map[string]string
	names map[string]string
}

// NewGazetteer builds a Gazetteer from in-memory entries keyed by FIPS.
func NewGazetteer() *Gazetteer {
	return &Gazetteer{byKey: make(map[string]string), names: make(map[string]string)}
}

// Add registers one county. The first FIPS seen for a key is kept.
func (g *Gazetteer) Add(state, countyName, fips string) {
	key := CountyKey(state, countyName)
	if _, exists := g.byKey[key]; !exists {
		g.byKey[key] = fips
	}
	if _, exists := g.names[fips]; !exists {
		g.names[fips] = strings.TrimSpace(countyName)
	}
}

// Len returns the number of distinct keys.
func (g *Gazetteer) Len() int {
	return len(g.byKey)
}

// ResolveCountyFips looks up a county by state and name. A miss is not an
// error; callers skip rows that cannot be placed.
func (g *Gazetteer) ResolveCountyFips(state, countyName string) (string, bool) {
	if strings.TrimSpace(countyName) == "" {
		return "", false
	}
	fips, ok := g.byKey[CountyKey(state, countyName)]
	return fips, ok
}

// CountyName returns the gazetteer's display name for fips.
func (g *Gazetteer) CountyName(fips string) (string, bool) {
	n, ok := g.names[fips]
	return n, ok
}

// CountyKey composes the lookup key for a state and county name.
func CountyKey(state, countyName string) string {
	return strings.ToUpper(strings.TrimSpace(state)) + "|" + NormalizeCountyName(countyName)
}

// NormalizeCountyName folds accents, lowercases, strips legal suffixes and
// collapses whitespace: "Doña Ana County" and "dona ana" share a key.
func NormalizeCountyName(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	s := strings.ToLower(folded)
	s = punctRegexp.ReplaceAllString(s, "")
	s = strings.TrimSpace(spaceRegexp.ReplaceAllString(s, " "))
	for _, suffix := range countySuffixes {
		if s == suffix {
			break
		}
		if strings.HasSuffix(s, " "+suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	return s
}

// LoadGazetteer reads every delimited file in dir. Any unreadable or
// malformed file aborts the load, since every downstream row depends on it.
func LoadGazetteer(dir string) (*Gazetteer, error) {
	var files []string
	for _, pattern := range []string{"*.txt", "*.tsv", "*.csv"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("geo: glob %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoGazetteer, dir)
	}
	sort.Strings(files)

	g := NewGazetteer()
	for _, f := range files {
		if err := g.loadFile(f); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Gazetteer) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("geo: open gazetteer %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("geo: read gazetteer %s: %w", path, err)
		}
		return fmt.Errorf("geo: gazetteer %s is empty", path)
	}
	header := strings.TrimPrefix(sc.Text(), "\ufeff")
	delim := sniffDelimiter(header)
	cols := splitTrim(header, delim)

	stateIdx, fipsIdx, nameIdx := -1, -1, -1
	for i, c := range cols {
		switch strings.ToUpper(c) {
		case "USPS", "STATE", "STUSAB":
			stateIdx = i
		case "GEOID", "FIPS":
			fipsIdx = i
		case "NAME", "COUNTY_NAME":
			nameIdx = i
		}
	}
	if stateIdx < 0 || fipsIdx < 0 || nameIdx < 0 {
		return fmt.Errorf("geo: gazetteer %s: header must include USPS, GEOID and NAME", path)
	}

	line := 1
	for sc.Scan() {
		line++
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		fields := splitTrim(sc.Text(), delim)
		if len(fields) <= max(stateIdx, fipsIdx, nameIdx) {
			return fmt.Errorf("geo: gazetteer %s line %d: want %d fields, got %d", path, line, len(cols), len(fields))
		}
		fips := digitsOnly(fields[fipsIdx])
		if fips == "" || len(fips) > 5 {
			return fmt.Errorf("geo: gazetteer %s line %d: bad GEOID %q", path, line, fields[fipsIdx])
		}
		g.Add(fields[stateIdx], fields[nameIdx], PadFips(fips))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("geo: read gazetteer %s: %w", path, err)
	}
	return nil
}

func sniffDelimiter(header string) string {
	switch {
	case strings.Contains(header, "\t"):
		return "\t"
	case strings.Contains(header, "|"):
		return "|"
	default:
		return ","
	}
}

func splitTrim(line, delim string) []string {
	parts := strings.Split(line, delim)
	for i := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(parts[i]), `"`)
	}
	return parts
}

// PadFips left-pads a numeric county code to 5 digits.
func PadFips(digits string) string {
	if len(digits) >= 5 {
		return digits
	}
	return strings.Repeat("0", 5-len(digits)) + digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
