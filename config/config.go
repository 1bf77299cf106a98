package config

import (
	"errors"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Stage names accepted in STAGES, in dependency order.
const (
	StageIngest   = "ingest"
	StageDiscover = "discover"
	StageExtract  = "extract"
)

const defaultSearchEndpoint = "https://api.search.brave.com/res/v1/web/search"

// ErrNoArchive is returned by Validate when ingestion is requested without a
// landscape archive location.
var ErrNoArchive = errors.New("config: LANDSCAPE_ARCHIVE is required for the ingest stage")

// Config holds all pipeline configuration loaded from environment variables.
type Config struct {
	Years  []int
	Stages []string

	LandscapeArchive string
	GazetteerDir     string
	ZCTACrosswalk    string
	ManualSourcesDir string
	OutputDir        string

	SearchAPIKey      string
	SearchEndpoint    string
	SearchResultLimit int

	DiscoveryConcurrency int
	ExtractConcurrency   int
	RateLimitMs          int
	MaxRetries           int

	HTTPTimeout      time.Duration
	MaxDocumentBytes int64
	MinDocumentBytes int64
	PDFPageCap       int

	BrowserRender bool
	ChromeBin     string

	PostgresDSN string
	LogLevel    string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Years:  parseYears(getEnv("YEARS", "")),
		Stages: parseStages(getEnv("STAGES", "ingest,discover,extract")),

		LandscapeArchive: getEnv("LANDSCAPE_ARCHIVE", ""),
		GazetteerDir:     getEnv("GAZETTEER_DIR", "./data/gazetteer"),
		ZCTACrosswalk:    getEnv("ZCTA_CROSSWALK", "./data/zcta_county_rel.txt"),
		ManualSourcesDir: getEnv("MANUAL_SOURCES_DIR", "./data/sources"),
		OutputDir:        getEnv("OUTPUT_DIR", "./output"),

		SearchAPIKey:      getEnv("SEARCH_API_KEY", ""),
		SearchEndpoint:    getEnv("SEARCH_ENDPOINT", defaultSearchEndpoint),
		SearchResultLimit: getEnvInt("SEARCH_RESULT_LIMIT", 8),

		DiscoveryConcurrency: getEnvInt("DISCOVERY_CONCURRENCY", 2),
		ExtractConcurrency:   getEnvInt("EXTRACT_CONCURRENCY", 4),
		RateLimitMs:          getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:           getEnvInt("MAX_RETRIES", 3),

		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,
		MaxDocumentBytes: int64(getEnvInt("MAX_DOCUMENT_MB", 20)) << 20,
		MinDocumentBytes: int64(getEnvInt("MIN_DOCUMENT_BYTES", 1024)),
		PDFPageCap:       getEnvInt("PDF_PAGE_CAP", 12),

		BrowserRender: getEnvBool("BROWSER_RENDER", false),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports configuration that makes the selected stages impossible.
func (c *Config) Validate() error {
	if c.Runs(StageIngest) && c.LandscapeArchive == "" {
		return ErrNoArchive
	}
	return nil
}

// Runs reports whether stage was selected.
func (c *Config) Runs(stage string) bool {
	for _, s := range c.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// DiscoveryEnabled is false when no search credential is configured.
func (c *Config) DiscoveryEnabled() bool {
	return c.SearchAPIKey != ""
}

func parseYears(raw string) []int {
	seen := make(map[int]bool)
	var years []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1900 || n > 2999 || seen[n] {
			continue
		}
		seen[n] = true
		years = append(years, n)
	}
	sort.Ints(years)
	return years
}

func parseStages(raw string) []string {
	order := map[string]int{StageIngest: 0, StageDiscover: 1, StageExtract: 2}
	seen := make(map[string]bool)
	var stages []string
	for _, part := range strings.Split(raw, ",") {
		s := strings.ToLower(strings.TrimSpace(part))
		if _, ok := order[s]; !ok || seen[s] {
			continue
		}
		seen[s] = true
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool { return order[stages[i]] < order[stages[j]] })
	return stages
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
