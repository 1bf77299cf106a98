package config

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseYears(t *testing.T) {
	tests := []struct {
		raw  string
		want []int
	}{
		{"2025", []int{2025}},
		{"2026, 2025,2025", []int{2025, 2026}},
		{"", nil},
		{"next,2024,99", []int{2024}},
	}
	for _, tt := range tests {
		if got := parseYears(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseYears(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseStagesKeepsDependencyOrder(t *testing.T) {
	got := parseStages("extract, INGEST,bogus,extract")
	want := []string{StageIngest, StageExtract}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseStages = %v; want %v", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LANDSCAPE_ARCHIVE", "./landscape.zip")
	t.Setenv("SEARCH_API_KEY", "")
	t.Setenv("DISCOVERY_CONCURRENCY", "")

	cfg := Load()
	if cfg.DiscoveryConcurrency != 2 {
		t.Errorf("DiscoveryConcurrency: got %d, want 2", cfg.DiscoveryConcurrency)
	}
	if cfg.ExtractConcurrency != 4 {
		t.Errorf("ExtractConcurrency: got %d, want 4", cfg.ExtractConcurrency)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout: got %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.DiscoveryEnabled() {
		t.Error("discovery should be disabled without SEARCH_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRequiresArchiveForIngest(t *testing.T) {
	cfg := &Config{Stages: []string{StageIngest}}
	if err := cfg.Validate(); !errors.Is(err, ErrNoArchive) {
		t.Errorf("Validate = %v; want ErrNoArchive", err)
	}

	cfg.Stages = []string{StageExtract}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate without ingest: %v", err)
	}
}
