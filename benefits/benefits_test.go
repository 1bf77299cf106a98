package benefits

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"planscape/discovery"
	"planscape/document"
	"planscape/models"
	"planscape/storage"
	"planscape/utils"
)

func quietLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, io.Discard, utils.LevelError) }

type fakeFetcher struct {
	docs   map[string]*document.Document
	errs   map[string]error
	delay  time.Duration
	mu     sync.Mutex
	active int
	peak   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*document.Document, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	if d, ok := f.docs[url]; ok {
		return d, nil
	}
	return nil, errors.New("404")
}

type textExtractor struct{}

func (textExtractor) ExtractText(data []byte, _ int) (string, error) {
	if strings.HasPrefix(string(data), "CORRUPT") {
		return "", errors.New("malformed xref table")
	}
	return string(data), nil
}

type fakeMirror struct {
	runID   string
	records []*models.BenefitRecord
}

func (m *fakeMirror) Write(_ int, runID string, records []*models.BenefitRecord) error {
	m.runID, m.records = runID, records
	return nil
}

func (m *fakeMirror) Close() error { return nil }

func writeTable(t *testing.T, path string, records ...models.SourceRecord) {
	t.Helper()
	if err := storage.WriteSourceTable(path, records); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSourcesManualWins(t *testing.T) {
	manualDir, outDir := t.TempDir(), t.TempDir()
	writeTable(t, ManualSourcesPath(manualDir, 2025),
		models.SourceRecord{CMSPlanKey: "2025-H0002-001-000", URL: "https://manual.example/b.pdf"},
		models.SourceRecord{CMSPlanKey: "2025-H0001-001-000", URL: "https://manual.example/a.pdf"},
	)
	writeTable(t, discovery.SourcesPath(outDir, 2025),
		models.SourceRecord{CMSPlanKey: "2025-H0001-001-000", URL: "https://auto.example/a.pdf"},
		models.SourceRecord{CMSPlanKey: "2025-H0003-001-000", URL: "https://auto.example/c.pdf"},
	)

	got, err := LoadSources(manualDir, outDir, 2025)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	want := []string{
		"2025-H0001-001-000 https://manual.example/a.pdf",
		"2025-H0002-001-000 https://manual.example/b.pdf",
		"2025-H0003-001-000 https://auto.example/c.pdf",
	}
	if len(got) != len(want) {
		t.Fatalf("sources: got %d, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.CMSPlanKey+" "+s.URL != want[i] {
			t.Errorf("source %d = %s %s; want %s", i, s.CMSPlanKey, s.URL, want[i])
		}
	}
}

func TestLoadSourcesBothAbsent(t *testing.T) {
	got, err := LoadSources(t.TempDir(), t.TempDir(), 2025)
	if err != nil || len(got) != 0 {
		t.Errorf("LoadSources = %v, %v; want empty, nil", got, err)
	}
}

const sbText = `Summary of Benefits 2025
Primary care
$5 copay
Over-the-counter allowance
$100 per quarter`

func newRunner(t *testing.T, f *fakeFetcher, concurrency int) (*Runner, string) {
	t.Helper()
	out := t.TempDir()
	r := New(Options{OutputDir: out, ManualSourcesDir: t.TempDir(), Concurrency: concurrency, PageCap: 12},
		f, textExtractor{}, storage.NewJSONWriter(), quietLogger())
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	r.newID = func() string { return "00000000-0000-4000-8000-000000000001" }
	return r, out
}

func TestRunSkipsFailedPlans(t *testing.T) {
	f := &fakeFetcher{
		docs: map[string]*document.Document{
			"https://x.example/a.pdf": {Body: []byte(sbText)},
			"https://x.example/c":     {Body: []byte("<html></html>"), IsHTML: true},
			"https://x.example/d.pdf": {Body: []byte("CORRUPT")},
		},
		errs: map[string]error{"https://x.example/b.pdf": document.ErrTooSmall},
	}
	r, out := newRunner(t, f, 4)
	mirror := &fakeMirror{}
	r.Mirror = mirror

	writeTable(t, discovery.SourcesPath(out, 2025),
		models.SourceRecord{CMSPlanKey: "2025-H0004-001-000", URL: "https://x.example/d.pdf"},
		models.SourceRecord{CMSPlanKey: "2025-H0003-001-000", URL: "https://x.example/c"},
		models.SourceRecord{CMSPlanKey: "2025-H0002-001-000", URL: "https://x.example/b.pdf"},
		models.SourceRecord{CMSPlanKey: "2025-H0001-001-000", OrgName: "Acme", MarketingName: "Acme One", URL: "https://x.example/a.pdf"},
	)
	stale := PlanPath(out, 2025, "2024-H9999-001-000")
	if err := storage.NewJSONWriter().Write(stale, map[string]string{}); err != nil {
		t.Fatal(err)
	}

	report, err := r.Run(context.Background(), 2025)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Sources != 4 || report.Extracted != 1 || report.Failed != 3 {
		t.Errorf("report: %+v", report)
	}

	var index models.BenefitIndex
	if err := storage.ReadJSON(IndexPath(out, 2025), &index); err != nil {
		t.Fatal(err)
	}
	if index.RunID != "00000000-0000-4000-8000-000000000001" || len(index.Plans) != 1 {
		t.Fatalf("index: %+v", index)
	}
	if index.Plans[0].CMSPlanKey != "2025-H0001-001-000" || index.Plans[0].SourcePDFURL != "https://x.example/a.pdf" {
		t.Errorf("index entry: %+v", index.Plans[0])
	}

	var rec models.BenefitRecord
	if err := storage.ReadJSON(PlanPath(out, 2025, "2025-H0001-001-000"), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Medical.PrimaryCareCopay == nil || *rec.Medical.PrimaryCareCopay != 5 {
		t.Errorf("pcp copay: %v", rec.Medical.PrimaryCareCopay)
	}
	if rec.Supplemental.OTCPeriod == nil || *rec.Supplemental.OTCPeriod != models.PeriodQuarter {
		t.Errorf("otc period: %v", rec.Supplemental.OTCPeriod)
	}
	if rec.PlanMeta.ContractID != "H0001" || rec.PlanMeta.MarketingName == nil || *rec.PlanMeta.MarketingName != "Acme One" {
		t.Errorf("plan meta: %+v", rec.PlanMeta)
	}

	for _, key := range []string{"2025-H0002-001-000", "2025-H0003-001-000", "2025-H0004-001-000"} {
		if _, err := os.Stat(PlanPath(out, 2025, key)); !os.IsNotExist(err) {
			t.Errorf("%s: failed plan should have no artifact", key)
		}
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("artifacts from a previous run should be removed")
	}

	if mirror.runID != index.RunID || len(mirror.records) != 1 {
		t.Errorf("mirror got run %q with %d records", mirror.runID, len(mirror.records))
	}
	if _, err := os.Stat(CoveragePath(out, 2025)); err != nil {
		t.Errorf("coverage report not written: %v", err)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	f := &fakeFetcher{docs: map[string]*document.Document{}, delay: 20 * time.Millisecond}
	r, out := newRunner(t, f, 2)

	var sources []models.SourceRecord
	for i := 0; i < 8; i++ {
		key := models.PlanKey(2025, "H0001", string(rune('1'+i)), "0")
		u := "https://x.example/" + key + ".pdf"
		f.docs[u] = &document.Document{Body: []byte(sbText)}
		sources = append(sources, models.SourceRecord{CMSPlanKey: key, URL: u})
	}
	writeTable(t, discovery.SourcesPath(out, 2025), sources...)

	report, err := r.Run(context.Background(), 2025)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Extracted != 8 {
		t.Errorf("extracted: got %d, want 8", report.Extracted)
	}
	if f.peak > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", f.peak)
	}

	files, _ := filepath.Glob(filepath.Join(PlansDir(out, 2025), "*.json"))
	if len(files) != 8 {
		t.Errorf("plan artifacts: got %d, want 8", len(files))
	}
}

func TestRunWithNoSources(t *testing.T) {
	r, out := newRunner(t, &fakeFetcher{}, 4)
	report, err := r.Run(context.Background(), 2025)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Extracted != 0 {
		t.Errorf("report: %+v", report)
	}
	data, err := os.ReadFile(IndexPath(out, 2025))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"plans": []`) {
		t.Errorf("index should carry an empty plan list: %s", data)
	}
}
