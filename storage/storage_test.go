package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"planscape/models"
)

func TestWriteSourceTableSortsByKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2025", "sources.csv")
	err := WriteSourceTable(path, []models.SourceRecord{
		{CMSPlanKey: "2025-H9999-001-000", OrgName: "Zeta", URL: "https://z.example/sb.pdf"},
		{CMSPlanKey: "2025-H0001-002-000", OrgName: "Alpha, Inc.", MarketingName: "Alpha Gold", URL: "https://a.example/sb.pdf"},
	})
	if err != nil {
		t.Fatalf("WriteSourceTable: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "cmsPlanKey,orgName,marketingName,url" {
		t.Errorf("header: got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2025-H0001-002-000,") {
		t.Errorf("first row should be the smallest key, got %q", lines[1])
	}

	back, err := ReadSourceTable(path)
	if err != nil {
		t.Fatalf("ReadSourceTable: %v", err)
	}
	if len(back) != 2 || back[0].OrgName != "Alpha, Inc." {
		t.Errorf("read back: got %+v", back)
	}
}

func TestReadSourceTableMissingFile(t *testing.T) {
	recs, err := ReadSourceTable(filepath.Join(t.TempDir(), "none.csv"))
	if err != nil || recs != nil {
		t.Errorf("ReadSourceTable(missing) = %v, %v; want nil, nil", recs, err)
	}
}

func TestReadSourceTableSkipsIncompleteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.csv")
	content := "cmsPlanKey,orgName,marketingName,url\n" +
		"2025-H1-001-000,Acme,,https://acme.example/sb.pdf\n" +
		",Acme,,https://acme.example/other.pdf\n" +
		"2025-H1-002-000,Acme,,\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	recs, err := ReadSourceTable(path)
	if err != nil {
		t.Fatalf("ReadSourceTable: %v", err)
	}
	if len(recs) != 1 || recs[0].CMSPlanKey != "2025-H1-001-000" {
		t.Errorf("got %+v; want only the complete row", recs)
	}
}

func TestJSONWriterDoesNotEscapeURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b.json")
	w := NewJSONWriter()
	if err := w.Write(path, map[string]string{"url": "https://x.example/a?b=1&c=2"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "b=1&c=2") {
		t.Errorf("URL was escaped: %s", data)
	}
	if !strings.HasSuffix(string(data), "}\n") {
		t.Errorf("missing trailing newline: %q", data)
	}
}

func TestBuildBenefitUpsertPlaceholders(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	batch := []*models.BenefitRecord{
		{CMSPlanKey: "2025-H1-001-000", SourcePDFURL: "https://a.example/1.pdf", ExtractedAt: now},
		{CMSPlanKey: "2025-H1-002-000", SourcePDFURL: "https://a.example/2.pdf", ExtractedAt: now},
	}
	query, args, err := buildBenefitUpsert(2025, "run-1", batch)
	if err != nil {
		t.Fatalf("buildBenefitUpsert: %v", err)
	}
	if !strings.Contains(query, "($7,$8,$9,$10,$11,$12)") {
		t.Errorf("second row placeholders missing from query:\n%s", query)
	}
	if len(args) != 12 {
		t.Errorf("args: got %d, want 12", len(args))
	}
	if args[6] != "2025-H1-002-000" {
		t.Errorf("args[6] = %v; want second plan key", args[6])
	}
}
