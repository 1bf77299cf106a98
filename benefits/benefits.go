// Package benefits runs the extraction stage: every source document of a
// year is fetched, read and reduced to a BenefitRecord.
package benefits

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"planscape/discovery"
	"planscape/document"
	"planscape/models"
	"planscape/services"
	"planscape/storage"
	"planscape/utils"
)

var errLandingPage = errors.New("benefits: source is an HTML page, not a PDF")

// Dir is the benefits output root for year.
func Dir(outDir string, year int) string {
	return filepath.Join(outDir, "benefits", strconv.Itoa(year))
}

// PlansDir holds one artifact per extracted plan.
func PlansDir(outDir string, year int) string {
	return filepath.Join(Dir(outDir, year), "plans")
}

// PlanPath is the artifact of one plan.
func PlanPath(outDir string, year int, key string) string {
	return filepath.Join(PlansDir(outDir, year), key+".json")
}

// IndexPath is the plan index of year.
func IndexPath(outDir string, year int) string {
	return filepath.Join(Dir(outDir, year), "index.json")
}

// CoveragePath is the coverage report of year.
func CoveragePath(outDir string, year int) string {
	return filepath.Join(Dir(outDir, year), "coverage.json")
}

// Options configures an extraction run.
type Options struct {
	ManualSourcesDir string
	OutputDir        string
	Concurrency      int
	PageCap          int
}

// Runner runs the extraction stage.
type Runner struct {
	opts      Options
	fetcher   discovery.DocumentFetcher
	extractor document.TextExtractor
	writer    storage.ArtifactWriter
	insights  *services.InsightService
	logger    *utils.Logger

	// Mirror, when set, receives every extracted record after the files are
	// written.
	Mirror storage.BenefitMirror

	now   func() time.Time
	newID func() string
}

// New creates a Runner.
func New(opts Options, fetcher discovery.DocumentFetcher, extractor document.TextExtractor, writer storage.ArtifactWriter, logger *utils.Logger) *Runner {
	return &Runner{
		opts:      opts,
		fetcher:   fetcher,
		extractor: extractor,
		writer:    writer,
		insights:  services.NewInsightService(logger),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Run extracts every source of year. A plan that cannot be fetched or read
// is logged and left out; only output failures are returned.
func (r *Runner) Run(ctx context.Context, year int) (*models.CoverageReport, error) {
	sources, err := LoadSources(r.opts.ManualSourcesDir, r.opts.OutputDir, year)
	if err != nil {
		return nil, err
	}
	if err := r.writer.ResetDir(PlansDir(r.opts.OutputDir, year)); err != nil {
		return nil, fmt.Errorf("benefits: %w", err)
	}
	r.logger.Info("[benefits] %d: extracting %d sources (%d workers)", year, len(sources), r.opts.Concurrency)

	limit := r.opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	results := make([]*models.BenefitRecord, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range sources {
		i := i
		g.Go(func() error {
			rec, err := r.process(gctx, year, sources[i])
			if err != nil {
				r.logger.Warn("[benefits] %s: %v", sources[i].CMSPlanKey, err)
				return nil
			}
			if err := r.writer.Write(PlanPath(r.opts.OutputDir, year, rec.CMSPlanKey), rec); err != nil {
				return fmt.Errorf("benefits: %w", err)
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []*models.BenefitRecord
	for _, rec := range results {
		if rec != nil {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CMSPlanKey < records[j].CMSPlanKey })

	runID := r.newID()
	index := models.BenefitIndex{
		Year:        year,
		RunID:       runID,
		GeneratedAt: r.now(),
		Plans:       make([]models.BenefitIndexEntry, 0, len(records)),
	}
	for _, rec := range records {
		index.Plans = append(index.Plans, models.BenefitIndexEntry{
			CMSPlanKey:   rec.CMSPlanKey,
			SourcePDFURL: rec.SourcePDFURL,
			ExtractedAt:  rec.ExtractedAt,
		})
	}
	if err := r.writer.Write(IndexPath(r.opts.OutputDir, year), index); err != nil {
		return nil, fmt.Errorf("benefits: %w", err)
	}

	report := r.insights.Generate(year, len(sources), records)
	if err := r.writer.Write(CoveragePath(r.opts.OutputDir, year), report); err != nil {
		return nil, fmt.Errorf("benefits: %w", err)
	}

	if r.Mirror != nil && len(records) > 0 {
		if err := r.Mirror.Write(year, runID, records); err != nil {
			r.logger.Error("[storage] Postgres mirror failed: %v", err)
		} else {
			r.logger.Info("[storage] Mirrored %d benefit records to Postgres", len(records))
		}
	}

	r.logger.Info("[benefits] %d: extracted %d / failed %d", year, report.Extracted, report.Failed)
	return report, nil
}

func (r *Runner) process(ctx context.Context, year int, src models.SourceRecord) (*models.BenefitRecord, error) {
	doc, err := r.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	if doc.IsHTML {
		return nil, errLandingPage
	}
	text, err := r.extractor.ExtractText(doc.Body, r.opts.PageCap)
	if err != nil {
		return nil, err
	}
	x := services.Extract(text)

	return &models.BenefitRecord{
		CMSPlanKey:   src.CMSPlanKey,
		SourcePDFURL: src.URL,
		ExtractedAt:  r.now(),
		PlanMeta:     planMeta(year, src, x.Lines),
		Medical:      x.Medical,
		Nutrition:    x.Nutrition,
		Supplemental: x.Supplemental,
	}, nil
}

func planMeta(year int, src models.SourceRecord, lines int) models.PlanMeta {
	meta := models.PlanMeta{Year: year, LineCount: lines}
	if y, contract, plan, seg, ok := models.ParsePlanKey(src.CMSPlanKey); ok {
		meta.Year, meta.ContractID, meta.PlanID, meta.SegmentID = y, contract, plan, seg
	}
	if src.OrgName != "" {
		meta.OrgName = &src.OrgName
	}
	if src.MarketingName != "" {
		meta.MarketingName = &src.MarketingName
	}
	return meta
}
