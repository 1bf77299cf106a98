// Package discovery locates a Summary of Benefits document for every plan in
// the county artifacts of a year and records the verified URLs.
package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"planscape/ingest"
	"planscape/models"
	"planscape/storage"
	"planscape/utils"
)

// SourcesPath is the discovered source table for year.
func SourcesPath(outDir string, year int) string {
	return filepath.Join(ingest.YearDir(outDir, year), "sources.csv")
}

// UnresolvedPath lists plans discovery could not place.
func UnresolvedPath(outDir string, year int) string {
	return filepath.Join(ingest.YearDir(outDir, year), "unresolved.json")
}

// Options configures a discovery run.
type Options struct {
	OutputDir   string
	Concurrency int
	RateLimitMs int
}

// Stats summarizes one year.
type Stats struct {
	Plans      int
	Resolved   int
	Unresolved int
	Disabled   bool
}

// Engine runs the discovery stage.
type Engine struct {
	opts     Options
	resolver *Resolver
	writer   storage.ArtifactWriter
	logger   *utils.Logger
}

// New creates an Engine. A nil resolver disables discovery: Run then writes
// empty but valid outputs.
func New(opts Options, resolver *Resolver, writer storage.ArtifactWriter, logger *utils.Logger) *Engine {
	return &Engine{opts: opts, resolver: resolver, writer: writer, logger: logger}
}

// Run resolves every distinct plan of year and writes the source table and
// unresolved list. Only output and input-listing failures are returned.
func (e *Engine) Run(ctx context.Context, year int) (*Stats, error) {
	plans, err := CollectDistinctPlans(ingest.CountiesDir(e.opts.OutputDir, year))
	if err != nil {
		return nil, err
	}
	stats := &Stats{Plans: len(plans)}

	if e.resolver == nil {
		e.logger.Warn("[discovery] %d: no search credential, writing empty source table", year)
		stats.Disabled = true
		return stats, e.write(year, nil, []models.PlanDescriptor{})
	}

	e.logger.Info("[discovery] %d: resolving %d plans (%d workers)", year, len(plans), e.opts.Concurrency)

	urls := make([]string, len(plans))
	pool := utils.NewWorkerPool(e.opts.Concurrency, e.opts.RateLimitMs)
	pool.ForEach(ctx, len(plans), func(i int) {
		if u, ok := e.resolver.ResolveOne(ctx, plans[i]); ok {
			urls[i] = u
			e.logger.Debug("[discovery] %s -> %s", plans[i].CMSPlanKey, u)
		}
	})

	var sources []models.SourceRecord
	unresolved := []models.PlanDescriptor{}
	for i, p := range plans {
		if urls[i] == "" {
			unresolved = append(unresolved, p)
			continue
		}
		sources = append(sources, models.SourceRecord{
			CMSPlanKey:    p.CMSPlanKey,
			OrgName:       p.OrgName,
			MarketingName: p.MarketingName,
			URL:           urls[i],
		})
	}
	stats.Resolved, stats.Unresolved = len(sources), len(unresolved)

	if err := e.write(year, sources, unresolved); err != nil {
		return nil, err
	}
	e.logger.Info("[discovery] %d: resolved %d / missing %d", year, stats.Resolved, stats.Unresolved)
	return stats, nil
}

func (e *Engine) write(year int, sources []models.SourceRecord, unresolved []models.PlanDescriptor) error {
	sort.Slice(unresolved, func(i, j int) bool { return unresolved[i].CMSPlanKey < unresolved[j].CMSPlanKey })

	if err := storage.WriteSourceTable(SourcesPath(e.opts.OutputDir, year), sources); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	if err := e.writer.Write(UnresolvedPath(e.opts.OutputDir, year), unresolved); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	return nil
}
