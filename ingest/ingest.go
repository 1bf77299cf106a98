// Package ingest loads the landscape table from its archive, resolves the
// county of every row and emits per-county plan artifacts.
package ingest

import (
	"context"
	"fmt"
	"net/http"

	"planscape/geo"
	"planscape/models"
	"planscape/storage"
	"planscape/utils"
)

// Options configures one ingestion run.
type Options struct {
	Archive      string
	GazetteerDir string
	Crosswalk    string
	OutputDir    string
	// Years restricts output; empty keeps every year present in the table.
	Years []int
}

// Stats is the row accounting reported at the end of a run.
type Stats struct {
	Source     string
	Read       int
	Kept       int
	Dropped    map[DropReason]int
	Capped     int
	Duplicates int
	Years      map[int]EmitStats
}

// Engine runs the ingestion stage.
type Engine struct {
	opts   Options
	writer storage.ArtifactWriter
	client *http.Client
	retry  *utils.RetryConfig
	logger *utils.Logger
}

// New creates an ingestion Engine.
func New(opts Options, writer storage.ArtifactWriter, client *http.Client, retry *utils.RetryConfig, logger *utils.Logger) *Engine {
	return &Engine{opts: opts, writer: writer, client: client, retry: retry, logger: logger}
}

// Run executes the stage. Every returned error is fatal.
func (e *Engine) Run(ctx context.Context) (*Stats, error) {
	gaz, err := geo.LoadGazetteer(e.opts.GazetteerDir)
	if err != nil {
		return nil, err
	}
	e.logger.Info("[geo] Loaded gazetteer: %d counties", gaz.Len())

	zips, err := geo.BuildZipIndex(e.opts.Crosswalk)
	if err != nil {
		return nil, err
	}
	e.logger.Info("[geo] Built ZIP index: %d ZCTAs", len(zips))

	archive, err := OpenArchive(ctx, e.opts.Archive, e.client, e.retry)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	table, err := DetectTable(archive.File)
	if err != nil {
		return nil, err
	}
	e.logger.Info("[ingest] Using table %s: %d rows", table.Source, len(table.Rows))

	stats, agg := e.normalizeAll(table, gaz)

	if err := EmitZipIndex(e.writer, e.opts.OutputDir, zips); err != nil {
		return nil, err
	}
	for _, year := range agg.Years() {
		yb := agg.Year(year)
		es, err := Emit(e.writer, e.opts.OutputDir, yb)
		if err != nil {
			return nil, err
		}
		stats.Years[year] = es
		e.logger.Info("[ingest] %d: wrote %d county artifacts, %d plan listings", year, es.Counties, es.Plans)
	}

	e.logger.Info("[ingest] Rows read %d, kept %d, dropped %d (year %d, identity %d, prefix %d, county %d), capped %d, duplicate %d",
		stats.Read, stats.Kept, stats.Read-stats.Kept,
		stats.Dropped[DropYear], stats.Dropped[DropIdentity], stats.Dropped[DropPrefix], stats.Dropped[DropCounty],
		stats.Capped, stats.Duplicates)
	return stats, nil
}

func (e *Engine) normalizeAll(table *Table, resolver CountyResolver) (*Stats, *Aggregation) {
	wanted := make(map[int]bool, len(e.opts.Years))
	for _, y := range e.opts.Years {
		wanted[y] = true
	}

	stats := &Stats{
		Source:  table.Source,
		Dropped: make(map[DropReason]int),
		Years:   make(map[int]EmitStats),
	}
	agg := NewAggregation()
	for _, row := range table.Rows {
		stats.Read++
		rec, reason := NormalizeRow(row, table.Fields, resolver)
		if reason == DropNone && len(wanted) > 0 && !wanted[rec.Year] {
			reason = DropYear
		}
		if reason != DropNone {
			stats.Dropped[reason]++
			continue
		}
		stats.Kept++
		agg.Add(rec)
	}
	stats.Capped = agg.Capped
	stats.Duplicates = agg.Duplicates
	return stats, agg
}

// LoadCountyArtifact reads one emitted county document.
func LoadCountyArtifact(path string) (*models.CountyArtifact, error) {
	var art models.CountyArtifact
	if err := storage.ReadJSON(path, &art); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	return &art, nil
}
